package models

import (
	"reflect"
	"testing"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		explicit []string
		want     []string
	}{
		{
			name:    "tokens from content",
			content: "cc @alice and @bob please review",
			want:    []string{"alice", "bob"},
		},
		{
			name:     "union with explicit mentions",
			content:  "ping @alice",
			explicit: []string{"carol"},
			want:     []string{"alice", "carol"},
		},
		{
			name:     "duplicates collapse",
			content:  "@alice @alice again",
			explicit: []string{"alice", "@alice"},
			want:     []string{"alice"},
		},
		{
			name:    "no mentions",
			content: "plain text without tokens",
			want:    nil,
		},
		{
			name:    "email is not a mention of the domain only",
			content: "reach me at a@example.com",
			want:    []string{"example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMentions(tt.content, tt.explicit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractMentions(%q, %v) = %v, want %v", tt.content, tt.explicit, got, tt.want)
			}
		})
	}
}
