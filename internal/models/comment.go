package models

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Comment is one entry of a feedback's discussion thread.
type Comment struct {
	ID          string     `json:"id" firestore:"-"`
	FeedbackID  string     `json:"feedbackId" firestore:"feedbackId"`
	Content     string     `json:"content" firestore:"content"`
	Attachments []string   `json:"attachments,omitempty" firestore:"attachments,omitempty"`
	Mentions    []string   `json:"mentions,omitempty" firestore:"mentions,omitempty"`
	AuthorID    string     `json:"authorId,omitempty" firestore:"authorId,omitempty"`
	AuthorRole  Role       `json:"authorRole,omitempty" firestore:"authorRole,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	EditedAt    *time.Time `json:"editedAt,omitempty" firestore:"editedAt,omitempty"`
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the union of the explicitly supplied mentions and
// every @name token found in content, deduplicated and sorted.
func ExtractMentions(content string, explicit []string) []string {
	seen := make(map[string]bool)
	for _, m := range explicit {
		m = strings.TrimPrefix(strings.TrimSpace(m), "@")
		if m != "" {
			seen[m] = true
		}
	}
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		seen[match[1]] = true
	}
	if len(seen) == 0 {
		return nil
	}
	mentions := make([]string, 0, len(seen))
	for m := range seen {
		mentions = append(mentions, m)
	}
	sort.Strings(mentions)
	return mentions
}
