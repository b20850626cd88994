package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackSinkPostsText(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewSlackSink(srv.URL, time.Second)
	ev := NewEvent("feedback.created", map[string]any{"number": 7, "title": "Broken footer"}, nil)
	if !sink.Send(ev) {
		t.Fatal("Send returned false")
	}
	if !strings.Contains(payload["text"], "#7") || !strings.Contains(payload["text"], "Broken footer") {
		t.Fatalf("slack text %q missing feedback details", payload["text"])
	}
}
