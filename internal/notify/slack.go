package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackSink posts a short text summary to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlackSink(webhookURL string, timeout time.Duration) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) IsConfigured() bool { return s.webhookURL != "" }

func (s *SlackSink) Send(ev Event) bool {
	body, err := json.Marshal(map[string]string{"text": slackText(ev)})
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

func slackText(ev Event) string {
	switch ev.Event {
	case "feedback.created":
		return fmt.Sprintf(":speech_balloon: New feedback #%v: *%v*", ev.Data["number"], ev.Data["title"])
	case "feedback.status_changed":
		return fmt.Sprintf(":arrows_counterclockwise: Feedback *%v* moved %v → %v",
			ev.Data["title"], ev.Data["fromStatus"], ev.Data["toStatus"])
	case "comment.created":
		return fmt.Sprintf(":memo: New comment on feedback *%v*", ev.Data["feedbackTitle"])
	default:
		return fmt.Sprintf("Event: %s", ev.Event)
	}
}
