package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookSinkSignsPayload(t *testing.T) {
	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "topsecret", time.Second)
	ev := NewEvent("feedback.created", map[string]any{"number": 1, "title": "t"}, &Metadata{ProjectID: "p1"})
	if !sink.Send(ev) {
		t.Fatal("Send returned false for accepting endpoint")
	}

	if gotSig == "" {
		t.Fatal("no signature header sent")
	}
	if want := Sign(gotBody, "topsecret"); gotSig != want {
		t.Fatalf("signature %s does not match recomputation %s", gotSig, want)
	}
}

func TestWebhookSinkOmitsSignatureWithoutSecret(t *testing.T) {
	var sigPresent bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sigPresent = r.Header[SignatureHeader]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "", time.Second)
	if !sink.Send(NewEvent("integration.test", nil, nil)) {
		t.Fatal("Send returned false")
	}
	if sigPresent {
		t.Fatal("signature header sent without a configured secret")
	}
}

func TestWebhookSinkReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "", time.Second)
	if sink.Send(NewEvent("integration.test", nil, nil)) {
		t.Fatal("Send returned true for rejecting endpoint")
	}
}

func TestSinkConfiguration(t *testing.T) {
	if NewWebhookSink("", "", time.Second).IsConfigured() {
		t.Fatal("webhook sink without URL reports configured")
	}
	if NewSlackSink("", time.Second).IsConfigured() {
		t.Fatal("slack sink without URL reports configured")
	}
	if !NewSlackSink("https://hooks.slack.invalid/x", time.Second).IsConfigured() {
		t.Fatal("slack sink with URL reports unconfigured")
	}
}
