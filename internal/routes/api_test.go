package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/pinpointlabs/pinpoint-backend/internal/config"
	"github.com/pinpointlabs/pinpoint-backend/internal/handlers"
	"github.com/pinpointlabs/pinpoint-backend/internal/middleware"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
	"github.com/pinpointlabs/pinpoint-backend/internal/notify"
	"github.com/pinpointlabs/pinpoint-backend/internal/routes"
	"github.com/pinpointlabs/pinpoint-backend/internal/store"
	"github.com/pinpointlabs/pinpoint-backend/internal/upload"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

type testEnv struct {
	app     *fiber.App
	store   *store.MemoryStore
	session string
	user    *models.User
}

func newTestEnv(t *testing.T, cfg *config.Config, sinks ...notify.Sink) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "test-secret"
	}
	if cfg.SessionExpiry == 0 {
		cfg.SessionExpiry = time.Hour
	}
	if cfg.NotifyTimeout == 0 {
		cfg.NotifyTimeout = time.Second
	}

	st := store.NewMemoryStore()
	uploader, err := upload.New(context.Background(), "")
	if err != nil {
		t.Fatalf("upload.New: %v", err)
	}
	dispatcher := notify.NewDispatcher(sinks...)

	app := fiber.New()
	app.Use(middleware.AccessGate(cfg))
	routes.Setup(app, routes.Handlers{
		Auth:          handlers.NewAuthHandler(st, cfg),
		Health:        handlers.NewHealthHandler(st),
		Projects:      handlers.NewProjectHandler(st),
		Feedbacks:     handlers.NewFeedbackHandler(st, dispatcher),
		Comments:      handlers.NewCommentHandler(st, dispatcher),
		Clients:       handlers.NewClientHandler(st),
		Users:         handlers.NewUserHandler(st),
		Notifications: handlers.NewNotificationHandler(st),
		Public:        handlers.NewPublicHandler(st, dispatcher),
		Upload:        handlers.NewUploadHandler(st, uploader),
		Integrations:  handlers.NewIntegrationHandler(st, sinks...),
	})

	env := &testEnv{app: app, store: st}
	env.user = env.login(t, "tester@example.com", "Tester")
	return env
}

// login seeds a user and signs in, capturing the session cookie.
func (e *testEnv) login(t *testing.T, email, name string) *models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	u := &models.User{Email: email, Name: name, Role: models.RoleTeam, PasswordHash: string(hash)}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	resp := e.do(t, http.MethodPost, "/api/auth/login",
		fiber.Map{"email": email, "password": "hunter22"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			e.session = c.Value
		}
	}
	if e.session == "" {
		t.Fatal("login did not set session cookie")
	}
	return u
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: e.session})
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return out
}

func (e *testEnv) createProject(t *testing.T, name string) (id, token string) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/projects",
		fiber.Map{"name": name, "siteUrl": "https://example.com"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project status = %d", resp.StatusCode)
	}
	body := decode(t, resp)
	return body["projectId"].(string), body["publicAccessToken"].(string)
}

func TestGateBlocksUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	env.session = ""

	resp := env.do(t, http.MethodGet, "/api/projects", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated API call status = %d, want 401", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("page redirect status = %d, want 302", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.Contains(loc, "/login?callbackUrl=%2Fdashboard") {
		t.Fatalf("redirect location %q missing callback", loc)
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/api/auth/me", nil)
	body := decode(t, resp)
	user := body["user"].(map[string]any)
	if user["email"] != "tester@example.com" {
		t.Fatalf("me email = %v", user["email"])
	}

	badLogin := env.do(t, http.MethodPost, "/api/auth/login",
		fiber.Map{"email": "tester@example.com", "password": "wrong"})
	if badLogin.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", badLogin.StatusCode)
	}

	missing := env.do(t, http.MethodPost, "/api/auth/login", fiber.Map{"email": "x@x.com"})
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing password status = %d", missing.StatusCode)
	}
	if msg := decode(t, missing)["message"].(string); !strings.Contains(msg, "required fields") {
		t.Fatalf("validation message %q", msg)
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	// Missing both required fields, named in the error.
	resp := env.do(t, http.MethodPost, "/api/projects", fiber.Map{"description": "no name"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("create without name status = %d", resp.StatusCode)
	}
	msg := decode(t, resp)["message"].(string)
	if !strings.Contains(msg, "required fields") || !strings.Contains(msg, "name") || !strings.Contains(msg, "siteUrl") {
		t.Fatalf("validation message %q", msg)
	}

	id, token := env.createProject(t, "Marketing site")
	if !hex64.MatchString(token) {
		t.Fatalf("publicAccessToken %q is not 64 hex chars", token)
	}

	get := decode(t, env.do(t, http.MethodGet, "/api/projects/"+id, nil))
	if get["mode"] != "demo" {
		t.Fatalf("demo marker missing: %v", get["mode"])
	}
	project := get["project"].(map[string]any)
	if project["name"] != "Marketing site" || project["status"] != "active" {
		t.Fatalf("project = %v", project)
	}

	list := decode(t, env.do(t, http.MethodGet, "/api/projects?status=active", nil))
	if list["total"].(float64) != 1 {
		t.Fatalf("list total = %v", list["total"])
	}

	patch := env.do(t, http.MethodPatch, "/api/projects/"+id, fiber.Map{"status": "nonsense"})
	if patch.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid status patch = %d", patch.StatusCode)
	}
	patch = env.do(t, http.MethodPatch, "/api/projects/"+id, fiber.Map{"status": "paused"})
	if patch.StatusCode != http.StatusOK {
		t.Fatalf("valid patch = %d", patch.StatusCode)
	}

	missing := env.do(t, http.MethodGet, "/api/projects/unknown-id", nil)
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown project status = %d", missing.StatusCode)
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	env := newTestEnv(t, nil)
	id, _ := env.createProject(t, "Doomed")

	var feedbackIDs []string
	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/feedbacks",
			fiber.Map{"projectId": id, "title": fmt.Sprintf("issue %d", i)})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create feedback status = %d", resp.StatusCode)
		}
		feedbackIDs = append(feedbackIDs, decode(t, resp)["feedbackId"].(string))
	}

	del := decode(t, env.do(t, http.MethodDelete, "/api/projects/"+id, nil))
	if del["deletedFeedbacks"].(float64) != 3 {
		t.Fatalf("deletedFeedbacks = %v", del["deletedFeedbacks"])
	}

	if resp := env.do(t, http.MethodGet, "/api/projects/"+id, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("project still reachable: %d", resp.StatusCode)
	}
	for _, fid := range feedbackIDs {
		if resp := env.do(t, http.MethodGet, "/api/feedbacks/"+fid, nil); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("feedback %s still reachable: %d", fid, resp.StatusCode)
		}
	}
}

func TestFeedbackNumberingAndStatusHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	id, _ := env.createProject(t, "Numbers")

	for want := 1; want <= 3; want++ {
		resp := decode(t, env.do(t, http.MethodPost, "/api/feedbacks",
			fiber.Map{"projectId": id, "title": "pin"}))
		if resp["number"].(float64) != float64(want) {
			t.Fatalf("number = %v, want %d", resp["number"], want)
		}
	}

	created := decode(t, env.do(t, http.MethodPost, "/api/feedbacks", fiber.Map{
		"projectId": id,
		"title":     "misaligned logo",
		"audioUrl":  "https://uploads.example.com/voice-note.ogg",
		"clickPosition": fiber.Map{
			"x": 45.2, "y": 12.8, "pageUrl": "https://example.com/about",
		},
	}))
	fid := created["feedbackId"].(string)

	patch := env.do(t, http.MethodPatch, "/api/feedbacks/"+fid,
		fiber.Map{"status": "in_progress", "statusNote": "on it", "changedBy": "tester"})
	if patch.StatusCode != http.StatusOK {
		t.Fatalf("status patch = %d", patch.StatusCode)
	}

	got := decode(t, env.do(t, http.MethodGet, "/api/feedbacks/"+fid, nil))
	fb := got["feedback"].(map[string]any)
	if fb["status"] != "in_progress" {
		t.Fatalf("status = %v", fb["status"])
	}
	history := fb["statusHistory"].([]any)
	if len(history) != 1 {
		t.Fatalf("history entries = %d", len(history))
	}
	entry := history[0].(map[string]any)
	if entry["fromStatus"] != "new" || entry["toStatus"] != "in_progress" || entry["note"] != "on it" {
		t.Fatalf("history entry = %v", entry)
	}
	click := fb["clickPosition"].(map[string]any)
	if click["x"].(float64) != 45.2 {
		t.Fatalf("clickPosition = %v", click)
	}
	if fb["audioUrl"] != "https://uploads.example.com/voice-note.ogg" {
		t.Fatalf("audioUrl = %v", fb["audioUrl"])
	}
}

func TestCommentsExtractMentionsAndNotify(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.login(t, "alice@example.com", "alice")
	id, _ := env.createProject(t, "Mentions")
	fid := decode(t, env.do(t, http.MethodPost, "/api/feedbacks",
		fiber.Map{"projectId": id, "title": "typo"}))["feedbackId"].(string)

	created := decode(t, env.do(t, http.MethodPost, "/api/comments", fiber.Map{
		"feedbackId": fid,
		"content":    "cc @alice and @bob please review",
	}))
	mentions := created["mentions"].([]any)
	if len(mentions) != 2 || mentions[0] != "alice" || mentions[1] != "bob" {
		t.Fatalf("mentions = %v", mentions)
	}
	commentID := created["commentId"].(string)

	got := decode(t, env.do(t, http.MethodGet, "/api/comments/"+commentID, nil))
	comment := got["comment"].(map[string]any)
	if comment["content"] != "cc @alice and @bob please review" {
		t.Fatalf("comment by id = %v", comment)
	}
	if resp := env.do(t, http.MethodGet, "/api/comments/missing-id", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown comment status = %d, want 404", resp.StatusCode)
	}

	list := decode(t, env.do(t, http.MethodGet, "/api/comments?feedbackId="+fid, nil))
	if list["total"].(float64) != 1 {
		t.Fatalf("comment total = %v", list["total"])
	}

	notifs := decode(t, env.do(t, http.MethodGet, "/api/notifications?userId="+alice.ID, nil))
	items := notifs["notifications"].([]any)
	if len(items) != 1 {
		t.Fatalf("alice notifications = %d, want 1", len(items))
	}
	if items[0].(map[string]any)["type"] != "mention" {
		t.Fatalf("notification = %v", items[0])
	}
}

func TestPublicReviewFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	id, token := env.createProject(t, "Public site")

	anon := &testEnv{app: env.app, store: env.store}

	// Public access is off by default.
	if resp := anon.do(t, http.MethodGet, "/api/public/projects/"+token, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("disabled public project status = %d, want 404", resp.StatusCode)
	}

	env.do(t, http.MethodPatch, "/api/projects/"+id, fiber.Map{"publicAccessEnabled": true})

	got := decode(t, anon.do(t, http.MethodGet, "/api/public/projects/"+token, nil))
	project := got["project"].(map[string]any)
	if project["name"] != "Public site" {
		t.Fatalf("public project = %v", project)
	}
	if _, leaked := project["publicAccessToken"]; leaked {
		t.Fatal("public view leaks the access token")
	}

	created := decode(t, anon.do(t, http.MethodPost, "/api/public/projects/"+token+"/feedbacks",
		fiber.Map{"title": "button overlaps text"}))
	if created["number"].(float64) != 1 {
		t.Fatalf("public feedback number = %v", created["number"])
	}
	fid := created["feedbackId"].(string)

	comment := anon.do(t, http.MethodPost,
		"/api/public/projects/"+token+"/feedbacks/"+fid+"/comments",
		fiber.Map{"content": "still happening on mobile"})
	if comment.StatusCode != http.StatusCreated {
		t.Fatalf("public comment status = %d", comment.StatusCode)
	}

	if resp := anon.do(t, http.MethodGet, "/api/public/projects/wrong-token/feedbacks", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("wrong token status = %d", resp.StatusCode)
	}
}

func TestPublicCommentFansOutNotifications(t *testing.T) {
	env := newTestEnv(t, nil)

	mara := &models.User{Email: "mara@example.com", Name: "mara", Role: models.RoleTeam}
	if err := env.store.CreateUser(context.Background(), mara); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	id, token := env.createProject(t, "Client preview")
	env.do(t, http.MethodPatch, "/api/projects/"+id, fiber.Map{"publicAccessEnabled": true})
	fid := decode(t, env.do(t, http.MethodPost, "/api/feedbacks", fiber.Map{
		"projectId": id,
		"title":     "footer broken",
		"createdBy": env.user.ID,
	}))["feedbackId"].(string)

	anon := &testEnv{app: env.app, store: env.store}
	resp := anon.do(t, http.MethodPost,
		"/api/public/projects/"+token+"/feedbacks/"+fid+"/comments",
		fiber.Map{"content": "still broken, @mara can you confirm?"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("public comment status = %d", resp.StatusCode)
	}

	maraNotifs := decode(t, env.do(t, http.MethodGet, "/api/notifications?userId="+mara.ID, nil))
	items := maraNotifs["notifications"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["type"] != "mention" {
		t.Fatalf("mentioned user notifications = %v", items)
	}

	authorNotifs := decode(t, env.do(t, http.MethodGet, "/api/notifications?userId="+env.user.ID, nil))
	types := map[string]bool{}
	for _, it := range authorNotifs["notifications"].([]any) {
		types[it.(map[string]any)["type"].(string)] = true
	}
	if !types["new_comment"] {
		t.Fatalf("feedback author notification types = %v, want new_comment", types)
	}
}

func TestClientEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	created := decode(t, env.do(t, http.MethodPost, "/api/clients",
		fiber.Map{"name": "Acme", "email": "acme@example.com"}))
	token := created["accessToken"].(string)
	if !hex64.MatchString(token) {
		t.Fatalf("accessToken %q is not 64 hex chars", token)
	}
	clientID := created["clientId"].(string)

	dup := env.do(t, http.MethodPost, "/api/clients",
		fiber.Map{"name": "Acme again", "email": "acme@example.com"})
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email status = %d, want 409", dup.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/projects",
		fiber.Map{"name": "Acme site", "siteUrl": "https://acme.example.com", "clientId": clientID})
	projectID := decode(t, resp)["projectId"].(string)

	blocked := env.do(t, http.MethodDelete, "/api/clients/"+clientID, nil)
	if blocked.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete referenced client status = %d, want 400", blocked.StatusCode)
	}

	env.do(t, http.MethodDelete, "/api/projects/"+projectID, nil)
	if resp := env.do(t, http.MethodDelete, "/api/clients/"+clientID, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete after project removal status = %d", resp.StatusCode)
	}
}

func TestIntegrationEndpoints(t *testing.T) {
	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(notify.SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	webhook := notify.NewWebhookSink(srv.URL, "shh", time.Second)
	slack := notify.NewSlackSink("", time.Second)
	env := newTestEnv(t, nil, slack, webhook)

	status := decode(t, env.do(t, http.MethodGet, "/api/integrations/webhook", nil))
	if status["configured"] != true {
		t.Fatalf("webhook configured = %v", status["configured"])
	}

	sent := decode(t, env.do(t, http.MethodPost, "/api/integrations/webhook", nil))
	if sent["delivered"] != true {
		t.Fatalf("delivered = %v", sent["delivered"])
	}
	if want := notify.Sign(gotBody, "shh"); gotSig != want {
		t.Fatalf("signature %s != recomputed %s", gotSig, want)
	}

	if resp := env.do(t, http.MethodPost, "/api/integrations/slack", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unconfigured slack test-send status = %d, want 400", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/integrations/teams", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown integration status = %d, want 404", resp.StatusCode)
	}
}

func TestUploadReturnsDataURLInDemoMode(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartFile(t, "pin.png", "image/png", []byte("\x89PNG fake image"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: env.session})
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	url := decode(t, resp)["url"].(string)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("demo upload url = %q", url)
	}

	body, contentType = multipartFile(t, "tool.exe", "application/octet-stream", []byte("MZ"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: env.session})
	resp, err = env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("exe upload status = %d, want 400", resp.StatusCode)
	}
}

func multipartFile(t *testing.T, filename, mimeType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}
