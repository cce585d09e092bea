package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
	"github.com/Dinesh17-Dev/wellness-session-app/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testServer struct {
	handler http.Handler
	mr      *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := wellness.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("httpapi-secret")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true

	engine, err := wellness.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	h := NewHandler(engine, Options{Metrics: prometheus.NewExporter(engine).Handler()})
	return &testServer{handler: h, mr: mr}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var obj map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &obj)
	return rec, obj
}

func (s *testServer) token(t *testing.T, email, pw string) string {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + pw + `"}`
	if rec, _ := s.do(t, http.MethodPost, "/register", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	rec, obj := s.do(t, http.MethodPost, "/login", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	return obj["token"].(string)
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectError(t *testing.T, obj map[string]any, want string) {
	t.Helper()
	if obj["error"] != want {
		t.Fatalf("expected error %q, got %v", want, obj)
	}
}

func TestEndToEndScenario(t *testing.T) {
	s := newTestServer(t)

	rec, obj := s.do(t, http.MethodPost, "/register", "", `{"email":"a@x.com","password":"pw1"}`)
	expectStatus(t, rec, http.StatusCreated)
	if obj["message"] != wellness.MsgUserCreated || obj["ok"] != true {
		t.Fatalf("unexpected register body: %v", obj)
	}

	rec, obj = s.do(t, http.MethodPost, "/login", "", `{"email":"a@x.com","password":"pw1"}`)
	expectStatus(t, rec, http.StatusOK)
	token, _ := obj["token"].(string)
	if token == "" || obj["ok"] != true {
		t.Fatalf("unexpected login body: %v", obj)
	}

	rec, obj = s.do(t, http.MethodPost, "/my-sessions/save-draft", token, `{"title":"T1"}`)
	expectStatus(t, rec, http.StatusCreated)
	if obj["message"] != wellness.MsgDraftSaved {
		t.Fatalf("unexpected save body: %v", obj)
	}
	sess := obj["session"].(map[string]any)
	id, _ := sess["_id"].(string)
	if id == "" || sess["status"] != "draft" {
		t.Fatalf("unexpected session: %v", sess)
	}

	rec, obj = s.do(t, http.MethodPost, "/my-sessions/publish", token, `{"_id":"`+id+`"}`)
	expectStatus(t, rec, http.StatusOK)
	if obj["message"] != wellness.MsgSessionPublished {
		t.Fatalf("unexpected publish body: %v", obj)
	}
	if got := obj["session"].(map[string]any)["status"]; got != "published" {
		t.Fatalf("expected published, got %v", got)
	}

	rec, _ = s.do(t, http.MethodGet, "/sessions", "", "")
	expectStatus(t, rec, http.StatusOK)
	var published []wellness.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &published); err != nil {
		t.Fatalf("decode /sessions: %v", err)
	}
	if len(published) != 1 || published[0].ID != id {
		t.Fatalf("expected published session %s, got %+v", id, published)
	}

	otherToken := s.token(t, "b@x.com", "pw2")
	rec, obj = s.do(t, http.MethodPost, "/my-sessions/save-draft", otherToken, `{"title":"B1"}`)
	expectStatus(t, rec, http.StatusCreated)
	otherID := obj["session"].(map[string]any)["_id"].(string)

	rec, obj = s.do(t, http.MethodGet, "/my-sessions/"+otherID, token, "")
	expectStatus(t, rec, http.StatusNotFound)
	expectError(t, obj, wellness.MsgSessionAccessDenied)

	rec, _ = s.do(t, http.MethodGet, "/my-sessions/"+id, token, "")
	expectStatus(t, rec, http.StatusOK)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)

	rec, obj := s.do(t, http.MethodPost, "/register", "", `{"email":"a@x.com"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	expectError(t, obj, wellness.MsgCredentialsRequired)

	rec, obj = s.do(t, http.MethodPost, "/register", "", `{not json`)
	expectStatus(t, rec, http.StatusBadRequest)
	expectError(t, obj, wellness.MsgCredentialsRequired)

	s.token(t, "a@x.com", "pw1")
	rec, obj = s.do(t, http.MethodPost, "/register", "", `{"email":"a@x.com","password":"other"}`)
	expectStatus(t, rec, http.StatusConflict)
	expectError(t, obj, wellness.MsgUserExists)
}

func TestLoginErrorsCarryOKFalse(t *testing.T) {
	s := newTestServer(t)
	s.token(t, "a@x.com", "pw1")

	cases := []struct {
		body    string
		status  int
		message string
	}{
		{`{}`, http.StatusBadRequest, wellness.MsgLoginCredentialsRequired},
		{`{"email":"nobody@x.com","password":"pw1"}`, http.StatusUnauthorized, wellness.MsgInvalidCredentials},
		{`{"email":"a@x.com","password":"wrong"}`, http.StatusUnauthorized, wellness.MsgInvalidCredentials},
	}
	for _, tc := range cases {
		rec, obj := s.do(t, http.MethodPost, "/login", "", tc.body)
		expectStatus(t, rec, tc.status)
		expectError(t, obj, tc.message)
		if obj["ok"] != false {
			t.Fatalf("expected ok:false for %s, got %v", tc.body, obj)
		}
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path, token string }{
		{http.MethodGet, "/my-sessions", ""},
		{http.MethodGet, "/my-sessions/abc", "garbage"},
		{http.MethodPost, "/my-sessions/save-draft", ""},
		{http.MethodPost, "/my-sessions/publish", "not.a.jwt"},
	} {
		rec, obj := s.do(t, tc.method, tc.path, tc.token, `{"title":"x"}`)
		expectStatus(t, rec, http.StatusUnauthorized)
		expectError(t, obj, wellness.MsgInvalidToken)
	}
}

func TestSessionValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "a@x.com", "pw1")

	rec, obj := s.do(t, http.MethodPost, "/my-sessions/save-draft", token, `{"tags":["a"]}`)
	expectStatus(t, rec, http.StatusBadRequest)
	expectError(t, obj, wellness.MsgTitleRequired)

	rec, obj = s.do(t, http.MethodPost, "/my-sessions/save-draft", token, `{"_id":"missing","title":"x"}`)
	expectStatus(t, rec, http.StatusNotFound)
	expectError(t, obj, wellness.MsgSessionNotFound)

	rec, obj = s.do(t, http.MethodPost, "/my-sessions/publish", token, `{}`)
	expectStatus(t, rec, http.StatusBadRequest)
	expectError(t, obj, wellness.MsgSessionIDRequired)

	rec, obj = s.do(t, http.MethodPost, "/my-sessions/publish", token, `{"id":"missing"}`)
	expectStatus(t, rec, http.StatusNotFound)
	expectError(t, obj, wellness.MsgSessionAccessDenied)
}

func TestTokenForDeletedUserIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "a@x.com", "pw1")
	s.mr.FlushAll()

	rec, obj := s.do(t, http.MethodGet, "/my-sessions", token, "")
	expectStatus(t, rec, http.StatusUnauthorized)
	expectError(t, obj, wellness.MsgUserNotFound)
}

func TestListsAreNeverNull(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "a@x.com", "pw1")

	for _, tc := range []struct{ path, token string }{
		{"/sessions", ""},
		{"/my-sessions", token},
	} {
		rec, _ := s.do(t, http.MethodGet, tc.path, tc.token, "")
		expectStatus(t, rec, http.StatusOK)
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Fatalf("%s: expected [], got %s", tc.path, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(http.MethodOptions, "/my-sessions/save-draft", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", method)
		req.Header.Set("Access-Control-Request-Headers", "authorization, content-type, x-requested-with")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		expectStatus(t, rec, http.StatusNoContent)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected wildcard origin, got %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, method) {
			t.Fatalf("preflight for %s allowed methods %q", method, got)
		}
		allowed := strings.ToLower(strings.Join(rec.Header().Values("Access-Control-Allow-Headers"), ","))
		for _, h := range []string{"authorization", "content-type", "x-requested-with"} {
			if !strings.Contains(allowed, h) {
				t.Fatalf("preflight must allow %s, got %q", h, allowed)
			}
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("simple requests must carry the CORS origin header")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.token(t, "a@x.com", "pw1")

	rec, obj := s.do(t, http.MethodGet, "/healthz", "", "")
	expectStatus(t, rec, http.StatusOK)
	if obj["ok"] != true {
		t.Fatalf("unexpected health body: %v", obj)
	}

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "wellness_register_success_total 1") {
		t.Fatalf("metrics missing register counter:\n%s", rec.Body.String())
	}

	s.mr.Close()
	rec, obj = s.do(t, http.MethodGet, "/healthz", "", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if obj["ok"] != false {
		t.Fatalf("unexpected health body: %v", obj)
	}
}
