package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-fix/internal/api/http/handlers"
	"github.com/spec-kit/campus-fix/internal/auth"
	"github.com/spec-kit/campus-fix/internal/config"
	"github.com/spec-kit/campus-fix/internal/events"
	"github.com/spec-kit/campus-fix/internal/observability"
	"github.com/spec-kit/campus-fix/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

type apiResponse struct {
	status int
	header func(string) string
	body   map[string]any
}

func (r apiResponse) data() map[string]any {
	data, _ := r.body["data"].(map[string]any)
	return data
}

func (r apiResponse) list() []any {
	items, _ := r.body["data"].([]any)
	return items
}

func (r apiResponse) errorCode() string {
	errBody, _ := r.body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()

	users := &memoryUsers{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	hasher := auth.NewPasswordHasher(config.AuthConfig{
		PasswordAlgorithm: config.PasswordAlgorithmBcrypt,
		BcryptCost:        4,
	})
	authService := service.NewAuthService(config.Config{}, service.AuthDependencies{
		UserRepo: users,
		Hasher:   hasher,
		Tokens:   tokens,
	})

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewActivityService(dispatcher, nil, metrics).RegisterHandlers()
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:  &memoryIssues{},
		Dispatcher: dispatcher,
	})

	app := NewApp("campus-fix")
	RegisterMiddlewares(app, MiddlewareConfig{
		Metrics: metrics,
		Timeout: 5 * time.Second,
		CORS:    config.CORSConfig{AllowedOrigin: "http://localhost:5173"},
	})
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("campus-fix", "test", deps, metrics),
		Users:  handlers.NewUsersHandler(authService),
		Issues: handlers.NewIssuesHandler(issueService, auth.NewAuthorizer(tokens, users)),
	})
	return &testServer{app: app, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, contentType, body, token string) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := apiResponse{status: resp.StatusCode, header: resp.Header.Get, body: map[string]any{}}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.body); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return out
}

func (s *testServer) postJSON(t *testing.T, path, body, token string) apiResponse {
	return s.do(t, fiber.MethodPost, path, fiber.MIMEApplicationJSON, body, token)
}

func (s *testServer) get(t *testing.T, path, token string) apiResponse {
	return s.do(t, fiber.MethodGet, path, "", "", token)
}

func (s *testServer) register(t *testing.T, collegeID, email, role, password string) {
	t.Helper()
	form := url.Values{
		"name":       {"User " + collegeID},
		"email":      {email},
		"college_id": {collegeID},
		"user_type":  {role},
		"password":   {password},
	}
	resp := s.do(t, fiber.MethodPost, "/register", fiber.MIMEApplicationForm, form.Encode(), "")
	if resp.status != fiber.StatusCreated {
		t.Fatalf("register %s: status %d body %v", collegeID, resp.status, resp.body)
	}
}

func (s *testServer) login(t *testing.T, collegeID, password string) string {
	t.Helper()
	form := url.Values{"college_id": {collegeID}, "password": {password}}
	resp := s.do(t, fiber.MethodPost, "/login", fiber.MIMEApplicationForm, form.Encode(), "")
	if resp.status != fiber.StatusOK {
		t.Fatalf("login %s: status %d body %v", collegeID, resp.status, resp.body)
	}
	token, _ := resp.data()["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %v", collegeID, resp.body)
	}
	return token
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	created := srv.postJSON(t, "/register",
		`{"name":"Asha","email":"asha@campus.edu","college_id":"S1","role":"student","password":"pw1"}`, "")
	if created.status != fiber.StatusCreated {
		t.Fatalf("status = %d body %v", created.status, created.body)
	}
	data := created.data()
	if data["college_id"] != "S1" || data["user_type"] != "student" {
		t.Errorf("data = %v", data)
	}
	if _, leaked := data["password_hash"]; leaked {
		t.Error("password hash exposed")
	}

	tests := []struct {
		name string
		body string
		code string
	}{
		{"duplicate college id", `{"name":"B","email":"b@campus.edu","college_id":"S1","user_type":"student","password":"x"}`, "DUPLICATE_ENTITY"},
		{"duplicate email", `{"name":"B","email":"asha@campus.edu","college_id":"S2","user_type":"student","password":"x"}`, "DUPLICATE_ENTITY"},
		{"missing role", `{"name":"B","email":"b@campus.edu","college_id":"S3","password":"x"}`, "VALIDATION_FAILED"},
		{"unknown role", `{"name":"B","email":"b@campus.edu","college_id":"S3","user_type":"admin","password":"x"}`, "VALIDATION_FAILED"},
		{"bad email", `{"name":"B","email":"nope","college_id":"S3","user_type":"student","password":"x"}`, "VALIDATION_FAILED"},
		{"malformed json", `{"name":`, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.postJSON(t, "/register", tt.body, "")
			if resp.status != fiber.StatusBadRequest || resp.errorCode() != tt.code {
				t.Errorf("status %d code %q, want 400 %s (%v)", resp.status, resp.errorCode(), tt.code, resp.body)
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "S1", "s1@campus.edu", "student", "pw1")

	ok := srv.postJSON(t, "/login", `{"college_id":"S1","password":"pw1"}`, "")
	if ok.status != fiber.StatusOK {
		t.Fatalf("status = %d body %v", ok.status, ok.body)
	}
	if ok.data()["token_type"] != "bearer" || ok.data()["user_type"] != "student" {
		t.Errorf("data = %v", ok.data())
	}

	wrong := srv.postJSON(t, "/login", `{"college_id":"S1","password":"nope"}`, "")
	unknown := srv.postJSON(t, "/login", `{"college_id":"S404","password":"pw1"}`, "")
	for _, resp := range []apiResponse{wrong, unknown} {
		if resp.status != fiber.StatusUnauthorized || resp.errorCode() != "INVALID_CREDENTIALS" {
			t.Errorf("status %d code %q", resp.status, resp.errorCode())
		}
		if resp.header(fiber.HeaderWWWAuthenticate) != "Bearer" {
			t.Errorf("WWW-Authenticate = %q", resp.header(fiber.HeaderWWWAuthenticate))
		}
	}
	if wrong.body["error"].(map[string]any)["message"] != unknown.body["error"].(map[string]any)["message"] {
		t.Errorf("messages differ: %v vs %v", wrong.body, unknown.body)
	}
}

func TestIssueEndpointsEnforceAuth(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "S1", "s1@campus.edu", "student", "pw1")
	srv.register(t, "M1", "m1@campus.edu", "management", "pw2")
	student := srv.login(t, "S1", "pw1")
	manager := srv.login(t, "M1", "pw2")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{"no header", fiber.MethodGet, "/issues/my", "", 401, "UNAUTHENTICATED"},
		{"garbage token", fiber.MethodGet, "/issues/my", "not-a-jwt", 401, "INVALID_TOKEN"},
		{"management on student route", fiber.MethodGet, "/issues/my", manager, 403, "FORBIDDEN"},
		{"student on list all", fiber.MethodGet, "/issues/all", student, 403, "FORBIDDEN"},
		{"student on filter", fiber.MethodGet, "/issues/filter", student, 403, "FORBIDDEN"},
		{"student marks complete", fiber.MethodPut, "/issues/mark-complete/TKT-00000000", student, 403, "FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.method, tt.path, fiber.MIMEApplicationJSON, "", tt.token)
			if resp.status != tt.status || resp.errorCode() != tt.code {
				t.Errorf("status %d code %q, want %d %s", resp.status, resp.errorCode(), tt.status, tt.code)
			}
		})
	}
}

func TestFormRegistrationsKeepStoredValues(t *testing.T) {
	if !AppConfig("campus-fix").Immutable {
		t.Fatal("app config must copy request values")
	}

	srv := newTestServer(t, nil)
	srv.register(t, "S1", "s1@campus.edu", "student", "pw1")
	srv.register(t, "M1", "m1@campus.edu", "management", "pw2")

	// The first account must still be reachable by its own college id.
	srv.login(t, "S1", "pw1")
	srv.login(t, "M1", "pw2")

	again := srv.do(t, fiber.MethodPost, "/register", fiber.MIMEApplicationForm,
		url.Values{"name": {"X"}, "email": {"x@campus.edu"}, "college_id": {"S1"}, "user_type": {"student"}, "password": {"pw"}}.Encode(), "")
	if again.status != fiber.StatusBadRequest || again.errorCode() != "DUPLICATE_ENTITY" {
		t.Errorf("re-register S1 = %d %v", again.status, again.body)
	}
}

func TestIssueLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "S1", "s1@campus.edu", "student", "pw1")
	srv.register(t, "S2", "s2@campus.edu", "student", "pw3")
	srv.register(t, "M1", "m1@campus.edu", "management", "pw2")
	student := srv.login(t, "S1", "pw1")
	other := srv.login(t, "S2", "pw3")
	manager := srv.login(t, "M1", "pw2")

	raised := srv.postJSON(t, "/issues/raise",
		`{"service_type":"electrical","description":"no power","location":"Block A"}`, student)
	if raised.status != fiber.StatusCreated {
		t.Fatalf("raise status = %d body %v", raised.status, raised.body)
	}
	ticketID, _ := raised.data()["ticket_id"].(string)
	if !regexp.MustCompile(`^TKT-[0-9A-F]{8}$`).MatchString(ticketID) {
		t.Fatalf("ticket id = %q", ticketID)
	}
	if raised.data()["status"] != "pending" || raised.data()["image_url"] != nil {
		t.Errorf("raised = %v", raised.data())
	}

	if bad := srv.postJSON(t, "/issues/raise", `{"service_type":"gardening","description":"x","location":"y"}`, student); bad.errorCode() != "VALIDATION_FAILED" {
		t.Errorf("bad service type = %d %v", bad.status, bad.body)
	}
	srv.postJSON(t, "/issues/raise", `{"service_type":"plumbing","description":"leak","location":"Hostel"}`, other)

	mine := srv.get(t, "/issues/my", student)
	if mine.status != fiber.StatusOK || len(mine.list()) != 1 {
		t.Fatalf("my issues = %d %v", mine.status, mine.body)
	}

	all := srv.get(t, "/issues/all?service_type=plumbing", manager)
	if len(all.list()) != 1 {
		t.Errorf("plumbing issues = %v", all.body)
	}
	if bad := srv.get(t, "/issues/all?status=closed", manager); bad.errorCode() != "VALIDATION_FAILED" {
		t.Errorf("bad status query = %d %v", bad.status, bad.body)
	}

	filtered := srv.get(t, "/issues/filter?location=Block%20A&date_from=2000-01-01", manager)
	if len(filtered.list()) != 1 {
		t.Errorf("filtered = %v", filtered.body)
	}
	if bad := srv.get(t, "/issues/filter?date_to=last-week", manager); bad.status != 400 || bad.errorCode() != "INVALID_DATE_FORMAT" {
		t.Errorf("bad date = %d %v", bad.status, bad.body)
	}

	if forbidden := srv.get(t, "/issues/"+ticketID, other); forbidden.status != fiber.StatusForbidden {
		t.Errorf("other student GET = %d", forbidden.status)
	}
	if missing := srv.get(t, "/issues/TKT-00000000", manager); missing.status != fiber.StatusNotFound || missing.errorCode() != "NOT_FOUND" {
		t.Errorf("missing GET = %d %v", missing.status, missing.body)
	}

	complete := `{"status":"completed"}`
	updated := srv.do(t, fiber.MethodPut, "/issues/mark-complete/"+ticketID, fiber.MIMEApplicationJSON, complete, manager)
	if updated.status != fiber.StatusOK || updated.data()["status"] != "completed" {
		t.Fatalf("mark complete = %d %v", updated.status, updated.body)
	}
	again := srv.do(t, fiber.MethodPut, "/issues/mark-complete/"+ticketID, fiber.MIMEApplicationJSON, complete, manager)
	if again.status != fiber.StatusBadRequest || again.errorCode() != "NO_OP_UPDATE" {
		t.Errorf("repeat = %d %v", again.status, again.body)
	}
	if missing := srv.do(t, fiber.MethodPut, "/issues/mark-complete/TKT-00000000", fiber.MIMEApplicationJSON, complete, manager); missing.status != fiber.StatusNotFound {
		t.Errorf("missing PUT = %d", missing.status)
	}

	seen := srv.get(t, "/issues/"+ticketID, student)
	if seen.status != fiber.StatusOK || seen.data()["status"] != "completed" {
		t.Errorf("student view = %d %v", seen.status, seen.body)
	}

	snap := srv.metrics.Snapshot()
	if snap.IssuesRaised["electrical"] != 1 || snap.StatusChanges["completed"] != 1 {
		t.Errorf("activity metrics = %+v %+v", snap.IssuesRaised, snap.StatusChanges)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})

	live := srv.get(t, "/health/live", "")
	if live.status != fiber.StatusOK || live.body["status"] != "alive" {
		t.Errorf("live = %d %v", live.status, live.body)
	}
	if live.header(observability.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	ready := srv.get(t, "/health/ready", "")
	if ready.status != fiber.StatusServiceUnavailable {
		t.Errorf("ready = %d %v", ready.status, ready.body)
	}

	metrics := srv.get(t, "/health/metrics", "")
	if metrics.status != fiber.StatusOK || metrics.data()["requests"] == nil {
		t.Errorf("metrics = %d %v", metrics.status, metrics.body)
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.get(t, "/nowhere", "")
	if resp.status != fiber.StatusNotFound || resp.errorCode() != "NOT_FOUND" {
		t.Errorf("status %d body %v", resp.status, resp.body)
	}
}
