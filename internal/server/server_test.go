package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"holdingboard/internal/config"
	"holdingboard/internal/db"
	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
	"holdingboard/internal/filestore"
	"holdingboard/internal/migrate"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default("group-1"))
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{JWTSecret: "test-secret", AllowDevLogin: true},
		Files:    filestore.New(filepath.Join(workspace, "files"), "/files"),
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer, email string) map[string]string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{
		"email": email,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", res.StatusCode, string(data))
	}
	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if body["token"] == "" {
		t.Fatalf("empty token: %s", string(data))
	}
	return map[string]string{"Authorization": "Bearer " + body["token"]}
}

func seedAdmin(t *testing.T, srv *testServer, email string) map[string]string {
	t.Helper()
	err := srv.Engine.Repo.UpsertProfile(context.Background(), domain.Profile{Email: email, Admin: true})
	if err != nil {
		t.Fatalf("seed admin profile: %v", err)
	}
	return login(t, srv, email)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/companies", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", res.StatusCode)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (%s)", err, string(data))
	}
	if env.Error.Code != "unauthorized" {
		t.Fatalf("code = %q: %s", env.Error.Code, string(data))
	}

	// health stays open
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}

func TestDevLoginAndMe(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	headers := login(t, srv, "someone@example.com")
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/me", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me struct {
		Email string `json:"email"`
		Admin bool   `json:"admin"`
	}
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatal(err)
	}
	if me.Email != "someone@example.com" || me.Admin {
		t.Fatalf("me = %+v", me)
	}
}

func TestAdminGatedWrites(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	user := login(t, srv, "user@example.com")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/companies", map[string]any{
		"name": "Acme Robotics",
	}, user)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin create company status %d: %s", res.StatusCode, string(data))
	}

	admin := seedAdmin(t, srv, "admin@example.com")
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/companies", map[string]any{
		"name":   "Acme Robotics",
		"sector": "robotics",
	}, admin)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("admin create company status %d: %s", res.StatusCode, string(data))
	}
	var company domain.Company
	if err := json.Unmarshal(data, &company); err != nil {
		t.Fatal(err)
	}
	if company.ID == "" || company.Name != "Acme Robotics" {
		t.Fatalf("company = %+v", company)
	}

	// reads stay open to any authenticated viewer
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/companies", nil, user)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list companies status %d: %s", res.StatusCode, string(data))
	}
	var list struct {
		Items []domain.Company `json:"items"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("companies = %+v", list.Items)
	}
}

func TestBoardTaskFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	admin := seedAdmin(t, srv, "admin@example.com")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/providers", map[string]any{
		"name":           "Core Squad",
		"kind":           "internal_squad",
		"capacity_slots": 3,
	}, admin)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create provider status %d: %s", res.StatusCode, string(data))
	}
	var provider domain.Provider
	if err := json.Unmarshal(data, &provider); err != nil {
		t.Fatal(err)
	}

	requestor := login(t, srv, "ceo@example.com")
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/board-tasks", map[string]any{
		"title":       "Provide Q1 numbers",
		"provider_id": provider.ID,
	}, requestor)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create board task status %d: %s", res.StatusCode, string(data))
	}
	var task domain.BoardTask
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatal(err)
	}
	if task.RequestorEmail != "ceo@example.com" {
		t.Fatalf("requestor = %q", task.RequestorEmail)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/board-tasks?view=active", nil, requestor)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var list struct {
		Items []domain.BoardTask `json:"items"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("active board tasks = %d", len(list.Items))
	}

	// a viewer with no role on the task sees nothing
	stranger := login(t, srv, "stranger@example.com")
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/board-tasks?view=active", nil, stranger)
	if res.StatusCode != http.StatusOK {
		t.Fatal(res.StatusCode)
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("stranger sees %d tasks", len(list.Items))
	}

	// no role on the task means no answering it
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/board-tasks/"+task.ID+"/resolve", map[string]any{
		"status":         "refused",
		"refusal_reason": "not mine",
	}, stranger)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger resolve status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/board-tasks/"+task.ID+"/resolve", map[string]any{
		"status":  "done",
		"comment": "attached",
	}, admin)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("resolve status %d: %s", res.StatusCode, string(data))
	}
	var resolved domain.BoardTask
	if err := json.Unmarshal(data, &resolved); err != nil {
		t.Fatal(err)
	}
	if resolved.Status != domain.BoardDone {
		t.Fatalf("status = %q", resolved.Status)
	}

	// double resolve conflicts
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/board-tasks/"+task.ID+"/resolve", map[string]any{
		"status": "refused",
	}, admin)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("double resolve status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/board-tasks/"+task.ID+"/archive", nil, requestor)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("archive status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/board-tasks?view=archived", nil, requestor)
	if res.StatusCode != http.StatusOK {
		t.Fatal(res.StatusCode)
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("archived board tasks = %d: %s", len(list.Items), string(data))
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	headers := login(t, srv, "user@example.com")
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/companies/nope", nil, headers)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (%s)", err, string(data))
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestPersonalTasksArePrivate(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	owner := login(t, srv, "me@example.com")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/personal-tasks", map[string]any{
		"text":       "Weekly review",
		"recurrence": "weekly",
		"due_date":   "2024-01-10",
	}, owner)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var task domain.PersonalTask
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatal(err)
	}

	other := login(t, srv, "other@example.com")
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/personal-tasks", nil, other)
	if res.StatusCode != http.StatusOK {
		t.Fatal(res.StatusCode)
	}
	var list struct {
		Items []domain.PersonalTask `json:"items"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("other user sees %d personal tasks", len(list.Items))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/personal-tasks/"+task.ID, map[string]any{
		"text": "hijack",
	}, other)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign patch status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/personal-tasks/"+task.ID+"/toggle", nil, other)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign toggle status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/v0/personal-tasks/"+task.ID, nil, other)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign delete status %d: %s", res.StatusCode, string(data))
	}
	fresh, err := srv.Engine.Repo.GetPersonalTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("task gone after foreign delete attempt: %v", err)
	}
	if fresh.Done {
		t.Fatalf("foreign toggle flipped the task")
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/personal-tasks/"+task.ID+"/toggle", nil, owner)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d: %s", res.StatusCode, string(data))
	}
	var toggled struct {
		Task    domain.PersonalTask  `json:"task"`
		Spawned *domain.PersonalTask `json:"spawned,omitempty"`
	}
	if err := json.Unmarshal(data, &toggled); err != nil {
		t.Fatal(err)
	}
	if !toggled.Task.Done {
		t.Fatalf("task not done after toggle")
	}
	if toggled.Spawned == nil || toggled.Spawned.DueDate == nil || *toggled.Spawned.DueDate != "2024-01-17" {
		t.Fatalf("spawned = %+v", toggled.Spawned)
	}
}

func TestOpenAPIServedOnceUnderConcurrency(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	type result struct {
		status int
		body   []byte
	}
	headers := login(t, srv, "someone@example.com")
	results := make(chan result, 4)
	for i := 0; i < 4; i++ {
		go func() {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/v0/openapi.json", nil)
			if err != nil {
				results <- result{}
				return
			}
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			res, err := srv.Client().Do(req)
			if err != nil {
				results <- result{}
				return
			}
			defer res.Body.Close()
			body, _ := io.ReadAll(res.Body)
			results <- result{status: res.StatusCode, body: body}
		}()
	}
	var first []byte
	for i := 0; i < 4; i++ {
		r := <-results
		if r.status != http.StatusOK || len(r.body) == 0 {
			t.Fatalf("openapi fetch %d: status %d, %d bytes", i, r.status, len(r.body))
		}
		if first == nil {
			first = r.body
			continue
		}
		if !bytes.Equal(first, r.body) {
			t.Fatalf("concurrent openapi fetches differ")
		}
	}
}

func TestUploadServedBack(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	headers := login(t, srv, "me@example.com")
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v0/uploads", bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Filename", "note.txt")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d: %s", res.StatusCode, string(data))
	}
	var uploaded struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &uploaded); err != nil {
		t.Fatal(err)
	}
	if uploaded.URL == "" {
		t.Fatalf("empty url: %s", string(data))
	}

	// the file mount serves it without auth
	got, gotBody := doJSON(t, srv.Client(), http.MethodGet, srv.URL+uploaded.URL, nil, nil)
	if got.StatusCode != http.StatusOK || string(gotBody) != "hello" {
		t.Fatalf("fetch upload: status %d body %q", got.StatusCode, string(gotBody))
	}
}
