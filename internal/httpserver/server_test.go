package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/auth"
	"github.com/MrSnakeDoc/readmehub/internal/docstore"
	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/index"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/optimizer"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
)

var testNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

type harness struct {
	handler http.Handler
	store   *docstore.MemoryStore
	index   *index.DocumentIndex
	trigger chan struct{}
}

type response struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Errors   map[string]string `json:"errors"`
	Data     json.RawMessage   `json:"data"`
	Warnings []string          `json:"warnings"`
	Degraded bool              `json:"degraded"`
}

func newHarness(t *testing.T, configure func(d *deps.Deps)) *harness {
	t.Helper()

	store := docstore.NewMemoryStore(nil)
	sync := syncer.New(store, domain.SequenceGenerator("id", testNow), domain.Author{Name: "Admin User"}, logger.Nop())
	idx := index.NewDocumentIndex()
	sync.Subscribe(idx)

	sessions, err := auth.NewManager(auth.Credentials{Username: "admin", Password: "secret"},
		strings.Repeat("k", 32), time.Hour, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:        logger.Nop(),
		StartTime:     testNow,
		Version:       "test",
		TimeNow:       func() time.Time { return testNow.Add(time.Minute) },
		Sync:          sync,
		Index:         idx,
		Sessions:      sessions,
		Optimizer:     optimizer.NewService(optimizer.NewLoremRewriter(), optimizer.Defaults{WebsiteType: "blog", TargetAudience: "readers"}, logger.Nop()),
		ReloadTrigger: trigger,
	}
	if configure != nil {
		configure(&d)
	}

	return &harness{handler: NewRouter(d), store: store, index: idx, trigger: trigger}
}

func (h *harness) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"secret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &data)
	return data.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var r response
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return r
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	r := decode(t, rec)
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("invalid data %s: %v", r.Data, err)
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string  `json:"status"`
		Store  string  `json:"store"`
		Uptime float64 `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Store != "memory" || body.Uptime != 60 {
		t.Errorf("healthz = %+v", body)
	}
}

func TestReadyz(t *testing.T) {
	h := newHarness(t, nil)
	if rec := h.do(t, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before first load: status = %d, want 503", rec.Code)
	}

	h.index.Replace(&domain.Document{}, "", true)
	rec := h.do(t, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("after load: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"degraded":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAdminRequiresSession(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/admin/categories", `{"name":"Tech","slug":"tech"}`, tt.token)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
	if len(h.store.Commits()) != 0 {
		t.Error("unauthenticated request reached the store")
	}
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t, nil)

	if rec := h.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}

	rec := h.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"secret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	// The cookie alone authenticates browser clients.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(cookies[0])
	sessRec := httptest.NewRecorder()
	h.handler.ServeHTTP(sessRec, req)
	if sessRec.Code != http.StatusOK {
		t.Fatalf("session via cookie: status = %d", sessRec.Code)
	}

	token := cookies[0].Value
	if rec := h.do(t, http.MethodPost, "/api/admin/logout", "", token); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/admin/session", "", token); rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked session: status = %d, want 401", rec.Code)
	}
}

func TestEditorialFlow(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login(t)

	rec := h.do(t, http.MethodPost, "/api/admin/categories", `{"name":"Tech","slug":"tech"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add category: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var cat domain.Category
	decodeData(t, rec, &cat)

	rec = h.do(t, http.MethodPost, "/api/admin/articles",
		`{"title":"Hello World","content":"<p>Hi<script>alert(1)</script></p>","category":"tech","featured":true}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create article: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created domain.Article
	decodeData(t, rec, &created)
	if created.Slug != "hello-world" || created.Category.Slug != "tech" {
		t.Errorf("created = %+v", created)
	}

	// The index is refreshed by the save, no reload needed.
	rec = h.do(t, http.MethodGet, "/api/articles/hello-world", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get article: status = %d", rec.Code)
	}
	var got domain.Article
	decodeData(t, rec, &got)
	if strings.Contains(got.Content, "<script>") {
		t.Errorf("public content not sanitized: %q", got.Content)
	}

	if rec := h.do(t, http.MethodGet, "/api/articles/featured", "", ""); rec.Code != http.StatusOK {
		t.Errorf("featured: status = %d", rec.Code)
	}

	var inCat struct {
		Articles []domain.Article `json:"articles"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/categories/tech/articles", "", ""), &inCat)
	if len(inCat.Articles) != 1 {
		t.Errorf("category articles = %d, want 1", len(inCat.Articles))
	}

	rec = h.do(t, http.MethodPost, "/api/articles/"+created.ID+"/comments", `{"author":"Reader","content":"Nice"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodDelete, "/api/admin/categories/"+cat.ID, "", token)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete referenced category: status = %d, want 409", rec.Code)
	}

	rec = h.do(t, http.MethodPut, "/api/admin/articles/"+created.ID,
		`{"title":"Hello Again","content":"Updated","category":"tech"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodGet, "/api/articles/hello-again", "", ""); rec.Code != http.StatusOK {
		t.Errorf("updated slug not served: status = %d", rec.Code)
	}

	if rec := h.do(t, http.MethodDelete, "/api/admin/articles/"+created.ID, "", token); rec.Code != http.StatusOK {
		t.Errorf("delete article: status = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/articles/featured", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("featured after delete: status = %d, want 404", rec.Code)
	}
}

func TestRejectedOperations(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login(t)

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		want      int
		wantField string
	}{
		{"missing title", http.MethodPost, "/api/admin/articles", `{"content":"x","category":"tech"}`, http.StatusBadRequest, "title"},
		{"unknown category", http.MethodPost, "/api/admin/articles", `{"title":"T","content":"x","category":"nope"}`, http.StatusConflict, "category"},
		{"bad slug", http.MethodPost, "/api/admin/categories", `{"name":"Tech","slug":"Not A Slug"}`, http.StatusBadRequest, "slug"},
		{"update unknown article", http.MethodPut, "/api/admin/articles/missing", `{"title":"T","content":"x","category":"tech"}`, http.StatusNotFound, ""},
		{"comment on unknown article", http.MethodPost, "/api/articles/missing/comments", `{"author":"A","content":"B"}`, http.StatusNotFound, ""},
		{"malformed body", http.MethodPost, "/api/admin/articles", `{"title":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, tt.method, tt.path, tt.body, token)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			r := decode(t, rec)
			if r.Success {
				t.Error("success = true")
			}
			if tt.wantField != "" {
				if _, ok := r.Errors[tt.wantField]; !ok {
					t.Errorf("errors = %v, want field %q", r.Errors, tt.wantField)
				}
			}
		})
	}
	if len(h.store.Commits()) != 0 {
		t.Errorf("rejected operations committed %d revisions", len(h.store.Commits()))
	}
}

func TestBackendFailure(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login(t)
	h.store.FailSave = errors.New("github down")

	rec := h.do(t, http.MethodPost, "/api/admin/categories", `{"name":"Tech","slug":"tech"}`, token)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	r := decode(t, rec)
	if r.Success || r.Message != "Failed to manage category." || r.Errors["server"] == "" {
		t.Errorf("response = %+v", r)
	}
	if len(h.store.Commits()) != 0 {
		t.Error("failed save left a commit")
	}
}

func multipartBody(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "db.json")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestImportExport(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login(t)

	upload := `{"articles":[
  {"id":"a1","title":"One","content":"<p>One</p>","category":"c1"},
  {"id":"a2","title":"Orphan","content":"x","category":"missing"}
],"categories":[{"id":"c1","name":"News","slug":"news"}]}`

	body, contentType := multipartBody(t, "jsonFile", upload)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("multipart import: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if r := decode(t, rec); len(r.Warnings) != 1 {
		t.Errorf("warnings = %v, want the orphan article", r.Warnings)
	}

	// Raw body, nothing new: no extra commit.
	commits := len(h.store.Commits())
	if rec := h.do(t, http.MethodPost, "/api/admin/import", upload, token); rec.Code != http.StatusOK {
		t.Fatalf("raw import: status = %d", rec.Code)
	}
	if len(h.store.Commits()) != commits {
		t.Error("re-import without new entries committed")
	}

	empty, emptyType := multipartBody(t, "", "")
	req = httptest.NewRequest(http.MethodPost, "/api/admin/import", empty)
	req.Header.Set("Content-Type", emptyType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: status = %d, want 400", rec.Code)
	}
	if r := decode(t, rec); r.Errors["jsonFile"] == "" {
		t.Errorf("errors = %v", r.Errors)
	}

	rec = h.do(t, http.MethodGet, "/api/admin/export", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), h.store.Raw()) {
		t.Error("export is not the stored document verbatim")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "db.json") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestOptimize(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login(t)

	rec := h.do(t, http.MethodPost, "/api/admin/optimize", `{"websiteType":"blog"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing content: status = %d", rec.Code)
	}
	if r := decode(t, rec); r.Errors["contentBlock"] == "" {
		t.Errorf("errors = %v", r.Errors)
	}

	rec = h.do(t, http.MethodPost, "/api/admin/optimize", `{"contentBlock":"Some dull text."}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp optimizer.Response
	decodeData(t, rec, &resp)
	if resp.OptimizedContentBlock == "" || resp.Explanation == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestReloadEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login(t)

	if rec := h.do(t, http.MethodPost, "/api/admin/reload", "", token); rec.Code != http.StatusAccepted {
		t.Errorf("first reload: status = %d, want 202", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/api/admin/reload", "", token); rec.Code != http.StatusTooManyRequests {
		t.Errorf("pending reload: status = %d, want 429", rec.Code)
	}
	if len(h.trigger) != 1 {
		t.Errorf("trigger queue = %d, want 1", len(h.trigger))
	}
}

func TestAccessRestrictions(t *testing.T) {
	h := newHarness(t, func(d *deps.Deps) {
		d.AllowedHosts = []string{"blog.example.com"}
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
		d.CORSOrigins = []string{"https://admin.example.com"}
	})

	tests := []struct {
		name   string
		host   string
		remote string
		path   string
		want   int
	}{
		{"allowed host", "blog.example.com", "192.0.2.1:1234", "/api/articles", http.StatusOK},
		{"allowed host with port", "blog.example.com:8080", "192.0.2.1:1234", "/api/articles", http.StatusOK},
		{"foreign host", "evil.example.net", "192.0.2.1:1234", "/api/articles", http.StatusForbidden},
		{"healthz ignores host", "evil.example.net", "192.0.2.1:1234", "/healthz", http.StatusOK},
		{"infra from outside", "blog.example.com", "192.0.2.1:1234", "/infra", http.StatusForbidden},
		{"infra from inside", "blog.example.com", "10.1.2.3:1234", "/infra", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Host = tt.host
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/articles", nil)
	req.Host = "blog.example.com"
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCommentRateLimit(t *testing.T) {
	h := newHarness(t, nil)

	var last int
	for i := 0; i < 4; i++ {
		last = h.do(t, http.MethodPost, "/api/articles/missing/comments", `{"author":"A","content":"B"}`, "").Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("4th comment: status = %d, want 429", last)
	}
}

func TestServerStartStop(t *testing.T) {
	s := New("127.0.0.1:0", deps.Deps{Logger: logger.Nop(), Index: index.NewDocumentIndex()})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}
