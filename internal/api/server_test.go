package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-progress/internal/api"
	"github.com/p-n-ai/pai-progress/internal/catalog"
	"github.com/p-n-ai/pai-progress/internal/live"
	"github.com/p-n-ai/pai-progress/internal/session"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

var today = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	handler http.Handler
	hub     *live.Hub
	token   string
}

type fakeCheck struct{ err error }

func (c fakeCheck) HealthCheck(context.Context) error { return c.err }

func newHarness(t *testing.T, opts ...func(*api.Options)) *harness {
	t.Helper()
	hub := live.NewHub()
	svc := tracker.NewService(tracker.ServiceConfig{
		Store: tracker.NewMemoryStore(),
		Live:  hub,
		Now:   func() time.Time { return today.Add(9 * time.Hour) },
	})
	o := api.Options{
		Service:        svc,
		Sessions:       session.NewManager(session.NewMemoryStore(), time.Hour),
		Hub:            hub,
		MaxUploadBytes: 1 << 20,
	}
	for _, fn := range opts {
		fn(&o)
	}
	h := &harness{t: t, handler: api.NewServer(o).Handler(), hub: hub}
	h.token = h.login("u1")
	return h
}

func (h *harness) login(userID string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/session", `{"userId":"`+userID+`"}`, "")
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	var s session.Session
	decodeBody(h.t, rec, &s)
	return s.Token
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
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

func (h *harness) authed(method, path, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(method, path, body, h.token)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env api.ErrorEnvelope
	decodeBody(t, rec, &env)
	return env.Error.Code
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", "/healthz", http.StatusOK, "ok"},
		{"readyz returns 200", "/readyz", http.StatusOK, "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, tt.path, "", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]any
			decodeBody(t, rec, &body)
			if body["status"] != tt.wantBody {
				t.Errorf("status field = %v, want %s", body["status"], tt.wantBody)
			}
		})
	}
}

func TestReadyzReportsFailedDependency(t *testing.T) {
	h := newHarness(t, func(o *api.Options) {
		o.Checks = map[string]api.HealthChecker{
			"database": fakeCheck{},
			"cache":    fakeCheck{err: errors.New("connection refused")},
		}
	})
	rec := h.do(http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body struct {
		Failed map[string]string `json:"failed"`
	}
	decodeBody(t, rec, &body)
	if _, ok := body.Failed["cache"]; !ok || len(body.Failed) != 1 {
		t.Errorf("failed = %v, want only cache", body.Failed)
	}
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"unknown", "deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, "/api/topics", "", tt.token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if code := errorCode(t, rec); code != api.CodeUnauthorized {
				t.Errorf("code = %s, want %s", code, api.CodeUnauthorized)
			}
		})
	}
}

func TestSessionLogout(t *testing.T) {
	h := newHarness(t)
	if rec := h.authed(http.MethodDelete, "/api/session", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := h.authed(http.MethodGet, "/api/topics", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout status = %d, want 401", rec.Code)
	}
}

func TestSessionValidation(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/session", `{"userId":""}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var env api.ErrorEnvelope
	decodeBody(t, rec, &env)
	if env.Error.Code != api.CodeValidationFailed || len(env.Error.Fields) == 0 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestTopicsCRUD(t *testing.T) {
	h := newHarness(t)

	rec := h.authed(http.MethodPost, "/api/topics", `{"name":"Graphs","category":"DSA","priority":"High","status":"In Progress","associatedTags":["bfs"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created tracker.Topic
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Status.String() != "In Progress" {
		t.Fatalf("created = %+v", created)
	}

	rec = h.authed(http.MethodPost, "/api/topics", `{"name":"Caching","category":"System Design"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	var list []tracker.Topic
	decodeBody(t, h.authed(http.MethodGet, "/api/topics?status=in%20progress", ""), &list)
	if len(list) != 1 || list[0].Name != "Graphs" {
		t.Errorf("status filter = %+v", list)
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/topics?search=BFS", ""), &list)
	if len(list) != 1 {
		t.Errorf("search filter = %d topics, want 1", len(list))
	}

	rec = h.authed(http.MethodPut, "/api/topics/"+created.ID, `{"name":"Graphs","status":"Completed","progress":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	other := h.login("u2")
	if rec := h.do(http.MethodGet, "/api/topics/"+created.ID, "", other); rec.Code != http.StatusNotFound {
		t.Errorf("other user get status = %d, want 404", rec.Code)
	}

	if rec := h.authed(http.MethodDelete, "/api/topics/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := h.authed(http.MethodGet, "/api/topics/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestTopicValidation(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		body string
	}{
		{"missing-name", `{"category":"DSA"}`},
		{"bad-priority", `{"name":"x","priority":"Urgent"}`},
		{"progress-range", `{"name":"x","progress":101}`},
		{"malformed", `{"name":`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.authed(http.MethodPost, "/api/topics", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if code := errorCode(t, rec); code != api.CodeValidationFailed {
				t.Errorf("code = %s", code)
			}
		})
	}
}

func TestLogsAndAnalytics(t *testing.T) {
	h := newHarness(t)

	for _, d := range []string{"2025-03-13", "2025-03-14", "2025-03-15"} {
		rec := h.authed(http.MethodPost, "/api/logs", `{"date":"`+d+`","questionsSolved":3,"timeStudied":30,"mood":"Good"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("log status = %d, body %s", rec.Code, rec.Body)
		}
	}
	// Same day again replaces rather than duplicates.
	h.authed(http.MethodPost, "/api/logs", `{"date":"2025-03-15","questionsSolved":6}`)

	var logs []tracker.DailyLog
	decodeBody(t, h.authed(http.MethodGet, "/api/logs?limit=2", ""), &logs)
	if len(logs) != 2 || logs[0].QuestionsSolved != 6 {
		t.Errorf("logs = %+v", logs)
	}

	var streak struct {
		Current int `json:"currentStreak"`
		Longest int `json:"longestStreak"`
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/logs/streak", ""), &streak)
	if streak.Current != 3 || streak.Longest != 3 {
		t.Errorf("streak = %+v, want 3/3", streak)
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/logs/streak?asOf=2025-03-16", ""), &streak)
	if streak.Current != 0 || streak.Longest != 3 {
		t.Errorf("streak asOf next day = %+v, want 0/3", streak)
	}

	var summary struct {
		Period      int     `json:"period"`
		Total       int     `json:"totalQuestions"`
		Average     float64 `json:"averageQuestions"`
		StudyDays   int     `json:"studyDays"`
		Consistency int     `json:"consistency"`
		Daily       []any   `json:"dailyData"`
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/logs/analytics?period=7&asOf=2025-03-15", ""), &summary)
	if summary.Period != 7 || summary.Total != 12 || summary.StudyDays != 3 || len(summary.Daily) != 7 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Consistency != 43 {
		t.Errorf("consistency = %d, want 43", summary.Consistency)
	}

	var cells []struct {
		Tier string `json:"tier"`
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/logs/heatmap?period=7&asOf=2025-03-15", ""), &cells)
	if len(cells) != 7 || cells[6].Tier != "high" || cells[5].Tier != "medium" || cells[0].Tier != "none" {
		t.Errorf("heatmap = %+v", cells)
	}
}

func TestAnalyticsParamValidation(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{
		"/api/logs/analytics?period=0",
		"/api/logs/analytics?period=400",
		"/api/logs/analytics?period=abc",
		"/api/logs/streak?asOf=15-03-2025",
		"/api/logs?limit=x",
	} {
		rec := h.authed(http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rec.Code)
			continue
		}
		if code := errorCode(t, rec); code != api.CodeInvalidInput {
			t.Errorf("%s code = %s", path, code)
		}
	}
}

func TestLogRejectsImpossibleDate(t *testing.T) {
	h := newHarness(t)
	rec := h.authed(http.MethodPost, "/api/logs", `{"date":"2025-02-30","questionsSolved":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGoals(t *testing.T) {
	h := newHarness(t)

	rec := h.authed(http.MethodPost, "/api/goals", `{"title":"Finish DSA","targetDate":"2025-03-20","milestones":[{"title":"Arrays","completed":true},{"title":"Graphs","targetDate":"2025-03-18"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var g tracker.GoalView
	decodeBody(t, rec, &g)
	if g.Status != tracker.GoalActive || g.Timeline.DaysRemaining != 5 || g.Timeline.MilestonesDone != 1 {
		t.Errorf("goal = %+v", g)
	}

	rec = h.authed(http.MethodPut, "/api/goals/"+g.ID, `{"title":"Finish DSA","targetDate":"2025-03-10","status":"Active"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	decodeBody(t, rec, &g)
	if !g.Timeline.Overdue {
		t.Errorf("timeline = %+v, want overdue", g.Timeline)
	}

	var list []tracker.GoalView
	decodeBody(t, h.authed(http.MethodGet, "/api/goals", ""), &list)
	if len(list) != 1 {
		t.Errorf("goals = %d, want 1", len(list))
	}

	if rec := h.authed(http.MethodPost, "/api/goals", `{"title":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing target status = %d, want 400", rec.Code)
	}
	if rec := h.authed(http.MethodDelete, "/api/goals/"+g.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := h.authed(http.MethodGet, "/api/goals/"+g.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestCategoriesInsightsDashboard(t *testing.T) {
	h := newHarness(t)
	h.authed(http.MethodPost, "/api/topics", `{"name":"Arrays","status":"Completed"}`)
	h.authed(http.MethodPost, "/api/topics", `{"name":"Prompting","category":"Generative AI"}`)
	h.authed(http.MethodPost, "/api/logs", `{"date":"2025-03-15","questionsSolved":2}`)

	var cats struct {
		Categories map[string]struct {
			Total int `json:"total"`
		} `json:"categories"`
		Rates  map[string]int `json:"rates"`
		Totals struct {
			Total     int `json:"total"`
			Completed int `json:"completed"`
		} `json:"totals"`
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/analytics/categories", ""), &cats)
	if cats.Totals.Total != 2 || cats.Rates["DSA"] != 100 || cats.Rates["System Design"] != 0 {
		t.Errorf("categories = %+v", cats)
	}

	var ins struct {
		Insights []struct {
			Code string `json:"code"`
		} `json:"insights"`
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/analytics/insights?period=7", ""), &ins)
	if n := len(ins.Insights); n == 0 || ins.Insights[n-1].Code != "keep_going" {
		t.Errorf("insights = %+v", ins)
	}

	var d tracker.Dashboard
	decodeBody(t, h.authed(http.MethodGet, "/api/dashboard", ""), &d)
	if d.TotalTopics != 2 || d.Streak.CurrentStreak != 1 || d.TodayQuestions != 2 || d.DailyGoal != 3 {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	var st tracker.Settings
	decodeBody(t, h.authed(http.MethodGet, "/api/settings", ""), &st)
	if st.DailyGoal != 3 {
		t.Errorf("default daily goal = %d", st.DailyGoal)
	}

	rec := h.authed(http.MethodPut, "/api/settings", `{"dailyGoal":5,"notifications":false,"darkMode":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body)
	}
	decodeBody(t, rec, &st)
	if st.DailyGoal != 5 || !st.DarkMode || st.Notifications {
		t.Errorf("settings = %+v", st)
	}

	if rec := h.authed(http.MethodPut, "/api/settings", `{"dailyGoal":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("dailyGoal 0 status = %d, want 400", rec.Code)
	}
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (h *harness) upload(filename, contentType string, content []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	body, ct := multipartBody(h.t, filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/extract", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestExtractAndImport(t *testing.T) {
	h := newHarness(t)

	rec := h.upload("guide.md", "text/markdown", []byte("# Heaps\n- tries\n- union find\nplain prose line\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("extract status = %d, body %s", rec.Code, rec.Body)
	}
	var ex struct {
		Source     string   `json:"source"`
		Format     string   `json:"format"`
		Candidates []string `json:"candidates"`
	}
	decodeBody(t, rec, &ex)
	if ex.Format != "markdown" || len(ex.Candidates) != 3 || ex.Candidates[2] != "Union Find" {
		t.Fatalf("extract = %+v", ex)
	}

	body, _ := json.Marshal(map[string]any{"source": ex.Source, "names": ex.Candidates})
	rec = h.authed(http.MethodPost, "/api/topics/import", string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body)
	}
	var imp struct {
		Imported []tracker.Topic `json:"imported"`
		Skipped  int             `json:"skipped"`
	}
	decodeBody(t, rec, &imp)
	if len(imp.Imported) != 3 || imp.Skipped != 0 {
		t.Fatalf("import = %+v", imp)
	}
	if imp.Imported[0].Description != "Extracted from guide.md" || imp.Imported[0].Tags[0] != "Imported" {
		t.Errorf("imported topic = %+v", imp.Imported[0])
	}

	// Importing again skips everything.
	decodeBody(t, h.authed(http.MethodPost, "/api/topics/import", string(body)), &imp)
	if len(imp.Imported) != 0 || imp.Skipped != 3 {
		t.Errorf("second import = %+v", imp)
	}
}

func TestExtractPDF(t *testing.T) {
	h := newHarness(t)
	guide, err := os.ReadFile(filepath.Join("..", "extract", "testdata", "guide.pdf"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	rec := h.upload("guide.pdf", "application/pdf", guide)
	if rec.Code != http.StatusOK {
		t.Fatalf("extract status = %d, body %s", rec.Code, rec.Body)
	}
	var ex struct {
		Source     string   `json:"source"`
		Format     string   `json:"format"`
		Candidates []string `json:"candidates"`
	}
	decodeBody(t, rec, &ex)
	if ex.Format != "pdf" || ex.Source != "guide.pdf" || len(ex.Candidates) != 4 {
		t.Errorf("extract = %+v", ex)
	}
}

func TestExtractRejects(t *testing.T) {
	h := newHarness(t)

	rec := h.upload("guide.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK"))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("docx status = %d, want 415", rec.Code)
	}

	rec = h.upload("broken.pdf", "application/pdf", []byte("%PDF-1.4"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("corrupt pdf status = %d, want 400", rec.Code)
	}

	big := bytes.Repeat([]byte("- topic line\n"), (1<<20)/10)
	rec = h.upload("big.txt", "text/plain", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize status = %d, want 413", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents/extract", strings.NewReader("x"))
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", rec.Code)
	}
}

func TestCatalogs(t *testing.T) {
	dir := t.TempDir()
	yaml := "id: starter\nname: Starter\ntopics:\n  - name: Stacks\n  - name: Queues\n"
	if err := os.WriteFile(filepath.Join(dir, "c.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	loader, err := catalog.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	h := newHarness(t, func(o *api.Options) { o.Catalogs = loader })

	var list []struct {
		ID         string `json:"id"`
		TopicCount int    `json:"topicCount"`
	}
	decodeBody(t, h.authed(http.MethodGet, "/api/catalogs", ""), &list)
	if len(list) != 1 || list[0].ID != "starter" || list[0].TopicCount != 2 {
		t.Fatalf("catalogs = %+v", list)
	}

	rec := h.authed(http.MethodPost, "/api/catalogs/starter/import", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body)
	}
	var topics []tracker.Topic
	decodeBody(t, h.authed(http.MethodGet, "/api/topics", ""), &topics)
	if len(topics) != 2 {
		t.Errorf("topics after import = %d, want 2", len(topics))
	}

	if rec := h.authed(http.MethodPost, "/api/catalogs/missing/import", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing catalog status = %d, want 404", rec.Code)
	}
}

func TestReportDownload(t *testing.T) {
	h := newHarness(t)
	h.authed(http.MethodPost, "/api/logs", `{"date":"2025-03-15","questionsSolved":4}`)

	rec := h.authed(http.MethodGet, "/api/reports/analytics.xlsx?period=7&asOf=2025-03-15", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "progress-2025-03-15-7d.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	total, _ := f.GetCellValue("Summary", "B4")
	if total != "4" {
		t.Errorf("total questions cell = %q, want 4", total)
	}
}

func TestDisplayLegend(t *testing.T) {
	h := newHarness(t)
	var legend struct {
		Categories map[string]struct {
			Color string `json:"color"`
		} `json:"categories"`
	}
	decodeBody(t, h.do(http.MethodGet, "/api/display", "", ""), &legend)
	if legend.Categories["DSA"].Color != "blue" {
		t.Errorf("DSA color = %q", legend.Categories["DSA"].Color)
	}
}

func TestLiveUpdatesOverWebSocket(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live?access_token=" + h.token
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for h.hub.Subscribers("u1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if rec := h.authed(http.MethodPost, "/api/logs", `{"date":"2025-03-15","questionsSolved":2}`); rec.Code != http.StatusOK {
		t.Fatalf("log status = %d", rec.Code)
	}

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Current int `json:"currentStreak"`
		} `json:"data"`
	}
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if msg.Type != tracker.MessageStreak || msg.Data.Current != 1 {
		t.Errorf("message = %+v", msg)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestLiveRequiresSession(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.handler)
	defer srv.Close()

	_, resp, err := websocket.Dial(t.Context(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/live", nil)
	if err == nil {
		t.Fatal("Dial() without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}
