package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/vecdash/internal/middleware"
	"github.com/xxxsen/vecdash/internal/model"
	"github.com/xxxsen/vecdash/internal/pkg/errcode"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/pkg/vecmath"
	"github.com/xxxsen/vecdash/internal/service"
)

type fakeDashboard struct {
	users      []model.User
	documents  []model.Document
	embeddings []model.Embedding
	err        error
}

func (f *fakeDashboard) Overview(ctx context.Context) (*service.Overview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.Overview{Users: f.users, Documents: f.documents, Embeddings: f.embeddings}, nil
}

func (f *fakeDashboard) ListUsers(ctx context.Context) ([]model.User, error) {
	return f.users, f.err
}

func (f *fakeDashboard) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return f.documents, f.err
}

func (f *fakeDashboard) ListEmbeddings(ctx context.Context) ([]model.Embedding, error) {
	return f.embeddings, f.err
}

func (f *fakeDashboard) Stats(ctx context.Context) (*model.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Stats{
		Users:      int64(len(f.users)),
		Documents:  int64(len(f.documents)),
		Embeddings: int64(len(f.embeddings)),
	}, nil
}

func (f *fakeDashboard) Ping(ctx context.Context) error {
	return f.err
}

// rankingStore ranks the fake dashboard's embeddings in memory.
type rankingStore struct {
	dashboard *fakeDashboard
	calls     int
}

func (s *rankingStore) Search(ctx context.Context, query []float32, limit int) ([]model.SearchResult, error) {
	s.calls++
	if s.dashboard.err != nil {
		return nil, s.dashboard.err
	}
	byID := map[int64]model.Embedding{}
	var candidates []vecmath.Candidate
	for _, e := range s.dashboard.embeddings {
		byID[e.ID] = e
		candidates = append(candidates, vecmath.Candidate{ID: e.ID, Vector: e.Vector})
	}
	var out []model.SearchResult
	for _, m := range vecmath.Rank(query, candidates, limit) {
		e := byID[m.ID]
		out = append(out, model.SearchResult{ID: e.ID, DocumentID: e.DocumentID, Content: e.Content, Score: m.Score})
	}
	return out, nil
}

func sampleDashboard() *fakeDashboard {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &fakeDashboard{
		users: []model.User{
			{ID: 5, Email: "alice@example.com", Tier: model.TierPro, CreatedAt: now},
			{ID: 42, Email: "bob@hk-tech.edu", Tier: model.TierFree, CreatedAt: now},
		},
		documents: []model.Document{
			{ID: 1, UserID: 42, Title: "Climate_Report.pdf", UploadDate: now},
			{ID: 2, UserID: 5, Title: "AI_Ethics_v2.pdf", UploadDate: now},
		},
		embeddings: []model.Embedding{
			{ID: 1, DocumentID: 1, Content: "Global temperatures rose by 1.5 degrees...", Vector: []float32{0.1, 0.9, 0.2}},
			{ID: 2, DocumentID: 2, Content: "The alignment problem in LLMs refers to...", Vector: []float32{0.7, 0.1, 0.8}},
		},
	}
}

func setupRouter(t *testing.T, dashboard *fakeDashboard) (http.Handler, *rankingStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := &rankingStore{dashboard: dashboard}
	search := service.NewSearchService(store, 3, 10)
	engine := gin.New()
	engine.Use(middleware.RequestID())
	RegisterRoutes(engine.Group(""), RouterDeps{
		Pages: NewPageHandler(dashboard, search, 3),
		API:   NewAPIHandler(dashboard, search),
	})
	return engine, store
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var body envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())
	w, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, body.Code)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	require.Equal(t, map[string]int64{"users": 2, "documents": 2, "embeddings": 2}, stats)
}

func TestListEndpoints(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())

	w, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/embeddings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var embeddings []model.Embedding
	require.NoError(t, json.Unmarshal(body.Data, &embeddings))
	require.Len(t, embeddings, 2)
	require.Equal(t, []float32{0.1, 0.9, 0.2}, embeddings[0].Vector)

	w, body = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var users []model.User
	require.NoError(t, json.Unmarshal(body.Data, &users))
	require.Equal(t, "alice@example.com", users[0].Email)

	w, body = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var docs []model.Document
	require.NoError(t, json.Unmarshal(body.Data, &docs))
	require.Len(t, docs, 2)
}

func TestAPISearchRanksResults(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())
	req := httptest.NewRequest(http.MethodGet, "/api/search?vector="+url.QueryEscape("0.15,0.85,0.15"), nil)
	w, body := doRequest(t, router, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Equal(t, []float32{0.15, 0.85, 0.15}, resp.Query)
	require.Len(t, resp.Results, 2)
	require.Equal(t, int64(1), resp.Results[0].ID)
	require.GreaterOrEqual(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestAPISearchJSONValues(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"values":[0.7,0.1,0.8]}`))
	req.Header.Set("Content-Type", "application/json")
	w, body := doRequest(t, router, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Equal(t, int64(2), resp.Results[0].ID)
	require.InDelta(t, 1.0, resp.Results[0].Score, 1e-6)
}

func TestAPISearchWrongDimension(t *testing.T) {
	router, store := setupRouter(t, sampleDashboard())
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"vector":"0.1 0.2"}`))
	req.Header.Set("Content-Type", "application/json")
	w, body := doRequest(t, router, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, errcode.ErrInvalidVector, body.Code)
	require.Equal(t, "query vector must have exactly 3 dimensions, got 2", body.Message)
	require.Equal(t, 0, store.calls)
}

func TestAPISearchEmptyStore(t *testing.T) {
	router, _ := setupRouter(t, &fakeDashboard{})
	w, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/search?vector=1+2+3", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.NotNil(t, resp.Results)
	require.Empty(t, resp.Results)
}

func TestDatabaseFailureIs500(t *testing.T) {
	dashboard := sampleDashboard()
	dashboard.err = &appErr.ConnectionError{Err: errors.New("dial tcp 127.0.0.1:5432: connection refused")}
	router, _ := setupRouter(t, dashboard)

	w, body := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, errcode.ErrDatabaseUnavailable, body.Code)
	require.NotContains(t, body.Message, "127.0.0.1")

	w, _ = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/api/search?vector=1,2,3", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w, _ = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIndexPage(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())
	w, _ := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice@example.com")
	require.Contains(t, w.Body.String(), "Climate_Report.pdf")
	require.Contains(t, w.Body.String(), "[0.1, 0.9, 0.2]")
}

func TestSearchPageSubmit(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())

	form := url.Values{"query_vector": {"0.15 0.85 0.15"}}
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w, _ := doRequest(t, router, req)
	require.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	first := strings.Index(html, "Global temperatures")
	second := strings.Index(html, "The alignment problem")
	require.True(t, first >= 0 && second > first, "closest embedding should be listed first")

	form = url.Values{"query_vector": {"0.1, abc, 0.3"}}
	req = httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w, _ = doRequest(t, router, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid vector component")
}

func TestSearchPageForm(t *testing.T) {
	router, _ := setupRouter(t, sampleDashboard())
	w, _ := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/search", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `name="query_vector"`)
}

func TestFormatHelpers(t *testing.T) {
	require.Equal(t, "[0.1, 0.9, 0.2]", formatVector([]float32{0.1, 0.9, 0.2}))
	require.Equal(t, "-", formatVector(nil))
	require.Equal(t, "0.9876", formatScore(0.98761))
	require.Equal(t, "-", formatTime(time.Time{}))
}

func TestAPIErrorIsRecordedForRequestLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dashboard := sampleDashboard()
	search := service.NewSearchService(&rankingStore{dashboard: dashboard}, 3, 10)
	var replyErr error
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Next()
		replyErr = proxyutil.GetReplyErrInfo(c)
	})
	RegisterRoutes(engine.Group(""), RouterDeps{
		Pages: NewPageHandler(dashboard, search, 3),
		API:   NewAPIHandler(dashboard, search),
	})

	w, body := doRequest(t, engine, httptest.NewRequest(http.MethodGet, "/api/search?vector=0.1,0.2", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, errcode.ErrInvalidVector, body.Code)
	require.Contains(t, w.Body.String(), `"data":null`)
	require.Error(t, replyErr)
	require.Equal(t, body.Message, replyErr.Error())

	w, _ = doRequest(t, engine, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, replyErr)
}
