package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/vecdash/internal/model"
	"github.com/xxxsen/vecdash/internal/pkg/errcode"
	"github.com/xxxsen/vecdash/internal/pkg/response"
	"github.com/xxxsen/vecdash/internal/service"
)

// Dashboard is the read side the handlers need.
type Dashboard interface {
	Overview(ctx context.Context) (*service.Overview, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	ListEmbeddings(ctx context.Context) ([]model.Embedding, error)
	Stats(ctx context.Context) (*model.Stats, error)
	Ping(ctx context.Context) error
}

type Searcher interface {
	Search(ctx context.Context, input string) ([]float32, []model.SearchResult, error)
	SearchVector(ctx context.Context, query []float32) ([]model.SearchResult, error)
}

type APIHandler struct {
	dashboard Dashboard
	search    Searcher
}

func NewAPIHandler(dashboard Dashboard, search Searcher) *APIHandler {
	return &APIHandler{dashboard: dashboard, search: search}
}

func (h *APIHandler) Users(c *gin.Context) {
	users, err := h.dashboard.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, users)
}

func (h *APIHandler) Documents(c *gin.Context) {
	docs, err := h.dashboard.ListDocuments(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *APIHandler) Embeddings(c *gin.Context) {
	items, err := h.dashboard.ListEmbeddings(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *APIHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *APIHandler) Health(c *gin.Context) {
	if err := h.dashboard.Ping(c.Request.Context()); err != nil {
		logError(c, http.StatusServiceUnavailable, err)
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrDatabaseUnavailable, "database unavailable")
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// searchRequest accepts the vector either as a delimited string or as a
// JSON array.
type searchRequest struct {
	Vector string    `json:"vector" form:"vector"`
	Values []float32 `json:"values"`
}

type searchResponse struct {
	Query   []float32            `json:"query"`
	Results []model.SearchResult `json:"results"`
}

func (h *APIHandler) Search(c *gin.Context) {
	var req searchRequest
	if c.Request.Method == http.MethodGet {
		req.Vector = c.Query("vector")
	} else if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Values != nil {
		results, err := h.search.SearchVector(c.Request.Context(), req.Values)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, searchResponse{Query: req.Values, Results: results})
		return
	}
	query, results, err := h.search.Search(c.Request.Context(), strings.TrimSpace(req.Vector))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, searchResponse{Query: query, Results: results})
}
