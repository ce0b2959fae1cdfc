package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/vecdash/internal/model"
)

type PageHandler struct {
	dashboard Dashboard
	search    Searcher
	dimension int
}

func NewPageHandler(dashboard Dashboard, search Searcher, dimension int) *PageHandler {
	return &PageHandler{dashboard: dashboard, search: search, dimension: dimension}
}

type indexPage struct {
	Title      string
	Error      string
	Users      []model.User
	Documents  []model.Document
	Embeddings []model.Embedding
}

type searchPage struct {
	Title     string
	Dimension int
	Input     string
	Searched  bool
	Query     []float32
	Results   []model.SearchResult
	Error     string
}

func (h *PageHandler) Index(c *gin.Context) {
	page := indexPage{Title: "Database overview"}
	overview, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		status, _, message := classifyError(err)
		logError(c, status, err)
		page.Error = message
		renderPage(c, status, "index.html", page)
		return
	}
	page.Users = overview.Users
	page.Documents = overview.Documents
	page.Embeddings = overview.Embeddings
	renderPage(c, http.StatusOK, "index.html", page)
}

func (h *PageHandler) SearchForm(c *gin.Context) {
	renderPage(c, http.StatusOK, "search.html", searchPage{Title: "Semantic search", Dimension: h.dimension})
}

func (h *PageHandler) SearchSubmit(c *gin.Context) {
	page := searchPage{
		Title:     "Semantic search",
		Dimension: h.dimension,
		Input:     strings.TrimSpace(c.PostForm("query_vector")),
	}
	query, results, err := h.search.Search(c.Request.Context(), page.Input)
	if err != nil {
		status, _, message := classifyError(err)
		logError(c, status, err)
		page.Error = message
		renderPage(c, status, "search.html", page)
		return
	}
	page.Searched = true
	page.Query = query
	page.Results = results
	renderPage(c, http.StatusOK, "search.html", page)
}
