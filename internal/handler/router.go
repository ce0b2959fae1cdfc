package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Pages *PageHandler
	API   *APIHandler
}

func RegisterRoutes(root *gin.RouterGroup, deps RouterDeps) {
	root.GET("/", deps.Pages.Index)
	root.GET("/search", deps.Pages.SearchForm)
	root.POST("/search", deps.Pages.SearchSubmit)
	root.GET("/healthz", deps.API.Health)

	api := root.Group("/api")
	api.GET("/users", deps.API.Users)
	api.GET("/documents", deps.API.Documents)
	api.GET("/embeddings", deps.API.Embeddings)
	api.GET("/stats", deps.API.Stats)
	api.GET("/search", deps.API.Search)
	api.POST("/search", deps.API.Search)
}
