package handler

import (
	"embed"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"formatVector": formatVector,
	"formatScore":  formatScore,
	"formatTime":   formatTime,
	"inc":          func(i int) int { return i + 1 },
}).ParseFS(templatesFS, "templates/*.html"))

func formatVector(vec []float32) string {
	if vec == nil {
		return "-"
	}
	parts := make([]string, 0, len(vec))
	for _, v := range vec {
		parts = append(parts, strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func renderPage(c *gin.Context, status int, name string, data interface{}) {
	c.Render(status, render.HTML{Template: pageTemplates, Name: name, Data: data})
}
