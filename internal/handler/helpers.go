package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vecdash/internal/pkg/errcode"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/pkg/response"
)

// classifyError maps an error to the HTTP status, envelope code and the
// message safe to show the caller.
func classifyError(err error) (int, int, string) {
	var validation *appErr.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errcode.ErrInvalidVector, validation.Reason
	case errors.Is(err, appErr.ErrInvalid):
		return http.StatusBadRequest, errcode.ErrInvalid, "invalid request"
	case errors.Is(err, appErr.ErrNotFound):
		return http.StatusNotFound, errcode.ErrNotFound, "not found"
	case appErr.IsConnection(err):
		return http.StatusInternalServerError, errcode.ErrDatabaseUnavailable, "database unavailable"
	default:
		return http.StatusInternalServerError, errcode.ErrInternal, "internal error"
	}
}

func logError(c *gin.Context, status int, err error) {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
	logger := logutil.GetLogger(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
		return
	}
	logger.Warn("request rejected", fields...)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, message := classifyError(err)
	logError(c, status, err)
	response.Error(c, status, code, message)
}
