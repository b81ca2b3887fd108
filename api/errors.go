package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/status"
)

type errorBody struct {
	Kind    apperr.Kind    `json:"kind"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps err to an HTTP status through its gRPC code, the same
// mapping the gateway applies, and writes it as {"error": {...}}.
func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("internal error", err)
	}

	httpStatus := http.StatusInternalServerError
	if st, ok := status.FromError(appErr); ok {
		httpStatus = runtime.HTTPStatusFromCode(st.Code())
	}

	body := errorBody{
		Kind:    appErr.Kind,
		Code:    appErr.Code,
		Message: appErr.Message,
		Field:   appErr.Field,
		Details: appErr.Details,
	}
	if appErr.Kind == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
		body.Message = "internal error"
		body.Details = nil
	}
	c.JSON(httpStatus, gin.H{"error": body})
}
