package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUnknownKind    = errors.New("unknown_collect_kind")
)

// ErrorHandlingMiddleware turns the last gin error into the structured
// error body. Handlers that already wrote a response are left alone.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, aptdomain.ErrInvalidID),
		errors.Is(err, regiondomain.ErrInvalidCode):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case errors.Is(err, aptdomain.ErrApartmentNotFound),
		errors.Is(err, regiondomain.ErrRegionNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
