package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/domain"
)

// statusOf maps a domain error kind to an HTTP status. The core never does
// this mapping itself; it is transport glue only.
func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes a tagged error response.
func Fail(c *gin.Context, err error) {
	if e, ok := err.(*domain.Error); ok {
		c.JSON(statusOf(e), gin.H{"error": e.Message, "code": e.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
}
