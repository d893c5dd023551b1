package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// All error responses use the same envelope: {"detail": "..."}.

// RespondError sends the error envelope with the given status.
func RespondError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// AbortError sends the error envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, detail string) {
	RespondError(c, http.StatusBadRequest, detail)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, detail string) {
	AbortError(c, http.StatusUnauthorized, detail)
}

// Forbidden sends a 403 error
func Forbidden(c *gin.Context, detail string) {
	AbortError(c, http.StatusForbidden, detail)
}

// UnprocessableEntity sends a 422 error
func UnprocessableEntity(c *gin.Context, detail string) {
	RespondError(c, http.StatusUnprocessableEntity, detail)
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, detail string) {
	RespondError(c, http.StatusInternalServerError, detail)
}

// BadGateway sends a 502 error for upstream model failures
func BadGateway(c *gin.Context, detail string) {
	RespondError(c, http.StatusBadGateway, detail)
}

// GatewayTimeout sends a 504 error when the model call timed out
func GatewayTimeout(c *gin.Context, detail string) {
	RespondError(c, http.StatusGatewayTimeout, detail)
}
