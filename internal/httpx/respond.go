// Package httpx holds small helpers shared by the HTTP handlers.
package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/craftycorner/backend/internal/apperror"
)

// Error writes the uniform error body: a stable machine-readable code
// plus a human-readable message.
func Error(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(err), gin.H{
		"code":    apperror.CodeOf(err),
		"message": apperror.MessageOf(err),
	})
}
