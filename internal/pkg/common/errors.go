package common

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error envelope returned by every API route. Kind is a
// machine-readable discriminant so clients can branch without matching on the
// message text.
type ErrorResponse struct {
	Kind      string `json:"kind"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Error kinds surfaced to clients.
const (
	KindValidation     = "validation"
	KindNotFound       = "not_found"
	KindConflict       = "conflict"
	KindInUseByRecipe  = "in_use_by_recipe"
	KindLastIngredient = "last_ingredient"
	KindInternal       = "internal"
)

// Message used whenever an internal error must not leak detail.
const InternalErrorMessage = "internal server error"

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Kind:      kind,
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
