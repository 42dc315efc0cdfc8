package response

import (
	"net/http"

	"update-tracker/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Error renders err with the status matching its kind. Internal causes are
// never written to the client.
func Error(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.Message(err),
		"kind":  apperr.KindOf(err),
	})
}

// BadRequest renders a request binding failure.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"kind":  apperr.KindInvalidArgument,
	})
}
