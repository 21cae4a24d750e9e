package httpgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixcore/internal/domain"
)

// respondErr maps a service failure onto a status code and writes the
// domain message. Unclassified errors are attached to the context for the
// access log and hidden from the client.
func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		dup *domain.DuplicateError
		ve  *domain.ValidationError
		nf  *domain.NotFoundError
		ise *domain.IllegalStateError
	)

	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, ErrorResponse{Error: dup.Message})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Message})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: nf.Error()})
	case errors.As(err, &ise):
		c.JSON(http.StatusConflict, ErrorResponse{Error: ise.Message})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
