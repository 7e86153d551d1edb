package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
)

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind errdefs.Kind) int {
	switch kind {
	case errdefs.KindNotFound:
		return http.StatusNotFound
	case errdefs.KindInvalid:
		return http.StatusBadRequest
	case errdefs.KindNotInstalled:
		return http.StatusFailedDependency
	case errdefs.KindPortExhausted:
		return http.StatusConflict
	case errdefs.KindStartTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a failed Result.
func fail(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge,
			types.Failure(string(errdefs.KindInvalid), "request body too large"))
		return
	}

	kind := errdefs.KindOf(err)
	_ = c.Error(err)
	c.JSON(StatusFor(kind), types.Failure(string(kind), err.Error()))
}
