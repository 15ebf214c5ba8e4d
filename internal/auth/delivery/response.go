package delivery

import (
	"errors"
	"net/http"

	authdomain "ireporter-backend/internal/auth/domain"
	authdto "ireporter-backend/internal/auth/dto"

	"github.com/gin-gonic/gin"
)

// abortWithError writes {"status": code, "error": message}. Only domain errors
// reach the client verbatim; anything else becomes a generic 500.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := authdomain.MsgInternal

	var domainErr *authdomain.Error
	if errors.As(err, &domainErr) {
		status = domainErr.Kind.StatusCode()
		message = domainErr.Message
	}

	c.AbortWithStatusJSON(status, authdto.ErrorResponse{
		Status: status,
		Error:  message,
	})
}

func respondData(c *gin.Context, status int, data ...any) {
	c.JSON(status, authdto.Envelope{
		Status: status,
		Data:   data,
	})
}
