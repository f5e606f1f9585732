package handler

import (
	"kpr-backend/pkg/apperr"
	"kpr-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondErr maps engine errors to their HTTP status via the sentinel
// table and writes the standard error envelope.
func respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// pathUUID parses a :param path segment as a UUID, writing a 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondErr(c, apperr.ErrInvalidParameters)
		return uuid.Nil, false
	}
	return id, true
}
