package handler

import (
	"strconv"

	"gamelibrary/internal/apperror"
	"gamelibrary/internal/validation"
	"gamelibrary/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError writes the error envelope. Internal causes are logged, never sent.
func respondError(c *gin.Context, err error) {
	if apperror.KindOf(err) == apperror.Internal {
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
	}
	c.JSON(response.FromError(err))
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(response.OK(data))
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(response.Created(data))
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, validation.FromError(err))
		return false
	}
	return true
}

// pathID parses a positive integer path parameter, answering 400 on failure.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperror.New(apperror.Validation, "invalid "+name))
		return 0, false
	}
	return uint(id), true
}
