// Package responses maps domain errors onto the HTTP error surface.
package responses

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/openivr/call-server/internal/infrastructure/store"
	"github.com/openivr/call-server/internal/utils/platformerrors"
)

// HandleError handles errors and writes appropriate HTTP responses.
// Store-specific errors map to their status codes; everything else
// goes through the platform error handler.
func HandleError(c *gin.Context, err error, message string) {
	logger := log.With().Str("path", c.Request.URL.Path).Logger()

	if errors.Is(err, store.ErrSessionNotFound) {
		platformerrors.WriteNotFound(c, message)
		return
	}
	if errors.Is(err, store.ErrSessionAlreadyExists) {
		platformerrors.WriteConflict(c, message)
		return
	}

	platformerrors.WriteError(c, err, logger)
}
