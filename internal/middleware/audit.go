package middleware

import (
	"context"
	"fmt"
	"strings"

	"gamelibrary/internal/model"
	"gamelibrary/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// LogActivity records action after the handler ran. Failures to persist are logged and
// never change the response.
func LogActivity(action string, audit service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := &model.AuditLog{
			Action:   action,
			EntityID: entityID(c),
			IP:       c.ClientIP(),
			Details:  fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status()),
		}

		event := log.Info().Str("action", action).Str("ip", entry.IP).Int("status", c.Writer.Status())
		if caller, ok := CallerFrom(c); ok {
			id := caller.ID
			entry.UserID = &id
			entry.EntityName = caller.Email
			event = event.Uint("user_id", caller.ID).Str("name", caller.Name).Str("email", caller.Email)
		}
		event.Msg("activity")

		ctx := context.WithoutCancel(c.Request.Context())
		if err := audit.Record(ctx, entry); err != nil {
			log.Warn().Err(err).Str("action", action).Msg("failed to persist audit log")
		}
	}
}

func entityID(c *gin.Context) string {
	for _, name := range []string{"id", "userId", "entryId"} {
		if v := strings.TrimSpace(c.Param(name)); v != "" {
			return v
		}
	}
	return ""
}
