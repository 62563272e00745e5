package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// ActorIDHeader carries the authenticated actor's account ID.
	// Authentication proper (tokens, sessions) happens at an edge proxy;
	// this service only verifies the account exists and resolves its web.
	ActorIDHeader = "X-Actor-Id"

	// ActorIDKey is the gin context key for the resolved actor ID.
	ActorIDKey = "actor_id"

	// ActorWebKey is the gin context key for the actor's home web.
	ActorWebKey = "actor_web_id"
)

// ActorLookup resolves an account ID to the web it belongs to.
type ActorLookup interface {
	GetAccountWeb(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

// ActorAuth returns Gin middleware that requires a valid X-Actor-Id
// header naming a known account. The resolved actor and web IDs are
// stored on the context for handlers.
func ActorAuth(lookup ActorLookup, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorIDHeader)
		if raw == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing actor id header")
			return
		}

		actorID, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", "actor id must be a UUID")
			return
		}

		webID, err := lookup.GetAccountWeb(c.Request.Context(), actorID)
		if err != nil {
			log.WithFields(logrus.Fields{
				"client_ip":  c.ClientIP(),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"actor_id":   actorID,
				"request_id": c.GetString(RequestIDKey),
			}).Warn("authentication failed: unknown account")
			respondError(c, http.StatusUnauthorized, "unauthorized", "unknown account")
			return
		}

		c.Set(ActorIDKey, actorID.String())
		c.Set(ActorWebKey, webID.String())
		c.Next()
	}
}
