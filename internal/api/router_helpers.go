package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/middleware"
	"github.com/epochgraph/epochgraph/internal/ws"
)

// getActorID extracts the authenticated actor ID from the Gin context.
// The auth middleware guarantees it is a valid UUID; a missing value
// means the route was wired without authentication.
func getActorID(c *gin.Context) uuid.UUID {
	actorID, err := uuid.Parse(c.GetString(middleware.ActorIDKey))
	if err != nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing actor identity")

		return uuid.Nil
	}

	return actorID
}

// getActorWebID extracts the actor's home web resolved by the auth middleware.
func getActorWebID(c *gin.Context) uuid.UUID {
	webID, err := uuid.Parse(c.GetString(middleware.ActorWebKey))
	if err != nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing actor web")

		return uuid.Nil
	}

	return webID
}

func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string, validator ws.ActorValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := getActorID(c)
		if actorID == uuid.Nil {
			return
		}

		webID := getActorWebID(c)
		if webID == uuid.Nil {
			return
		}

		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, validator, actorID)
		client.WebID = webID.String()
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if actor := c.GetString(middleware.ActorIDKey); actor != "" {
			fields["actor_id"] = actor
		}
		log.WithFields(fields).Info("request")
	}
}
