package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/models"
)

// EmbeddingHandler accepts externally computed embedding vectors for
// entities and entity types. Vectors arrive with the timestamps of the
// edition they were computed from; stale vectors are dropped silently.
type EmbeddingHandler struct {
	repo EmbeddingRepository
	log  *logrus.Logger
}

// NewEmbeddingHandler creates an EmbeddingHandler with the given service and logger.
func NewEmbeddingHandler(repo EmbeddingRepository, log *logrus.Logger) *EmbeddingHandler {
	return &EmbeddingHandler{repo: repo, log: log}
}

// UpsertEntity handles POST /api/v1/embeddings/entity.
func (h *EmbeddingHandler) UpsertEntity(c *gin.Context) {
	var req models.UpsertEntityEmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	if err := h.repo.UpsertEntityEmbedding(c.Request.Context(), actorID, req); err != nil {
		respondServiceError(c, h.log, "upserting entity embedding", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "embedding.entity",
		"actor_id":  actorID,
		"entity_id": req.EntityID,
		"reset":     req.Reset,
	}).Info("audit")

	c.Status(http.StatusNoContent)
}

// UpsertEntityType handles POST /api/v1/embeddings/entity-type.
func (h *EmbeddingHandler) UpsertEntityType(c *gin.Context) {
	var req models.UpsertEntityTypeEmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	if err := h.repo.UpsertEntityTypeEmbedding(c.Request.Context(), actorID, req); err != nil {
		respondServiceError(c, h.log, "upserting entity type embedding", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "embedding.entity_type",
		"actor_id": actorID,
		"url":      req.URL,
	}).Info("audit")

	c.Status(http.StatusNoContent)
}
