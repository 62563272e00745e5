package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/models"
)

// EntityHandler serves entity mutation endpoints.
type EntityHandler struct {
	repo EntityRepository
	log  *logrus.Logger
}

// NewEntityHandler creates an EntityHandler with the given service and logger.
func NewEntityHandler(repo EntityRepository, log *logrus.Logger) *EntityHandler {
	return &EntityHandler{repo: repo, log: log}
}

// Create handles POST /api/v1/entities.
func (h *EntityHandler) Create(c *gin.Context) {
	var req models.CreateEntityRequest
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

	entity, err := h.repo.CreateEntity(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, h.log, "creating entity", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "entity.create",
		"actor_id":  actorID,
		"entity_id": entity.ID,
		"draft":     entity.ID.IsDraft(),
	}).Info("audit")

	c.JSON(http.StatusCreated, entity)
}

// Update handles PATCH /api/v1/entities. It appends a new edition to
// the entity named in the body; the previous edition stays readable
// through its historical decision interval.
func (h *EntityHandler) Update(c *gin.Context) {
	var req models.UpdateEntityRequest
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

	entity, err := h.repo.UpdateEntity(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, h.log, "updating entity", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     "entity.update",
		"actor_id":   actorID,
		"entity_id":  entity.ID,
		"edition_id": entity.EditionID,
	}).Info("audit")

	c.JSON(http.StatusOK, entity)
}

// promoteDraftRequest is the payload for promoting a draft entity.
type promoteDraftRequest struct {
	EntityID models.EntityID `json:"entity_id"`
}

// PromoteDraft handles POST /api/v1/entities/promote. The draft
// lineage named in the body becomes the entity's canonical series.
func (h *EntityHandler) PromoteDraft(c *gin.Context) {
	var req promoteDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if !req.EntityID.IsDraft() {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "entity id must name a draft")

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	entity, err := h.repo.PromoteDraft(c.Request.Context(), actorID, req.EntityID)
	if err != nil {
		respondServiceError(c, h.log, "promoting draft", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "entity.promote_draft",
		"actor_id":  actorID,
		"entity_id": entity.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, entity)
}
