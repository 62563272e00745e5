package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/models"
)

// OntologyHandler serves entity-type endpoints.
type OntologyHandler struct {
	repo OntologyRepository
	log  *logrus.Logger
}

// NewOntologyHandler creates an OntologyHandler with the given service and logger.
func NewOntologyHandler(repo OntologyRepository, log *logrus.Logger) *OntologyHandler {
	return &OntologyHandler{repo: repo, log: log}
}

// Create handles POST /api/v1/entity-types.
func (h *OntologyHandler) Create(c *gin.Context) {
	var req models.CreateEntityTypeRequest
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

	entityType, err := h.repo.CreateEntityType(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, h.log, "creating entity type", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "entity_type.create",
		"actor_id": actorID,
		"url":      entityType.Metadata.URL,
	}).Info("audit")

	c.JSON(http.StatusCreated, entityType)
}

// Archive handles POST /api/v1/entity-types/archive. Archiving closes
// the type's transaction interval; historical queries still see it.
func (h *OntologyHandler) Archive(c *gin.Context) {
	var req models.ArchiveEntityTypeRequest
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

	if err := h.repo.ArchiveEntityType(c.Request.Context(), actorID, req); err != nil {
		respondServiceError(c, h.log, "archiving entity type", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "entity_type.archive",
		"actor_id": actorID,
		"url":      req.URL,
	}).Info("audit")

	c.Status(http.StatusNoContent)
}

// Get handles GET /api/v1/entity-types. The type is named by a url
// query parameter in versioned form, e.g.
// "https://example.com/types/person/v/2". Versioned URLs contain
// slashes, so a query parameter is used instead of a path segment.
func (h *OntologyHandler) Get(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "url query parameter is required")

		return
	}

	url, err := models.ParseVersionedURL(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	axes, err := axesFromQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	entityType, err := h.repo.GetEntityTypeByURL(c.Request.Context(), url, axes)
	if err != nil {
		respondServiceError(c, h.log, "getting entity type", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "entity_type.get",
		"actor_id": actorID,
		"url":      url,
	}).Info("audit")

	c.JSON(http.StatusOK, entityType)
}
