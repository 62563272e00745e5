package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// QueryHandler serves structural query endpoints: filtered subgraph
// queries and single-entity reads.
type QueryHandler struct {
	repo QueryRepository
	log  *logrus.Logger
}

// NewQueryHandler creates a QueryHandler with the given service and logger.
func NewQueryHandler(repo QueryRepository, log *logrus.Logger) *QueryHandler {
	return &QueryHandler{repo: repo, log: log}
}

// QueryEntities handles POST /api/v1/entities/query.
func (h *QueryHandler) QueryEntities(c *gin.Context) {
	var req models.QueryEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	subgraph, err := h.repo.QueryEntitySubgraph(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, h.log, "querying entities", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "entity.query",
		"actor_id": actorID,
		"roots":    len(subgraph.Roots.Entities),
		"entities": len(subgraph.Entities),
	}).Info("audit")

	c.JSON(http.StatusOK, subgraph)
}

// QueryEntityTypes handles POST /api/v1/entity-types/query.
func (h *QueryHandler) QueryEntityTypes(c *gin.Context) {
	var req models.QueryEntityTypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	actorID := getActorID(c)
	if actorID == uuid.Nil {
		return
	}

	subgraph, err := h.repo.QueryEntityTypeSubgraph(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, h.log, "querying entity types", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "entity_type.query",
		"actor_id": actorID,
		"types":    len(subgraph.EntityTypes),
	}).Info("audit")

	c.JSON(http.StatusOK, subgraph)
}

// Get handles GET /api/v1/entities/:id. The id path parameter uses the
// tilde form "web~uuid" (or "web~uuid~draft" for drafts). Optional
// decision_time and transaction_time query parameters (RFC 3339) read
// the entity as of those instants; both default to now.
func (h *QueryHandler) Get(c *gin.Context) {
	id, err := models.ParseEntityID(c.Param("id"))
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

	entity, err := h.repo.GetEntity(c.Request.Context(), actorID, id, axes)
	if err != nil {
		respondServiceError(c, h.log, "getting entity", err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "entity.get",
		"actor_id":  actorID,
		"entity_id": id,
	}).Info("audit")

	c.JSON(http.StatusOK, entity)
}

// axesFromQuery builds resolved temporal axes from optional query
// parameters. A supplied decision_time narrows the variable axis to
// that instant; a supplied transaction_time moves the pinned instant.
func axesFromQuery(c *gin.Context) (temporal.QueryTemporalAxes, error) {
	unresolved := temporal.DefaultAxes()

	if raw := c.Query("transaction_time"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return temporal.QueryTemporalAxes{}, fmt.Errorf("invalid transaction_time: %w", err)
		}

		unresolved.Pinned.Timestamp = &ts
	}

	if raw := c.Query("decision_time"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return temporal.QueryTemporalAxes{}, fmt.Errorf("invalid decision_time: %w", err)
		}

		bound := temporal.Inclusive(ts)
		unresolved.Variable.Start = &bound
		unresolved.Variable.End = &bound
	}

	return unresolved.Resolve(time.Now()), nil
}
