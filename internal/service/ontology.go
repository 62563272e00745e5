package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/domain"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// OntologyStore is the data-access interface OntologyService depends on.
type OntologyStore interface {
	CreateEntityType(ctx context.Context, actorID uuid.UUID, req models.CreateEntityTypeRequest) (*models.EntityType, error)
	ArchiveEntityType(ctx context.Context, actorID uuid.UUID, req models.ArchiveEntityTypeRequest) error
	GetEntityTypeByURL(ctx context.Context, url models.VersionedURL, axes temporal.QueryTemporalAxes) (*models.EntityType, error)
}

// EntityTypeEmbeddingResetter invalidates a stored type embedding.
type EntityTypeEmbeddingResetter interface {
	ResetEntityTypeEmbedding(ctx context.Context, url models.VersionedURL) error
}

// Compile-time check: *OntologyService must satisfy domain.OntologyService.
var _ domain.OntologyService = (*OntologyService)(nil)

// OntologyService wraps OntologyStore with context-aware logging.
type OntologyService struct {
	store      OntologyStore
	embeddings EntityTypeEmbeddingResetter
	log        *logrus.Logger
}

// NewOntologyService creates an OntologyService.
func NewOntologyService(store OntologyStore, embeddings EntityTypeEmbeddingResetter, log *logrus.Logger) *OntologyService {
	return &OntologyService{store: store, embeddings: embeddings, log: log}
}

// CreateEntityType registers a new entity type version (pass-through).
func (s *OntologyService) CreateEntityType(ctx context.Context, actorID uuid.UUID, req models.CreateEntityTypeRequest) (*models.EntityType, error) {
	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"web_id":   req.WebID,
		"url":      req.URL,
	}).Debug("entity_type.create")

	return s.store.CreateEntityType(ctx, actorID, req)
}

// ArchiveEntityType closes a type version's transaction-time interval
// and drops any embedding stored for it.
func (s *OntologyService) ArchiveEntityType(ctx context.Context, actorID uuid.UUID, req models.ArchiveEntityTypeRequest) error {
	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"url":      req.URL,
	}).Debug("entity_type.archive")

	if err := s.store.ArchiveEntityType(ctx, actorID, req); err != nil {
		return err
	}

	if s.embeddings != nil {
		if err := s.embeddings.ResetEntityTypeEmbedding(ctx, req.URL); err != nil {
			s.log.WithError(err).WithField("url", req.URL).Warn("Failed to reset type embedding after archive")
		}
	}

	return nil
}

// GetEntityTypeByURL returns a single type version (pass-through).
func (s *OntologyService) GetEntityTypeByURL(ctx context.Context, url models.VersionedURL, axes temporal.QueryTemporalAxes) (*models.EntityType, error) {
	return s.store.GetEntityTypeByURL(ctx, url, axes)
}
