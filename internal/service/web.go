package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/domain"
	"github.com/epochgraph/epochgraph/internal/models"
)

// WebStore is the data-access interface WebService depends on.
type WebStore interface {
	CreateWeb(ctx context.Context, actorID uuid.UUID, req models.CreateWebRequest) (*models.Web, error)
	GetWebByShortname(ctx context.Context, shortname string) (*models.Web, error)
	CreateAccount(ctx context.Context, webID uuid.UUID) (*models.Account, error)
}

// Compile-time check: *WebService must satisfy domain.WebService.
var _ domain.WebService = (*WebService)(nil)

// WebService wraps WebStore with context-aware logging.
type WebService struct {
	store WebStore
	log   *logrus.Logger
}

// NewWebService creates a WebService.
func NewWebService(store WebStore, log *logrus.Logger) *WebService {
	return &WebService{store: store, log: log}
}

// CreateWeb provisions a new web (pass-through).
func (s *WebService) CreateWeb(ctx context.Context, actorID uuid.UUID, req models.CreateWebRequest) (*models.Web, error) {
	s.log.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"shortname": req.Shortname,
	}).Debug("web.create")

	return s.store.CreateWeb(ctx, actorID, req)
}

// GetWebByShortname looks up one web (pass-through).
func (s *WebService) GetWebByShortname(ctx context.Context, shortname string) (*models.Web, error) {
	return s.store.GetWebByShortname(ctx, shortname)
}

// CreateAccount provisions an actor bound to a web (pass-through).
func (s *WebService) CreateAccount(ctx context.Context, webID uuid.UUID) (*models.Account, error) {
	s.log.WithField("web_id", webID).Debug("account.create")

	return s.store.CreateAccount(ctx, webID)
}
