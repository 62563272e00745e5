package api

import (
	"github.com/epochgraph/epochgraph/internal/domain"
)

// Handler repository interfaces alias the canonical domain interfaces.
// Handlers depend on these names so the wiring in cmd stays explicit
// about which surface each handler consumes.
type (
	// EntityRepository defines entity mutations used by EntityHandler.
	EntityRepository = domain.EntityService

	// OntologyRepository defines entity-type operations used by OntologyHandler.
	OntologyRepository = domain.OntologyService

	// QueryRepository defines subgraph queries used by QueryHandler.
	QueryRepository = domain.QueryService

	// WebRepository defines web and account provisioning used by WebHandler.
	WebRepository = domain.WebService

	// EmbeddingRepository accepts embedding vectors, used by EmbeddingHandler.
	EmbeddingRepository = domain.EmbeddingService
)
