package client

import "context"

// EmbeddingService stores externally computed embedding vectors.
type EmbeddingService struct {
	c *Client
}

// UpsertEntity stores one entity embedding. The write is dropped
// server-side when the named edition is no longer current.
func (s *EmbeddingService) UpsertEntity(ctx context.Context, req *UpsertEntityEmbeddingRequest) error {
	return s.c.post(ctx, "/api/v1/embeddings/entity", req, nil)
}

// UpsertEntityType stores one entity-type embedding.
func (s *EmbeddingService) UpsertEntityType(ctx context.Context, req *UpsertEntityTypeEmbeddingRequest) error {
	return s.c.post(ctx, "/api/v1/embeddings/entity-type", req, nil)
}
