package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/models"
)

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// formatEmbedding converts a float32 slice to the pgvector string format "[0.1,0.2,...]".
func formatEmbedding(embedding []float32) string {
	var b strings.Builder
	b.Grow(len(embedding)*8 + 2)
	b.WriteByte('[')

	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}

	b.WriteByte(']')

	return b.String()
}

// resolveOntologyIDs maps versioned type URLs to stored ontology IDs.
// Every URL must resolve; a missing one fails the whole batch with
// ErrEntityTypeNotFound.
func resolveOntologyIDs(ctx context.Context, q querier, urls []models.VersionedURL) (map[models.VersionedURL]uuid.UUID, error) {
	resolved := make(map[models.VersionedURL]uuid.UUID, len(urls))
	if len(urls) == 0 {
		return resolved, nil
	}

	baseURLs := make([]string, len(urls))
	versions := make([]int64, len(urls))
	for i, u := range urls {
		baseURLs[i] = u.BaseURL
		versions[i] = int64(u.Version)
	}

	rows, err := q.Query(ctx,
		`SELECT oi.ontology_id, oi.base_url, oi.version
		 FROM unnest($1::text[], $2::bigint[]) AS want(base_url, version)
		 JOIN ontology_ids oi
		   ON oi.base_url = want.base_url AND oi.version = want.version`,
		baseURLs, versions,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving ontology ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  uuid.UUID
			url models.VersionedURL
		)
		if err := rows.Scan(&id, &url.BaseURL, &url.Version); err != nil {
			return nil, fmt.Errorf("scanning ontology id: %w", err)
		}

		resolved[url] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ontology ids: %w", err)
	}

	for _, u := range urls {
		if _, ok := resolved[u]; !ok {
			return nil, fmt.Errorf("%s: %w", u, models.ErrEntityTypeNotFound)
		}
	}

	return resolved, nil
}
