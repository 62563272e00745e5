package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// typeSpec describes one entity type version to seed. Parents lists
// direct parent URLs; the transitive closure is derived at insert time.
type typeSpec struct {
	URL     string
	Schema  string
	Parents []string
}

const typeBase = "https://demo.epochgraph.dev/types/"

// Demo type URLs, versioned the way the server expects them.
const (
	typeAgent      = typeBase + "agent/v/1"
	typePerson     = typeBase + "person/v/1"
	typeOrg        = typeBase + "organization/v/1"
	typeEmployedBy = typeBase + "employed-by/v/1"
)

// demoTypes returns a small inheritance hierarchy: person and
// organization both inherit from agent; employed-by is a link type.
func demoTypes() []typeSpec {
	return []typeSpec{
		{
			URL:    typeAgent,
			Schema: `{"title": "Agent", "type": "object"}`,
		},
		{
			URL:     typePerson,
			Schema:  `{"title": "Person", "type": "object", "properties": {"name": {"type": "string"}}}`,
			Parents: []string{typeAgent},
		},
		{
			URL:     typeOrg,
			Schema:  `{"title": "Organization", "type": "object", "properties": {"name": {"type": "string"}}}`,
			Parents: []string{typeAgent},
		},
		{
			URL:    typeEmployedBy,
			Schema: `{"title": "Employed By", "type": "object", "properties": {"role": {"type": "string"}}}`,
		},
	}
}

// ontologyID derives the deterministic storage ID of a type from its
// versioned URL, matching the server's derivation.
func ontologyID(url string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url))
}

// insertTypes writes the type identity, temporal, ownership, schema and
// inheritance-closure rows for every spec.
func insertTypes(ctx context.Context, tx pgx.Tx, types []typeSpec, webID uuid.UUID) error {
	for _, spec := range types {
		id := ontologyID(spec.URL)
		base, version, err := splitVersionedURL(spec.URL)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO ontology_ids (ontology_id, base_url, version)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (ontology_id) DO NOTHING`,
			id, base, version)
		if err != nil {
			return fmt.Errorf("type identity %s: %w", spec.URL, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO ontology_temporal_metadata (ontology_id, transaction_time)
			 VALUES ($1, tstzrange(now(), NULL, '[)'))`,
			id)
		if err != nil {
			return fmt.Errorf("type temporal %s: %w", spec.URL, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO ontology_owned_metadata (ontology_id, web_id)
			 VALUES ($1, $2)
			 ON CONFLICT (ontology_id) DO NOTHING`,
			id, webID)
		if err != nil {
			return fmt.Errorf("type ownership %s: %w", spec.URL, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO entity_types (ontology_id, "schema")
			 VALUES ($1, $2)
			 ON CONFLICT (ontology_id) DO NOTHING`,
			id, spec.Schema)
		if err != nil {
			return fmt.Errorf("type schema %s: %w", spec.URL, err)
		}

		slog.Info("seeded entity type", "url", spec.URL)
	}

	// Inheritance closure. The demo hierarchy is one level deep, so the
	// closure is just the direct parent rows.
	for _, spec := range types {
		sourceID := ontologyID(spec.URL)
		for _, parent := range spec.Parents {
			_, err := tx.Exec(ctx,
				`INSERT INTO entity_type_inherits_from
				     (source_entity_type_ontology_id, target_entity_type_ontology_id, depth)
				 VALUES ($1, $2, 1)
				 ON CONFLICT DO NOTHING`,
				sourceID, ontologyID(parent))
			if err != nil {
				return fmt.Errorf("inheritance %s -> %s: %w", spec.URL, parent, err)
			}
		}
	}

	return nil
}

// typeClosure returns the type IDs an entity of the given direct types
// is an instance of, keyed by inheritance depth.
func typeClosure(types []typeSpec, directURLs []string) map[uuid.UUID]int {
	byURL := make(map[string]typeSpec, len(types))
	for _, spec := range types {
		byURL[spec.URL] = spec
	}

	closure := make(map[uuid.UUID]int)
	for _, url := range directURLs {
		closure[ontologyID(url)] = 0
		for _, parent := range byURL[url].Parents {
			if _, seen := closure[ontologyID(parent)]; !seen {
				closure[ontologyID(parent)] = 1
			}
		}
	}
	return closure
}
