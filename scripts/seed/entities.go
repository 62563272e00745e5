package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// entitySpec describes one entity to seed. Name doubles as the
// deterministic UUID seed so reruns against a fresh database produce
// the same identities.
type entitySpec struct {
	Name       string
	Types      []string
	Properties string
}

// linkSpec describes one link entity connecting two seeded entities.
type linkSpec struct {
	Name  string
	Left  string
	Right string
}

// demoEntities returns the seeded graph: two people, one organization,
// and employment links connecting them.
func demoEntities() ([]entitySpec, []linkSpec) {
	entities := []entitySpec{
		{
			Name:       "ada",
			Types:      []string{typePerson},
			Properties: `{"name": "Ada Lovelace", "field": "mathematics"}`,
		},
		{
			Name:       "grace",
			Types:      []string{typePerson},
			Properties: `{"name": "Grace Hopper", "field": "computer science"}`,
		},
		{
			Name:       "acme",
			Types:      []string{typeOrg},
			Properties: `{"name": "Acme Research"}`,
		},
		{
			Name:       "ada-at-acme",
			Types:      []string{typeEmployedBy},
			Properties: `{"role": "analyst"}`,
		},
		{
			Name:       "grace-at-acme",
			Types:      []string{typeEmployedBy},
			Properties: `{"role": "director"}`,
		},
	}

	links := []linkSpec{
		{Name: "ada-at-acme", Left: "ada", Right: "acme"},
		{Name: "grace-at-acme", Left: "grace", Right: "acme"},
	}

	return entities, links
}

// insertEntities writes identity, edition, temporal and type-adjacency
// rows for every spec. Both temporal axes open at now and run
// unbounded.
func insertEntities(ctx context.Context, tx pgx.Tx, entities []entitySpec, webID, accountID uuid.UUID) error {
	closureTypes := demoTypes()

	for _, spec := range entities {
		entityUUID := seedUUID(spec.Name, "entity")
		editionID := seedUUID(spec.Name, "edition")

		_, err := tx.Exec(ctx,
			`INSERT INTO entity_ids (web_id, entity_uuid, created_by)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (web_id, entity_uuid) DO NOTHING`,
			webID, entityUUID, accountID)
		if err != nil {
			return fmt.Errorf("entity identity %s: %w", spec.Name, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO entity_editions (entity_edition_id, properties, provenance)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (entity_edition_id) DO NOTHING`,
			editionID, spec.Properties, fmt.Sprintf(`{"actor": %q, "source": "seed"}`, accountID))
		if err != nil {
			return fmt.Errorf("entity edition %s: %w", spec.Name, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO entity_temporal_metadata
			     (web_id, entity_uuid, draft_id, entity_edition_id, decision_time, transaction_time)
			 VALUES ($1, $2, NULL, $3, tstzrange(now(), NULL, '[)'), tstzrange(now(), NULL, '[)'))`,
			webID, entityUUID, editionID)
		if err != nil {
			return fmt.Errorf("entity temporal %s: %w", spec.Name, err)
		}

		for typeID, depth := range typeClosure(closureTypes, spec.Types) {
			_, err = tx.Exec(ctx,
				`INSERT INTO entity_is_of_type (entity_edition_id, entity_type_ontology_id, inheritance_depth)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (entity_edition_id, entity_type_ontology_id) DO NOTHING`,
				editionID, typeID, depth)
			if err != nil {
				return fmt.Errorf("entity types %s: %w", spec.Name, err)
			}
		}

		slog.Info("seeded entity", "name", spec.Name, "uuid", entityUUID.String())
	}

	return nil
}

// insertLinks writes the endpoint adjacency rows for every link entity.
func insertLinks(ctx context.Context, tx pgx.Tx, links []linkSpec, webID uuid.UUID) error {
	for _, link := range links {
		linkUUID := seedUUID(link.Name, "entity")
		leftUUID := seedUUID(link.Left, "entity")
		rightUUID := seedUUID(link.Right, "entity")

		_, err := tx.Exec(ctx,
			`INSERT INTO entity_has_left_entity (web_id, entity_uuid, left_web_id, left_entity_uuid)
			 VALUES ($1, $2, $1, $3)
			 ON CONFLICT DO NOTHING`,
			webID, linkUUID, leftUUID)
		if err != nil {
			return fmt.Errorf("link left %s: %w", link.Name, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO entity_has_right_entity (web_id, entity_uuid, right_web_id, right_entity_uuid)
			 VALUES ($1, $2, $1, $3)
			 ON CONFLICT DO NOTHING`,
			webID, linkUUID, rightUUID)
		if err != nil {
			return fmt.Errorf("link right %s: %w", link.Name, err)
		}

		slog.Info("seeded link", "name", link.Name, "left", link.Left, "right", link.Right)
	}

	return nil
}
