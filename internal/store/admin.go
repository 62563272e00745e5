package store

import (
	"context"
	"fmt"
)

// entityTables lists every table holding entity state, ordered so that
// deletes respect foreign keys.
var entityTables = []string{
	"entity_embeddings",
	"entity_has_left_entity",
	"entity_has_right_entity",
	"entity_is_of_type",
	"entity_temporal_metadata",
	"entity_editions",
	"entity_ids",
}

// DeleteAllEntities wipes every entity from every web. It exists for
// test harnesses and local resets, and is deliberately not reachable
// from the HTTP surface.
func (s *EntityStore) DeleteAllEntities(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	for _, table := range entityTables {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing entity wipe: %w", err)
	}

	s.Log.Warn("Deleted all entities")

	return nil
}
