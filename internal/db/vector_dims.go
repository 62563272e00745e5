// Package db provides database migration and maintenance utilities.
package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/dbpool"
)

// embeddingTables lists the pgvector-backed tables and their HNSW indexes.
var embeddingTables = []struct {
	table string
	index string
}{
	{table: "entity_embeddings", index: "idx_entity_embeddings_vector"},
	{table: "entity_type_embeddings", index: "idx_entity_type_embeddings_vector"},
}

// EnsureVectorDimensions checks that the embedding columns match the
// configured dimensions and alters them (with index rebuild) if not.
// This allows operators to change EMBEDDING_DIMENSIONS and have the schema
// adapt on next restart. Existing embeddings with mismatched dimensions will
// be set to NULL so they can be re-generated.
func EnsureVectorDimensions(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, dimensions int) error {
	if dimensions < 1 || dimensions > 4096 {
		return fmt.Errorf("embedding dimensions must be between 1 and 4096, got %d", dimensions)
	}

	for _, et := range embeddingTables {
		if err := ensureTableDimensions(ctx, pool, log, et.table, et.index, dimensions); err != nil {
			return err
		}
	}

	return nil
}

func ensureTableDimensions(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, table, index string, dimensions int) error {
	// Query current column type from pg_attribute + format_type.
	var currentType string
	err := pool.QueryRow(ctx,
		`SELECT format_type(a.atttypid, a.atttypmod)
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 WHERE c.relname = $1 AND a.attname = 'embedding' AND NOT a.attisdropped`,
		table,
	).Scan(&currentType)
	if err != nil {
		return fmt.Errorf("querying %s embedding column type: %w", table, err)
	}

	expectedType := fmt.Sprintf("vector(%d)", dimensions)
	if currentType == expectedType {
		log.WithFields(logrus.Fields{
			"table":      table,
			"dimensions": dimensions,
		}).Debug("embedding column dimensions match config")

		return nil
	}

	log.WithFields(logrus.Fields{
		"table":    table,
		"current":  currentType,
		"expected": expectedType,
	}).Info("embedding column dimensions changed, altering schema")

	// Drop the HNSW index, alter column, null out mismatched embeddings,
	// rebuild index. This runs in a transaction for safety.
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning dimension alter tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s`, index)); err != nil {
		return fmt.Errorf("dropping embedding index: %w", err)
	}

	// Null out embeddings that don't match new dimensions (they need re-generation).
	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET embedding = NULL WHERE embedding IS NOT NULL AND vector_dims(embedding) != $1`, table),
		dimensions,
	); err != nil {
		return fmt.Errorf("nulling mismatched embeddings: %w", err)
	}

	alterSQL := fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN embedding TYPE vector(%d)`, table, dimensions)
	if _, err := tx.Exec(ctx, alterSQL); err != nil {
		return fmt.Errorf("altering embedding column: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX %s ON %s USING hnsw (embedding vector_cosine_ops)
		 WITH (m = 32, ef_construction = 200) WHERE embedding IS NOT NULL`, index, table,
	)); err != nil {
		return fmt.Errorf("recreating embedding index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing dimension alter: %w", err)
	}

	log.WithFields(logrus.Fields{
		"table":      table,
		"dimensions": dimensions,
	}).Info("embedding column dimensions updated")

	return nil
}
