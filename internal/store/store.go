// Package store provides focused, single-concern data access stores
// for the bitemporal graph.
//
// Each store owns one domain (entities, ontology, embeddings, webs)
// and embeds shared helpers (Pool, logger, permission oracle) via the
// Base struct. Stores never import each other — shared logic lives in
// this file or in dedicated helper files (scan.go, helpers.go).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool  *dbpool.Pool
	Log   *logrus.Logger
	Authz authz.Oracle
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// notify sends a pg_notify on the graph_changes channel (best-effort,
// post-commit). The LISTEN bridge fans the payload out to WebSocket
// subscribers of the web.
func (b *Base) notify(eventType, webID string, detail map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload := map[string]any{
		"type":   eventType,
		"web_id": webID,
	}
	for k, v := range detail {
		payload[k] = v
	}

	data, _ := json.Marshal(payload) //nolint:errcheck // static keys, cannot fail.
	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify('graph_changes', $1)", string(data)); err != nil {
		b.Log.WithError(err).Warn("failed to send " + eventType + " notification")
	}
}
