// Package main provides a standalone seed script that loads a small
// demonstration knowledge graph into an EpochGraph database: one web,
// one account, a type hierarchy, and a handful of linked entities.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// config holds environment-driven seed settings.
type config struct {
	DatabaseURL string
	Shortname   string
	DryRun      bool
}

// report holds the final seed summary.
type report struct {
	Target           string
	Shortname        string
	WebID            string
	AccountID        string
	TypesInserted    int
	EntitiesInserted int
	LinksInserted    int
	EntitiesVerified int
	Duration         time.Duration
	DryRun           bool
	Err              error
}

func main() {
	cfg := loadConfig()
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	slog.Info("starting seed",
		"web", cfg.Shortname,
		"dry_run", cfg.DryRun,
	)

	start := time.Now()
	r, err := runSeed(context.Background(), cfg)
	r.Duration = time.Since(start)
	if err != nil {
		r.Err = err
		slog.Error("seed failed", "error", err)
	}
	printReport(&r)
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration from environment variables.
func loadConfig() config {
	return config{
		DatabaseURL: envOr("DATABASE_URL", ""),
		Shortname:   envOr("WEB_SHORTNAME", "demo-web"),
		DryRun:      os.Getenv("DRY_RUN") == "true" || os.Getenv("DRY_RUN") == "1",
	}
}

// runSeed executes the full seed pipeline inside one transaction.
func runSeed(ctx context.Context, cfg config) (report, error) {
	webID := seedUUID(cfg.Shortname, "web")
	accountID := seedUUID(cfg.Shortname, "account")

	r := report{
		Target:    sanitizeURL(cfg.DatabaseURL),
		Shortname: cfg.Shortname,
		WebID:     webID.String(),
		AccountID: accountID.String(),
		DryRun:    cfg.DryRun,
	}

	types := demoTypes()
	entities, links := demoEntities()

	if cfg.DryRun {
		slog.Info("dry run — skipping database writes")
		r.TypesInserted = len(types)
		r.EntitiesInserted = len(entities)
		r.LinksInserted = len(links)
		return r, nil
	}

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return r, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return r, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// The temporal tables carry range exclusion constraints, so a second
	// run against the same web would fail half way through. Bail early
	// instead.
	seeded, err := webAlreadySeeded(ctx, tx, webID)
	if err != nil {
		return r, fmt.Errorf("check existing seed: %w", err)
	}
	if seeded {
		return r, fmt.Errorf("web %q already has entities; refusing to seed twice", cfg.Shortname)
	}

	if err := ensureWeb(ctx, tx, webID, cfg.Shortname); err != nil {
		return r, fmt.Errorf("ensure web: %w", err)
	}
	if err := ensureAccount(ctx, tx, accountID, webID); err != nil {
		return r, fmt.Errorf("ensure account: %w", err)
	}

	if err := insertTypes(ctx, tx, types, webID); err != nil {
		return r, fmt.Errorf("insert types: %w", err)
	}
	r.TypesInserted = len(types)
	slog.Info("inserted entity types", "count", r.TypesInserted)

	if err := insertEntities(ctx, tx, entities, webID, accountID); err != nil {
		return r, fmt.Errorf("insert entities: %w", err)
	}
	r.EntitiesInserted = len(entities)
	slog.Info("inserted entities", "count", r.EntitiesInserted)

	if err := insertLinks(ctx, tx, links, webID); err != nil {
		return r, fmt.Errorf("insert links: %w", err)
	}
	r.LinksInserted = len(links)
	slog.Info("inserted link adjacency", "count", r.LinksInserted)

	// Verify counts.
	r.EntitiesVerified, err = countEntities(ctx, tx, webID)
	if err != nil {
		return r, fmt.Errorf("verify entity count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r, fmt.Errorf("commit: %w", err)
	}
	slog.Info("transaction committed")
	return r, nil
}

// webAlreadySeeded reports whether the web already owns any entities.
func webAlreadySeeded(ctx context.Context, tx pgx.Tx, webID uuid.UUID) (bool, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT count(*) FROM entity_ids WHERE web_id = $1`, webID).Scan(&count)
	return count > 0, err
}

// ensureWeb creates the web row if it doesn't already exist.
func ensureWeb(ctx context.Context, tx pgx.Tx, webID uuid.UUID, shortname string) error {
	slog.Info("ensuring web exists", "id", webID.String(), "shortname", shortname)
	_, err := tx.Exec(ctx,
		`INSERT INTO webs (web_id, shortname)
		 VALUES ($1, $2)
		 ON CONFLICT (web_id) DO NOTHING`,
		webID, shortname)
	return err
}

// ensureAccount creates the account row if it doesn't already exist.
func ensureAccount(ctx context.Context, tx pgx.Tx, accountID, webID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO accounts (account_id, web_id)
		 VALUES ($1, $2)
		 ON CONFLICT (account_id) DO NOTHING`,
		accountID, webID)
	return err
}

// countEntities counts entity identities owned by the web.
func countEntities(ctx context.Context, tx pgx.Tx, webID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT count(*) FROM entity_ids WHERE web_id = $1`, webID).Scan(&count)
	return count, err
}
