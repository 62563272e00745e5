package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/dbpool"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, 4)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase creates a Base plus a fresh test web, both cleaned up
// after the test.
func setupTestBase(t *testing.T) (_ store.Base, webID uuid.UUID) {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()

	webID = uuid.New()
	shortname := fmt.Sprintf("test-%s", webID.String()[:8])

	_, err := env.pool.Exec(ctx,
		"INSERT INTO webs (web_id, shortname) VALUES ($1, $2)",
		webID, shortname,
	)
	if err != nil {
		t.Fatalf("creating test web: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// Delete in dependency order: entity state first, then ontology
		// rows owned by the web, then the web itself.
		for _, table := range []string{
			"entity_embeddings",
			"entity_has_left_entity",
			"entity_has_right_entity",
		} {
			env.pool.Exec(cleanCtx, fmt.Sprintf("DELETE FROM %s WHERE web_id = $1", table), webID) //nolint:errcheck // best-effort cleanup
		}
		env.pool.Exec(cleanCtx, `DELETE FROM entity_is_of_type WHERE entity_edition_id IN (
			SELECT entity_edition_id FROM entity_temporal_metadata WHERE web_id = $1)`, webID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, `DELETE FROM entity_editions WHERE entity_edition_id IN (
			SELECT entity_edition_id FROM entity_temporal_metadata WHERE web_id = $1)`, webID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM entity_temporal_metadata WHERE web_id = $1", webID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM entity_ids WHERE web_id = $1", webID)               //nolint:errcheck // best-effort cleanup
		for _, table := range []string{
			"entity_type_inherits_from",
			"entity_type_embeddings",
			"entity_types",
			"ontology_temporal_metadata",
		} {
			env.pool.Exec(cleanCtx, fmt.Sprintf(`DELETE FROM %s WHERE %s IN (
				SELECT ontology_id FROM ontology_owned_metadata WHERE web_id = $1)`,
				table, ontologyKeyColumn(table)), webID) //nolint:errcheck // best-effort cleanup
		}
		env.pool.Exec(cleanCtx, `DELETE FROM ontology_ids WHERE ontology_id IN (
			SELECT ontology_id FROM ontology_owned_metadata WHERE web_id = $1)`, webID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM ontology_owned_metadata WHERE web_id = $1", webID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM accounts WHERE web_id = $1", webID)                //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM webs WHERE web_id = $1", webID)                    //nolint:errcheck // best-effort cleanup
	})

	base := store.Base{Pool: env.pool, Log: env.log, Authz: authz.NewStaticOracle()}

	return base, webID
}

func ontologyKeyColumn(table string) string {
	if table == "entity_type_inherits_from" {
		return "source_ontology_id"
	}

	return "ontology_id"
}

// registerTestType registers one entity type version for the web and
// returns its versioned URL.
func registerTestType(t *testing.T, base store.Base, webID uuid.UUID, name string, version uint32) storeTypeRef {
	t.Helper()

	ts := store.NewOntologyStore(base)
	ctx := context.Background()

	url := testTypeURL(webID, name, version)
	req := models.CreateEntityTypeRequest{
		WebID:  webID,
		URL:    url,
		Schema: map[string]any{"title": name, "type": "object"},
	}

	et, err := ts.CreateEntityType(ctx, uuid.New(), req)
	if err != nil {
		t.Fatalf("CreateEntityType(%s): %v", name, err)
	}

	return storeTypeRef{URL: url, OntologyID: et.Metadata.OntologyID}
}

// testTypeURL builds a base URL unique to the test web, so parallel
// runs against a shared database never collide on ontology IDs.
func testTypeURL(webID uuid.UUID, name string, version uint32) models.VersionedURL {
	return models.VersionedURL{
		BaseURL: fmt.Sprintf("https://example.test/%s/types/%s/", webID.String()[:8], name),
		Version: version,
	}
}

type storeTypeRef struct {
	URL        models.VersionedURL
	OntologyID uuid.UUID
}
