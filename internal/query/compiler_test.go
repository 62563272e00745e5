package query_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/query"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorIs(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected error %v, got %v", want, err)
	}
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(s), " "), "( ", "(")
}

func assertSQL(t *testing.T, got, want string) {
	t.Helper()
	if normalize(got) != normalize(want) {
		t.Errorf("sql mismatch\ngot:  %s\nwant: %s", normalize(got), normalize(want))
	}
}

func testAxes() *temporal.QueryTemporalAxes {
	return &temporal.QueryTemporalAxes{
		Pinned: temporal.PinnedAxis{
			Axis:      temporal.AxisTransactionTime,
			Timestamp: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		},
		Variable: temporal.VariableAxis{
			Axis:     temporal.AxisDecisionTime,
			Interval: temporal.AllTime(),
		},
	}
}

var (
	webID      = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	entityUUID = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	draftID    = uuid.MustParse("33333333-3333-4333-8333-333333333333")
	editionID  = uuid.MustParse("44444444-4444-4444-8444-444444444444")
)

func TestSelectCompiler_EntityByID(t *testing.T) {
	axes := testAxes()
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, axes, false)
	assertNoError(t, compiler.AddFilter(query.NewEntityIDFilter(models.EntityID{
		WebID:      webID,
		EntityUUID: entityUUID,
	})))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND ("entity_temporal_metadata_0_0_0"."web_id" = $3)
		AND ("entity_temporal_metadata_0_0_0"."entity_uuid" = $4)`)

	if len(params) != 4 {
		t.Fatalf("params = %d, want 4", len(params))
	}
	if !params[0].(time.Time).Equal(axes.PinnedTimestamp()) {
		t.Errorf("pinned param = %v", params[0])
	}
	if params[1] != axes.VariableInterval().PostgresRange() {
		t.Errorf("variable param = %v", params[1])
	}
	if params[2] != webID || params[3] != entityUUID {
		t.Errorf("id params = %v, %v", params[2], params[3])
	}
}

func TestSelectCompiler_DraftEntityByID(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), true)
	assertNoError(t, compiler.AddFilter(query.NewEntityIDFilter(models.EntityID{
		WebID:      webID,
		EntityUUID: entityUUID,
		DraftID:    draftID,
	})))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		WHERE "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND ("entity_temporal_metadata_0_0_0"."web_id" = $3)
		AND ("entity_temporal_metadata_0_0_0"."entity_uuid" = $4)
		AND ("entity_temporal_metadata_0_0_0"."draft_id" = $5)`)

	if len(params) != 5 || params[4] != draftID {
		t.Fatalf("params = %v", params)
	}
}

func TestSelectCompiler_TypeByVersionedURL(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
	assertNoError(t, compiler.AddFilter(query.NewVersionedURLFilter(models.VersionedURL{
		BaseURL: "https://example.com/@alice/types/entity-type/person/",
		Version: 1,
	})))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
		INNER JOIN "ontology_ids" AS "ontology_ids_0_1_0"
			ON "ontology_ids_0_1_0"."ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
		WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND ("ontology_ids_0_1_0"."base_url" = $2)
		AND ("ontology_ids_0_1_0"."version" = $3)`)

	if len(params) != 3 {
		t.Fatalf("params = %d, want 3", len(params))
	}
	if params[1] != "https://example.com/@alice/types/entity-type/person/" {
		t.Errorf("base url param = %v", params[1])
	}
	if params[2] != int64(1) {
		t.Errorf("version param = %v (%T)", params[2], params[2])
	}
}

func TestSelectCompiler_LatestVersion(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
	assertNoError(t, compiler.AddFilter(query.NewLatestVersionFilter()))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		WITH "ontology_ids" AS (
			SELECT *, MAX("ontology_ids_0_0_0"."version") OVER (PARTITION BY "ontology_ids_0_0_0"."base_url") AS "latest_version"
			FROM "ontology_ids" AS "ontology_ids_0_0_0")
		SELECT *
		FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
		INNER JOIN "ontology_ids" AS "ontology_ids_0_1_0"
			ON "ontology_ids_0_1_0"."ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
		WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "ontology_ids_0_1_0"."version" = "ontology_ids_0_1_0"."latest_version"`)

	if len(params) != 1 {
		t.Fatalf("params = %d, want 1", len(params))
	}

	_, err := compiler.AddCursorSelection(query.EntityTypeVersionPath(), int64(1), query.OrderingAscending, query.NullsDefault)
	assertErrorIs(t, err, query.ErrCursorDisallowed)
}

func TestSelectCompiler_NotLatestVersion(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
	assertNoError(t, compiler.AddFilter(query.FilterNotEqual(
		query.ParameterExpression("latest"),
		query.PathExpression(query.EntityTypeVersionPath()),
	)))

	sql, _ := compiler.Compile()
	assertSQL(t, sql, `
		WITH "ontology_ids" AS (
			SELECT *, MAX("ontology_ids_0_0_0"."version") OVER (PARTITION BY "ontology_ids_0_0_0"."base_url") AS "latest_version"
			FROM "ontology_ids" AS "ontology_ids_0_0_0")
		SELECT *
		FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
		INNER JOIN "ontology_ids" AS "ontology_ids_0_1_0"
			ON "ontology_ids_0_1_0"."ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
		WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "ontology_ids_0_1_0"."version" != "ontology_ids_0_1_0"."latest_version"`)
}

func TestSelectCompiler_PropertyFilter(t *testing.T) {
	axes := testAxes()
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, axes, false)
	path := query.EntityPropertiesPath(query.NewJSONPath(
		query.FieldToken("https://blockprotocol.org/@alice/types/property-type/name/"),
	))
	assertNoError(t, compiler.AddFilter(query.FilterEqual(
		query.PathExpression(path),
		query.ParameterExpression("Bob"),
	)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		INNER JOIN "entity_editions" AS "entity_editions_0_1_0"
			ON "entity_editions_0_1_0"."entity_edition_id" = "entity_temporal_metadata_0_0_0"."entity_edition_id"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $2::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $3
		AND jsonb_path_query_first("entity_editions_0_1_0"."properties", (($1::text)::jsonpath)) = $4`)

	if len(params) != 4 {
		t.Fatalf("params = %d, want 4", len(params))
	}
	if params[0] != `$."https://blockprotocol.org/@alice/types/property-type/name/"` {
		t.Errorf("jsonpath param = %v", params[0])
	}
	if !params[1].(time.Time).Equal(axes.PinnedTimestamp()) {
		t.Errorf("pinned param = %v", params[1])
	}
	if string(params[3].(json.RawMessage)) != `"Bob"` {
		t.Errorf("value param = %s", params[3])
	}
}

func TestSelectCompiler_OutgoingLinkEdition(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
	path, err := query.ParseEntityQueryPath([]string{"outgoingLinks", "rightEntity", "editionId"})
	assertNoError(t, err)
	assertNoError(t, compiler.AddFilter(query.FilterEqual(
		query.PathExpression(path),
		query.ParameterExpression(editionID),
	)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		LEFT OUTER JOIN "entity_has_left_entity" AS "entity_has_left_entity_0_1_0"
			ON "entity_has_left_entity_0_1_0"."left_web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_has_left_entity_0_1_0"."left_entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		LEFT OUTER JOIN "entity_temporal_metadata" AS "entity_temporal_metadata_0_2_0"
			ON "entity_temporal_metadata_0_2_0"."web_id" = "entity_has_left_entity_0_1_0"."web_id"
			AND "entity_temporal_metadata_0_2_0"."entity_uuid" = "entity_has_left_entity_0_1_0"."entity_uuid"
			AND "entity_temporal_metadata_0_2_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_2_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_2_0"."decision_time" && $2
		LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_0_3_0"
			ON "entity_has_right_entity_0_3_0"."web_id" = "entity_temporal_metadata_0_2_0"."web_id"
			AND "entity_has_right_entity_0_3_0"."entity_uuid" = "entity_temporal_metadata_0_2_0"."entity_uuid"
		LEFT OUTER JOIN "entity_temporal_metadata" AS "entity_temporal_metadata_0_4_0"
			ON "entity_temporal_metadata_0_4_0"."web_id" = "entity_has_right_entity_0_3_0"."right_web_id"
			AND "entity_temporal_metadata_0_4_0"."entity_uuid" = "entity_has_right_entity_0_3_0"."right_entity_uuid"
			AND "entity_temporal_metadata_0_4_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_4_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_4_0"."decision_time" && $2
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND "entity_temporal_metadata_0_4_0"."entity_edition_id" = $3`)

	if len(params) != 3 || params[2] != editionID {
		t.Fatalf("params = %v", params)
	}
}

func TestSelectCompiler_IncomingLinkEdition(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
	path, err := query.ParseEntityQueryPath([]string{"incomingLinks", "leftEntity", "editionId"})
	assertNoError(t, err)
	assertNoError(t, compiler.AddFilter(query.FilterEqual(
		query.PathExpression(path),
		query.ParameterExpression(editionID),
	)))

	sql, _ := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_0_1_0"
			ON "entity_has_right_entity_0_1_0"."right_web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_has_right_entity_0_1_0"."right_entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		LEFT OUTER JOIN "entity_temporal_metadata" AS "entity_temporal_metadata_0_2_0"
			ON "entity_temporal_metadata_0_2_0"."web_id" = "entity_has_right_entity_0_1_0"."web_id"
			AND "entity_temporal_metadata_0_2_0"."entity_uuid" = "entity_has_right_entity_0_1_0"."entity_uuid"
			AND "entity_temporal_metadata_0_2_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_2_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_2_0"."decision_time" && $2
		LEFT OUTER JOIN "entity_has_left_entity" AS "entity_has_left_entity_0_3_0"
			ON "entity_has_left_entity_0_3_0"."web_id" = "entity_temporal_metadata_0_2_0"."web_id"
			AND "entity_has_left_entity_0_3_0"."entity_uuid" = "entity_temporal_metadata_0_2_0"."entity_uuid"
		LEFT OUTER JOIN "entity_temporal_metadata" AS "entity_temporal_metadata_0_4_0"
			ON "entity_temporal_metadata_0_4_0"."web_id" = "entity_has_left_entity_0_3_0"."left_web_id"
			AND "entity_temporal_metadata_0_4_0"."entity_uuid" = "entity_has_left_entity_0_3_0"."left_entity_uuid"
			AND "entity_temporal_metadata_0_4_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_4_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_4_0"."decision_time" && $2
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND "entity_temporal_metadata_0_4_0"."entity_edition_id" = $3`)
}

func TestSelectCompiler_LinkEndpointIDs(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)

	leftUUID, err := query.ParseEntityQueryPath([]string{"leftEntity", "uuid"})
	assertNoError(t, err)
	leftWeb, err := query.ParseEntityQueryPath([]string{"leftEntity", "webId"})
	assertNoError(t, err)
	rightUUID, err := query.ParseEntityQueryPath([]string{"rightEntity", "uuid"})
	assertNoError(t, err)
	rightWeb, err := query.ParseEntityQueryPath([]string{"rightEntity", "webId"})
	assertNoError(t, err)

	assertNoError(t, compiler.AddFilter(query.FilterAll(
		query.FilterEqual(query.PathExpression(leftUUID), query.ParameterExpression(entityUUID)),
		query.FilterEqual(query.PathExpression(leftWeb), query.ParameterExpression(webID)),
		query.FilterEqual(query.PathExpression(rightUUID), query.ParameterExpression(entityUUID)),
		query.FilterEqual(query.PathExpression(rightWeb), query.ParameterExpression(webID)),
	)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		LEFT OUTER JOIN "entity_has_left_entity" AS "entity_has_left_entity_0_1_0"
			ON "entity_has_left_entity_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_has_left_entity_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_0_1_0"
			ON "entity_has_right_entity_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_has_right_entity_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND ("entity_has_left_entity_0_1_0"."left_entity_uuid" = $3)
		AND ("entity_has_left_entity_0_1_0"."left_web_id" = $4)
		AND ("entity_has_right_entity_0_1_0"."right_entity_uuid" = $5)
		AND ("entity_has_right_entity_0_1_0"."right_web_id" = $6)`)

	if len(params) != 6 {
		t.Fatalf("params = %d, want 6", len(params))
	}
}

func TestSelectCompiler_SeparateAndCombinedLinkFilters(t *testing.T) {
	path, err := query.ParseEntityQueryPath([]string{"rightEntity", "uuid"})
	assertNoError(t, err)
	other := uuid.MustParse("55555555-5555-4555-8555-555555555555")

	t.Run("separate filters join twice", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		assertNoError(t, compiler.AddFilter(query.FilterEqual(query.PathExpression(path), query.ParameterExpression(entityUUID))))
		assertNoError(t, compiler.AddFilter(query.FilterEqual(query.PathExpression(path), query.ParameterExpression(other))))

		sql, _ := compiler.Compile()
		assertSQL(t, sql, `
			SELECT *
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_0_1_0"
				ON "entity_has_right_entity_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
				AND "entity_has_right_entity_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
			LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_1_1_0"
				ON "entity_has_right_entity_1_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
				AND "entity_has_right_entity_1_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
			AND "entity_has_right_entity_0_1_0"."right_entity_uuid" = $3
			AND "entity_has_right_entity_1_1_0"."right_entity_uuid" = $4`)
	})

	t.Run("combined filter reuses the join", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		assertNoError(t, compiler.AddFilter(query.FilterAll(
			query.FilterEqual(query.PathExpression(path), query.ParameterExpression(entityUUID)),
			query.FilterEqual(query.PathExpression(path), query.ParameterExpression(other)),
		)))

		sql, _ := compiler.Compile()
		assertSQL(t, sql, `
			SELECT *
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_0_1_0"
				ON "entity_has_right_entity_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
				AND "entity_has_right_entity_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
			AND ("entity_has_right_entity_0_1_0"."right_entity_uuid" = $3)
			AND ("entity_has_right_entity_0_1_0"."right_entity_uuid" = $4)`)
	})
}

func TestSelectCompiler_EndpointTypeJoinNumbering(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
	depth := uint(0)
	left := query.EntityLinkPath(models.EdgeKindHasLeftEntity, models.EdgeDirectionOutgoing,
		query.EntityTypePath(&depth, query.EntityTypeBaseURLPath()))
	right := query.EntityLinkPath(models.EdgeKindHasRightEntity, models.EdgeDirectionOutgoing,
		query.EntityTypePath(&depth, query.EntityTypeBaseURLPath()))

	assertNoError(t, compiler.AddFilter(query.FilterAll(
		query.FilterEqual(query.PathExpression(left), query.ParameterExpression("https://example.com/@alice/types/entity-type/address/")),
		query.FilterEqual(query.PathExpression(right), query.ParameterExpression("https://example.com/@alice/types/entity-type/name/")),
	)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		LEFT OUTER JOIN "entity_has_left_entity" AS "entity_has_left_entity_0_1_0"
			ON "entity_has_left_entity_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_has_left_entity_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		LEFT OUTER JOIN "entity_temporal_metadata" AS "entity_temporal_metadata_0_2_0"
			ON "entity_temporal_metadata_0_2_0"."web_id" = "entity_has_left_entity_0_1_0"."left_web_id"
			AND "entity_temporal_metadata_0_2_0"."entity_uuid" = "entity_has_left_entity_0_1_0"."left_entity_uuid"
			AND "entity_temporal_metadata_0_2_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_2_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_2_0"."decision_time" && $2
		LEFT OUTER JOIN "entity_is_of_type" AS "entity_is_of_type_0_3_0"
			ON "entity_is_of_type_0_3_0"."entity_edition_id" = "entity_temporal_metadata_0_2_0"."entity_edition_id"
			AND "entity_is_of_type_0_3_0"."inheritance_depth" <= 0
		LEFT OUTER JOIN "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_4_0"
			ON "ontology_temporal_metadata_0_4_0"."ontology_id" = "entity_is_of_type_0_3_0"."entity_type_ontology_id"
			AND "ontology_temporal_metadata_0_4_0"."transaction_time" @> $1::TIMESTAMPTZ
		LEFT OUTER JOIN "ontology_ids" AS "ontology_ids_0_5_0"
			ON "ontology_ids_0_5_0"."ontology_id" = "ontology_temporal_metadata_0_4_0"."ontology_id"
		LEFT OUTER JOIN "entity_has_right_entity" AS "entity_has_right_entity_0_1_0"
			ON "entity_has_right_entity_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_has_right_entity_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		LEFT OUTER JOIN "entity_temporal_metadata" AS "entity_temporal_metadata_0_2_1"
			ON "entity_temporal_metadata_0_2_1"."web_id" = "entity_has_right_entity_0_1_0"."right_web_id"
			AND "entity_temporal_metadata_0_2_1"."entity_uuid" = "entity_has_right_entity_0_1_0"."right_entity_uuid"
			AND "entity_temporal_metadata_0_2_1"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_2_1"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_2_1"."decision_time" && $2
		LEFT OUTER JOIN "entity_is_of_type" AS "entity_is_of_type_0_3_1"
			ON "entity_is_of_type_0_3_1"."entity_edition_id" = "entity_temporal_metadata_0_2_1"."entity_edition_id"
			AND "entity_is_of_type_0_3_1"."inheritance_depth" <= 0
		LEFT OUTER JOIN "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_4_1"
			ON "ontology_temporal_metadata_0_4_1"."ontology_id" = "entity_is_of_type_0_3_1"."entity_type_ontology_id"
			AND "ontology_temporal_metadata_0_4_1"."transaction_time" @> $1::TIMESTAMPTZ
		LEFT OUTER JOIN "ontology_ids" AS "ontology_ids_0_5_1"
			ON "ontology_ids_0_5_1"."ontology_id" = "ontology_temporal_metadata_0_4_1"."ontology_id"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND ("ontology_ids_0_5_0"."base_url" = $3)
		AND ("ontology_ids_0_5_1"."base_url" = $4)`)

	if len(params) != 4 {
		t.Fatalf("params = %d, want 4", len(params))
	}
}

func TestSelectCompiler_EmbeddingDistance(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, nil, false)
	assertNoError(t, compiler.AddFilter(query.FilterCosineDistance(
		query.PathExpression(query.EntityEmbeddingPath()),
		query.ParameterExpression([]float32{0.1, 0.2, 0.3}),
		query.ParameterExpression(0.5),
	)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT DISTINCT ON("entity_embeddings_0_1_0"."distance") *, "entity_embeddings_0_1_0"."distance"
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		LEFT OUTER JOIN (
			SELECT "entity_embeddings"."web_id", "entity_embeddings"."entity_uuid",
				MIN("entity_embeddings"."embedding" <=> $1) AS "distance"
			FROM "entity_embeddings"
			GROUP BY "entity_embeddings"."web_id", "entity_embeddings"."entity_uuid") AS "entity_embeddings_0_1_0"
			ON "entity_embeddings_0_1_0"."web_id" = "entity_temporal_metadata_0_0_0"."web_id"
			AND "entity_embeddings_0_1_0"."entity_uuid" = "entity_temporal_metadata_0_0_0"."entity_uuid"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_embeddings_0_1_0"."distance" <= $2
		ORDER BY "entity_embeddings_0_1_0"."distance" ASC`)

	if len(params) != 2 {
		t.Fatalf("params = %d, want 2", len(params))
	}
	if params[0] != "[0.1,0.2,0.3]" {
		t.Errorf("vector param = %v", params[0])
	}
	if params[1] != 0.5 {
		t.Errorf("distance param = %v", params[1])
	}

	_, err := compiler.AddCursorSelection(query.EntityUUIDPath(), entityUUID, query.OrderingAscending, query.NullsDefault)
	assertErrorIs(t, err, query.ErrCursorDisallowed)
}

func TestSelectCompiler_TypeEmbeddingDistance(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
	assertNoError(t, compiler.AddFilter(query.FilterCosineDistance(
		query.ParameterExpression([]any{0.25, 0.5}),
		query.PathExpression(query.EntityTypeEmbeddingPath()),
		query.ParameterExpression(0.9),
	)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT DISTINCT ON("entity_type_embeddings_0_1_0"."distance") *, "entity_type_embeddings_0_1_0"."distance"
		FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
		LEFT OUTER JOIN (
			SELECT "entity_type_embeddings"."ontology_id",
				MIN("entity_type_embeddings"."embedding" <=> $2) AS "distance"
			FROM "entity_type_embeddings"
			GROUP BY "entity_type_embeddings"."ontology_id") AS "entity_type_embeddings_0_1_0"
			ON "entity_type_embeddings_0_1_0"."ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
		WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_type_embeddings_0_1_0"."distance" <= $3
		ORDER BY "entity_type_embeddings_0_1_0"."distance" ASC`)

	if len(params) != 3 {
		t.Fatalf("params = %d, want 3", len(params))
	}
	if params[1] != "[0.25,0.5]" {
		t.Errorf("vector param = %v", params[1])
	}
}

func TestSelectCompiler_EmbeddingDistanceErrors(t *testing.T) {
	vector := query.ParameterExpression([]float32{0.1})
	limit := query.ParameterExpression(0.5)

	t.Run("two parameters", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		err := compiler.AddFilter(query.FilterCosineDistance(vector, vector, limit))
		assertErrorIs(t, err, query.ErrUnsupportedDistanceExpression)
	})

	t.Run("path does not end at an embedding", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		err := compiler.AddFilter(query.FilterCosineDistance(
			query.PathExpression(query.EntityUUIDPath()), vector, limit))
		assertErrorIs(t, err, query.ErrUnsupportedEmbeddingPath)
	})

	t.Run("vector parameter is not a vector", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		err := compiler.AddFilter(query.FilterCosineDistance(
			query.PathExpression(query.EntityEmbeddingPath()),
			query.ParameterExpression("not a vector"), limit))
		assertErrorIs(t, err, query.ErrConvertDistanceParameter)
	})

	t.Run("second embedding filter", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		err := compiler.AddFilter(query.FilterAll(
			query.FilterCosineDistance(query.PathExpression(query.EntityEmbeddingPath()), vector, limit),
			query.FilterCosineDistance(query.PathExpression(query.EntityEmbeddingPath()), vector, limit),
		))
		assertErrorIs(t, err, query.ErrMultipleEmbeddings)
	})
}

func TestSelectCompiler_InheritanceDepth(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
	depth := uint(2)
	path := query.EntityTypeInheritsFromPath(&depth, query.EntityTypeBaseURLPath())
	assertNoError(t, compiler.AddFilter(query.FilterEqual(
		query.PathExpression(path),
		query.ParameterExpression("https://example.com/@alice/types/entity-type/resource/"),
	)))

	sql, _ := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
		LEFT OUTER JOIN "entity_type_inherits_from" AS "entity_type_inherits_from_0_1_0"
			ON "entity_type_inherits_from_0_1_0"."source_entity_type_ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
			AND "entity_type_inherits_from_0_1_0"."depth" <= 2
		LEFT OUTER JOIN "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_2_0"
			ON "ontology_temporal_metadata_0_2_0"."ontology_id" = "entity_type_inherits_from_0_1_0"."target_entity_type_ontology_id"
			AND "ontology_temporal_metadata_0_2_0"."transaction_time" @> $1::TIMESTAMPTZ
		LEFT OUTER JOIN "ontology_ids" AS "ontology_ids_0_3_0"
			ON "ontology_ids_0_3_0"."ontology_id" = "ontology_temporal_metadata_0_2_0"."ontology_id"
		WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "ontology_ids_0_3_0"."base_url" = $2`)
}

func TestSelectCompiler_ChildTypes(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
	depth := uint(1)
	path := query.EntityTypeChildrenPath(&depth, query.EntityTypeBaseURLPath())
	assertNoError(t, compiler.AddFilter(query.FilterEqual(
		query.PathExpression(path),
		query.ParameterExpression("https://example.com/@alice/types/entity-type/employee/"),
	)))

	sql, _ := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
		LEFT OUTER JOIN "entity_type_inherits_from" AS "entity_type_inherits_from_0_1_0"
			ON "entity_type_inherits_from_0_1_0"."target_entity_type_ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
			AND "entity_type_inherits_from_0_1_0"."depth" <= 1
		LEFT OUTER JOIN "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_2_0"
			ON "ontology_temporal_metadata_0_2_0"."ontology_id" = "entity_type_inherits_from_0_1_0"."source_entity_type_ontology_id"
			AND "ontology_temporal_metadata_0_2_0"."transaction_time" @> $1::TIMESTAMPTZ
		LEFT OUTER JOIN "ontology_ids" AS "ontology_ids_0_3_0"
			ON "ontology_ids_0_3_0"."ontology_id" = "ontology_temporal_metadata_0_2_0"."ontology_id"
		WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "ontology_ids_0_3_0"."base_url" = $2`)
}

func TestSelectCompiler_CursorPagination(t *testing.T) {
	last := uuid.MustParse("66666666-6666-4666-8666-666666666666")

	t.Run("single column", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		index, err := compiler.AddCursorSelection(query.EntityUUIDPath(), last, query.OrderingAscending, query.NullsDefault)
		assertNoError(t, err)
		if index != 1 {
			t.Errorf("selection index = %d, want 1", index)
		}

		sql, params := compiler.Compile()
		assertSQL(t, sql, `
			SELECT DISTINCT ON("entity_temporal_metadata_0_0_0"."entity_uuid") *, "entity_temporal_metadata_0_0_0"."entity_uuid"
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
			AND "entity_temporal_metadata_0_0_0"."entity_uuid" > $3
			ORDER BY "entity_temporal_metadata_0_0_0"."entity_uuid" ASC`)

		if params[2] != last {
			t.Errorf("cursor param = %v", params[2])
		}
	})

	t.Run("uniform directions use a row comparison", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		_, err := compiler.AddCursorSelection(query.EntityWebIDPath(), webID, query.OrderingAscending, query.NullsDefault)
		assertNoError(t, err)
		_, err = compiler.AddCursorSelection(query.EntityUUIDPath(), last, query.OrderingAscending, query.NullsDefault)
		assertNoError(t, err)

		sql, _ := compiler.Compile()
		assertSQL(t, sql, `
			SELECT DISTINCT ON("entity_temporal_metadata_0_0_0"."web_id", "entity_temporal_metadata_0_0_0"."entity_uuid") *,
				"entity_temporal_metadata_0_0_0"."web_id", "entity_temporal_metadata_0_0_0"."entity_uuid"
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
			AND ("entity_temporal_metadata_0_0_0"."web_id", "entity_temporal_metadata_0_0_0"."entity_uuid") > ($3, $4)
			ORDER BY "entity_temporal_metadata_0_0_0"."web_id" ASC, "entity_temporal_metadata_0_0_0"."entity_uuid" ASC`)
	})

	t.Run("mixed directions expand lexicographically", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		_, err := compiler.AddCursorSelection(query.EntityWebIDPath(), webID, query.OrderingAscending, query.NullsDefault)
		assertNoError(t, err)
		_, err = compiler.AddCursorSelection(query.EntityUUIDPath(), last, query.OrderingDescending, query.NullsDefault)
		assertNoError(t, err)

		sql, _ := compiler.Compile()
		assertSQL(t, sql, `
			SELECT DISTINCT ON("entity_temporal_metadata_0_0_0"."web_id", "entity_temporal_metadata_0_0_0"."entity_uuid") *,
				"entity_temporal_metadata_0_0_0"."web_id", "entity_temporal_metadata_0_0_0"."entity_uuid"
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
			AND (("entity_temporal_metadata_0_0_0"."web_id" > $3)
				OR (("entity_temporal_metadata_0_0_0"."web_id" = $3)
				AND ("entity_temporal_metadata_0_0_0"."entity_uuid" < $4)))
			ORDER BY "entity_temporal_metadata_0_0_0"."web_id" ASC, "entity_temporal_metadata_0_0_0"."entity_uuid" DESC`)
	})
}

func TestSelectCompiler_SelectionReuse(t *testing.T) {
	compiler := query.NewSelectCompiler(query.TableEntityTemporalMetadata, testAxes(), false)

	first := compiler.AddSelectionPath(query.EntityUUIDPath())
	second := compiler.AddSelectionPath(query.EntityUUIDPath())
	if first != second {
		t.Errorf("repeated selection = %d and %d", first, second)
	}
	third := compiler.AddOrderedSelectionPath(query.EntityUUIDPath(), query.OrderingAscending, query.NullsLast)
	if third != first {
		t.Errorf("ordered selection = %d, want %d", third, first)
	}
	fourth := compiler.AddSelectionPath(query.EntityWebIDPath())
	if fourth != 1 {
		t.Errorf("new selection = %d, want 1", fourth)
	}

	sql, _ := compiler.Compile()
	assertSQL(t, sql, `
		SELECT DISTINCT ON("entity_temporal_metadata_0_0_0"."entity_uuid")
			"entity_temporal_metadata_0_0_0"."entity_uuid", "entity_temporal_metadata_0_0_0"."web_id"
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		ORDER BY "entity_temporal_metadata_0_0_0"."entity_uuid" ASC NULLS LAST`)
}

func TestSelectCompiler_InFilter(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
	ids := []uuid.UUID{entityUUID, editionID}
	assertNoError(t, compiler.AddFilter(query.NewEntityUUIDsFilter(ids)))

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
		AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND "entity_temporal_metadata_0_0_0"."entity_uuid" = ANY($3)`)

	values, ok := params[2].([]uuid.UUID)
	if !ok || len(values) != 2 || values[0] != entityUUID || values[1] != editionID {
		t.Fatalf("list param = %v", params[2])
	}
}

func TestSelectCompiler_CurrentStateRead(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, nil, true)
	assertNoError(t, compiler.AddFilter(query.FilterEqual(
		query.PathExpression(query.EntityUUIDPath()),
		query.ParameterExpression(entityUUID),
	)))
	compiler.SetLimit(10)

	sql, params := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		WHERE "entity_temporal_metadata_0_0_0"."entity_uuid" = $1
		LIMIT 10`)

	if len(params) != 1 {
		t.Fatalf("params = %d, want 1", len(params))
	}
}

func TestSelectCompiler_TextPredicates(t *testing.T) {
	t.Run("starts_with on a static json field", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
		filter := &query.Filter{StartsWith: &[2]*query.FilterExpression{
			query.PathExpression(query.EntityTypeVersionedURLPath()),
			query.ParameterExpression("https://example.com/"),
		}}
		assertNoError(t, compiler.AddFilter(filter))

		sql, _ := compiler.Compile()
		assertSQL(t, sql, `
			SELECT *
			FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
			INNER JOIN "entity_types" AS "entity_types_0_1_0"
				ON "entity_types_0_1_0"."ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
			WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND starts_with("entity_types_0_1_0"."schema"->>'$id', $2)`)
	})

	t.Run("ends_with extracts jsonb values as text", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		path := query.EntityPropertiesPath(query.NewJSONPath(query.FieldToken("name")))
		filter := &query.Filter{EndsWith: &[2]*query.FilterExpression{
			query.PathExpression(path),
			query.ParameterExpression("son"),
		}}
		assertNoError(t, compiler.AddFilter(filter))

		sql, params := compiler.Compile()
		assertSQL(t, sql, `
			SELECT *
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			INNER JOIN "entity_editions" AS "entity_editions_0_1_0"
				ON "entity_editions_0_1_0"."entity_edition_id" = "entity_temporal_metadata_0_0_0"."entity_edition_id"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $2::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $3
			AND right(((jsonb_path_query_first("entity_editions_0_1_0"."properties", (($1::text)::jsonpath))) #>> '{}'::text[]), length($4)) = $4`)

		if params[0] != `$."name"` || params[3] != "son" {
			t.Errorf("params = %v", params)
		}
	})

	t.Run("contains_segment on a text column", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
		filter := &query.Filter{ContainsSegment: &[2]*query.FilterExpression{
			query.PathExpression(query.EntityTypeBaseURLPath()),
			query.ParameterExpression("@alice"),
		}}
		assertNoError(t, compiler.AddFilter(filter))

		sql, _ := compiler.Compile()
		assertSQL(t, sql, `
			SELECT *
			FROM "ontology_temporal_metadata" AS "ontology_temporal_metadata_0_0_0"
			INNER JOIN "ontology_ids" AS "ontology_ids_0_1_0"
				ON "ontology_ids_0_1_0"."ontology_id" = "ontology_temporal_metadata_0_0_0"."ontology_id"
			WHERE "ontology_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND strpos("ontology_ids_0_1_0"."base_url", $2) > 0`)
	})
}

func TestSelectCompiler_ParameterCoercion(t *testing.T) {
	t.Run("json numbers bind as integers on version columns", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
		assertNoError(t, compiler.AddFilter(query.FilterEqual(
			query.PathExpression(query.EntityTypeVersionPath()),
			query.ParameterExpression(float64(2)),
		)))

		_, params := compiler.Compile()
		if params[1] != int64(2) {
			t.Errorf("version param = %v (%T)", params[1], params[1])
		}
	})

	t.Run("fractional version is rejected", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, testAxes(), false)
		err := compiler.AddFilter(query.FilterEqual(
			query.PathExpression(query.EntityTypeVersionPath()),
			query.ParameterExpression(2.5),
		))
		assertErrorIs(t, err, query.ErrParameterConversion)
	})

	t.Run("uuid strings parse", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		assertNoError(t, compiler.AddFilter(query.FilterEqual(
			query.PathExpression(query.EntityUUIDPath()),
			query.ParameterExpression(entityUUID.String()),
		)))

		_, params := compiler.Compile()
		if params[2] != entityUUID {
			t.Errorf("uuid param = %v (%T)", params[2], params[2])
		}
	})

	t.Run("malformed uuid is rejected", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		err := compiler.AddFilter(query.FilterEqual(
			query.PathExpression(query.EntityUUIDPath()),
			query.ParameterExpression("not-a-uuid"),
		))
		assertErrorIs(t, err, query.ErrParameterConversion)
	})

	t.Run("archived coerces to boolean", func(t *testing.T) {
		compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)
		assertNoError(t, compiler.AddFilter(query.FilterEqual(
			query.PathExpression(query.EntityArchivedPath()),
			query.ParameterExpression(true),
		)))

		sql, params := compiler.Compile()
		assertSQL(t, sql, `
			SELECT *
			FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
			INNER JOIN "entity_editions" AS "entity_editions_0_1_0"
				ON "entity_editions_0_1_0"."entity_edition_id" = "entity_temporal_metadata_0_0_0"."entity_edition_id"
			WHERE "entity_temporal_metadata_0_0_0"."draft_id" IS NULL
			AND "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
			AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
			AND "entity_editions_0_1_0"."archived" = $3`)
		if params[2] != true {
			t.Errorf("archived param = %v", params[2])
		}
	})
}

func TestSelectCompiler_NullComparisons(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), true)
	assertNoError(t, compiler.AddFilter(query.FilterNotEqual(
		query.PathExpression(query.EntityDraftIDPath()),
		nil,
	)))
	assertNoError(t, compiler.AddFilter(query.FilterNot(query.FilterEqual(
		query.PathExpression(query.EntityArchivedPath()),
		query.ParameterExpression(true),
	))))

	sql, _ := compiler.Compile()
	assertSQL(t, sql, `
		SELECT *
		FROM "entity_temporal_metadata" AS "entity_temporal_metadata_0_0_0"
		INNER JOIN "entity_editions" AS "entity_editions_1_1_0"
			ON "entity_editions_1_1_0"."entity_edition_id" = "entity_temporal_metadata_0_0_0"."entity_edition_id"
		WHERE "entity_temporal_metadata_0_0_0"."transaction_time" @> $1::TIMESTAMPTZ
		AND "entity_temporal_metadata_0_0_0"."decision_time" && $2
		AND "entity_temporal_metadata_0_0_0"."draft_id" IS NOT NULL
		AND NOT("entity_editions_1_1_0"."archived" = $3)`)
}

func TestSelectCompiler_InvalidFilters(t *testing.T) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, testAxes(), false)

	err := compiler.AddFilter(&query.Filter{})
	assertErrorIs(t, err, query.ErrInvalidFilter)

	err = compiler.AddFilter(&query.Filter{
		Not: query.FilterEqual(query.PathExpression(query.EntityUUIDPath()), query.ParameterExpression(entityUUID)),
		In:  &query.InFilter{Path: query.EntityUUIDPath(), Values: []uuid.UUID{entityUUID}},
	})
	assertErrorIs(t, err, query.ErrInvalidFilter)

	err = compiler.AddFilter(query.FilterEqual(nil, nil))
	assertErrorIs(t, err, query.ErrInvalidFilter)
}
