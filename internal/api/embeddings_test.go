package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/api"
	"github.com/epochgraph/epochgraph/internal/models"
)

func TestEmbeddingUpsertEntity_Valid(t *testing.T) {
	t.Parallel()

	var got models.UpsertEntityEmbeddingRequest
	repo := &mockEmbeddingRepo{
		entityFn: func(_ context.Context, _ uuid.UUID, req models.UpsertEntityEmbeddingRequest) error {
			got = req
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewEmbeddingHandler(repo, testLogger())
	r.POST("/embeddings/entity", h.UpsertEntity)

	id := models.EntityID{WebID: uuid.MustParse(testWebID), EntityUUID: uuid.New()}
	body := `{"entity_id":"` + id.String() + `","embedding":[0.1,0.2,0.3],"updated_at_transaction_time":"2024-06-01T12:00:00Z","updated_at_decision_time":"2024-06-01T12:00:00Z"}`
	w := doRequest(r, http.MethodPost, "/embeddings/entity", body)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	if got.EntityID != id {
		t.Errorf("expected entity %s, got %s", id, got.EntityID)
	}

	if len(got.Embedding) != 3 {
		t.Errorf("expected 3 embedding values, got %d", len(got.Embedding))
	}
}

func TestEmbeddingUpsertEntity_MissingVector(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewEmbeddingHandler(&mockEmbeddingRepo{}, testLogger())
	r.POST("/embeddings/entity", h.UpsertEntity)

	id := models.EntityID{WebID: uuid.MustParse(testWebID), EntityUUID: uuid.New()}
	w := doRequest(r, http.MethodPost, "/embeddings/entity", `{"entity_id":"`+id.String()+`"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEmbeddingUpsertEntityType_Valid(t *testing.T) {
	t.Parallel()

	repo := &mockEmbeddingRepo{
		typeFn: func(_ context.Context, _ uuid.UUID, req models.UpsertEntityTypeEmbeddingRequest) error {
			if req.URL.String() != testTypeURL {
				t.Errorf("expected url %s, got %s", testTypeURL, req.URL)
			}
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewEmbeddingHandler(repo, testLogger())
	r.POST("/embeddings/entity-type", h.UpsertEntityType)

	body := `{"url":"` + testTypeURL + `","embedding":[0.5],"updated_at_transaction_time":"2024-06-01T12:00:00Z"}`
	w := doRequest(r, http.MethodPost, "/embeddings/entity-type", body)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
}
