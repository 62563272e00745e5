package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/api"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

const testTypeURL = "https://example.com/types/person/v/1"

func TestEntityCreate_Valid(t *testing.T) {
	t.Parallel()

	var gotActor uuid.UUID
	repo := &mockEntityRepo{
		createFn: func(_ context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error) {
			gotActor = actorID
			return &models.Entity{
				ID:            models.EntityID{WebID: req.WebID, EntityUUID: req.EntityUUID},
				EditionID:     uuid.New(),
				EntityTypeIDs: req.EntityTypeIDs,
				Properties:    req.Properties,
				Temporal: models.EntityTemporalMetadata{
					DecisionTime:    temporal.AllTime(),
					TransactionTime: temporal.AllTime(),
				},
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewEntityHandler(repo, testLogger())
	r.POST("/entities", h.Create)

	body := `{"web_id":"` + testWebID + `","entity_type_ids":["` + testTypeURL + `"],"properties":{"name":"Alice"}}`
	w := doRequest(r, http.MethodPost, "/entities", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if gotActor.String() != testActorID {
		t.Errorf("expected actor %s, got %s", testActorID, gotActor)
	}

	var entity models.Entity
	if err := json.Unmarshal(w.Body.Bytes(), &entity); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entity.ID.WebID.String() != testWebID {
		t.Errorf("expected web %s, got %s", testWebID, entity.ID.WebID)
	}
}

func TestEntityCreate_MissingType(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewEntityHandler(&mockEntityRepo{}, testLogger())
	r.POST("/entities", h.Create)

	w := doRequest(r, http.MethodPost, "/entities", `{"web_id":"`+testWebID+`"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEntityUpdate_Conflict(t *testing.T) {
	t.Parallel()

	repo := &mockEntityRepo{
		updateFn: func(_ context.Context, _ uuid.UUID, _ models.UpdateEntityRequest) (*models.Entity, error) {
			return nil, models.ErrRaceConditionOnUpdate
		},
	}

	r := newTestRouter()
	h := api.NewEntityHandler(repo, testLogger())
	r.PATCH("/entities", h.Update)

	id := models.EntityID{WebID: uuid.MustParse(testWebID), EntityUUID: uuid.New()}
	body := `{"entity_id":"` + id.String() + `","properties":{"name":"Bob"}}`
	w := doRequest(r, http.MethodPatch, "/entities", body)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEntityUpdate_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockEntityRepo{
		updateFn: func(_ context.Context, _ uuid.UUID, _ models.UpdateEntityRequest) (*models.Entity, error) {
			return nil, models.ErrEntityNotFound
		},
	}

	r := newTestRouter()
	h := api.NewEntityHandler(repo, testLogger())
	r.PATCH("/entities", h.Update)

	id := models.EntityID{WebID: uuid.MustParse(testWebID), EntityUUID: uuid.New()}
	body := `{"entity_id":"` + id.String() + `","properties":{}}`
	w := doRequest(r, http.MethodPatch, "/entities", body)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEntityPromote_RequiresDraft(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewEntityHandler(&mockEntityRepo{}, testLogger())
	r.POST("/entities/promote", h.PromoteDraft)

	// EntityID without a draft segment is not promotable.
	webID := uuid.MustParse(testWebID)
	id := models.EntityID{WebID: webID, EntityUUID: uuid.New()}
	w := doRequest(r, http.MethodPost, "/entities/promote", `{"entity_id":"`+id.String()+`"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEntityPromote_Valid(t *testing.T) {
	t.Parallel()

	webID := uuid.MustParse(testWebID)
	draft := models.EntityID{WebID: webID, EntityUUID: uuid.New(), DraftID: uuid.New()}

	repo := &mockEntityRepo{
		promoteFn: func(_ context.Context, _ uuid.UUID, id models.EntityID) (*models.Entity, error) {
			if id != draft {
				t.Errorf("expected draft id %s, got %s", draft, id)
			}
			return &models.Entity{
				ID: models.EntityID{WebID: id.WebID, EntityUUID: id.EntityUUID},
				Temporal: models.EntityTemporalMetadata{
					DecisionTime:    temporal.AllTime(),
					TransactionTime: temporal.AllTime(),
				},
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewEntityHandler(repo, testLogger())
	r.POST("/entities/promote", h.PromoteDraft)

	w := doRequest(r, http.MethodPost, "/entities/promote", `{"entity_id":"`+draft.String()+`"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var entity models.Entity
	if err := json.Unmarshal(w.Body.Bytes(), &entity); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entity.ID.IsDraft() {
		t.Error("promoted entity should not carry a draft id")
	}
}
