package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const requestTimeout = 10 * time.Second

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// ErrCircuitOpen is returned when the circuit breaker is open and requests
// are being rejected without calling the permission service.
var ErrCircuitOpen = errors.New("permission service circuit breaker is open")

// HTTPOracle talks to the permission service over its REST API.
// Checks fail closed: when the service is unreachable, the caller gets an
// error rather than an implicit allow.
type HTTPOracle struct {
	baseURL string
	token   string
	client  *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
}

// NewHTTPOracle creates an HTTPOracle for the given endpoint.
func NewHTTPOracle(baseURL, token string) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
		cbState: cbClosed,
	}
}

type checkRequest struct {
	ActorID     uuid.UUID   `json:"actor_id"`
	Permission  Permission  `json:"permission"`
	ResourceIDs []uuid.UUID `json:"resource_ids"`
	Consistency string      `json:"consistency,omitempty"`
}

type checkResponse struct {
	Permitted map[uuid.UUID]bool `json:"permitted"`
	Token     string             `json:"token"`
}

type modifyRequest struct {
	Operations []RelationOp `json:"operations"`
}

type modifyResponse struct {
	Token string `json:"token"`
}

// CheckEntities batches one permission check over entity UUIDs.
func (o *HTTPOracle) CheckEntities(ctx context.Context, actorID uuid.UUID, permission Permission, entityUUIDs []uuid.UUID, at Consistency) (*Decision, error) {
	return o.check(ctx, "/v1/permissions/entities/check", actorID, permission, entityUUIDs, at)
}

// CheckEntityTypes batches one permission check over ontology record IDs.
func (o *HTTPOracle) CheckEntityTypes(ctx context.Context, actorID uuid.UUID, permission Permission, typeIDs []uuid.UUID, at Consistency) (*Decision, error) {
	return o.check(ctx, "/v1/permissions/entity-types/check", actorID, permission, typeIDs, at)
}

func (o *HTTPOracle) check(ctx context.Context, path string, actorID uuid.UUID, permission Permission, ids []uuid.UUID, at Consistency) (*Decision, error) {
	if len(ids) == 0 {
		return &Decision{Permitted: map[uuid.UUID]bool{}, At: at}, nil
	}

	var result checkResponse
	err := o.post(ctx, path, checkRequest{
		ActorID:     actorID,
		Permission:  permission,
		ResourceIDs: ids,
		Consistency: at.Token,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &Decision{Permitted: result.Permitted, At: Consistency{Token: result.Token}}, nil
}

// ModifyRelations applies relationship writes in one call.
func (o *HTTPOracle) ModifyRelations(ctx context.Context, ops []RelationOp) (Consistency, error) {
	if len(ops) == 0 {
		return Consistency{}, nil
	}

	var result modifyResponse
	if err := o.post(ctx, "/v1/relations/modify", modifyRequest{Operations: ops}, &result); err != nil {
		return Consistency{}, err
	}

	return Consistency{Token: result.Token}, nil
}

func (o *HTTPOracle) post(ctx context.Context, path string, payload, result any) error {
	if err := o.cbAllow(); err != nil {
		return err
	}

	err := o.doPost(ctx, path, payload, result)
	if err != nil {
		o.cbRecordFailure()

		return err
	}

	o.cbRecordSuccess()

	return nil
}

func (o *HTTPOracle) doPost(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling permission request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating permission request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.token)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling permission service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return fmt.Errorf("permission service returned status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(result); err != nil {
		return fmt.Errorf("decoding permission response: %w", err)
	}

	return nil
}

// cbAllow checks whether the circuit breaker permits a request.
// In closed state, all requests pass. In open state, requests are rejected
// until the cooldown expires, at which point we transition to half-open.
// In half-open state, one probe request is allowed.
func (o *HTTPOracle) cbAllow() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(o.cbLastFailureAt) >= cbCooldown {
			o.cbState = cbHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case cbHalfOpen:
		// Already probing — reject additional requests.
		return ErrCircuitOpen
	}

	return nil
}

// cbRecordSuccess records a successful call. In half-open state this closes
// the circuit breaker, restoring normal operation.
func (o *HTTPOracle) cbRecordSuccess() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cbFailures = 0
	o.cbState = cbClosed
}

// cbRecordFailure records a failed call. After reaching the failure threshold
// the circuit breaker transitions to open state.
func (o *HTTPOracle) cbRecordFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cbFailures++
	o.cbLastFailureAt = time.Now()

	if o.cbFailures >= cbFailureThreshold || o.cbState == cbHalfOpen {
		o.cbState = cbOpen
	}
}
