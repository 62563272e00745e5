package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/models"
)

// WebStore handles webs and accounts.
type WebStore struct {
	Base
}

// NewWebStore creates a new WebStore.
func NewWebStore(base Base) *WebStore {
	return &WebStore{Base: base}
}

// CreateWeb registers a new web and grants the creating actor
// ownership of it in the permission store.
func (s *WebStore) CreateWeb(ctx context.Context, actorID uuid.UUID, req models.CreateWebRequest) (*models.Web, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	webID := uuid.New()

	relations := []authz.RelationOp{
		{Op: "create", ResourceID: webID, Relation: "owner", SubjectID: actorID},
	}

	if _, err := s.Authz.ModifyRelations(ctx, relations); err != nil {
		return nil, fmt.Errorf("writing web relationships: %w", err)
	}

	var createdAt time.Time
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO webs (web_id, shortname) VALUES ($1, $2) RETURNING created_at`,
		webID, req.Shortname,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = models.ErrDuplicateKey
		} else {
			err = fmt.Errorf("inserting web: %w", err)
		}

		return nil, s.compensateRelations(ctx, relations, err)
	}

	return &models.Web{WebID: webID, Shortname: req.Shortname, CreatedAt: createdAt}, nil
}

// GetWebByShortname looks up one web.
func (s *WebStore) GetWebByShortname(ctx context.Context, shortname string) (*models.Web, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	web := models.Web{Shortname: shortname}

	err := s.Pool.QueryRow(ctx,
		`SELECT web_id, created_at FROM webs WHERE shortname = $1`,
		shortname,
	).Scan(&web.WebID, &web.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWebNotFound
		}

		return nil, fmt.Errorf("looking up web: %w", err)
	}

	return &web, nil
}

// ErrAccountNotFound indicates the actor ID names no known account.
var ErrAccountNotFound = errors.New("account not found")

// GetAccountWeb returns the web an account belongs to. It is the
// lookup behind request authentication.
func (s *WebStore) GetAccountWeb(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var webID uuid.UUID

	err := s.Pool.QueryRow(ctx,
		`SELECT web_id FROM accounts WHERE account_id = $1`,
		accountID,
	).Scan(&webID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrAccountNotFound
		}

		return uuid.Nil, fmt.Errorf("looking up account: %w", err)
	}

	return webID, nil
}

// CreateAccount registers a new actor bound to a web.
func (s *WebStore) CreateAccount(ctx context.Context, webID uuid.UUID) (*models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	account := models.Account{AccountID: uuid.New(), WebID: webID}

	err := s.Pool.QueryRow(ctx,
		`INSERT INTO accounts (account_id, web_id) VALUES ($1, $2) RETURNING created_at`,
		account.AccountID, webID,
	).Scan(&account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, models.ErrWebNotFound
		}

		return nil, fmt.Errorf("inserting account: %w", err)
	}

	return &account, nil
}
