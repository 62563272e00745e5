package models

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Web is a namespace owning entities and ontology types.
type Web struct {
	WebID     uuid.UUID `json:"web_id"`
	Shortname string    `json:"shortname"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is an actor that can own webs and author mutations.
type Account struct {
	AccountID uuid.UUID `json:"account_id"`
	WebID     uuid.UUID `json:"web_id"`
	CreatedAt time.Time `json:"created_at"`
}

var shortnamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,30}$`)

// CreateWebRequest is the payload for registering a web.
type CreateWebRequest struct {
	Shortname string `json:"shortname"`
}

// Validate checks the shortname shape.
func (r *CreateWebRequest) Validate() error {
	if !shortnamePattern.MatchString(r.Shortname) {
		return errors.New("shortname must be 3-31 chars of lowercase letters, digits and hyphens")
	}

	return nil
}
