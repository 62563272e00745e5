// Package models defines data types for the bitemporal knowledge graph.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidEntityID indicates a malformed textual entity ID.
var ErrInvalidEntityID = errors.New("invalid entity id")

// EntityID identifies one conceptual entity: the web that owns it, the
// entity UUID within that web, and an optional draft lineage. A nil
// DraftID means the canonical (non-draft) lineage.
type EntityID struct {
	WebID      uuid.UUID `json:"web_id"`
	EntityUUID uuid.UUID `json:"entity_uuid"`
	DraftID    uuid.UUID `json:"draft_id,omitzero"`
}

// IsDraft reports whether the ID names a draft lineage.
func (id EntityID) IsDraft() bool {
	return id.DraftID != uuid.Nil
}

// String renders the ID as "web~uuid" or "web~uuid~draft".
func (id EntityID) String() string {
	s := id.WebID.String() + "~" + id.EntityUUID.String()
	if id.IsDraft() {
		s += "~" + id.DraftID.String()
	}

	return s
}

// MarshalText implements encoding.TextMarshaler so EntityID can key
// JSON maps.
func (id EntityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the tilde-separated form produced by String.
func (id *EntityID) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityID(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// ParseEntityID parses "web~uuid" or "web~uuid~draft".
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.Split(s, "~")
	if len(parts) != 2 && len(parts) != 3 {
		return EntityID{}, fmt.Errorf("%w: %q", ErrInvalidEntityID, s)
	}

	webID, err := uuid.Parse(parts[0])
	if err != nil {
		return EntityID{}, fmt.Errorf("%w: web id: %v", ErrInvalidEntityID, err)
	}

	entityUUID, err := uuid.Parse(parts[1])
	if err != nil {
		return EntityID{}, fmt.Errorf("%w: entity uuid: %v", ErrInvalidEntityID, err)
	}

	id := EntityID{WebID: webID, EntityUUID: entityUUID}

	if len(parts) == 3 {
		draftID, err := uuid.Parse(parts[2])
		if err != nil {
			return EntityID{}, fmt.Errorf("%w: draft id: %v", ErrInvalidEntityID, err)
		}

		id.DraftID = draftID
	}

	return id, nil
}

// VersionedURL names one version of an ontology type: a stable base
// URL plus a monotonically increasing version per base URL.
type VersionedURL struct {
	BaseURL string `json:"base_url"`
	Version uint32 `json:"version"`
}

// String renders the canonical versioned form, e.g.
// "https://example.com/types/entity-type/person/v/3".
func (u VersionedURL) String() string {
	return fmt.Sprintf("%sv/%d", u.BaseURL, u.Version)
}

// MarshalText implements encoding.TextMarshaler.
func (u VersionedURL) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText parses the canonical versioned form.
func (u *VersionedURL) UnmarshalText(text []byte) error {
	parsed, err := ParseVersionedURL(string(text))
	if err != nil {
		return err
	}

	*u = parsed

	return nil
}

// ParseVersionedURL splits a versioned URL into base URL and version.
func ParseVersionedURL(s string) (VersionedURL, error) {
	idx := strings.LastIndex(s, "v/")
	if idx <= 0 {
		return VersionedURL{}, fmt.Errorf("versioned url %q is missing a version suffix", s)
	}

	version, err := strconv.ParseUint(s[idx+len("v/"):], 10, 32)
	if err != nil {
		return VersionedURL{}, fmt.Errorf("versioned url %q has an invalid version: %w", s, err)
	}

	base := s[:idx]
	if !strings.HasSuffix(base, "/") {
		return VersionedURL{}, fmt.Errorf("versioned url %q base must end with a slash", s)
	}

	return VersionedURL{BaseURL: base, Version: uint32(version)}, nil
}

// Validate checks the base URL shape and version.
func (u VersionedURL) Validate() error {
	if u.BaseURL == "" {
		return errors.New("base url is required")
	}

	if !strings.HasPrefix(u.BaseURL, "http://") && !strings.HasPrefix(u.BaseURL, "https://") {
		return fmt.Errorf("base url %q must be absolute", u.BaseURL)
	}

	if !strings.HasSuffix(u.BaseURL, "/") {
		return fmt.Errorf("base url %q must end with a slash", u.BaseURL)
	}

	if u.Version == 0 {
		return errors.New("version must be at least 1")
	}

	return nil
}

// OntologyTypeUUID derives the deterministic storage ID of an ontology
// type from its versioned URL. The same URL always yields the same ID.
func OntologyTypeUUID(url VersionedURL) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url.String()))
}
