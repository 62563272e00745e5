package client

import (
	"context"
	"net/url"
)

// WebService handles web and account registration.
type WebService struct {
	c *Client
}

// Create registers a new web under the given shortname.
func (s *WebService) Create(ctx context.Context, shortname string) (*Web, error) {
	var web Web
	if err := s.c.post(ctx, "/api/v1/webs", &CreateWebRequest{Shortname: shortname}, &web); err != nil {
		return nil, err
	}
	return &web, nil
}

// Get returns a web by shortname.
func (s *WebService) Get(ctx context.Context, shortname string) (*Web, error) {
	var web Web
	if err := s.c.get(ctx, "/api/v1/webs/"+url.PathEscape(shortname), nil, &web); err != nil {
		return nil, err
	}
	return &web, nil
}

// CreateAccount registers an account inside an existing web.
func (s *WebService) CreateAccount(ctx context.Context, webID string) (*Account, error) {
	var account Account
	if err := s.c.post(ctx, "/api/v1/accounts", &CreateAccountRequest{WebID: webID}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
