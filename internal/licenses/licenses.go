package licenses

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const collectionPath = "/licenses"

// ErrMissingID is returned when an item operation gets an empty id
var ErrMissingID = errors.New("license id is required")

// License mirrors the API resource. The server owns it; nothing here caches it.
type License struct {
	ID        string     `json:"id,omitempty"`
	Key       string     `json:"key"`
	Audience  string     `json:"aud"`
	Active    bool       `json:"active"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
	ExpiresAt *Timestamp `json:"expiresAt,omitempty"`
}

// Doer is the authenticated part of the HTTP client
type Doer interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

// Service performs license CRUD against the API
type Service struct {
	api Doer
}

// NewService returns a Service using api
func NewService(api Doer) *Service {
	return &Service{api: api}
}

func itemPath(id string) string {
	return collectionPath + "/" + url.PathEscape(id)
}

// List returns every license
func (s *Service) List(ctx context.Context) ([]License, error) {
	var out []License
	if err := s.api.Get(ctx, collectionPath, &out); err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return out, nil
}

// Get returns one license
func (s *Service) Get(ctx context.Context, id string) (*License, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	var out License
	if err := s.api.Get(ctx, itemPath(id), &out); err != nil {
		return nil, fmt.Errorf("get license %s: %w", id, err)
	}
	return &out, nil
}

// Create posts a new license; any id on the input is dropped, the server assigns one
func (s *Service) Create(ctx context.Context, l License) (*License, error) {
	l.ID = ""
	var out License
	if err := s.api.Post(ctx, collectionPath, l, &out); err != nil {
		return nil, fmt.Errorf("create license: %w", err)
	}
	return &out, nil
}

// Update replaces the license with the full body l
func (s *Service) Update(ctx context.Context, id string, l License) (*License, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	l.ID = id
	var out License
	if err := s.api.Put(ctx, itemPath(id), l, &out); err != nil {
		return nil, fmt.Errorf("update license %s: %w", id, err)
	}
	if out.ID == "" {
		out = l
	}
	return &out, nil
}

// Delete removes a license
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if err := s.api.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("delete license %s: %w", id, err)
	}
	return nil
}

// Filter keeps licenses whose key, audience or id contains query, ignoring case
func Filter(items []License, query string) []License {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]License, 0, len(items))
	for _, l := range items {
		if strings.Contains(strings.ToLower(l.Key), q) ||
			strings.Contains(strings.ToLower(l.Audience), q) ||
			strings.Contains(strings.ToLower(l.ID), q) {
			out = append(out, l)
		}
	}
	return out
}
