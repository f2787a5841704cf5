// Package tokenstore keeps the single bearer token of a profile.
//
// Stores never report errors to callers. A backend failure is logged and the
// token reads as absent, which sends the user back through login.
package tokenstore

import (
	"context"
	"sync"
)

// Key is the fixed name the token is stored under
const Key = "authToken"

// Store holds at most one bearer token
type Store interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string)
	Clear(ctx context.Context)
}

// Memory is an in-process Store
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored token
func (m *Memory) Get(_ context.Context) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// Set replaces the stored token
func (m *Memory) Set(_ context.Context, token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// Clear removes the stored token
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}
