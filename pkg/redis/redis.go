package redis

import (
	"context"
	"fmt"
	"sync"
)

var (
	sessionsClient Client
	mu             sync.RWMutex
)

// Init connects the shared sessions client once
func Init(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if sessionsClient != nil {
		return nil
	}
	client, err := NewClientForSessions(ctx)
	if err != nil {
		return err
	}
	sessionsClient = client
	return nil
}

// GetClient returns the shared sessions client, nil before Init
func GetClient() Client {
	mu.RLock()
	defer mu.RUnlock()
	return sessionsClient
}

// Health checks the shared client
func Health(ctx context.Context) error {
	client := GetClient()
	if client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return client.Health(ctx)
}

// Close closes the shared client
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if sessionsClient == nil {
		return nil
	}
	err := sessionsClient.Close()
	sessionsClient = nil
	return err
}
