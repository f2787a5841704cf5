package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/benedict-erwin/license-console/pkg/logger"
)

// File persists the token in a per-user profile document shaped like {"authToken": "<raw>"}.
// Other keys in the document are preserved on write.
type File struct {
	path string
}

// NewFile returns a store backed by the profile document at path
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the profile document location
func (f *File) Path() string {
	return f.path
}

// Get reads the token from disk on every call
func (f *File) Get(_ context.Context) (string, bool) {
	doc, err := f.read()
	if err != nil {
		logger.WithScope("tokenstore.File").Warn().Err(err).Str("path", f.path).Msg("Failed to read profile, treating token as absent")
		return "", false
	}
	token, _ := doc[Key].(string)
	return token, token != ""
}

// Set writes the token, creating the profile directory when needed
func (f *File) Set(_ context.Context, token string) {
	if err := f.update(func(doc map[string]any) { doc[Key] = token }); err != nil {
		logger.WithScope("tokenstore.File").Warn().Err(err).Str("path", f.path).Msg("Failed to persist token")
	}
}

// Clear removes the token key from the profile document
func (f *File) Clear(_ context.Context) {
	if err := f.update(func(doc map[string]any) { delete(doc, Key) }); err != nil {
		logger.WithScope("tokenstore.File").Warn().Err(err).Str("path", f.path).Msg("Failed to clear token")
	}
}

func (f *File) read() (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	doc := map[string]any{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func (f *File) update(mutate func(map[string]any)) error {
	doc, err := f.read()
	if err != nil {
		// a corrupt profile is replaced rather than blocking login forever
		doc = map[string]any{}
	}
	mutate(doc)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".profile-*")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp profile: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}
