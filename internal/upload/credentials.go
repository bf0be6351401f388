package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoCredentials is returned when a provider has nothing to offer.
var ErrNoCredentials = errors.New("no credentials available")

// CredentialProvider supplies the API key sent to a remote server. The
// lifecycle is explicit: Load reads persisted state, Token returns a usable
// key, Save persists a key obtained elsewhere.
type CredentialProvider interface {
	Load(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
}

// StaticCredentials always returns the same key and persists nothing.
type StaticCredentials struct {
	Key string
}

func (s StaticCredentials) Load(context.Context) error { return nil }

func (s StaticCredentials) Token(context.Context) (string, error) {
	if s.Key == "" {
		return "", ErrNoCredentials
	}
	return s.Key, nil
}

func (s StaticCredentials) Save(context.Context, string) error { return nil }

// FileCredentials persists the key as JSON in a token file. A fallback key
// (e.g. from a flag or config) is saved on Load when the file is missing or
// holds a different key, so an explicitly passed key always wins.
type FileCredentials struct {
	path     string
	fallback string

	mu    sync.Mutex
	token string
}

type tokenFile struct {
	APIKey  string    `json:"api_key"`
	SavedAt time.Time `json:"saved_at"`
}

// NewFileCredentials returns a provider backed by path.
func NewFileCredentials(path, fallback string) *FileCredentials {
	return &FileCredentials{path: path, fallback: fallback}
}

func (c *FileCredentials) Load(ctx context.Context) error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		if c.fallback == "" {
			return nil
		}
		return c.Save(ctx, c.fallback)
	}
	if err != nil {
		return fmt.Errorf("reading token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parsing token file %s: %w", c.path, err)
	}
	if c.fallback != "" && c.fallback != tf.APIKey {
		return c.Save(ctx, c.fallback)
	}
	c.mu.Lock()
	c.token = tf.APIKey
	c.mu.Unlock()
	return nil
}

func (c *FileCredentials) Token(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", ErrNoCredentials
	}
	return c.token, nil
}

func (c *FileCredentials) Save(_ context.Context, token string) error {
	data, err := json.MarshalIndent(tokenFile{APIKey: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}
