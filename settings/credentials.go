// Package settings stores termex user settings in the XDG data directory:
//
//	$XDG_DATA_HOME/termex/  (default: ~/.local/share/termex/)
//
// Files stored:
//   - auth.json     API keys per model provider, optionally with a base URL
//     and model for OpenAI-compatible endpoints
//   - prompts.json  extraction prompt overrides (see `termex prompts init`)
//
// auth.json is written with 0600 permissions.
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. TERMEX_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dataDirName = "termex"
	fileName    = "auth.json"

	// EnvAPIKey overrides stored keys for every provider.
	EnvAPIKey = "TERMEX_API_KEY"
)

// Info is the entry stored per provider in auth.json.
type Info struct {
	Key string `json:"key"`
	// BaseURL is the endpoint for custom-openai and self-hosted providers.
	BaseURL string `json:"baseUrl,omitempty"`
	// Model is the model used when --model is not given.
	Model string `json:"model,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File paths
// ---------------------------------------------------------------------------

// dataDir respects $XDG_DATA_HOME and falls back to ~/.local/share.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// PromptsFilePath returns the path to the prompts.json file.
func PromptsFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts.json"), nil
}

// DataDir returns the termex data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry for a provider, or nil if not found.
func Get(providerID string) *Info {
	return Load()[providerID]
}

// Set stores an entry for a provider (upsert).
func Set(providerID string, info *Info) error {
	store := Load()
	store[providerID] = info
	return Save(store)
}

// Remove deletes credentials for a provider.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// Providers returns the IDs that have stored credentials, sorted.
func Providers() []string {
	store := Load()
	ids := make([]string, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key for a provider, keeping any stored base URL
// and model.
func SetAPIKey(providerID, key string) error {
	info := &Info{Key: key}
	if existing := Get(providerID); existing != nil {
		info.BaseURL = existing.BaseURL
		info.Model = existing.Model
	}
	return Set(providerID, info)
}

// GetAPIKey retrieves the stored API key for a provider.
func GetAPIKey(providerID string) string {
	if info := Get(providerID); info != nil {
		return info.Key
	}
	return ""
}

// GetBaseURL retrieves the stored base URL for a provider.
func GetBaseURL(providerID string) string {
	if info := Get(providerID); info != nil {
		return info.BaseURL
	}
	return ""
}

// GetModel retrieves the stored default model for a provider.
func GetModel(providerID string) string {
	if info := Get(providerID); info != nil {
		return info.Model
	}
	return ""
}

// Key sources reported by ResolveAPIKey.
const (
	SourceFlag  = "flag"
	SourceEnv   = "env"
	SourceStore = "store"
	SourceNone  = ""
)

// ResolveAPIKey returns the key for providerID following the lookup order:
// flagValue, then $TERMEX_API_KEY, then the store. The second result names
// where the key came from.
func ResolveAPIKey(providerID, flagValue string) (string, string) {
	if k := strings.TrimSpace(flagValue); k != "" {
		return k, SourceFlag
	}
	if k := strings.TrimSpace(os.Getenv(EnvAPIKey)); k != "" {
		return k, SourceEnv
	}
	if k := GetAPIKey(providerID); k != "" {
		return k, SourceStore
	}
	return "", SourceNone
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
