// Package keys stores the Gemini API credential on disk.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// Provider is the only credential slot the app uses.
	Provider = "gemini"
	// EnvVar is the environment fallback for the credential.
	EnvVar = "GEMINI_API_KEY"
)

// Store reads and writes the keys.json credential file.
type Store struct {
	configDir string
}

type entry struct {
	Key string `json:"key"`
}

// NewStore resolves the platform config directory and returns a store.
func NewStore() (*Store, error) {
	configDir, err := configDir()
	if err != nil {
		return nil, err
	}
	return &Store{configDir: configDir}, nil
}

// configDir returns the platform-specific config directory.
func configDir() (string, error) {
	// Override for testing
	if testDir := os.Getenv("HAIRSTUDIO_CONFIG_DIR"); testDir != "" {
		return testDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "hairstudio"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "hairstudio"), nil
	default:
		// XDG Base Directory Specification
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "hairstudio"), nil
	}
}

// Path returns the path to the keys.json file.
func (s *Store) Path() string {
	return filepath.Join(s.configDir, "keys.json")
}

func (s *Store) load() (map[string]entry, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]entry), nil
		}
		return nil, err
	}

	var keys map[string]entry
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse keys.json: %w", err)
	}
	return keys, nil
}

func (s *Store) save(keys map[string]entry) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}

	// Owner read/write only
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write keys.json: %w", err)
	}
	return nil
}

// Set stores the Gemini credential.
func (s *Store) Set(key string) error {
	keys, err := s.load()
	if err != nil {
		return err
	}
	keys[Provider] = entry{Key: key}
	return s.save(keys)
}

// Get returns the stored credential, or empty when none exists.
func (s *Store) Get() (string, error) {
	keys, err := s.load()
	if err != nil {
		return "", err
	}
	return keys[Provider].Key, nil
}

// Delete removes the stored credential.
func (s *Store) Delete() error {
	keys, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := keys[Provider]; !ok {
		return fmt.Errorf("no key stored for %s", Provider)
	}
	delete(keys, Provider)
	return s.save(keys)
}

// Exists reports whether a credential is stored on disk.
func (s *Store) Exists() (bool, error) {
	keys, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := keys[Provider]
	return ok, nil
}

// MaskKey returns a masked version of the key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// GetAPIKey resolves the credential in priority order: explicit flag,
// stored key, environment variable. The second return names the source.
func GetAPIKey(explicitKey string) (string, string, error) {
	if explicitKey != "" {
		return explicitKey, "command-line flag", nil
	}

	store, err := NewStore()
	if err == nil {
		storedKey, err := store.Get()
		if err == nil && storedKey != "" {
			return storedKey, fmt.Sprintf("stored key (%s)", store.Path()), nil
		}
	}

	if envKey := os.Getenv(EnvVar); envKey != "" {
		return envKey, fmt.Sprintf("environment variable (%s)", EnvVar), nil
	}

	return "", "", fmt.Errorf("API key required: run 'hairstudio keys set' or set %s", EnvVar)
}
