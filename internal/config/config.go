// Package config loads and persists the bridge settings. Credentials and
// preferences live in ~/.toggl-float-bridge/config.json; environment
// variables override file values so CI and containers can inject tokens.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Settings is an immutable snapshot of the configuration, taken once per
// operation at invocation time so a running sync never observes mid-flight
// settings changes.
type Settings struct {
	Toggl struct {
		APIToken string `json:"api_token"`
		BaseURL  string `json:"base_url,omitempty"` // default https://api.track.toggl.com
	} `json:"toggl"`
	Float struct {
		APIToken string `json:"api_token"`
		BaseURL  string `json:"base_url,omitempty"` // default https://api.float.com/v3
		PersonID int64  `json:"person_id"`
	} `json:"float"`
	Atlassian struct {
		Email              string  `json:"email"`
		APIToken           string  `json:"api_token"`
		Host               string  `json:"host"` // e.g. yourcompany.atlassian.net
		IssuePrefix        string  `json:"issue_prefix"`
		RoundToQuarterHour bool    `json:"round_to_quarter_hour"`
		QuoteFactor        float64 `json:"quote_factor"` // (0,1], default 1.0
	} `json:"atlassian"`
	MySQL struct {
		DSN string `json:"dsn,omitempty"` // empty disables the archive sink
	} `json:"mysql"`
	// UploadedEntries counts time entries pushed to Float across sessions.
	UploadedEntries int `json:"uploaded_entries"`
}

const (
	defaultTogglBaseURL = "https://api.track.toggl.com"
	defaultFloatBaseURL = "https://api.float.com/v3"
)

// Store reads and writes the settings file. It implements
// ports.SettingsStore for the pieces the use cases persist.
type Store struct {
	path string
}

// NewStore returns a store rooted at ~/.toggl-float-bridge/config.json.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return &Store{path: filepath.Join(home, ".toggl-float-bridge", "config.json")}, nil
}

// NewStoreAt returns a store using an explicit file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load reads the settings file (an absent file yields defaults), applies
// environment overrides, and fills defaults.
func (s *Store) Load() (Settings, error) {
	var cfg Settings
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", s.path, err)
		}
	case os.IsNotExist(err):
		// First run: defaults plus environment.
	default:
		return cfg, fmt.Errorf("reading %s: %w", s.path, err)
	}

	applyEnv(&cfg)

	if cfg.Toggl.BaseURL == "" {
		cfg.Toggl.BaseURL = defaultTogglBaseURL
	}
	if cfg.Float.BaseURL == "" {
		cfg.Float.BaseURL = defaultFloatBaseURL
	}
	if cfg.Atlassian.QuoteFactor <= 0 || cfg.Atlassian.QuoteFactor > 1 {
		cfg.Atlassian.QuoteFactor = 1
	}
	return cfg, nil
}

func applyEnv(cfg *Settings) {
	if v := os.Getenv("TOGGL_API_TOKEN"); v != "" {
		cfg.Toggl.APIToken = v
	}
	if v := os.Getenv("FLOAT_API_TOKEN"); v != "" {
		cfg.Float.APIToken = v
	}
	if v := os.Getenv("FLOAT_PERSON_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Float.PersonID = id
		}
	}
	if v := os.Getenv("ATLASSIAN_EMAIL"); v != "" {
		cfg.Atlassian.Email = v
	}
	if v := os.Getenv("ATLASSIAN_API_TOKEN"); v != "" {
		cfg.Atlassian.APIToken = v
	}
	if v := os.Getenv("ATLASSIAN_HOST"); v != "" {
		cfg.Atlassian.Host = v
	}
	if v := os.Getenv("ATLASSIAN_ISSUE_PREFIX"); v != "" {
		cfg.Atlassian.IssuePrefix = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQL.DSN = v
	}
}

// Save writes the settings file, creating the directory on first use.
func (s *Store) Save(cfg Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o600)
}

// SetFloatPersonID persists the selected Float person.
func (s *Store) SetFloatPersonID(id int64) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	cfg.Float.PersonID = id
	return s.Save(cfg)
}

// AddUploadedEntries bumps the uploaded-entries counter and returns the new
// total.
func (s *Store) AddUploadedEntries(n int) (int, error) {
	cfg, err := s.Load()
	if err != nil {
		return 0, err
	}
	cfg.UploadedEntries += n
	if err := s.Save(cfg); err != nil {
		return 0, err
	}
	return cfg.UploadedEntries, nil
}

// ErrMissingCredential marks a configuration error surfaced before any
// network call.
var ErrMissingCredential = errors.New("missing credential")

// ValidateSync checks the credentials the sync and push workflows need.
func ValidateSync(cfg Settings) error {
	if cfg.Toggl.APIToken == "" {
		return fmt.Errorf("%w: Toggl API token", ErrMissingCredential)
	}
	if cfg.Float.APIToken == "" {
		return fmt.Errorf("%w: Float API token", ErrMissingCredential)
	}
	return nil
}

// ValidateAtlassian checks the credentials the worklog workflow needs.
func ValidateAtlassian(cfg Settings) error {
	if cfg.Atlassian.Email == "" || cfg.Atlassian.APIToken == "" || cfg.Atlassian.Host == "" {
		return fmt.Errorf("%w: Atlassian email, API token and host", ErrMissingCredential)
	}
	if cfg.Atlassian.IssuePrefix == "" {
		return fmt.Errorf("%w: Atlassian issue prefix", ErrMissingCredential)
	}
	return nil
}
