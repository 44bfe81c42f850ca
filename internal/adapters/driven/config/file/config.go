// Package file provides the TOML-backed application configuration:
// the OAuth app identity, the credential file location, and the
// staleness threshold for saved credentials.
package file

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the configuration directory under the user home.
const DefaultDirName = ".pcloud"

// Config is the persisted application configuration.
type Config struct {
	App         AppConfig         `toml:"app"`
	Credentials CredentialsConfig `toml:"credentials"`
}

// AppConfig is the OAuth application identity used for the delegated
// authorization flow.
type AppConfig struct {
	ClientKey    string `toml:"client_key"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// CredentialsConfig controls account persistence.
type CredentialsConfig struct {
	// File is the credential file path. Defaults to accounts.json in
	// the config directory.
	File string `toml:"file"`
	// StalenessDays is the age past which saved credentials trigger a
	// warning at load time.
	StalenessDays int `toml:"staleness_days"`
}

// Store loads and saves the configuration file.
type Store struct {
	filePath string
	config   Config
}

// NewStore creates a config store rooted at configDir, defaulting to
// ~/.pcloud. Missing files start from defaults.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, DefaultDirName)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
		config: Config{
			Credentials: CredentialsConfig{
				File:          filepath.Join(configDir, "accounts.json"),
				StalenessDays: 30,
			},
		},
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Config returns the current configuration.
func (s *Store) Config() Config {
	return s.config
}

// SetApp updates the OAuth app identity and persists immediately.
func (s *Store) SetApp(app AppConfig) error {
	s.config.App = app
	return s.Save()
}

// Save persists the configuration with restricted permissions; the file
// can hold an app secret.
func (s *Store) Save() error {
	data, err := toml.Marshal(s.config)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads the configuration file over the in-memory defaults.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, &s.config)
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}
