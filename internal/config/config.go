// Package config handles the XDG configuration directory, file paths and
// config.yaml settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"fstodo/internal/logging"
)

const (
	// AppName is the application directory name.
	AppName = "fstodo"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SettingsFile is the YAML settings filename.
	SettingsFile = "config.yaml"

	// PrefsFile is the local preference store filename.
	PrefsFile = "prefs.yaml"

	// TUILogFile receives log output while the terminal view owns the screen.
	TUILogFile = "tui.log"

	// BackendFirestore selects the Cloud Firestore backend.
	BackendFirestore = "firestore"

	// BackendSQLite selects the local SQLite backend.
	BackendSQLite = "sqlite"

	// DefaultPollInterval is how often the Firestore backend re-reads a
	// subscribed collection.
	DefaultPollInterval = 2 * time.Second
)

// Settings is the content of config.yaml.
type Settings struct {
	Backend   string          `yaml:"backend"`
	User      string          `yaml:"user"`
	Instance  string          `yaml:"instance"`
	Firestore FirestoreConfig `yaml:"firestore"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Log       LogConfig       `yaml:"log"`
}

// FirestoreConfig holds Firestore backend settings.
type FirestoreConfig struct {
	ProjectID    string `yaml:"project_id"`
	Database     string `yaml:"database"`
	PollInterval string `yaml:"poll_interval"`
}

// SQLiteConfig holds SQLite backend settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings Settings

	// Logger is set by the dispatcher from the log settings and --debug.
	Logger *log.Logger
}

// New creates a new Config with the default or specified config directory
// and loads config.yaml from it if present.
// If configDir is empty, uses XDG_CONFIG_HOME/fstodo or $HOME/.config/fstodo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) load() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", SettingsFile, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	s := &c.Settings
	if s.Backend == "" {
		s.Backend = BackendSQLite
	}
	if s.User == "" {
		s.User = defaultUser()
	}
	if s.Firestore.Database == "" {
		s.Firestore.Database = "(default)"
	}
	if s.SQLite.Path == "" {
		s.SQLite.Path = filepath.Join(c.Dir, "fstodo.db")
	}
}

// Log returns the configured logger, or one that discards everything.
func (c *Config) Log() *log.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Settings.Backend {
	case BackendSQLite:
	case BackendFirestore:
		if c.Settings.Firestore.ProjectID == "" {
			return errors.New("firestore.project_id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown backend: %q (must be 'firestore' or 'sqlite')", c.Settings.Backend)
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	return nil
}

// PollInterval returns the parsed Firestore poll interval.
func (c *Config) PollInterval() (time.Duration, error) {
	raw := c.Settings.Firestore.PollInterval
	if raw == "" {
		return DefaultPollInterval, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration for firestore.poll_interval: %q", raw)
	}
	return d, nil
}

// Save writes the current settings to config.yaml.
func (c *Config) Save() error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(&c.Settings)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// PrefsPath returns the path to the local preference store.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.Dir, PrefsFile)
}

// TUILogPath returns the path of the terminal view's log file.
func (c *Config) TUILogPath() string {
	return filepath.Join(c.Dir, TUILogFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// defaultUser names the membership owner when config.yaml has none.
func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Windows usernames are DOMAIN\name; keep document ids slash-free.
		return strings.NewReplacer("\\", "_", "/", "_").Replace(u.Username)
	}
	return "local"
}
