package migrate

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/pdfmig/convert"
)

// Config holds the full migration configuration. Loaded once before a run
// and immutable during it.
type Config struct {
	// Object store connection.
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" envconfig:"USE_SSL"`
	Bucket    string `yaml:"bucket" envconfig:"BUCKET"`

	// SourcePrefix is the namespace to enumerate; DestPrefix receives the
	// converted tree with the same relative structure.
	SourcePrefix string `yaml:"source_prefix" envconfig:"SOURCE_PREFIX"`
	DestPrefix   string `yaml:"dest_prefix" envconfig:"DEST_PREFIX"`

	// Overwrite allows destination writes to replace existing objects.
	Overwrite bool `yaml:"overwrite" envconfig:"OVERWRITE"`

	// ExcludePaths are relative sub-paths under SourcePrefix that are never
	// processed (log and mapping-table directories).
	ExcludePaths []string `yaml:"exclude_paths"`

	// LogPath is the append-only run log consumed by the failure ledger.
	LogPath string `yaml:"log_path" envconfig:"LOG_PATH"`

	// EventsDB is an optional SQLite file recording per-item events.
	EventsDB string `yaml:"events_db" envconfig:"EVENTS_DB"`

	// DocPassword opens password-protected documents. Environment only,
	// never from the config file.
	DocPassword string `yaml:"-" envconfig:"DOC_PASSWORD"`

	// Convert configures the conversion dispatcher.
	Convert convert.Config `yaml:"convert"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		LogPath:      "migration.log",
		ExcludePaths: []string{"Logs/", "Mapping Tables/"},
	}
}

// LoadConfig reads a YAML config file merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays PDFMIG_* environment variables onto the config.
func (c *Config) FromEnv() error {
	if err := envconfig.Process("pdfmig", c); err != nil {
		return fmt.Errorf("environment config: %w", err)
	}
	return nil
}

// Validate checks that a remote run has everything it needs.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.SourcePrefix == "" {
		return fmt.Errorf("source_prefix is required")
	}
	if c.DestPrefix == "" {
		return fmt.Errorf("dest_prefix is required")
	}
	if c.LogPath == "" {
		return fmt.Errorf("log_path is required")
	}
	return nil
}

// PasswordFor returns the password for a protected document.
//
// Today this is a single process-wide value regardless of which file is
// being opened; a per-file secret store is reserved for future logic.
func (c *Config) PasswordFor(path string) string {
	return c.DocPassword
}

// Excluded reports whether a relative path falls under an excluded sub-path.
func (c *Config) Excluded(rel string) bool {
	for _, p := range c.ExcludePaths {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
