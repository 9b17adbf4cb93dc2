// Package config loads wdtree configuration from a yaml file and WDTREE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/persistorai/wdtree/client"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WDTREE_"

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all wdtree configuration values.
type Config struct {
	Endpoint  string        `yaml:"endpoint"`
	APIURL    string        `yaml:"api_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`

	Roots      []string `yaml:"roots,omitempty"`
	Forbidden  []string `yaml:"forbidden,omitempty"`
	Membership []string `yaml:"membership"`
	Properties []string `yaml:"properties"`
	Labels     []string `yaml:"labels"`
	Languages  []string `yaml:"languages"`
	Language   string   `yaml:"language"`

	OutputDir   string `yaml:"output_dir"`
	BatchSize   int    `yaml:"batch_size"`
	ExpandOnce  bool   `yaml:"expand_once"`
	Claims      bool   `yaml:"claims"`
	Parallelism int    `yaml:"parallelism"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
	LogLevel    string `yaml:"log_level"`

	DatabaseURL Secret `yaml:"database_url,omitempty"`

	ListenHost  string   `yaml:"listen_host"`
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() *Config {
	return &Config{
		Endpoint:    client.DefaultEndpoint,
		APIURL:      client.DefaultAPIURL,
		UserAgent:   client.DefaultUserAgent,
		Timeout:     90 * time.Second,
		Membership:  []string{"P31", "P279"},
		Properties:  []string{"P571", "P275", "P101", "P135", "P348", "P306", "P1482", "P277", "P577", "P366", "P178", "P2572", "P3966", "P144", "P170", "P1324"},
		Labels:      []string{"rdfs:label", "skos:altLabel", "schema:description"},
		Languages:   []string{"en", "fr"},
		Language:    "en",
		OutputDir:   ".",
		BatchSize:   1000,
		Parallelism: 1,
		LogLevel:    "info",
		ListenHost:  "127.0.0.1",
		Port:        "3040",
		CORSOrigins: []string{"http://localhost:3002"},
	}
}

// DefaultPath returns ~/.wdtree/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, ".wdtree", "config.yaml"), nil
}

// Load reads the yaml file at path (a missing file is not an error), applies
// environment overrides and validates the result. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Save writes cfg as yaml to path, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	out := *cfg
	out.DatabaseURL = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Addr returns the viewer listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) applyEnv() error {
	setString(&c.Endpoint, "ENDPOINT")
	setString(&c.APIURL, "API_URL")
	setString(&c.UserAgent, "USER_AGENT")
	setString(&c.Language, "LANGUAGE")
	setString(&c.OutputDir, "OUTPUT_DIR")
	setString(&c.MetricsFile, "METRICS_FILE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.ListenHost, "LISTEN_HOST")
	setString(&c.Port, "PORT")

	setList(&c.Roots, "ROOTS")
	setList(&c.Forbidden, "FORBIDDEN")
	setList(&c.Membership, "MEMBERSHIP")
	setList(&c.Properties, "PROPERTIES")
	setList(&c.Labels, "LABELS")
	setList(&c.Languages, "LANGUAGES")
	setList(&c.CORSOrigins, "CORS_ORIGINS")

	if v := envValue("DATABASE_URL"); v != "" {
		c.DatabaseURL = Secret(v)
	}

	if v := envValue("TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT must be a duration: %w", EnvPrefix, err)
		}
		c.Timeout = d
	}

	for key, dst := range map[string]*int{"BATCH_SIZE": &c.BatchSize, "PARALLELISM": &c.Parallelism} {
		if v := envValue(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s must be an integer: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	for key, dst := range map[string]*bool{"EXPAND_ONCE": &c.ExpandOnce, "CLAIMS": &c.Claims} {
		if v := envValue(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s must be a boolean: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	return nil
}

func envValue(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func setString(dst *string, key string) {
	if v := envValue(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	if v := envValue(key); v != "" {
		*dst = SplitList(v)
	}
}

// SplitList splits a comma-separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
