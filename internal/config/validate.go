package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wdtree/internal/models"
)

var (
	propertyIDPattern = regexp.MustCompile(`^P[0-9]+$`)
	languagePattern   = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)
)

// Validate checks every setting that can be checked without a network call.
func (c *Config) Validate() error {
	if err := c.validateEndpoints(); err != nil {
		return err
	}

	if err := c.validateExploration(); err != nil {
		return err
	}

	if err := c.validateRun(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	return c.validateCORS()
}

func (c *Config) validateEndpoints() error {
	for name, raw := range map[string]string{"endpoint": c.Endpoint, "api_url": c.APIURL} {
		u, err := url.ParseRequestURI(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s scheme must be http:// or https://", name)
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

func (c *Config) validateExploration() error {
	for _, root := range c.Roots {
		if !models.IsEntityID(root) {
			return fmt.Errorf("root %q: %w", root, models.ErrInvalidEntity)
		}
	}

	for _, id := range c.Forbidden {
		if !models.IsEntityID(id) {
			return fmt.Errorf("forbidden %q: %w", id, models.ErrInvalidEntity)
		}
	}

	if len(c.Membership) == 0 {
		return models.ErrNoMembership
	}

	for _, p := range append(append([]string{}, c.Membership...), c.Properties...) {
		if !propertyIDPattern.MatchString(p) {
			return fmt.Errorf("invalid property id %q", p)
		}
	}

	for _, l := range c.Labels {
		if strings.Count(l, ":") != 1 || strings.HasPrefix(l, ":") || strings.HasSuffix(l, ":") {
			return fmt.Errorf("%w: %q", models.ErrLabelSpec, l)
		}
	}

	for _, lang := range append([]string{c.Language}, c.Languages...) {
		if !languagePattern.MatchString(lang) {
			return fmt.Errorf("invalid language code %q", lang)
		}
	}

	return nil
}

func (c *Config) validateRun() error {
	if c.BatchSize < 1 || c.BatchSize > 5000 {
		return fmt.Errorf("batch_size must be between 1 and 5000")
	}

	if c.Parallelism < 1 || c.Parallelism > 16 {
		return fmt.Errorf("parallelism must be between 1 and 16")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}

// validateDatabase only runs when a sink is configured; the database is optional.
func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return nil
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if !isLoopback(dbHost) && dbURL.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("port must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	// The viewer serves local files; only loopback and container wildcards are allowed.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("listen_host must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("cors_origins must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("cors_origins must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("cors_origins contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
