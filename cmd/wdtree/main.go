package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/config"
	"github.com/persistorai/wdtree/internal/service"
)

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

var (
	cfg       *config.Config
	apiClient *client.Client
	logger    *logrus.Logger

	flagConfig  string
	flagFmt     string
	flagVerbose bool
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("wdtree version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}
	return fmt.Sprintf("wdtree version %s", config.Version)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "wdtree",
		Short:   "wdtree explores Wikidata class hierarchies into trees and tables",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveConfig(cmd)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.wdtree/config.yaml)")
	pf.StringVar(&flagFmt, "format", "table", "Output format: json|table")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	pf.String("endpoint", client.DefaultEndpoint, "SPARQL endpoint URL (env: WDTREE_ENDPOINT)")
	pf.String("api-url", client.DefaultAPIURL, "Wikibase action API URL (env: WDTREE_API_URL)")
	pf.String("language", "en", "Language of labels and property names (env: WDTREE_LANGUAGE)")
	pf.StringSlice("membership", nil, "Membership properties followed from the root (default P31,P279)")
	pf.StringSlice("properties", nil, "Properties projected as table columns")
	pf.StringSlice("labels", nil, "Label predicates as prefix:kind (default rdfs:label,skos:altLabel,schema:description)")
	pf.StringSlice("languages", nil, "Languages fetched for every label predicate (default en,fr)")

	initCmd := newInitCmd()
	initCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil } // config may not exist yet
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil } // doctor reports config errors itself

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newExploreCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newLabelsCmd())
	rootCmd.AddCommand(newEntityCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig loads the config file and environment, then applies the
// flags the user set explicitly. Flags take precedence, then env, then file.
func resolveConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	if err := applyFlags(cmd, loaded); err != nil {
		return err
	}

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	cfg = loaded
	logger = newLogger(cfg.LogLevel, flagVerbose)
	apiClient = newClient(cfg)

	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"endpoint":     &c.Endpoint,
		"api-url":      &c.APIURL,
		"language":     &c.Language,
		"out":          &c.OutputDir,
		"metrics-file": &c.MetricsFile,
		"listen-host":  &c.ListenHost,
		"port":         &c.Port,
	}
	for name, dst := range strs {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	lists := map[string]*[]string{
		"membership": &c.Membership,
		"properties": &c.Properties,
		"labels":     &c.Labels,
		"languages":  &c.Languages,
		"forbidden":  &c.Forbidden,
	}
	for name, dst := range lists {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		"batch-size": &c.BatchSize,
		"parallel":   &c.Parallelism,
	}
	for name, dst := range ints {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	bools := map[string]*bool{
		"expand-once": &c.ExpandOnce,
		"claims":      &c.Claims,
	}
	for name, dst := range bools {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	return nil
}

func newLogger(level string, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	log.SetLevel(lvl)

	return log
}

func newClient(c *config.Config) *client.Client {
	return client.New(c.Endpoint,
		client.WithAPIURL(c.APIURL),
		client.WithUserAgent(c.UserAgent),
		client.WithTimeout(c.Timeout),
	)
}

func explorerOptions(c *config.Config) service.Options {
	return service.Options{
		Membership:  c.Membership,
		Properties:  c.Properties,
		Labels:      c.Labels,
		Languages:   c.Languages,
		Language:    c.Language,
		Forbidden:   c.Forbidden,
		BatchSize:   c.BatchSize,
		ExpandOnce:  c.ExpandOnce,
		Claims:      c.Claims,
		Parallelism: c.Parallelism,
	}
}
