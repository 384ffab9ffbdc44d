package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/conceptmap/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient   *client.Client
	flagURL     string
	flagFmt     string
	flagTimeout time.Duration
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("conceptmap version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("conceptmap version %s-dev", version)
}

// configFile is ~/.conceptmap/config.yaml. A flat url is accepted as well as
// named profiles.
type configFile struct {
	URL           string                   `yaml:"url"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL string `yaml:"url"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "conceptmap",
		Short:   "Query articles and the concept graph extracted from them",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = client.New(flagURL, client.WithTimeout(flagTimeout))
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "conceptmap server URL (env: CONCEPTMAP_URL)")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "Request timeout; first lookups of an article wait for ingestion")

	root.AddCommand(newArticleCmd())
	root.AddCommand(newEntityCmd(entityConcept))
	root.AddCommand(newEntityCmd(entityField))
	root.AddCommand(newHealthCmd())
	root.AddCommand(newReadyCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newEventsCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".conceptmap", "config.yaml"), nil
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL != defaultURL {
		return
	}
	if v := os.Getenv("CONCEPTMAP_URL"); v != "" {
		flagURL = v
		return
	}

	path, err := configPath()
	if err != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}

	resolved := cfg.URL
	if cfg.Profiles != nil {
		name := cfg.ActiveProfile
		if name == "" {
			name = "default"
		}
		if p, ok := cfg.Profiles[name]; ok && p.URL != "" {
			resolved = p.URL
		}
	}
	if resolved != "" {
		flagURL = resolved
	}
}
