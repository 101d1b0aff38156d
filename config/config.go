// Package config loads run settings from flags, environment, a .env file
// and an optional YAML file, and manages the message filter rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"
)

// Config captures everything a run needs.
type Config struct {
	From       string
	Label      string
	Subject    string
	Body       string
	MaxResults int64

	Directory string
	DocPrefix string

	Credentials string
	TokenStore  string
	TokenFile   string
	KeyringDir  string
	CalendarID  string

	Workers     int
	LogFile     string
	LogLevel    string
	FiltersFile string

	NoDoc        bool
	NoEvents     bool
	StrictEvents bool
	DryRun       bool
}

// RegisterFlags attaches the shared flags to cmd as persistent flags.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Optional YAML config file; keys match flag names")
	flags.String("env-file", ".env", "Optional .env file (MY_DIRECTORY sets --directory)")

	flags.String("from", "", "Only messages sent from this address")
	flags.String("label", "", "Only messages with this label")
	flags.String("subject", "", "Only messages whose subject matches")
	flags.String("body", "", "Free-text search terms")
	flags.Int64("max-results", 10, "Maximum number of messages to retrieve (1-500)")

	flags.String("directory", "", "Directory the document is written to (env MY_DIRECTORY)")
	flags.String("doc-prefix", "3rdPartyMaintenance", "File name prefix of the document")

	flags.String("credentials", "credentials.json", "OAuth client secret file")
	flags.String("token-store", TokenStoreFile, "Where the OAuth token is kept: file or keyring")
	flags.String("token-file", "token.json", "Token file for --token-store=file")
	flags.String("keyring-dir", defaultKeyringDir(), "Fallback directory for the file keyring backend")
	flags.String("calendar-id", "primary", "Calendar events are created in")

	flags.Int("workers", 4, "Messages downloaded and decoded concurrently")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("filters", "", "JSON file with ignore rules for senders, subjects and bodies")

	flags.Bool("no-doc", false, "Do not write the document")
	flags.Bool("no-events", false, "Do not create calendar events")
	flags.Bool("strict-events", false, "Skip events whose zones, date-times or ordering are invalid")
	flags.Bool("dry-run", false, "Decode and report without writing the document or creating events")
}

// Load resolves the configuration for cmd. Precedence, highest first:
// flags, environment (MAILDOC_*), .env file, YAML config file, defaults.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix("MAILDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("directory", "MAILDOC_DIRECTORY", "MY_DIRECTORY"); err != nil {
		return Config{}, fmt.Errorf("binding env: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if err := mergeEnvFile(v, v.GetString("env-file")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		From:         v.GetString("from"),
		Label:        v.GetString("label"),
		Subject:      v.GetString("subject"),
		Body:         v.GetString("body"),
		MaxResults:   v.GetInt64("max-results"),
		Directory:    v.GetString("directory"),
		DocPrefix:    v.GetString("doc-prefix"),
		Credentials:  v.GetString("credentials"),
		TokenStore:   strings.ToLower(v.GetString("token-store")),
		TokenFile:    v.GetString("token-file"),
		KeyringDir:   v.GetString("keyring-dir"),
		CalendarID:   v.GetString("calendar-id"),
		Workers:      v.GetInt("workers"),
		LogFile:      v.GetString("log-file"),
		LogLevel:     strings.ToLower(v.GetString("log-level")),
		FiltersFile:  v.GetString("filters"),
		NoDoc:        v.GetBool("no-doc"),
		NoEvents:     v.GetBool("no-events"),
		StrictEvents: v.GetBool("strict-events"),
		DryRun:       v.GetBool("dry-run"),
	}
	if cfg.Directory == "" {
		// MY_DIRECTORY read from the .env file lands under its own key.
		cfg.Directory = v.GetString("my_directory")
	}
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeEnvFile folds KEY=value pairs from path into v below flags and
// environment. A missing file is not an error.
func mergeEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}
	settings := make(map[string]any, len(ev.AllKeys()))
	for _, key := range ev.AllKeys() {
		name := strings.ToLower(key)
		if rest, ok := strings.CutPrefix(name, "maildoc_"); ok {
			name = strings.ReplaceAll(rest, "_", "-")
		}
		settings[name] = ev.Get(key)
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("merging env file %s: %w", path, err)
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.MaxResults < 1 || cfg.MaxResults > 500 {
		return fmt.Errorf("--max-results must be between 1 and 500, got %d", cfg.MaxResults)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", cfg.Workers)
	}
	switch cfg.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		return fmt.Errorf("invalid --token-store: %s", cfg.TokenStore)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}
	return nil
}

// WritesDocument reports whether the run should produce a document.
func (c Config) WritesDocument() bool {
	return !c.NoDoc && !c.DryRun
}

// CreatesEvents reports whether the run should insert calendar events.
func (c Config) CreatesEvents() bool {
	return !c.NoEvents && !c.DryRun
}

func defaultKeyringDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "keyring")
	}
	return filepath.Join(home, ".config", "maildoc", "keyring")
}
