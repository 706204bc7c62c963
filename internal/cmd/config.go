package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/ux"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit pimis configuration",
	Long: `Manage the pimis configuration stored at ~/.pimis/config.yaml
(or $PIMIS_HOME/config.yaml).

Configuration includes:
  • Backend url and request timeout
  • Deployment variant and menu language
  • Session store driver (file, memory or redis)
  • Feature flag overrides
  • Logging, telemetry and metrics settings

Examples:
  # View current configuration
  pimis config view

  # Point at a backend
  pimis config set api.url https://ibp.example.org/api/v1

  # Share the session through redis
  pimis config set store.driver redis

  # Turn a feature flag on
  pimis config set features.has_filter_panel true
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  `Retrieve the value of a configuration key using dot notation (e.g., store.driver).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a configuration key using dot notation (e.g., app.variant jm).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// Store drivers
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Environment overrides, applied after the file and before flags
const (
	EnvAPIURL      = "PIMIS_API_URL"
	EnvVariant     = "PIMIS_VARIANT"
	EnvStoreDriver = "PIMIS_STORE_DRIVER"
	EnvRedisAddr   = "PIMIS_REDIS_ADDR"
	EnvLogLevel    = "PIMIS_LOG_LEVEL"

	EnvTelemetry           = "PIMIS_TELEMETRY"
	EnvTelemetryEndpoint   = "PIMIS_TELEMETRY_ENDPOINT"
	EnvTelemetrySampleRate = "PIMIS_TELEMETRY_SAMPLE_RATE"
)

// GlobalConfig represents the pimis configuration file
type GlobalConfig struct {
	API       APIConfig       `yaml:"api" json:"api"`
	App       AppConfig       `yaml:"app" json:"app"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Features  map[string]bool `yaml:"features,omitempty" json:"features,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

type APIConfig struct {
	URL     string `yaml:"url" json:"url"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

type AppConfig struct {
	Variant  string `yaml:"variant" json:"variant"`
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
	Route    string `yaml:"route,omitempty" json:"route,omitempty"` // last route shown by nav browse
}

type StoreConfig struct {
	Driver      string `yaml:"driver" json:"driver"` // "file", "memory", "redis"
	Path        string `yaml:"path,omitempty" json:"path,omitempty"`
	RedisAddr   string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	RedisDB     int    `yaml:"redis_db,omitempty" json:"redis_db,omitempty"`
	RedisPrefix string `yaml:"redis_prefix,omitempty" json:"redis_prefix,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // "text", "json"
}

type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Endpoint   string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Insecure   bool    `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" json:"textfile,omitempty"`
}

// defaultGlobalConfig returns the default global configuration
func defaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		API: APIConfig{
			URL:     "http://localhost:5000/api/v1",
			Timeout: "30s",
		},
		App: AppConfig{
			Variant:  string(features.VariantUG),
			Language: "en",
		},
		Store: StoreConfig{
			Driver:      DriverFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "pimis:session",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// loadConfig loads the configuration, creating the default file if it
// doesn't exist
func loadConfig(paths *ux.PathDefaults) (*GlobalConfig, error) {
	configPath := paths.ConfigFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultGlobalConfig()
		if err := paths.Ensure(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := saveConfig(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaultGlobalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to parse config", err).
			WithSuggestion("Fix the file with 'pimis config edit'")
	}
	return cfg, nil
}

// saveConfig saves the configuration to the file
func saveConfig(cfg *GlobalConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnv overlays the PIMIS_* environment variables
func applyEnv(cfg *GlobalConfig, getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		cfg.API.URL = v
	}
	if v := getenv(EnvVariant); v != "" {
		cfg.App.Variant = v
	}
	if v := getenv(EnvStoreDriver); v != "" {
		cfg.Store.Driver = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv(EnvTelemetry); v != "" {
		cfg.Telemetry.Enabled = parseBool(v)
	}
	if v := getenv(EnvTelemetryEndpoint); v != "" {
		cfg.Telemetry.Endpoint = v
	}
	if v := getenv(EnvTelemetrySampleRate); v != "" {
		if rate, err := parseFloat(v); err == nil {
			cfg.Telemetry.SampleRate = rate
		}
	}
}

// applyFlags overlays persistent flags, which win over file and environment
func applyFlags(cfg *GlobalConfig, c *CommandContext) {
	if c.APIURL != "" {
		cfg.API.URL = c.APIURL
	}
	if c.Variant != "" {
		cfg.App.Variant = c.Variant
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
}

// validate rejects values the wiring cannot use
func (cfg *GlobalConfig) validate() error {
	if strings.TrimSpace(cfg.API.URL) == "" {
		return errors.NewConfigInvalidError("api.url is empty")
	}
	if _, err := cfg.timeout(); err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.timeout: %v", err))
	}
	switch cfg.Store.Driver {
	case DriverFile, DriverMemory:
	case DriverRedis:
		if cfg.Store.RedisAddr == "" {
			return errors.NewConfigInvalidError("store.redis_addr is required for the redis driver")
		}
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("unknown store.driver %q (supported: file, memory, redis)", cfg.Store.Driver))
	}
	switch features.ParseVariant(cfg.App.Variant) {
	case "", features.VariantUG, features.VariantMZB, features.VariantJM:
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("unknown app.variant %q (supported: ug, mzb, jm)", cfg.App.Variant))
	}
	return nil
}

func (cfg *GlobalConfig) variant() features.Variant {
	if v := features.ParseVariant(cfg.App.Variant); v != "" {
		return v
	}
	return features.VariantUG
}

func (cfg *GlobalConfig) timeout() (time.Duration, error) {
	if cfg.API.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(cfg.API.Timeout)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	paths := ux.NewPathDefaults(cmdCtx.Home)

	cfg, err := loadConfig(paths)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	if cmdCtx.Format == "json" || cmdCtx.Format == "yaml" {
		formatter, err := cmdCtx.Formatter(cmd)
		if err != nil {
			return err
		}
		return formatter.Format(cfg)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n\n", paths.ConfigFile())
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	paths := ux.NewPathDefaults(cmdCtx.Home)

	if _, err := loadConfig(paths); err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, paths.ConfigFile())
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	cfg, err := loadConfig(paths)
	if err == nil {
		err = cfg.validate()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Configuration may contain errors: %v\n", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated successfully")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	cfg, err := loadConfig(ux.NewPathDefaults(cmdCtx.Home))
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	value, err := getNestedValue(cfg, args[0])
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	paths := ux.NewPathDefaults(cmdCtx.Home)

	cfg, err := loadConfig(paths)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	if err := setNestedValue(cfg, key, value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	if err := saveConfig(cfg, paths.ConfigFile()); err != nil {
		return ux.FormatError(err, "saving configuration")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ux.NewPathDefaults(cmdCtx.Home).ConfigFile())
	return nil
}

// getNestedValue retrieves a value from the config using dot notation
func getNestedValue(cfg *GlobalConfig, key string) (string, error) {
	if flag, ok := strings.CutPrefix(key, "features."); ok {
		v, set := cfg.Features[flag]
		if !set {
			return "unset", nil
		}
		return strconv.FormatBool(v), nil
	}

	switch key {
	case "api.url":
		return cfg.API.URL, nil
	case "api.timeout":
		return cfg.API.Timeout, nil
	case "app.variant":
		return cfg.App.Variant, nil
	case "app.language":
		return cfg.App.Language, nil
	case "app.route":
		return cfg.App.Route, nil
	case "store.driver":
		return cfg.Store.Driver, nil
	case "store.path":
		return cfg.Store.Path, nil
	case "store.redis_addr":
		return cfg.Store.RedisAddr, nil
	case "store.redis_db":
		return strconv.Itoa(cfg.Store.RedisDB), nil
	case "store.redis_prefix":
		return cfg.Store.RedisPrefix, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	case "telemetry.enabled":
		return strconv.FormatBool(cfg.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return cfg.Telemetry.Endpoint, nil
	case "telemetry.insecure":
		return strconv.FormatBool(cfg.Telemetry.Insecure), nil
	case "telemetry.sample_rate":
		return fmt.Sprintf("%.2f", cfg.Telemetry.SampleRate), nil
	case "metrics.textfile":
		return cfg.Metrics.Textfile, nil
	case "features":
		keys := make([]string, 0, len(cfg.Features))
		for k, v := range cfg.Features {
			keys = append(keys, fmt.Sprintf("%s=%t", k, v))
		}
		sort.Strings(keys)
		return strings.Join(keys, "\n"), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setNestedValue sets a value in the config using dot notation
func setNestedValue(cfg *GlobalConfig, key, value string) error {
	if flag, ok := strings.CutPrefix(key, "features."); ok {
		if !isKnownFlag(features.Flag(flag)) {
			return fmt.Errorf("unknown feature flag: %s", flag)
		}
		if cfg.Features == nil {
			cfg.Features = make(map[string]bool)
		}
		cfg.Features[flag] = parseBool(value)
		return nil
	}

	switch key {
	case "api.url":
		cfg.API.URL = value
	case "api.timeout":
		cfg.API.Timeout = value
	case "app.variant":
		cfg.App.Variant = value
	case "app.language":
		cfg.App.Language = value
	case "app.route":
		cfg.App.Route = value
	case "store.driver":
		cfg.Store.Driver = value
	case "store.path":
		cfg.Store.Path = value
	case "store.redis_addr":
		cfg.Store.RedisAddr = value
	case "store.redis_db":
		v, err := parseInt(value)
		if err != nil {
			return err
		}
		cfg.Store.RedisDB = v
	case "store.redis_prefix":
		cfg.Store.RedisPrefix = value
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "telemetry.enabled":
		cfg.Telemetry.Enabled = parseBool(value)
	case "telemetry.endpoint":
		cfg.Telemetry.Endpoint = value
	case "telemetry.insecure":
		cfg.Telemetry.Insecure = parseBool(value)
	case "telemetry.sample_rate":
		v, err := parseFloat(value)
		if err != nil {
			return err
		}
		cfg.Telemetry.SampleRate = v
	case "metrics.textfile":
		cfg.Metrics.Textfile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func isKnownFlag(f features.Flag) bool {
	for _, k := range features.Known {
		if k == f {
			return true
		}
	}
	return false
}

// Helper functions for parsing values
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "yes" || s == "1" || s == "on" || s == "enabled"
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
