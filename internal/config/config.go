package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the adapter.
type Config struct {
	General GeneralConfig `json:"general" yaml:"general"`
	Bot     BotConfig     `json:"bot" yaml:"bot"`
	Ingress IngressConfig `json:"ingress" yaml:"ingress"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	LogFile  string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// BotConfig carries the robot's identity on the platform. AppID, AppPassword,
// TenantID and AppType are passed opaquely to the platform client.
type BotConfig struct {
	Name          string `json:"name" yaml:"name"`
	Alias         string `json:"alias,omitempty" yaml:"alias,omitempty"`
	AliasDisabled bool   `json:"aliasDisabled,omitempty" yaml:"aliasDisabled,omitempty"`
	AppID         string `json:"appId" yaml:"appId"`
	AppPassword   string `json:"appPassword,omitempty" yaml:"appPassword,omitempty"`
	TenantID      string `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	AppType       string `json:"appType,omitempty" yaml:"appType,omitempty"` // multitenant | singletenant | userassignedmsi
	ServiceURL    string `json:"serviceUrl,omitempty" yaml:"serviceUrl,omitempty"`
}

type IngressConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	MessagesPath string `json:"messagesPath,omitempty" yaml:"messagesPath,omitempty"`
	WebSocket    bool   `json:"websocket" yaml:"websocket"`
}

type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"dbPath,omitempty" yaml:"dbPath,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.teamsbot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".teamsbot"
	}
	return filepath.Join(home, ".teamsbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads the config file, expanding ${VAR} references from the
// environment. JSON is the default; .yaml/.yml files are parsed as YAML.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Journal.DBPath = ExpandPath(cfg.Journal.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Bot.Name == "" {
		errs = append(errs, "bot.name is required")
	}
	switch cfg.Bot.AppType {
	case "", "multitenant", "singletenant", "userassignedmsi":
		// valid
	default:
		errs = append(errs, "bot.appType must be one of: multitenant, singletenant, userassignedmsi")
	}

	if cfg.Ingress.Port < 0 || cfg.Ingress.Port > 65535 {
		errs = append(errs, "ingress.port must be between 0 and 65535")
	}
	if p := cfg.Ingress.MessagesPath; p != "" && !strings.HasPrefix(p, "/") {
		errs = append(errs, "ingress.messagesPath must start with /")
	}

	if cfg.Journal.Enabled && cfg.Journal.DBPath == "" {
		errs = append(errs, "journal.dbPath is required when journal.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
