package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName  = "config.yaml"
	ConfigDirName   = ".lpqa"
	GlobalConfigDir = ".config/lpqa"
)

// ErrNoConfigFile is returned by findConfigFile when nothing is found
var ErrNoConfigFile = errors.New("no config file found")

// Loader handles configuration loading and discovery
type Loader struct {
	startDir string
	getenv   func(string) string
}

// NewLoader creates a new config loader starting from the given directory
func NewLoader(startDir string) *Loader {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			startDir = "."
		}
	}

	return &Loader{
		startDir: startDir,
		getenv:   os.Getenv,
	}
}

// Load returns the defaults overlaid with the nearest config file (if any)
// and LPQA_* environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := l.findConfigFile()
	switch {
	case err == nil:
		if err := l.loadFromFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	case errors.Is(err, ErrNoConfigFile):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return l.finish(cfg)
}

// LoadFile loads an explicit config path instead of searching for one
func (l *Loader) LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := l.loadFromFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return l.finish(cfg)
}

func (l *Loader) finish(cfg *Config) (*Config, error) {
	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches upward from the start directory for a config file
func (l *Loader) findConfigFile() (string, error) {
	dir, err := filepath.Abs(l.startDir)
	if err != nil {
		dir = l.startDir
	}

	for {
		configPath := filepath.Join(dir, ConfigDirName, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// Try global config
	homeDir, err := os.UserHomeDir()
	if err == nil {
		globalConfig := filepath.Join(homeDir, GlobalConfigDir, ConfigFileName)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", fmt.Errorf("%w (searched upward from %s)", ErrNoConfigFile, l.startDir)
}

// loadFromFile overlays a YAML file onto cfg
func (l *Loader) loadFromFile(configPath string, cfg *Config) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	if path := l.getenv("LPQA_CHROME_PATH"); path != "" {
		cfg.Browser.ExecPath = path
	}
	if v := l.getenv("LPQA_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LPQA_HEADLESS: %w", err)
		}
		cfg.Browser.Headless = b
	}
	if v := l.getenv("LPQA_TIMEOUT_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LPQA_TIMEOUT_MS: %w", err)
		}
		cfg.Browser.TimeoutMs = n
	}
	if v := l.getenv("LPQA_MAX_FCP_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LPQA_MAX_FCP_MS: %w", err)
		}
		cfg.Thresholds.MaxFcpMs = n
	}
	if dir := l.getenv("LPQA_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if formID := l.getenv("LPQA_FORM_ID"); formID != "" {
		cfg.Defaults.FormID = formID
	}
	if formats := l.getenv("LPQA_FORMATS"); formats != "" {
		cfg.Output.Formats = splitList(formats)
	}

	// Support both LPQA_ASANA_TOKEN and the Asana CLI's ASANA_ACCESS_TOKEN
	if token := l.getenv("LPQA_ASANA_TOKEN"); token != "" {
		cfg.Asana.Token = token
	} else if cfg.Asana.Token == "" {
		if token := l.getenv("ASANA_ACCESS_TOKEN"); token != "" {
			cfg.Asana.Token = token
		}
	}

	if path := l.getenv("LPQA_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}

	return nil
}

// Save writes the configuration to the specified path
func (l *Loader) Save(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path where a project config file should be created
func (l *Loader) GetConfigPath() string {
	return filepath.Join(l.startDir, ConfigDirName, ConfigFileName)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
