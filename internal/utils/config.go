package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// Config is the root configuration of the service.
type Config struct {
	Server ServerConfig           `yaml:"server"`
	CORS   CORSConfig             `yaml:"cors"`
	Logger LoggerConfig           `yaml:"logger"`
	PDF    PDFConfig              `yaml:"pdf"`
	Sheets map[string]SheetConfig `yaml:"sheets" validate:"dive"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port" validate:"required,startswith=:"`
	Prefork        bool   `yaml:"prefork"`
	BodyLimitBytes int    `yaml:"body_limit_bytes" validate:"gte=0"`
}

// CORSConfig holds the origins allowed to call /api/*. An empty list disables
// cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`
}

// PDFConfig controls the headless Chrome used for printing sheets.
type PDFConfig struct {
	ChromePath      string `yaml:"chrome_path"`
	ChromeNoSandbox bool   `yaml:"chrome_no_sandbox"`
	ChromePoolSize  int    `yaml:"chrome_pool_size" validate:"gte=0"`
	TimeoutSecs     int    `yaml:"timeout_secs" validate:"gt=0"`
	UserDataDir     string `yaml:"user_data_dir"`
}

// SheetConfig describes an additional sheet template. Lengths are in inches.
type SheetConfig struct {
	PageWidth   float64 `yaml:"page_width" validate:"gt=0"`
	PageHeight  float64 `yaml:"page_height" validate:"gt=0"`
	MarginTop   float64 `yaml:"margin_top" validate:"gte=0"`
	MarginLeft  float64 `yaml:"margin_left" validate:"gte=0"`
	LabelWidth  float64 `yaml:"label_width" validate:"gt=0"`
	LabelHeight float64 `yaml:"label_height" validate:"gt=0"`
	GapX        float64 `yaml:"gap_x" validate:"gte=0"`
	GapY        float64 `yaml:"gap_y" validate:"gte=0"`
	Rows        int     `yaml:"rows" validate:"gt=0"`
	Columns     int     `yaml:"columns" validate:"gt=0"`
}

var (
	// AppConfig holds the configuration loaded by LoadConfig.
	AppConfig Config
	configMu  sync.RWMutex
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           ":5000",
			BodyLimitBytes: 4 * 1024 * 1024,
		},
		Logger: LoggerConfig{
			File:       "./logs/labelmaker.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		PDF: PDFConfig{
			ChromeNoSandbox: true,
			ChromePoolSize:  2,
			TimeoutSecs:     30,
		},
	}
}

// LoadConfig reads the file named by CONFIG_PATH (or config.yaml), applies
// environment overrides and stores the result in AppConfig. It panics on an
// unreadable explicit path or an invalid configuration.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	cfg, err := readConfigFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(fmt.Sprintf("config: %v", err))
		}
		cfg = DefaultConfig()
	}

	applyEnvOverrides(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}

	configMu.Lock()
	AppConfig = cfg
	configMu.Unlock()
	return cfg
}

// LoadFrom reads and validates a config file without consulting the environment.
func LoadFrom(path string) Config {
	cfg, err := readConfigFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	if err := ValidateConfig(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// GetConfig returns the configuration stored by LoadConfig.
func GetConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return AppConfig
}

// ValidateConfig checks field constraints declared on the config structs.
func ValidateConfig(cfg Config) error {
	return validator.New().Struct(cfg)
}

func readConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Port = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = SplitOrigins(v)
	}
	// Common container variable for the browser binary.
	if v := os.Getenv("CHROME_BIN"); v != "" && cfg.PDF.ChromePath == "" {
		cfg.PDF.ChromePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = strings.ToLower(v)
	}
}

// SplitOrigins parses a comma separated origin list, dropping blanks.
func SplitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
