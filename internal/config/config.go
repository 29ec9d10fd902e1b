package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the client. Values come from
// three layers, later ones winning: built-in defaults, the yaml config file,
// and DOCCHAT_* environment variables.
type Config struct {
	BaseURL               string `yaml:"base_url" env:"DOCCHAT_BASE_URL"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" env:"DOCCHAT_REQUEST_TIMEOUT_SECONDS"`
	UploadTimeoutSeconds  int    `yaml:"upload_timeout_seconds" env:"DOCCHAT_UPLOAD_TIMEOUT_SECONDS"`

	MaxFileSizeBytes  int64    `yaml:"max_file_size_bytes" env:"DOCCHAT_MAX_FILE_SIZE_BYTES"`
	AllowedExtensions []string `yaml:"allowed_extensions" env:"DOCCHAT_ALLOWED_EXTENSIONS" envSeparator:","`

	// SettleDelayMS is how long a finished upload stays on screen before the
	// app moves on to the conversation view.
	SettleDelayMS int `yaml:"settle_delay_ms" env:"DOCCHAT_SETTLE_DELAY_MS"`

	DataDir string `yaml:"data_dir" env:"DOCCHAT_DATA_DIR"`
	// Storage selects the snapshot backend: "file" or "sqlite".
	Storage string `yaml:"storage" env:"DOCCHAT_STORAGE"`
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

func DefaultConfig() Config {
	return Config{
		BaseURL:               "http://localhost:5000",
		RequestTimeoutSeconds: 10,
		UploadTimeoutSeconds:  30,
		MaxFileSizeBytes:      10 << 20,
		AllowedExtensions:     []string{"txt", "pdf", "doc", "docx"},
		SettleDelayMS:         1200,
		DataDir:               DefaultDataDir(),
		Storage:               "file",
	}
}

// Load reads the config file at path (missing file is fine), applies the
// environment overlay, and clamps anything out of range back to a default.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = 10
	}
	if cfg.UploadTimeoutSeconds <= 0 {
		cfg.UploadTimeoutSeconds = 30
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 << 20
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"txt", "pdf", "doc", "docx"}
	}
	for i, ext := range cfg.AllowedExtensions {
		cfg.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
	if cfg.SettleDelayMS <= 0 {
		cfg.SettleDelayMS = 1200
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.Storage != "file" && cfg.Storage != "sqlite" {
		cfg.Storage = "file"
	}
	return cfg, nil
}

func Save(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "docchat", "config.yml")
}

// DefaultDataDir prefers the XDG data dir and falls back to ~/.local/share,
// then the system temp dir.
func DefaultDataDir() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "docchat")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "docchat")
	}
	return filepath.Join(os.TempDir(), "docchat")
}
