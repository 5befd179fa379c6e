package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/angelcm/marketing-intel/internal/ingest"
)

type Config struct {
	Port        string        `yaml:"port" validate:"required,numeric"`
	LogLevel    string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	HTTPTimeout time.Duration `yaml:"-" validate:"gt=0"`
	DataDir     string        `yaml:"data_dir"`
	SinkURL     string        `yaml:"sink_url" validate:"omitempty,url"`
	SinkSecret  string        `yaml:"sink_secret" validate:"required_with=SinkURL"`
	Policy      ingest.Policy `yaml:"validation_policy" validate:"oneof=clamp strict"`

	TimeoutSeconds int             `yaml:"http_timeout_seconds"`
	Sources        []ingest.Source `yaml:"sources" validate:"dive"`
	Business       string          `yaml:"business"`
}

// channelEnv maps the built-in channel source variables.
var channelEnv = []struct{ key, channel string }{
	{"FACEBOOK_SOURCE", "facebook"},
	{"GOOGLE_SOURCE", "google"},
	{"TIKTOK_SOURCE", "tiktok"},
}

func defaults() Config {
	return Config{
		Port:           "8080",
		LogLevel:       "info",
		TimeoutSeconds: 15,
		Policy:         ingest.PolicyClamp,
	}
}

// Load builds the config from defaults, then CONFIG_FILE (YAML), then the
// environment, optionally seeded from a .env file, and validates the result.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	fromEnv(&cfg)
	cfg.HTTPTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func fromEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", cfg.LogLevel))
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.SinkURL = envOr("SINK_URL", cfg.SinkURL)
	cfg.SinkSecret = envOr("SINK_SECRET", cfg.SinkSecret)
	cfg.Policy = ingest.Policy(strings.ToLower(envOr("VALIDATION_POLICY", string(cfg.Policy))))
	cfg.Business = envOr("BUSINESS_SOURCE", cfg.Business)
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	for _, c := range channelEnv {
		loc := os.Getenv(c.key)
		if loc == "" {
			continue
		}
		cfg.setSource(ingest.Source{Name: c.channel, Channel: c.channel, Location: loc})
	}
}

// setSource replaces the configured source for src.Channel or appends it.
func (c *Config) setSource(src ingest.Source) {
	for i := range c.Sources {
		if strings.EqualFold(c.Sources[i].Channel, src.Channel) {
			c.Sources[i] = src
			return
		}
	}
	c.Sources = append(c.Sources, src)
}

// Level maps LogLevel onto slog.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SourceSet resolves configured locations against DataDir.
func (c Config) SourceSet() ingest.SourceSet {
	set := ingest.SourceSet{}
	for _, s := range c.Sources {
		s.Location = c.resolve(s.Location)
		if s.Name == "" {
			s.Name = s.Channel
		}
		set.Marketing = append(set.Marketing, s)
	}
	if c.Business != "" {
		set.Business = ingest.Source{Name: "business", Location: c.resolve(c.Business)}
	}
	return set
}

func (c Config) resolve(loc string) string {
	if c.DataDir == "" || loc == "" || filepath.IsAbs(loc) || strings.Contains(loc, "://") {
		return loc
	}
	return filepath.Join(c.DataDir, loc)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
