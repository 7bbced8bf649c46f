package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Secrets only come from the
// environment (or .env) and are never written back by Save.
type Config struct {
	ManifestDir  string `yaml:"manifest_dir"`
	Verbose      bool   `yaml:"verbose"`
	BuildVersion string `yaml:"-"`

	Server  ServerConfig  `yaml:"server"`
	Render  RenderConfig  `yaml:"render"`
	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Scraper ScraperConfig `yaml:"scraper"`
	Redis   RedisConfig   `yaml:"redis"`
	S3      S3Config      `yaml:"s3"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	LogJSON bool   `yaml:"log_json"`
}

type RenderConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	Workers      int    `yaml:"workers"` // 0 = pick from CPU and memory
	DPI          int    `yaml:"dpi"`     // PDF datasheets used as clip media
	OutputDir    string `yaml:"output_dir"`
	ShowStats    bool   `yaml:"show_stats"`
	BenchmarkLog string `yaml:"benchmark_log"`
}

type LLMConfig struct {
	Provider     string        `yaml:"provider"` // cohere or gemini
	Models       []string      `yaml:"models"`
	Timeout      time.Duration `yaml:"timeout"`
	CohereAPIKey string        `yaml:"-"`
	GeminiAPIKey string        `yaml:"-"`
}

type TTSConfig struct {
	Voice    string        `yaml:"voice"`
	BaseURL  string        `yaml:"base_url"`
	AudioDir string        `yaml:"audio_dir"`
	Timeout  time.Duration `yaml:"timeout"`
	APIKey   string        `yaml:"-"`
}

type ScraperConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// LLM providers
const (
	ProviderCohere = "cohere"
	ProviderGemini = "gemini"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ManifestDir: "manifests",
		Server:      ServerConfig{Addr: ":8080"},
		Render: RenderConfig{
			Width:     1080,
			Height:    1920,
			FPS:       30,
			DPI:       150,
			OutputDir: "frames",
		},
		LLM: LLMConfig{
			Provider: ProviderCohere,
			Timeout:  45 * time.Second,
		},
		TTS: TTSConfig{
			Voice:    "aura-asteria-en",
			BaseURL:  "https://api.deepgram.com/v1/speak",
			AudioDir: "audio",
			Timeout:  30 * time.Second,
		},
		Scraper: ScraperConfig{
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; promoreel/1.0)",
		},
	}
}

// Load reads path (or the first config file found), then .env, then
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the non-secret configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func findConfigFile() string {
	candidates := []string{
		"./promoreel.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".promoreel", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("COHERE_API_KEY", &c.LLM.CohereAPIKey)
	str("GEMINI_API_KEY", &c.LLM.GeminiAPIKey)
	str("LLM_PROVIDER", &c.LLM.Provider)
	str("DEEPGRAM_API_KEY", &c.TTS.APIKey)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("S3_BUCKET", &c.S3.Bucket)
	str("S3_REGION", &c.S3.Region)
	str("S3_PROFILE", &c.S3.Profile)
	str("S3_PREFIX", &c.S3.Prefix)
	if v := getenv("S3_USE_PATH_STYLE"); v != "" {
		c.S3.UsePathStyle = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("PROMOREEL_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROMOREEL_WORKERS: %w", err)
		}
		c.Render.Workers = n
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a render.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height))
	}
	if c.Render.FPS <= 0 {
		errs = append(errs, fmt.Errorf("render fps %d must be positive", c.Render.FPS))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("render workers %d must not be negative", c.Render.Workers))
	}
	switch c.LLM.Provider {
	case ProviderCohere, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	return errors.Join(errs...)
}

// LLMKey returns the API key for the configured provider.
func (c *Config) LLMKey() string {
	if c.LLM.Provider == ProviderGemini {
		return c.LLM.GeminiAPIKey
	}
	return c.LLM.CohereAPIKey
}
