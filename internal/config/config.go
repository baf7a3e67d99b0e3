package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Bot       BotConfig        `json:"bot"`
	Images    ImagesConfig     `json:"images"`
	Providers []ProviderConfig `json:"providers"`
	Caption   CaptionConfig    `json:"caption"`
	Publish   PublishConfig    `json:"publish"`
	Events    EventsConfig     `json:"events"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

// BotConfig tunes the scheduler, persona pool and anti-repetition memory.
type BotConfig struct {
	Enabled             bool    `json:"enabled"`
	IntervalMinutes     int     `json:"interval_minutes"`
	PostsPerRun         int     `json:"posts_per_run"`
	MinPoolSize         int     `json:"min_pool_size"`
	MaxGrowthPerRun     int     `json:"max_growth_per_run"`
	TrackerCapacity     int     `json:"tracker_capacity"`
	MemoryWindow        int     `json:"memory_window"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	ManualBatchCap      int     `json:"manual_batch_cap"`
}

type ImagesConfig struct {
	Endpoint        string `json:"endpoint"`
	AccessKey       string `json:"access_key"`
	RequestsPerHour int    `json:"requests_per_hour"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	MaxWaitSeconds  int    `json:"max_wait_seconds"`
}

type ProviderConfig struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Endpoint string            `json:"endpoint"`
	APIKey   string            `json:"api_key"`
	Models   []string          `json:"models,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type CaptionConfig struct {
	Model          string  `json:"model"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	MaxLength      int     `json:"max_length"`
	Temperature    float64 `json:"temperature"`
	MaxFailures    uint32  `json:"breaker_max_failures"`
	OpenSeconds    int     `json:"breaker_open_seconds"`
}

type PublishConfig struct {
	BackendURL     string `json:"backend_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type EventsConfig struct {
	RedisURL string `json:"redis_url"`
	Stream   string `json:"stream"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file, substitutes environment variable references
// and fills unset values with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw JSON config after env substitution.
func Parse(data []byte) (*Config, error) {
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, err
	}
	cfg.Defaults()
	return &cfg, nil
}

// Defaults fills zero values.
func (c *Config) Defaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	b := &c.Bot
	if b.IntervalMinutes == 0 {
		b.IntervalMinutes = 30
	}
	if b.PostsPerRun == 0 {
		b.PostsPerRun = 3
	}
	if b.MinPoolSize == 0 {
		b.MinPoolSize = 5
	}
	if b.MaxGrowthPerRun == 0 {
		b.MaxGrowthPerRun = 5
	}
	if b.TrackerCapacity == 0 {
		b.TrackerCapacity = 50000
	}
	if b.MemoryWindow == 0 {
		b.MemoryWindow = 10
	}
	if b.SimilarityThreshold == 0 {
		b.SimilarityThreshold = 0.6
	}
	if b.ManualBatchCap == 0 {
		b.ManualBatchCap = 10
	}
	if c.Images.Endpoint == "" {
		c.Images.Endpoint = "https://api.unsplash.com"
	}
	if c.Images.RequestsPerHour == 0 {
		c.Images.RequestsPerHour = 50
	}
	if c.Images.TimeoutSeconds == 0 {
		c.Images.TimeoutSeconds = 15
	}
	if c.Images.MaxWaitSeconds == 0 {
		c.Images.MaxWaitSeconds = 10
	}
	if c.Caption.TimeoutSeconds == 0 {
		c.Caption.TimeoutSeconds = 15
	}
	if c.Caption.MaxLength == 0 {
		c.Caption.MaxLength = 300
	}
	if c.Caption.Temperature == 0 {
		c.Caption.Temperature = 0.7
	}
	if c.Caption.MaxFailures == 0 {
		c.Caption.MaxFailures = 3
	}
	if c.Caption.OpenSeconds == 0 {
		c.Caption.OpenSeconds = 60
	}
	if c.Publish.BackendURL == "" {
		c.Publish.BackendURL = "http://localhost:5000"
	}
	if c.Publish.TimeoutSeconds == 0 {
		c.Publish.TimeoutSeconds = 30
	}
	if c.Events.Stream == "" {
		c.Events.Stream = "autoposter:posts"
	}
}

// Seconds converts a config value in seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
