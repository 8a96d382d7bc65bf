package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Extractor ExtractorConfig
	Cache     CacheConfig
	Stream    StreamConfig
	Discovery DiscoveryConfig
}

type ServerConfig struct {
	Port              int           `envconfig:"PORT" default:"3000"`
	ReadHeaderTimeout time.Duration `envconfig:"API_READ_HEADER_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"0s"`
	ShutdownTimeout   time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
}

// SlogLevel maps LogLevel to a slog level.
func (c ServerConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

type ExtractorConfig struct {
	BinaryPath    string        `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	CookiesFile   string        `envconfig:"YTDLP_COOKIES_FILE"`
	Timeout       time.Duration `envconfig:"YTDLP_TIMEOUT" default:"45s"`
	PlayerClients []string      `envconfig:"YTDLP_PLAYER_CLIENTS" default:"android,ios,web,tv_embedded"`
	RateLimit     float64       `envconfig:"YTDLP_RATE_LIMIT" default:"2"`
	RateBurst     int           `envconfig:"YTDLP_RATE_BURST" default:"4"`
	MaxConcurrent int           `envconfig:"YTDLP_MAX_CONCURRENT" default:"4"`
}

type CacheConfig struct {
	TrackTTL      time.Duration `envconfig:"CACHE_TRACK_TTL" default:"30m"`
	SearchTTL     time.Duration `envconfig:"CACHE_SEARCH_TTL" default:"5m"`
	SweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"60s"`
	FailedCap     int           `envconfig:"CACHE_FAILED_CAP" default:"100"`
}

type StreamConfig struct {
	Timeout         time.Duration `envconfig:"STREAM_TIMEOUT" default:"20s"`
	MaxRedirects    int           `envconfig:"STREAM_MAX_REDIRECTS" default:"5"`
	MaxRetries      int           `envconfig:"STREAM_MAX_RETRIES" default:"2"`
	MaxConnsPerHost int           `envconfig:"STREAM_MAX_CONNS_PER_HOST" default:"50"`
	MaxIdleConns    int           `envconfig:"STREAM_MAX_IDLE_CONNS" default:"10"`
	IdleConnTimeout time.Duration `envconfig:"STREAM_IDLE_CONN_TIMEOUT" default:"60s"`
}

type DiscoveryConfig struct {
	TrendingTopics       []string `envconfig:"TRENDING_TOPICS" default:"top songs 2024,bollywood hits,english pop hits,anime openings"`
	RelatedFallbackTopic string   `envconfig:"RELATED_FALLBACK_TOPIC" default:"popular music"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Server.SlogLevel(); err != nil {
		return err
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must be positive, got %s", c.Cache.SweepInterval)
	}
	if c.Stream.MaxRedirects < 0 {
		return fmt.Errorf("STREAM_MAX_REDIRECTS must not be negative, got %d", c.Stream.MaxRedirects)
	}
	if len(c.Extractor.PlayerClients) == 0 {
		return fmt.Errorf("YTDLP_PLAYER_CLIENTS must list at least one client")
	}
	return nil
}
