// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string `env:"OCMS_DATABASE_URL,required"`
	DBMaxConns  int32  `env:"OCMS_DB_MAX_CONNS" envDefault:"10"`
	ServerHost  string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env         string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel    string `env:"OCMS_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"OCMS_LOG_FORMAT" envDefault:"text"`
	UploadsDir  string `env:"OCMS_UPLOADS_DIR" envDefault:"./uploads"`
	PublicURL   string `env:"OCMS_PUBLIC_URL"` // Prefix for media URLs, empty for relative URLs

	// HTTP API
	CORSOrigins  []string `env:"OCMS_CORS_ORIGINS" envDefault:"*" envSeparator:","`
	APIRateLimit int      `env:"OCMS_API_RATE_LIMIT" envDefault:"60"` // Requests per minute per client

	// Cache configuration (translations)
	RedisURL    string        `env:"OCMS_REDIS_URL"`                       // Optional Redis URL for distributed caching
	CachePrefix string        `env:"OCMS_CACHE_PREFIX" envDefault:"ocms:"` // Redis key prefix
	CacheTTL    time.Duration `env:"OCMS_CACHE_TTL" envDefault:"720h"`

	// Content generator
	WriterAPIKey string `env:"OCMS_WRITER_API_KEY"`
	WriterAPIURL string `env:"OCMS_WRITER_API_URL" envDefault:"https://openrouter.ai/api/v1"`
	WriterModel  string `env:"OCMS_WRITER_MODEL" envDefault:"gpt-4"`

	// Translation service
	TranslatorAPIKey string `env:"OCMS_TRANSLATOR_API_KEY"`
	TranslatorAPIURL string `env:"OCMS_TRANSLATOR_API_URL" envDefault:"https://openrouter.ai/api/v1"`
	TranslatorModel  string `env:"OCMS_TRANSLATOR_MODEL" envDefault:"gpt-3.5-turbo"`

	// Image generator
	ImageAPIKey    string `env:"OCMS_IMAGE_API_KEY"`
	ImageAPIURL    string `env:"OCMS_IMAGE_API_URL" envDefault:"https://router.huggingface.co/together/v1"`
	ImageModel     string `env:"OCMS_IMAGE_MODEL" envDefault:"black-forest-labs/FLUX.1-schnell"`
	ImageWidth     int    `env:"OCMS_IMAGE_WIDTH" envDefault:"1280"`
	ImageHeight    int    `env:"OCMS_IMAGE_HEIGHT" envDefault:"720"`
	ThumbnailWidth int    `env:"OCMS_THUMBNAIL_WIDTH" envDefault:"400"`

	// Embedding generator
	EmbeddingAPIKey     string `env:"OCMS_EMBEDDING_API_KEY"`
	EmbeddingAPIURL     string `env:"OCMS_EMBEDDING_API_URL" envDefault:"http://localhost:11434/v1"`
	EmbeddingModel      string `env:"OCMS_EMBEDDING_MODEL" envDefault:"all-minilm"`
	EmbeddingDimensions int    `env:"OCMS_EMBEDDING_DIMENSIONS" envDefault:"384"`
	EmbedSkipUnchanged  bool   `env:"OCMS_EMBED_SKIP_UNCHANGED" envDefault:"false"`

	// Shared limiter for every upstream AI call
	AIRateLimit     float64       `env:"OCMS_AI_RATE_LIMIT" envDefault:"5"` // Calls per second
	AIBurst         int           `env:"OCMS_AI_BURST" envDefault:"5"`
	AIMaxConcurrent int64         `env:"OCMS_AI_MAX_CONCURRENT" envDefault:"8"`
	AITimeout       time.Duration `env:"OCMS_AI_TIMEOUT" envDefault:"120s"`

	// Scheduled embedding backfill, empty disables it
	BackfillSchedule string `env:"OCMS_BACKFILL_SCHEDULE" envDefault:"@every 15m"`

	// Seeding configuration
	DoSeed bool `env:"OCMS_DO_SEED" envDefault:"false"` // Seed default categories
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.DBMaxConns < 1 {
		errs = append(errs, errors.New("OCMS_DB_MAX_CONNS must be at least 1"))
	}
	if c.EmbeddingDimensions < 1 {
		errs = append(errs, errors.New("OCMS_EMBEDDING_DIMENSIONS must be positive"))
	}
	if c.ImageWidth < 1 || c.ImageHeight < 1 {
		errs = append(errs, errors.New("OCMS_IMAGE_WIDTH and OCMS_IMAGE_HEIGHT must be positive"))
	}
	if c.ThumbnailWidth < 1 || c.ThumbnailWidth >= c.ImageWidth {
		errs = append(errs, fmt.Errorf("OCMS_THUMBNAIL_WIDTH must be between 1 and %d", c.ImageWidth-1))
	}
	if c.AIRateLimit <= 0 || c.AIBurst < 1 || c.AIMaxConcurrent < 1 {
		errs = append(errs, errors.New("OCMS_AI_RATE_LIMIT, OCMS_AI_BURST and OCMS_AI_MAX_CONCURRENT must be positive"))
	}
	if c.APIRateLimit < 1 {
		errs = append(errs, errors.New("OCMS_API_RATE_LIMIT must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
