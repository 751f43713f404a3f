// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hitoshi/loginserver/internal/auth"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string        `env:"DATABASE_URL,required,notEmpty"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`

	// Firebase
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID,required,notEmpty"`
	// 空の場合はauth.DefaultFirebaseJWKSURL
	FirebaseJWKSURL string `env:"FIREBASE_JWKS_URL"`

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitLogin int `env:"RATE_LIMIT_LOGIN" envDefault:"30"`

	// Request
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"102400"`

	// Server
	ServerPort      string        `env:"PORT" envDefault:"5001"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Proxy（信頼できるリバースプロキシの背後でのみtrueにする）
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Logging（debug|info|warn|error）
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定または空の場合、数値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.FirebaseJWKSURL == "" {
		cfg.FirebaseJWKSURL = auth.DefaultFirebaseJWKSURL
	}

	for i, o := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimitLogin <= 0 {
		return fmt.Errorf("RATE_LIMIT_LOGIN must be positive, got %d", c.RateLimitLogin)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", c.DBConnectTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
