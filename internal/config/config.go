// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile は起動時に読み込む.envファイルのパス。
const DefaultEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitWrite   int
	RateLimitPublic  int

	// Pagination
	PageSize    int
	MaxPageSize int

	// Catalog
	CatalogCacheSize int
	ImportTimeout    time.Duration
	ImportMaxSize    int64

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は.envファイルと環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadWithEnvFile(DefaultEnvFile)
}

// LoadWithEnvFile は指定した.envファイルを読み込んだ上でConfigを構築する。
// ファイルが存在しない場合は環境変数のみを使う。既に設定済みの環境変数は上書きしない。
func LoadWithEnvFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 30)
	cfg.RateLimitPublic = getEnvInt("RATE_LIMIT_PUBLIC", 300)
	cfg.PageSize = getEnvInt("PAGE_SIZE", 6)
	cfg.MaxPageSize = getEnvInt("MAX_PAGE_SIZE", 100)
	cfg.CatalogCacheSize = getEnvInt("CATALOG_CACHE_SIZE", 1024)
	cfg.ImportTimeout = getEnvDuration("IMPORT_TIMEOUT", 30*time.Second)
	cfg.ImportMaxSize = getEnvInt64("IMPORT_MAX_SIZE", 10<<20)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt は正の整数を読み込む。不正値や0以下はデフォルト値になる。
func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
