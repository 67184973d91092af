package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	AppEnv   string
	LogLevel string

	BackendURL     string
	BackendTimeout time.Duration

	RedisHost     string
	RedisPassword string

	SessionSecret string
	JWTSecret     string
	LoginPath     string
	CORSOrigins   []string

	OrderRedirectPath  string
	OrderRedirectDelay time.Duration
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment")
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Port:     getEnvInt("PORT", 8081),
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LoginPath:     getEnv("LOGIN_PATH", "/login"),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		OrderRedirectPath:  getEnv("ORDER_REDIRECT_PATH", "/order-confirmation"),
		OrderRedirectDelay: getEnvDuration("ORDER_REDIRECT_DELAY", 2*time.Second),
	}
}

func (c Config) Production() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
