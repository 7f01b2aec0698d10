package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port         int
	DBDSN        string
	RedisURL     string
	JWTSecret    string
	JWTAccessTTL time.Duration
	AllowOrigins []string
	LogLevel     zerolog.Level

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig

	LiveChannelPrefix string
	LiveWebhookURL    string
	StatsCacheTTL     time.Duration
	AutoMigrate       bool
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load lê .env (se existir) e o ambiente. O primeiro valor inválido interrompe a carga
// com erro que nomeia a variável.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

// LoadDatabase carrega só o necessário para tarefas de banco (CLI de migração e seed).
func LoadDatabase() (string, error) {
	_ = godotenv.Load()
	dsn := strings.TrimSpace(getEnv("DB_DSN", ""))
	if dsn == "" {
		return "", errors.New("DB_DSN obrigatório")
	}
	return dsn, nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Port, err = parseIntEnv("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.New("PORT inválida")
	}

	cfg.DBDSN = strings.TrimSpace(getEnv("DB_DSN", ""))
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", 12*time.Hour); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))))
	if err != nil {
		return nil, errors.New("LOG_LEVEL inválido")
	}

	if cfg.RateLimitPublic, err = parseRateLimit("RATE_LIMIT_PUBLIC", RateLimitConfig{RequestsPerSecond: 5, Burst: 10}); err != nil {
		return nil, err
	}
	if cfg.RateLimitAuth, err = parseRateLimit("RATE_LIMIT_AUTH", RateLimitConfig{RequestsPerSecond: 10, Burst: 40}); err != nil {
		return nil, err
	}

	cfg.LiveChannelPrefix = strings.TrimSpace(getEnv("LIVE_CHANNEL_PREFIX", "votacao"))
	if cfg.LiveChannelPrefix == "" {
		cfg.LiveChannelPrefix = "votacao"
	}
	cfg.LiveWebhookURL = strings.TrimSpace(getEnv("LIVE_WEBHOOK_URL", ""))

	if cfg.StatsCacheTTL, err = parseDurationEnv("STATS_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	if cfg.AutoMigrate, err = parseBoolEnv("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseIntEnv(key string, def int) (int, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.New(key + " inválido")
	}
	return b, nil
}

func parseRateLimit(prefix string, def RateLimitConfig) (RateLimitConfig, error) {
	out := def
	if val := strings.TrimSpace(getEnv(prefix+"_RPS", "")); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil || rps <= 0 {
			return RateLimitConfig{}, fmt.Errorf("%s_RPS inválido", prefix)
		}
		out.RequestsPerSecond = rps
	}
	burst, err := parseIntEnv(prefix+"_BURST", def.Burst)
	if err != nil {
		return RateLimitConfig{}, err
	}
	if burst <= 0 {
		return RateLimitConfig{}, fmt.Errorf("%s_BURST inválido", prefix)
	}
	out.Burst = burst
	return out, nil
}
