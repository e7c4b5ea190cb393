package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Upload  UploadConfig
	Session SessionConfig
	Proxy   ProxyConfig
	Quack   QuackConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	Version            string
}

type UploadConfig struct {
	MaxUploadMB int
}

func (u UploadConfig) MaxUploadBytes() int {
	return u.MaxUploadMB * 1024 * 1024
}

type SessionConfig struct {
	HistorySize   int
	DirtyDebounce time.Duration
	TTL           time.Duration
}

type ProxyConfig struct {
	UrlAllowlist    []string
	AllowLocalhost  bool
	Timeout         time.Duration
	RateLimitPerMin int
	LogRedact       bool
}

type QuackConfig struct {
	BaseUrl           string
	CharacterInfoPath string
	LorebookPath      string
	Timeout           time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "cardforge.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			Version:            getEnv("APP_VERSION", "1.0.0"),
		},
		Upload: UploadConfig{
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 20),
		},
		Session: SessionConfig{
			HistorySize:   getEnvAsInt("SESSION_HISTORY_SIZE", 10),
			DirtyDebounce: getEnvAsDuration("SESSION_DIRTY_DEBOUNCE", 500*time.Millisecond),
			TTL:           getEnvAsDuration("SESSION_TTL", time.Hour),
		},
		Proxy: ProxyConfig{
			UrlAllowlist:    getEnvAsList("PROXY_URL_ALLOWLIST", "api.openai.com,*.openai.com,api.anthropic.com,openrouter.ai,generativelanguage.googleapis.com"),
			AllowLocalhost:  getEnvAsBool("PROXY_ALLOW_LOCALHOST", false),
			Timeout:         getEnvAsDuration("PROXY_TIMEOUT", 60*time.Second),
			RateLimitPerMin: getEnvAsInt("PROXY_RATE_LIMIT_PER_MIN", 60),
			LogRedact:       getEnvAsBool("PROXY_LOG_REDACT", true),
		},
		Quack: QuackConfig{
			BaseUrl:           getEnv("QUACK_BASE_URL", "https://api.quackai.ai"),
			CharacterInfoPath: getEnv("QUACK_CHARACTER_INFO_PATH", "/api/v1/character/info"),
			LorebookPath:      getEnv("QUACK_LOREBOOK_PATH", "/api/v1/character/worldbook"),
			Timeout:           getEnvAsDuration("QUACK_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
