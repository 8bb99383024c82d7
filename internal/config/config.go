package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"

	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Completion CompletionConfig
	Chat       ChatConfig
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

type StoreConfig struct {
	Driver        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

type CompletionConfig struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
	ArkAPIKey     string
	ArkModel      string
	ArkBaseURL    string
	ArkRegion     string
}

type ChatConfig struct {
	HistoryWindow int
	IdleTTL       time.Duration
}

// Load reads configuration from the environment. Call godotenv.Load first to pick up .env.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	completion, err := loadCompletionConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Store: store, Completion: completion, Chat: chat}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", "8080")
	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	addr := port
	if !strings.Contains(port, ":") {
		addr = ":" + port
	}

	return ServerConfig{
		Addr:           addr,
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}, nil
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres))

	cfg := StoreConfig{
		Driver:        driver,
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	db, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return StoreConfig{}, err
	}
	cfg.RedisDB = db

	if cfg.RedisTTL, err = parseDurationEnv("REDIS_TRANSCRIPT_TTL", 0); err != nil {
		return StoreConfig{}, err
	}

	switch driver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return StoreConfig{}, fmt.Errorf("DATABASE_URL is not set")
		}
	case StoreDriverRedis, StoreDriverMemory:
	default:
		return StoreConfig{}, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}

	return cfg, nil
}

func loadCompletionConfig() (CompletionConfig, error) {
	timeout, err := parseDurationEnv("COMPLETION_TIMEOUT", 60*time.Second)
	if err != nil {
		return CompletionConfig{}, err
	}

	cfg := CompletionConfig{
		Provider:      strings.ToLower(getEnvOrDefault("COMPLETION_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("COMPLETION_BASE_URL")),
		Timeout:       timeout,
		ArkAPIKey:     strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkModel:      strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:    getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:     getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return CompletionConfig{}, fmt.Errorf("OPENAI_API_KEY not set")
		}
	case ProviderArk:
		if cfg.ArkAPIKey == "" || cfg.ArkModel == "" {
			return CompletionConfig{}, fmt.Errorf("ARK_API_KEY and ARK_MODEL must be set")
		}
	default:
		return CompletionConfig{}, fmt.Errorf("unknown COMPLETION_PROVIDER %q", cfg.Provider)
	}

	return cfg, nil
}

func loadChatConfig() (ChatConfig, error) {
	window, err := parseIntEnv("HISTORY_WINDOW", 0)
	if err != nil {
		return ChatConfig{}, err
	}
	if window < 0 {
		return ChatConfig{}, fmt.Errorf("invalid HISTORY_WINDOW value %d: must be >= 0", window)
	}

	idleTTL, err := parseDurationEnv("CONVERSATION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{HistoryWindow: window, IdleTTL: idleTTL}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
