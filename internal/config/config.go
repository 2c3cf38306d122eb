package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Gateway settings for the WhatsApp-compatible gateway.
	GatewayBaseURL   string
	GatewayAuthToken string

	// MatchingData is the key/value subset an inbound form event must carry
	// for the form dialect to claim the request.
	MatchingData map[string]string

	// CallbackTimeout bounds the outbound delivery POST.
	CallbackTimeout time.Duration

	// EngineURL is the conversational engine endpoint. Empty disables
	// forwarding; the adapter then answers with an empty envelope.
	EngineURL     string
	EngineTimeout time.Duration

	// DatabaseURL enables the Postgres audit log when set.
	DatabaseURL string

	// Per-IP rate limiting on the public webhook endpoints.
	RateLimitRPS   int
	RateLimitBurst int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GatewayBaseURL:     getEnv("GATEWAY_BASE_URL", ""),
		GatewayAuthToken:   getEnv("GATEWAY_AUTH_TOKEN", ""),
		MatchingData:       getEnvAsStringMap("MATCHING_DATA_JSON", map[string]string{"driver": "Whatsapp"}),
		CallbackTimeout:    getEnvAsDuration("CALLBACK_TIMEOUT", 30*time.Second),
		EngineURL:          getEnv("ENGINE_URL", ""),
		EngineTimeout:      getEnvAsDuration("ENGINE_TIMEOUT", 15*time.Second),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RateLimitRPS:       getEnvAsInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsStringMap decodes a JSON object env var into a string map.
func getEnvAsStringMap(key string, defaultValue map[string]string) map[string]string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value map[string]string
	if err := json.Unmarshal([]byte(valueStr), &value); err != nil {
		return defaultValue
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
