package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	CORSOrigins string

	// DevMode widens the trust gate (localhost sources, bypass honored over
	// HTTP). Only DEV_MODE=true enables it; everything else is production.
	DevMode bool

	// DatabaseURL and RedisAddr are optional. Without a database the guide
	// and journey routes answer 503; without Redis the fetch cache is
	// in-process.
	DatabaseURL string
	RedisAddr   string

	// TablePrefix namespaces tables so several deployments can share one
	// database.
	TablePrefix string

	// JWKSURL enables bearer auth on mutating routes when set.
	JWKSURL string

	// TrustPolicyFile overrides fields of the embedded trust policy.
	TrustPolicyFile string

	// Log file settings. Empty LogDir means stdout only.
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		DevMode:         getEnv("DEV_MODE", "false") == "true",
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		TablePrefix:     getEnv("TABLE_PREFIX", ""),
		JWKSURL:         getEnv("JWKS_URL", ""),
		TrustPolicyFile: getEnv("TRUST_POLICY_FILE", ""),
		LogDir:          getEnv("LOG_DIR", ""),
		LogMaxFiles:     getEnvInt("LOG_MAX_FILES", DefaultLogRetention),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
