package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. It is built once at startup and
// injected into components at construction time; nothing reads the
// environment after Load returns.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	DatabaseURL string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	SQSQueueURL string

	AdminAPIKey string

	// External document repository (SharePoint).
	SPSiteURL        string
	SPLibraryRoot    string
	SPTokenEndpoint  string
	SPClientID       string
	SPScope          string
	SPCertificatePEM string
	SPPrivateKeyPEM  string
	SPThumbprint     string
	SPClientSecret   string

	NotifyWebhookURL string

	MigrationMaxAttempts int
	WorkerPollInterval   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		SQSQueueURL: getEnv("MIGRATION_SQS_QUEUE_URL", ""),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		SPSiteURL:        getEnv("SP_SITE_URL", ""),
		SPLibraryRoot:    getEnv("SP_LIBRARY_ROOT", "Shared Documents/Partners"),
		SPTokenEndpoint:  getEnv("SP_TOKEN_ENDPOINT", ""),
		SPClientID:       getEnv("SP_CLIENT_ID", ""),
		SPScope:          getEnv("SP_SCOPE", ""),
		SPCertificatePEM: getEnv("SP_CERTIFICATE_PEM", ""),
		SPPrivateKeyPEM:  getEnv("SP_PRIVATE_KEY_PEM", ""),
		SPThumbprint:     getEnv("SP_CERT_THUMBPRINT", ""),
		SPClientSecret:   getEnv("SP_CLIENT_SECRET", ""),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),

		MigrationMaxAttempts: getEnvInt("MIGRATION_MAX_ATTEMPTS", 5),
		WorkerPollInterval:   getEnvDuration("WORKER_POLL_INTERVAL", 15*time.Second),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
