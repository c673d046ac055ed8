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
	Port     string
	AppEnv   string
	LogLevel string
	// Mail provider
	MailProvider    string // "smtp" or "resend"
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromEmail   string
	SMTPSSL         bool
	ResendAPIKey    string
	ContactEmailTo  string // Operator inbox receiving inquiries
	MailSendTimeout time.Duration
	// CORS
	CORSAllowedOrigins         []string
	FunctionCORSAllowedOrigins []string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Postgres (dedup store only)
	DBUrl string
	// Dedup store: memory, redis, postgres or none
	DedupBackend       string
	DedupTTL           time.Duration
	DedupPurgeInterval time.Duration
	// Rate limiting for the contact endpoint
	RateLimitWindowSeconds  int
	RateLimitContactRequest int
	// Kafka event publishing
	KafkaBrokers      []string
	KafkaInquiryTopic string
	// Tracing
	OTelEnabled      bool
	OTelEndpoint     string
	OTelSampleRatio  float64
	OTelServiceName  string
	SecurityAuditLog bool
}

var defaultOrigins = []string{
	"https://medhive.health",
	"https://www.medhive.health",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
}

func LoadConfig() (*Config, error) {
	// .env is optional; deployed environments inject variables directly
	_ = godotenv.Load()

	smtpUser := getEnv("SMTP_USERNAME", getEnv("EMAIL_USER", ""))

	cfg := &Config{
		Port:     getEnv("PORT", "5000"),
		AppEnv:   getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		// Mail
		MailProvider:    strings.ToLower(getEnv("MAIL_PROVIDER", "smtp")),
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnvInt("SMTP_PORT", 465),
		SMTPUsername:    smtpUser,
		SMTPPassword:    getEnv("SMTP_PASSWORD", getEnv("EMAIL_PASS", "")),
		SMTPFromEmail:   getEnv("SMTP_FROM_EMAIL", smtpUser),
		SMTPSSL:         getEnvBool("SMTP_SSL", true),
		ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
		ContactEmailTo:  getEnv("CONTACT_EMAIL_TO", smtpUser),
		MailSendTimeout: getEnvDuration("MAIL_SEND_TIMEOUT", 15*time.Second),
		// CORS
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", defaultOrigins),
		// Redis/Upstash
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		DBUrl:                getEnv("DATABASE_URL", ""),
		DedupBackend:         strings.ToLower(getEnv("DEDUP_BACKEND", "memory")),
		DedupTTL:             getEnvDuration("DEDUP_TTL", 24*time.Hour),
		DedupPurgeInterval:   getEnvDuration("DEDUP_PURGE_INTERVAL", time.Hour),
		// Rate limiting
		RateLimitWindowSeconds:  getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitContactRequest: getEnvInt("RATE_LIMIT_CONTACT_THRESHOLD", 5),
		// Kafka
		KafkaBrokers:      getEnvList("KAFKA_BROKERS", nil),
		KafkaInquiryTopic: getEnv("KAFKA_TOPIC_INQUIRY", "medhive.inquiries"),
		// Tracing
		OTelEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:  getEnvFloat("OTEL_SAMPLING_RATIO", 1),
		OTelServiceName:  getEnv("OTEL_SERVICE_NAME", "medhive-inquiry"),
		SecurityAuditLog: getEnvBool("SECURITY_AUDIT_LOG", true),
	}
	// Serverless function shares the server allow-list unless told otherwise
	cfg.FunctionCORSAllowedOrigins = getEnvList("FUNCTION_CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)

	if cfg.SMTPUsername == "" && cfg.MailProvider == "smtp" {
		log.Println("WARNING: SMTP_USERNAME is missing. Contact form will be unavailable.")
	}
	if cfg.DedupBackend == "redis" && cfg.UpstashRedisURL == "" {
		log.Println("WARNING: DEDUP_BACKEND=redis but UPSTASH_REDIS_URL is not configured. Falling back to memory.")
	}
	if cfg.DedupBackend == "postgres" && cfg.DBUrl == "" {
		log.Println("WARNING: DEDUP_BACKEND=postgres but DATABASE_URL is not configured. Falling back to memory.")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// RateLimitWindow is the contact rate limit window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("10s") or plain seconds ("10").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimRight(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
