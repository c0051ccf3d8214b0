// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	CORSOrigins        []string

	// LLM settings
	LLMProvider     string
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMModel        string
	LLMBaseURL      string
	LLMTimeout      time.Duration

	// Agent settings
	AgentRouter        string
	AgentMaxIterations int
	CompanyName        string
	CompanySignature   string

	// Email delivery
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	EmailFromName     string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	SMTPImplicitTLS   bool
	DeliveryTimeout   time.Duration

	// History
	HistoryBackend string
	SQLitePath     string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	AuthEnabled bool
	JWTSecret   string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. A .env file named by
// ENV_FILE (default ".env") is loaded first when present; variables already
// set in the environment win.
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),
		CORSOrigins:        getListEnv("CORS_ORIGINS"),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "groq"),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 60*time.Second),

		// Agent
		AgentRouter:        getEnv("AGENT_ROUTER", "rules"),
		AgentMaxIterations: getIntEnv("AGENT_MAX_ITERATIONS", 6),
		CompanyName:        getEnv("COMPANY_NAME", "TechFlow Solutions"),
		CompanySignature:   getEnv("COMPANY_SIGNATURE", "TechFlow"),

		// Email
		EmailProvider:     getEnv("EMAIL_PROVIDER", "sendgrid"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "TechFlow Solutions"),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPImplicitTLS:   getBoolEnv("SMTP_IMPLICIT_TLS", false),
		DeliveryTimeout:   getDurationEnv("DELIVERY_TIMEOUT", 15*time.Second),

		// History
		HistoryBackend: getEnv("HISTORY_BACKEND", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/announcements.db"),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		AuthEnabled: getBoolEnv("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// LLMAPIKey returns the key for the selected LLM provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "groq":
		return c.GroqAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	}
	return ""
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.LLMProvider, "groq", "openai", "anthropic") {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be groq, openai or anthropic, got %q", c.LLMProvider))
	} else if c.LLMAPIKey() == "" {
		errs = append(errs, fmt.Errorf("%s_API_KEY is required for LLM_PROVIDER=%s", strings.ToUpper(c.LLMProvider), c.LLMProvider))
	}

	if !oneOf(c.AgentRouter, "rules", "llm") {
		errs = append(errs, fmt.Errorf("AGENT_ROUTER must be rules or llm, got %q", c.AgentRouter))
	}
	if c.AgentRouter == "llm" && c.LLMProvider == "anthropic" {
		errs = append(errs, errors.New("AGENT_ROUTER=llm needs a tool-calling provider (groq or openai)"))
	}
	if c.AgentMaxIterations < 2 {
		errs = append(errs, errors.New("AGENT_MAX_ITERATIONS must be at least 2"))
	}

	switch c.EmailProvider {
	case "sendgrid":
		if c.SendGridAPIKey == "" || c.SendGridFromEmail == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY and SENDGRID_FROM_EMAIL are required for EMAIL_PROVIDER=sendgrid"))
		}
	case "smtp":
		if c.SMTPHost == "" || c.SenderEmail() == "" {
			errs = append(errs, errors.New("SMTP_HOST and a sender address are required for EMAIL_PROVIDER=smtp"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER must be sendgrid, smtp or log, got %q", c.EmailProvider))
	}

	if !oneOf(c.HistoryBackend, "sqlite", "nats") {
		errs = append(errs, fmt.Errorf("HISTORY_BACKEND must be sqlite or nats, got %q", c.HistoryBackend))
	}

	if c.AuthEnabled && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when AUTH_ENABLED is set"))
	}

	return errors.Join(errs...)
}

// SenderEmail is the From address for outgoing mail.
func (c *Config) SenderEmail() string {
	if c.SendGridFromEmail != "" {
		return c.SendGridFromEmail
	}
	return c.SMTPUsername
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
