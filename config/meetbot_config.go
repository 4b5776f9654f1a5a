package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// PublicBaseURL is the externally reachable base of this server, used to
	// build OAuth connect links sent over WhatsApp.
	PublicBaseURL string

	// Stores
	DatabaseURL string
	RedisURL    string
	MongoDBURL  string
	MongoDBName string

	// Twilio (WhatsApp transport)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioWhatsFrom  string

	// Zoom (server-to-server OAuth)
	ZoomClientID     string
	ZoomClientSecret string
	ZoomAccountID    string

	// Google (service account for Meet)
	GoogleCredentialsFile string
	GoogleCalendarID      string

	// Microsoft (delegated OAuth for Teams)
	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftRedirectURL  string
	MicrosoftTenantID     string

	// Admin API
	JWTSecret string

	// OpenAI (optional time-parse fallback)
	OpenAIAPIKey string
	LLMModel     string

	// Sessions
	SessionTTL time.Duration

	// Reminder scheduler
	SchedulerEnabled  bool
	SchedulerHour     int
	SchedulerTimezone string
}

func Load() (*Config, error) {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "meetbot"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsFrom:  getEnv("TWILIO_WHATSAPP_FROM", ""),

		ZoomClientID:     getEnv("ZOOM_CLIENT_ID", ""),
		ZoomClientSecret: getEnv("ZOOM_CLIENT_SECRET", ""),
		ZoomAccountID:    getEnv("ZOOM_ACCOUNT_ID", ""),

		GoogleCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "service_account.json"),
		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),

		MicrosoftClientID:     getEnv("MS_CLIENT_ID", ""),
		MicrosoftClientSecret: getEnv("MS_CLIENT_SECRET", ""),
		MicrosoftRedirectURL:  getEnv("MS_REDIRECT_URI", ""),
		MicrosoftTenantID:     getEnv("MS_TENANT_ID", "common"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),

		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_HOUR", 24)) * time.Hour,

		SchedulerEnabled:  getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerHour:     getEnvInt("SCHEDULER_HOUR", 9),
		SchedulerTimezone: getEnv("SCHEDULER_TIMEZONE", "Asia/Kolkata"),
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultValue
}
