package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	// Firestore
	FirestoreProjectID    string
	FirestoreClientEmail  string
	FirestorePrivateKey   string
	FirestoreEmulatorHost string

	// Cloud Storage
	StorageBucket string

	// Notification sinks
	SlackWebhookURL string
	WebhookURL      string
	WebhookSecret   string

	// Session
	SessionSecret string
	SessionExpiry time.Duration

	// Server
	Port        string
	CORSOrigins string

	// Outbound calls
	NotifyTimeout time.Duration
}

func Load() *Config {
	return &Config{
		FirestoreProjectID:    getEnv("FIREBASE_PROJECT_ID", ""),
		FirestoreClientEmail:  getEnv("FIREBASE_CLIENT_EMAIL", ""),
		FirestorePrivateKey:   getEnv("FIREBASE_PRIVATE_KEY", ""),
		FirestoreEmulatorHost: getEnv("FIRESTORE_EMULATOR_HOST", ""),

		StorageBucket: getEnv("FIREBASE_STORAGE_BUCKET", ""),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		WebhookURL:      getEnv("WEBHOOK_URL", ""),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionExpiry: parseDuration(getEnv("SESSION_EXPIRY", "168h")),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		NotifyTimeout: parseDuration(getEnv("NOTIFY_TIMEOUT", "5s")),
	}
}

// IsFirestoreConfigured reports whether the full credential triple is present.
// Resolved once at startup; the chosen backend is fixed for the process lifetime.
func (c *Config) IsFirestoreConfigured() bool {
	return c.FirestoreProjectID != "" && c.FirestoreClientEmail != "" && c.FirestorePrivateKey != ""
}

// NormalizedPrivateKey converts the escaped "\n" sequences that env files and
// deployment dashboards produce into real newlines.
func (c *Config) NormalizedPrivateKey() string {
	return strings.ReplaceAll(c.FirestorePrivateKey, `\n`, "\n")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
