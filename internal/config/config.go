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

// DefaultTimezone is the calendar owner's local zone.
const DefaultTimezone = "America/Sao_Paulo"

// DefaultPriceListURL points at the published services/price PDF.
const DefaultPriceListURL = "https://www.dropbox.com/scl/fi/5ppj1wvzj6lo49lz3kjw4/services_pricelist_1.pdf?rlkey=a8756on4fqhqpnfmbhfo07mhj&st=263kad9k&dl=1"

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	LogFile       string
	Timezone      string

	// Calendar
	CalendarProvider      string
	CalendarID            string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	OpenHour              int
	CloseHour             int
	SlotMinutes           int

	// Twilio WhatsApp
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioWebhookSecret string
	TwilioChannel       string

	// Conversation copy and routing
	ForwardRecipient string
	ForwardEmail     string
	PriceListURL     string
	OwnerName        string
	AssistantName    string
	GreetingEnabled  bool
	GreetingTTL      time.Duration
	GreetingDelay    time.Duration

	// Natural-language extraction
	ExtractorProvider string
	GeminiAPIKey      string
	GeminiModelID     string
	BedrockModelID    string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Operator e-mail copies
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// ConfigurationError reports missing or invalid startup configuration.
// It is fatal: the process must not start serving.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// LoadDotEnv loads variables from .env files without overriding the
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "10000"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		Timezone:      getEnv("TIMEZONE", DefaultTimezone),

		CalendarProvider:      strings.ToLower(strings.TrimSpace(getEnv("CALENDAR_PROVIDER", "google"))),
		CalendarID:            getEnv("GOOGLE_CALENDAR_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		OpenHour:              getEnvAsInt("OPEN_HOUR", 8),
		CloseHour:             getEnvAsInt("CLOSE_HOUR", 19),
		SlotMinutes:           getEnvAsInt("SLOT_MINUTES", 60),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioChannel:       strings.ToLower(strings.TrimSpace(getEnv("TWILIO_CHANNEL", "whatsapp"))),

		ForwardRecipient: getEnv("FORWARD_RECIPIENT", ""),
		ForwardEmail:     getEnv("FORWARD_EMAIL", ""),
		PriceListURL:     getEnv("PRICE_LIST_URL", DefaultPriceListURL),
		OwnerName:        getEnv("OWNER_NAME", "Cláudia"),
		AssistantName:    getEnv("ASSISTANT_NAME", "IAIÁ"),
		GreetingEnabled:  getEnvAsBool("GREETING_ENABLED", true),
		GreetingTTL:      getEnvAsDuration("GREETING_TTL", 24*time.Hour),
		GreetingDelay:    getEnvAsDuration("GREETING_DELAY", 2*time.Second),

		ExtractorProvider: strings.ToLower(strings.TrimSpace(getEnv("EXTRACTOR_PROVIDER", ""))),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:     getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID:    getEnv("BEDROCK_MODEL_ID", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "IAIÁ"),
	}
}

// Extractor returns the configured extraction backend, defaulting to gemini
// when an API key is present and to the rule-based parser otherwise.
func (c *Config) Extractor() string {
	if c.ExtractorProvider != "" {
		return c.ExtractorProvider
	}
	if c.GeminiAPIKey != "" {
		return "gemini"
	}
	return "rules"
}

// Location loads the configured timezone. When the zone database is not
// available, America/Sao_Paulo falls back to its fixed -03:00 offset.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == DefaultTimezone {
		return time.FixedZone("-03", -3*60*60), nil
	}
	return nil, &ConfigurationError{Field: "TIMEZONE", Reason: err.Error()}
}

// Validate checks the settings required to serve traffic.
func (c *Config) Validate() error {
	var errs []error
	if c.CalendarProvider == "google" && strings.TrimSpace(c.CalendarID) == "" {
		errs = append(errs, &ConfigurationError{Field: "GOOGLE_CALENDAR_ID", Reason: "required for the google calendar provider"})
	}
	switch c.CalendarProvider {
	case "google", "memory":
	default:
		errs = append(errs, &ConfigurationError{Field: "CALENDAR_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", c.CalendarProvider)})
	}
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFromNumber == "" {
		errs = append(errs, &ConfigurationError{Field: "TWILIO_*", Reason: "account sid, auth token and sender number are required"})
	}
	if strings.TrimSpace(c.ForwardRecipient) == "" {
		errs = append(errs, &ConfigurationError{Field: "FORWARD_RECIPIENT", Reason: "required to forward messages to a human"})
	}
	switch c.Extractor() {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, &ConfigurationError{Field: "GEMINI_API_KEY", Reason: "required for the gemini extractor"})
		}
	case "bedrock":
		if c.BedrockModelID == "" {
			errs = append(errs, &ConfigurationError{Field: "BEDROCK_MODEL_ID", Reason: "required for the bedrock extractor"})
		}
	case "rules":
	default:
		errs = append(errs, &ConfigurationError{Field: "EXTRACTOR_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", c.ExtractorProvider)})
	}
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		errs = append(errs, &ConfigurationError{Field: "OPEN_HOUR/CLOSE_HOUR", Reason: fmt.Sprintf("invalid window %d-%d", c.OpenHour, c.CloseHour)})
	}
	if c.SlotMinutes <= 0 {
		errs = append(errs, &ConfigurationError{Field: "SLOT_MINUTES", Reason: "must be positive"})
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

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
