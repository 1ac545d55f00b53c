package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRecaptchaVerifyURL is Google's server-side verification endpoint.
const DefaultRecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Config holds runtime configuration values for the contact relay.
type Config struct {
	AppName            string `validate:"required"`
	AppEnv             string `validate:"required"`
	AppPort            string `validate:"required,numeric"`
	BackendURL         string
	BackendTimeout     time.Duration `validate:"gt=0"`
	RecaptchaSecretKey string
	RecaptchaSiteKey   string
	RecaptchaVerifyURL string `validate:"required,url"`
	SupabaseDBURL      string
	SupabaseTable      string `validate:"required"`
	RedisURL           string `validate:"omitempty,url"`
	RedisStream        string
	NATSURL            string `validate:"omitempty,url"`
	NATSSubject        string
	CORSOrigins        string `validate:"required"`
	ContactRateLimit   int    `validate:"gte=0"`
	LogLevel           string `validate:"oneof=debug info warn error"`
	LogFile            string
	LogMaxSizeMB       int `validate:"gt=0"`
	LogMaxBackups      int `validate:"gte=0"`
	LogMaxAgeDays      int `validate:"gte=0"`
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// VerificationEnabled reports whether CAPTCHA tokens are checked server-side.
func (c Config) VerificationEnabled() bool {
	return strings.TrimSpace(c.RecaptchaSecretKey) != ""
}

// SecondaryEnabled reports whether the hosted database sink is configured.
func (c Config) SecondaryEnabled() bool {
	return strings.TrimSpace(c.SupabaseDBURL) != ""
}

// Redacted returns a copy safe to print, with secrets masked.
func (c Config) Redacted() Config {
	out := c
	out.RecaptchaSecretKey = redact(c.RecaptchaSecretKey)
	out.SupabaseDBURL = redact(c.SupabaseDBURL)
	out.RedisURL = redact(c.RedisURL)
	out.NATSURL = redact(c.NATSURL)
	return out
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DOJO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Dojo Contact API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("recaptcha.verify_url", DefaultRecaptchaVerifyURL)
	v.SetDefault("supabase.table", "contacto")
	v.SetDefault("redis.stream", "dojo:contact:events")
	v.SetDefault("nats.subject", "dojo.contact.submitted")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("contact.rate_limit", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	timeoutString := v.GetString("backend.timeout")
	if timeoutString == "" {
		timeoutString = "10s"
	}

	timeout, err := time.ParseDuration(timeoutString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid backend timeout: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            strings.TrimPrefix(v.GetString("app.port"), ":"),
		BackendURL:         v.GetString("backend.url"),
		BackendTimeout:     timeout,
		RecaptchaSecretKey: strings.TrimSpace(v.GetString("recaptcha.secret_key")),
		RecaptchaSiteKey:   strings.TrimSpace(v.GetString("recaptcha.site_key")),
		RecaptchaVerifyURL: v.GetString("recaptcha.verify_url"),
		SupabaseDBURL:      strings.TrimSpace(v.GetString("supabase.db_url")),
		SupabaseTable:      v.GetString("supabase.table"),
		RedisURL:           strings.TrimSpace(v.GetString("redis.url")),
		RedisStream:        v.GetString("redis.stream"),
		NATSURL:            strings.TrimSpace(v.GetString("nats.url")),
		NATSSubject:        v.GetString("nats.subject"),
		CORSOrigins:        v.GetString("cors.origins"),
		ContactRateLimit:   v.GetInt("contact.rate_limit"),
		LogLevel:           strings.ToLower(v.GetString("log.level")),
		LogFile:            strings.TrimSpace(v.GetString("log.file")),
		LogMaxSizeMB:       v.GetInt("log.max_size_mb"),
		LogMaxBackups:      v.GetInt("log.max_backups"),
		LogMaxAgeDays:      v.GetInt("log.max_age_days"),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks loaded values against their struct constraints.
func Validate(cfg Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
