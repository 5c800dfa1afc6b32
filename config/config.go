package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/zoom"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Environment        string        `mapstructure:"environment" validate:"oneof=LOCAL PROD"`
	Server             ServerConfig  `mapstructure:"server"`
	Log                LogConfig     `mapstructure:"log"`
	Zoom               ZoomConfig    `mapstructure:"zoom"`
	Webhook            WebhookConfig `mapstructure:"webhook"`
	Tracing            TracingConfig `mapstructure:"tracing"`
	SSMParameterPrefix string        `mapstructure:"ssm_parameter_prefix"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type ZoomConfig struct {
	AccountID    string        `mapstructure:"account_id"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	OAuthURL     string        `mapstructure:"oauth_url" validate:"required,url"`
	APIURL       string        `mapstructure:"api_url" validate:"required,url"`
	Timeout      time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
	// EventID is the event used when a webhook does not name one.
	EventID string `mapstructure:"event_id"`
	// TicketTypeID pins the ticket type instead of taking the event's first one.
	TicketTypeID string `mapstructure:"ticket_type_id"`
}

type WebhookConfig struct {
	// An empty secret rejects every webhook.
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Exporter     string `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

const (
	// zoomCallsPerRegistration is the number of sequential Zoom requests one
	// webhook makes: token, ticket types and ticket.
	zoomCallsPerRegistration = 3
	writeTimeoutMargin       = 10 * time.Second
)

// envBindings maps config keys to the environment variables they are read from.
var envBindings = map[string]string{
	"environment":            "ENVIRONMENT",
	"server.host":            "HOST",
	"server.port":            "PORT",
	"server.allowed_origins": "ALLOWED_ORIGINS",
	"server.read_timeout":    "SERVER_READ_TIMEOUT",
	"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
	"log.level":              "LOG_LEVEL",
	"zoom.account_id":        "ZOOM_ACCOUNT_ID",
	"zoom.client_id":         "ZOOM_CLIENT_ID",
	"zoom.client_secret":     "ZOOM_CLIENT_SECRET",
	"zoom.oauth_url":         "ZOOM_OAUTH_URL",
	"zoom.api_url":           "ZOOM_API_URL",
	"zoom.http_timeout":      "ZOOM_HTTP_TIMEOUT",
	"zoom.event_id":          "ZOOM_EVENT_ID",
	"zoom.ticket_type_id":    "ZOOM_TICKET_TYPE_ID",
	"webhook.secret":         "WEBHOOK_SECRET",
	"tracing.exporter":       "TRACING_EXPORTER",
	"tracing.otlp_endpoint":  "OTEL_EXPORTER_OTLP_ENDPOINT",
	"ssm_parameter_prefix":   "SSM_PARAMETER_PREFIX",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "PROD")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("zoom.oauth_url", zoom.DefaultOAuthURL)
	v.SetDefault("zoom.api_url", zoom.DefaultAPIURL)
	v.SetDefault("zoom.http_timeout", "30s")
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
}

// Load reads the configuration from v, which may already carry a config file
// and bound flags. Environment variables override the config file.
func Load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind env var %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Environment = strings.ToUpper(cfg.Environment)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = zoomCallsPerRegistration*cfg.Zoom.Timeout + writeTimeoutMargin
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Warnings lists settings that leave the relay unable to do its job. None of
// them stop the server from starting.
func (c Config) Warnings() []string {
	var warnings []string

	if c.Webhook.Secret == "" {
		warnings = append(warnings, "WEBHOOK_SECRET is not set, every webhook will be rejected")
	}
	if c.Zoom.AccountID == "" || c.Zoom.ClientID == "" || c.Zoom.ClientSecret == "" {
		warnings = append(warnings, "Zoom credentials are incomplete, token requests will fail")
	}
	if c.Server.WriteTimeout <= zoomCallsPerRegistration*c.Zoom.Timeout {
		warnings = append(warnings, fmt.Sprintf("SERVER_WRITE_TIMEOUT %s may cut off a registration whose Zoom calls take up to %s each", c.Server.WriteTimeout, c.Zoom.Timeout))
	}

	return warnings
}

func (c Config) ZoomClientConfig() zoom.Config {
	return zoom.Config{
		AccountID:    c.Zoom.AccountID,
		ClientID:     c.Zoom.ClientID,
		ClientSecret: c.Zoom.ClientSecret,
		OAuthURL:     c.Zoom.OAuthURL,
		APIURL:       c.Zoom.APIURL,
		Timeout:      c.Zoom.Timeout,
	}
}
