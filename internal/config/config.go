package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the call server.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"call-server"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CALL_SERVER_PORT" envDefault:"3001"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Amazon Connect
	AWSRegion         string `env:"AWS_REGION" envDefault:"us-east-1"`
	ConnectInstanceID string `env:"CONNECT_INSTANCE_ID"`
	ContactFlowID     string `env:"CONTACT_FLOW_ID"`
	SourcePhoneNumber string `env:"SOURCE_PHONE_NUMBER"`

	// Status polling and segment fetching
	StatusPollInterval time.Duration `env:"STATUS_POLL_INTERVAL" envDefault:"2s"`
	StatusPollRetries  int           `env:"STATUS_POLL_RETRIES" envDefault:"60"`
	SegmentPageSize    int32         `env:"SEGMENT_PAGE_SIZE" envDefault:"100"`
	SegmentPageDelay   time.Duration `env:"SEGMENT_PAGE_DELAY" envDefault:"1s"`

	// Observer streaming
	StreamInterval     time.Duration `env:"STREAM_INTERVAL" envDefault:"500ms"`
	StreamFetchCadence time.Duration `env:"STREAM_FETCH_CADENCE" envDefault:"2s"`

	// Reasoning oracle
	OracleAPIKey  string        `env:"ORACLE_API_KEY"`
	OracleBaseURL string        `env:"ORACLE_BASE_URL" envDefault:""`
	OracleModel   string        `env:"ORACLE_MODEL" envDefault:"gpt-4o-mini"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"30s"`

	// Optional status webhook fired on terminal call status
	StatusWebhookURL     string        `env:"STATUS_WEBHOOK_URL" envDefault:""`
	StatusWebhookTimeout time.Duration `env:"STATUS_WEBHOOK_TIMEOUT" envDefault:"10s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.ConnectInstanceID) == "" {
		return nil, fmt.Errorf("CONNECT_INSTANCE_ID is required")
	}
	if strings.TrimSpace(cfg.ContactFlowID) == "" {
		return nil, fmt.Errorf("CONTACT_FLOW_ID is required")
	}
	if strings.TrimSpace(cfg.SourcePhoneNumber) == "" {
		return nil, fmt.Errorf("SOURCE_PHONE_NUMBER is required")
	}
	if strings.TrimSpace(cfg.OracleAPIKey) == "" {
		return nil, fmt.Errorf("ORACLE_API_KEY is required")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
