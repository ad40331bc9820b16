package constants

import "errors"

// Configuration errors.
var (
	ErrNoServiceConfigured = errors.New("no service configured, use 'tastypie config set service <url>' or --service")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrEmptyAPIKey         = errors.New("API key must not be empty")
)

// Command errors.
var (
	ErrInvalidFilter      = errors.New("filters must look like key=value")
	ErrInvalidID          = errors.New("ids must be integers")
	ErrUnsupportedFormat  = errors.New("unsupported output format")
	ErrNATSSubjectMissing = errors.New("NATS subject is required")
	ErrNoNATSURL          = errors.New("NATS server URL is required, use --nats-url")
)
