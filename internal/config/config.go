package config

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// ingest server and the consumer binary. It aggregates all sub-configurations
// and is populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: the master wrapping key and the
	// upload size cap.
	App App

	// ObjectStore holds the S3-compatible blob storage settings.
	ObjectStore ObjectStore `envPrefix:"OBJECT_STORE_"`

	// EventBus holds the NATS JetStream connection settings.
	EventBus EventBus `envPrefix:"EVENT_BUS_"`

	// Session holds the bearer-session TTL and sweep cadence.
	Session Session `envPrefix:"SESSION_"`

	// Ingest holds policy switches for the upload pipeline.
	Ingest Ingest `envPrefix:"INGEST_"`

	// Consumer holds the event-consumer worker and sink settings.
	Consumer Consumer `envPrefix:"CONSUMER_"`

	// Credentials selects and configures the credential backend.
	Credentials Credentials `envPrefix:"CREDENTIALS_"`

	// Server holds network address and timeout settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged under the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds process-wide settings shared by both binaries.
type App struct {
	// MasterKey is the base64-encoded 32-byte wrapping key. It never
	// appears in logs or error messages.
	// Env: MASTER_KEY
	MasterKey string `env:"MASTER_KEY"`

	// MaxUploadBytes caps the accepted HTTP upload body size.
	// Env: MAX_UPLOAD_BYTES (default 100 MiB)
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES"`
}

// MasterKeyBytes returns the decoded master key. Validation has already
// checked the encoding and length, so decode errors cannot occur here.
func (a App) MasterKeyBytes() []byte {
	key, _ := base64.StdEncoding.DecodeString(a.MasterKey)
	return key
}

// ObjectStore holds the S3-compatible storage settings. A non-empty
// Endpoint switches the client to path-style addressing for MinIO-like
// deployments.
type ObjectStore struct {
	// Env: OBJECT_STORE_ENDPOINT (empty for real AWS S3)
	Endpoint string `env:"ENDPOINT"`
	// Env: OBJECT_STORE_BUCKET
	Bucket string `env:"BUCKET"`
	// Env: OBJECT_STORE_ACCESS_KEY
	AccessKey string `env:"ACCESS_KEY"`
	// Env: OBJECT_STORE_SECRET
	Secret string `env:"SECRET"`
	// Env: OBJECT_STORE_REGION
	Region string `env:"REGION"`
}

// EventBus holds the broker connection settings.
type EventBus struct {
	// Env: EVENT_BUS_URL (e.g. "nats://localhost:4222")
	URL string `env:"URL"`
}

// Session holds bearer-session lifecycle settings, in seconds to keep the
// environment surface plain integers.
type Session struct {
	// Env: SESSION_IDLE_SECONDS (default 1800)
	IdleSeconds int64 `env:"IDLE_SECONDS"`
	// Env: SESSION_SWEEP_SECONDS (default 300)
	SweepSeconds int64 `env:"SWEEP_SECONDS"`
}

// IdleTTL returns the idle timeout as a duration.
func (s Session) IdleTTL() time.Duration {
	return time.Duration(s.IdleSeconds) * time.Second
}

// SweepInterval returns the eviction sweep cadence as a duration.
func (s Session) SweepInterval() time.Duration {
	return time.Duration(s.SweepSeconds) * time.Second
}

// Ingest holds upload-pipeline policy switches.
type Ingest struct {
	// VerifyOuter controls whether the client encryption layer is decrypted
	// and tag-checked during ingest. When false the body is stored as
	// received and every object is marked NOT_VERIFIED.
	// Env: INGEST_VERIFY_OUTER (default true)
	VerifyOuter bool `env:"VERIFY_OUTER" envDefault:"true"`
}

// Consumer sink kinds accepted in [Consumer.Sink].
const (
	SinkFile = "file"
	SinkHTTP = "http"
)

// Consumer holds the event-consumer settings.
type Consumer struct {
	// Durable is the consumer-group name. Replicas sharing it compete for
	// messages.
	// Env: CONSUMER_DURABLE (default "file_processor")
	Durable string `env:"DURABLE"`

	// Workers is how many parallel pull workers to run.
	// Env: CONSUMER_WORKERS (default 1)
	Workers int `env:"WORKERS"`

	// Sink selects where recovered plaintext goes: SinkFile or SinkHTTP.
	// Env: CONSUMER_SINK (default "file")
	Sink string `env:"SINK"`

	// OutputDir is the file sink's root directory.
	// Env: CONSUMER_OUTPUT_DIR
	OutputDir string `env:"OUTPUT_DIR"`

	// Endpoint is the HTTP sink's downstream URL.
	// Env: CONSUMER_ENDPOINT
	Endpoint string `env:"ENDPOINT"`
}

// Credential backend kinds accepted in [Credentials.Backend].
const (
	CredentialsStatic   = "static"
	CredentialsPostgres = "postgres"
)

// Credentials selects and configures the credential backend.
type Credentials struct {
	// Backend is CredentialsStatic or CredentialsPostgres.
	// Env: CREDENTIALS_BACKEND (default "static")
	Backend string `env:"BACKEND"`

	// DSN is the PostgreSQL connection string for the postgres backend.
	// Env: CREDENTIALS_DSN
	DSN string `env:"DSN"`

	// StaticJSON is a JSON object mapping principal to passphrase for the
	// static backend, e.g. {"alice@example.com":"hunter2"}.
	// Env: CREDENTIALS_STATIC
	StaticJSON string `env:"STATIC"`
}

// StaticTable decodes the static credential table. Validation has already
// checked the JSON, so decode errors cannot occur here.
func (c Credentials) StaticTable() map[string]string {
	table := make(map[string]string)
	_ = json.Unmarshal([]byte(c.StaticJSON), &table)
	return table
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s", "5m").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
