package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidMasterKey indicates a missing master key, a value that is
	// not valid standard base64, or a decoded key of the wrong length.
	ErrInvalidMasterKey = errors.New("invalid master key configuration")
	// ErrInvalidObjectStoreConfigs indicates invalid object store settings
	// (for example, an empty bucket name).
	ErrInvalidObjectStoreConfigs = errors.New("invalid object store configuration")
	// ErrInvalidEventBusConfigs indicates invalid event bus settings
	// (for example, an empty broker URL).
	ErrInvalidEventBusConfigs = errors.New("invalid event bus configuration")
	// ErrInvalidCredentialsConfigs indicates an unknown credential backend
	// or a backend missing its required settings (DSN or static table).
	ErrInvalidCredentialsConfigs = errors.New("invalid credentials configuration")
	// ErrInvalidConsumerConfigs indicates an unknown consumer sink or a
	// sink missing its required settings (output directory or endpoint).
	ErrInvalidConsumerConfigs = errors.New("invalid consumer configuration")
)
