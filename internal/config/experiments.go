package config

import "fmt"

// ExperimentsConfig points to the experiment registry definition.
type ExperimentsConfig struct {
	// File is an optional YAML registry. Empty means the built-in definitions.
	File string `envconfig:"FILE"`

	// MemoCapacity bounds the in-memory assignment memo.
	MemoCapacity int `envconfig:"MEMO_CAPACITY" default:"1024" validate:"min=1"`
}

// IdentityConfig selects where the bucket identity is persisted.
type IdentityConfig struct {
	Backend string `envconfig:"BACKEND" default:"memory" validate:"oneof=memory redis postgres"`
	Key     string `envconfig:"KEY" default:"bifrost:bucket_id" validate:"required"`
}

// RemoteConfig selects the remote parameter source for copy documents.
type RemoteConfig struct {
	// Source is "redis" (hash of raw parameters) or "memory" (defaults only).
	Source string `envconfig:"SOURCE" default:"memory" validate:"oneof=memory redis"`

	// Key is the Redis hash holding the raw parameter values.
	Key string `envconfig:"KEY" default:"bifrost:remote_config" validate:"required"`

	// DefaultsFile optionally provides the local default layer (JSON object of raw params).
	DefaultsFile string `envconfig:"DEFAULTS_FILE"`
}

// CopyConfig names the parameters and conventions used by the copy resolver.
type CopyConfig struct {
	BaseParam       string `envconfig:"BASE_PARAM" default:"copy_json"`
	OverridesParam  string `envconfig:"OVERRIDES_PARAM" default:"copy_overrides_json"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"en"`
	OverridesBucket string `envconfig:"OVERRIDES_BUCKET" default:"i18n_overrides"`
	Locale          string `envconfig:"LOCALE" default:"en-US"`
}

// Validate checks CopyConfig fields for correctness.
func (c *CopyConfig) Validate() error {
	if err := validateNoWhitespace(c.BaseParam, "copy base param"); err != nil {
		return err
	}
	if err := validateNoWhitespace(c.OverridesParam, "copy overrides param"); err != nil {
		return err
	}
	if c.BaseParam == c.OverridesParam {
		return fmt.Errorf("copy base and overrides params must differ, both are %q", c.BaseParam)
	}
	if err := validateNoWhitespace(c.DefaultLanguage, "copy default language"); err != nil {
		return err
	}
	return validateNoWhitespace(c.OverridesBucket, "copy overrides bucket")
}

// EventsConfig selects the analytics event sink.
type EventsConfig struct {
	// Sink is "log" (structured log lines) or "redis" (XADD to a stream).
	Sink      string `envconfig:"SINK" default:"log" validate:"oneof=log redis"`
	Stream    string `envconfig:"STREAM" default:"bifrost:events"`
	MaxLength int64  `envconfig:"MAX_LENGTH" default:"100000" validate:"min=0"`
}
