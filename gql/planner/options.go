package planner

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configuration files can spell
// durations as "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "parsing duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// FallbackPolicy names what happens when a query escalates to the
// legacy strategy.
type FallbackPolicy string

const (
	// FallbackSilent escalates without telling anyone.
	FallbackSilent FallbackPolicy = "silent"
	// FallbackWarn logs a warning per escalation.
	FallbackWarn FallbackPolicy = "warn"
)

// Options configures a Planner.
type Options struct {
	// Fallback selects the escalation notification policy.
	Fallback FallbackPolicy `yaml:"fallback"`

	// CacheEnabled turns the cross-session plan cache on.
	CacheEnabled bool `yaml:"cache_enabled"`
	// CacheSize caps the number of cached plans. Zero means the
	// default.
	CacheSize int `yaml:"cache_size"`
	// CacheTTL bounds how long a cached plan stays valid. Zero means
	// the default.
	CacheTTL Duration `yaml:"cache_ttl"`

	// Trace enables candidate-selection tracing.
	Trace bool `yaml:"trace"`
}

// DefaultOptions returns the production configuration: silent fallback,
// caching on.
func DefaultOptions() Options {
	return Options{
		Fallback:     FallbackSilent,
		CacheEnabled: true,
	}
}

// LoadOptions reads Options from a YAML file. Unset fields keep their
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrapf(err, "reading planner options from %s", path)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrapf(err, "parsing planner options from %s", path)
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate rejects unknown policy names and negative limits.
func (o Options) Validate() error {
	switch o.Fallback {
	case FallbackSilent, FallbackWarn, "":
	default:
		return errors.Errorf("unknown fallback policy %q", o.Fallback)
	}
	if o.CacheSize < 0 {
		return errors.Errorf("cache size must be non-negative, got %d", o.CacheSize)
	}
	if o.CacheTTL < 0 {
		return errors.Errorf("cache ttl must be non-negative, got %s", o.CacheTTL)
	}
	return nil
}

// fingerprint renders the option fields that change what plan comes
// out, for use in cache keys.
func (o Options) fingerprint() string {
	return string(o.Fallback)
}
