package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type loadOptions struct {
	lookuper envconfig.Lookuper
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithLookuper replaces the process environment as the source of
// ${VAR} references and TIERCACHE_ overrides.
func WithLookuper(l envconfig.Lookuper) LoadOption {
	return func(o *loadOptions) {
		o.lookuper = l
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the environment, then validates it.
//
// Unknown YAML keys are rejected.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{lookuper: envconfig.OsLookuper()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.expandEnv(o.lookuper.Lookup); err != nil {
		return nil, err
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, o.lookuper),
	}); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) expandEnv(lookup LookupFunc) error {
	fields := []*string{
		&c.Remote.KeyPrefix,
		&c.Auth.JWT.Secret,
		&c.Observe.Tracing.Endpoint,
		&c.Observe.Metrics.Endpoint,
	}
	for i := range c.Remote.URLs {
		fields = append(fields, &c.Remote.URLs[i])
	}
	for i := range c.Auth.APIKeys {
		fields = append(fields, &c.Auth.APIKeys[i].Key)
	}
	return expandAll(lookup, fields...)
}
