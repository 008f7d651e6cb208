package winlog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultConfig []byte

// Config is the window and the set of named presets a run can choose from.
type Config struct {
	Window  time.Duration `yaml:"window"`
	Presets []Preset      `yaml:"presets"`

	// Channels orders the channel lines of the help text. Channels not
	// listed follow in preset order.
	Channels []string `yaml:"channels,omitempty"`
}

// DefaultConfig returns the built-in logon, kernel and system presets.
func DefaultConfig() (*Config, error) {
	return ParseConfig(defaultConfig)
}

// LoadConfig reads presets from path, or the built-in ones when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a YAML preset document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

// Validate checks the config for structural correctness.
func (c *Config) Validate() []error {
	var errs []error

	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %s", c.Window))
	}
	if len(c.Presets) == 0 {
		errs = append(errs, fmt.Errorf("config must define at least one preset"))
	}

	seen := make(map[string]bool)
	for i, p := range c.Presets {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("preset #%d: name is required", i+1))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("preset %q: defined more than once", p.Name))
		}
		seen[p.Name] = true
		if p.Channel == "" {
			errs = append(errs, fmt.Errorf("preset %q: channel is required", p.Name))
		}
		for _, provider := range p.Providers {
			if !quotable(provider) {
				errs = append(errs, fmt.Errorf("preset %q: provider %q mixes single and double quotes", p.Name, provider))
			}
		}
		for field, values := range p.Data {
			if len(values) == 0 {
				errs = append(errs, fmt.Errorf("preset %q: data field %q has no allowed values", p.Name, field))
			}
			if !quotable(field) {
				errs = append(errs, fmt.Errorf("preset %q: data field %q mixes single and double quotes", p.Name, field))
			}
			for _, v := range values {
				if !quotable(v) {
					errs = append(errs, fmt.Errorf("preset %q: data value %q mixes single and double quotes", p.Name, v))
				}
			}
		}
	}

	listed := make(map[string]bool)
	for _, ch := range c.Channels {
		if listed[ch] {
			errs = append(errs, fmt.Errorf("channel %q listed more than once", ch))
		}
		listed[ch] = true
	}

	return errs
}
