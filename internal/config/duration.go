package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML and default tags can use the
// human-readable form ("5h", "15m") instead of nanoseconds.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText parses a duration string; used by the defaults setter.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML parses a duration from a string or from nanoseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar value for duration, got %v", node.Kind)
	}

	if parsed, err := time.ParseDuration(node.Value); err == nil {
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration value: %s", node.Value)
}
