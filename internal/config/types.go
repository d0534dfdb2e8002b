package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// File mirrors the relaunch.yaml document structure.
type File struct {
	Version      string              `yaml:"version"`
	StartDelay   Duration            `yaml:"startDelay"`
	Defaults     *Command            `yaml:"defaults"`
	Environments map[string]*Command `yaml:"environments"`
}

// Command describes the process to run for one environment. Defaults acts
// as the fallback for environments without their own entry.
type Command struct {
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Name        string            `yaml:"name"`
	Env         map[string]string `yaml:"env"`
	EnvFromFile string            `yaml:"envFromFile"`

	RestartDelay Duration `yaml:"restartDelay"`

	OnlyOnFirstCompile bool `yaml:"onlyOnFirstCompile"`
	OnlyOnWatch        bool `yaml:"onlyOnWatch"`
}

// DisplayName returns the name used in the process key.
func (c *Command) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Command
}
