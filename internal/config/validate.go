package config

import (
	"fmt"
	"strings"
)

// Validate checks structural constraints on a parsed configuration.
func (f *File) Validate() error {
	if f.Version != "" && f.Version != "1" {
		return fmt.Errorf("unsupported version %q", f.Version)
	}
	if f.StartDelay.Duration < 0 {
		return fmt.Errorf("startDelay must not be negative")
	}
	if f.Defaults != nil {
		if err := f.Defaults.validate(); err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
	}
	for name, cmd := range f.Environments {
		if err := validateEnvironmentName(name); err != nil {
			return err
		}
		if cmd == nil {
			return fmt.Errorf("environment %s: missing command specification", name)
		}
		if err := cmd.validate(); err != nil {
			return fmt.Errorf("environment %s: %w", name, err)
		}
	}
	return nil
}

func validateEnvironmentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("environment %s: name must not contain %q", name, ":")
	}
	if strings.ContainsAny(name, " \t") {
		return fmt.Errorf("environment %s: name must not contain whitespace", name)
	}
	return nil
}

func (c *Command) validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("command is required")
	}
	if strings.Contains(c.DisplayName(), ":") {
		return fmt.Errorf("name %q must not contain %q", c.DisplayName(), ":")
	}
	if c.RestartDelay.Duration < 0 {
		return fmt.Errorf("restartDelay must not be negative")
	}
	return nil
}
