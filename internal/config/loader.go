package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a relaunch configuration from the provided path.
func Load(path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	if err := validateAgainstSchema(generic); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	var doc File
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	configDir := filepath.Dir(absPath)
	if doc.Defaults != nil {
		if err := resolveCommandEnv(doc.Defaults, configDir); err != nil {
			return nil, fmt.Errorf("%s: defaults: %w", absPath, err)
		}
	}
	for name, cmd := range doc.Environments {
		if cmd == nil {
			continue
		}
		if err := resolveCommandEnv(cmd, configDir); err != nil {
			return nil, fmt.Errorf("%s: environment %s: %w", absPath, name, err)
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

// resolveCommandEnv expands inline variables and merges an env file under
// them; inline values win on conflict.
func resolveCommandEnv(cmd *Command, configDir string) error {
	var inlineEnv map[string]string
	if len(cmd.Env) > 0 {
		inlineEnv = make(map[string]string, len(cmd.Env))
		for k, v := range cmd.Env {
			inlineEnv[k] = os.ExpandEnv(v)
		}
	}

	var fileEnv map[string]string
	if cmd.EnvFromFile != "" {
		expanded := os.ExpandEnv(cmd.EnvFromFile)
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Clean(filepath.Join(configDir, expanded))
		}
		cmd.EnvFromFile = expanded

		var err error
		fileEnv, err = loadEnvFile(expanded)
		if err != nil {
			return err
		}
	}

	var merged map[string]string
	if len(fileEnv) > 0 {
		merged = make(map[string]string, len(fileEnv))
		for k, v := range fileEnv {
			merged[k] = v
		}
	}
	if len(inlineEnv) > 0 {
		if merged == nil {
			merged = make(map[string]string, len(inlineEnv))
		}
		for k, v := range inlineEnv {
			merged[k] = v
		}
	}
	cmd.Env = merged
	return nil
}

func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	values := make(map[string]string)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if strings.HasPrefix(raw, "export ") {
			raw = strings.TrimSpace(raw[len("export "):])
		}
		sep := strings.IndexRune(raw, '=')
		if sep <= 0 {
			return nil, fmt.Errorf("load env file %q: invalid line %d", path, lineNo)
		}
		key := strings.TrimSpace(raw[:sep])
		if key == "" {
			return nil, fmt.Errorf("load env file %q: invalid key on line %d", path, lineNo)
		}
		value := strings.TrimSpace(raw[sep+1:])
		if strings.HasPrefix(value, "\"") {
			if len(value) < 2 || value[len(value)-1] != '"' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			unquoted, err := strconv.Unquote(value)
			if err != nil {
				return nil, fmt.Errorf("load env file %q: parse value for %s on line %d: %w", path, key, lineNo, err)
			}
			value = unquoted
		} else if strings.HasPrefix(value, "'") {
			if len(value) < 2 || value[len(value)-1] != '\'' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			value = value[1 : len(value)-1]
		} else if comment := strings.IndexRune(value, '#'); comment >= 0 {
			value = strings.TrimSpace(value[:comment])
		}
		values[key] = os.ExpandEnv(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	return values, nil
}
