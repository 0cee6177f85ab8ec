// Package config loads optional YAML defaults for the clean command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds clean defaults. Command-line flags always win over these.
type Config struct {
	Output        string `yaml:"output"`
	Cache         string `yaml:"cache"`
	SkipMalformed bool   `yaml:"skip_malformed"`
}

// Load reads the YAML file at path. Unknown keys are rejected so typos do
// not silently fall back to defaults. An empty file yields a zero Config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
