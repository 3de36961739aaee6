package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// ParseConfigYAML parses a Config from YAML bytes, fills defaults and validates it.
// The func oracle kind is rejected; it exists only for runtimes passed to the
// driver from code.
func ParseConfigYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	applyDefaults(&cfg)

	if cfg.Oracle.Kind == KindFunc {
		return nil, fmt.Errorf("invalid config: %w",
			models.ConfigErrorf("oracle.kind", "%q oracles are supplied from code, not configuration files", KindFunc))
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ParseConfigYAMLString parses a Config from a YAML string and validates it.
func ParseConfigYAMLString(yamlText string) (*Config, error) {
	return ParseConfigYAML([]byte(yamlText))
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
