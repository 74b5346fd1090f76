// Package config loads the static server registry from a JSON config file.
// The registry is read-only after a successful load; any malformed entry
// rejects the whole file so the panel never runs with a partial fleet.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"mcpanel/internal/models"
	"mcpanel/internal/utils"
)

const (
	defaultConfigName = "servers.json"
	defaultHTTPPort   = 8080
)

// Config is the decoded panel configuration.
type Config struct {
	Port    int                        `json:"port"`
	LogFile string                     `json:"log_file,omitempty"`
	Servers []*models.ServerDefinition `json:"servers" validate:"required,min=1,dive"`
}

var validate = validator.New()

// DefaultPath returns the config file location: $MCPANEL_CONFIG when set,
// otherwise servers.json in the working directory.
func DefaultPath() string {
	if env := os.Getenv("MCPANEL_CONFIG"); env != "" {
		return env
	}
	return defaultConfigName
}

// Load reads and validates the registry config. On any error the registry is
// considered unloaded and the caller must degrade to "no servers configured".
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultHTTPPort
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Servers))
	for _, def := range cfg.Servers {
		if def.ID == "" {
			def.ID = utils.Slugify(def.Name)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("server %q: empty id", def.Name)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate server id %q", def.ID)
		}
		seen[def.ID] = true
		if !filepath.IsAbs(def.Path) {
			if abs, aerr := filepath.Abs(def.Path); aerr == nil {
				def.Path = abs
			}
		}
	}

	return &cfg, nil
}
