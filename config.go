package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server settings loadable from a YAML file. Flags override the
// file; environment variables fill company identity.
type Config struct {
	Port            int      `yaml:"port"`
	DBPath          string   `yaml:"db_path"`
	CompanyName     string   `yaml:"company_name"`
	SessionTTLHours int      `yaml:"session_ttl_hours"`
	RepeatWindowHrs float64  `yaml:"repeat_window_hours"`
	OverrideRoles   []string `yaml:"override_roles"`
}

func defaultConfig() Config {
	return Config{
		Port:            9000,
		DBPath:          "shiftops.db",
		CompanyName:     "Your Company",
		SessionTTLHours: 24,
		RepeatWindowHrs: 24,
		OverrideRoles:   []string{"supervisor", "admin"},
	}
}

// loadConfig reads the YAML config file if present and applies env fallbacks.
// A missing file is not an error; defaults apply.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if name := os.Getenv("SHIFTOPS_COMPANY_NAME"); name != "" {
		cfg.CompanyName = name
	}
	if cfg.SessionTTLHours <= 0 {
		cfg.SessionTTLHours = 24
	}
	if cfg.RepeatWindowHrs <= 0 {
		cfg.RepeatWindowHrs = 24
	}
	if len(cfg.OverrideRoles) == 0 {
		cfg.OverrideRoles = []string{"supervisor", "admin"}
	}
	return cfg, nil
}

// overrideRoleSet converts the configured role list to the engine's set form.
func (c Config) overrideRoleSet() map[string]bool {
	set := make(map[string]bool, len(c.OverrideRoles))
	for _, r := range c.OverrideRoles {
		set[r] = true
	}
	return set
}
