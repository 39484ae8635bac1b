package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"replmux/log"
)

const ConfigFileName = "config.json"

// GetConfigDir returns the path to the application's configuration directory
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".replmux"), nil
}

// Visibility policy names.
const (
	VisibilityToggle = "toggle"
	VisibilityFocus  = "focus"
)

// Memory keying strategy names.
const (
	ManagerContext = "context"
	ManagerScoped  = "scoped"
)

// Config represents the resolved application configuration. It is immutable
// once resolved; reconfiguration goes through Merge, which always rebuilds
// from defaults rather than layering onto a previous custom config.
type Config struct {
	// Visibility selects how a session's surface is shown: "toggle" hides a
	// visible surface and shows a hidden one, "focus" always brings it up.
	Visibility string `json:"visibility"`
	// Manager selects the session keying strategy: "context" keeps one
	// session per context globally, "scoped" keys by (context, scope).
	Manager string `json:"manager"`
	// Preferred maps a context to the definition label to use for it,
	// bypassing availability probing.
	Preferred map[string]string `json:"preferred"`
	// ReplOpenCmd is the host display command used to open a window for a
	// new session surface (e.g. "split-window -h" on the tmux host).
	ReplOpenCmd string `json:"repl_open_cmd"`
	// Host selects the host backend ("tmux" or "local"). Empty means pick
	// automatically.
	Host string `json:"host"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Visibility:  VisibilityToggle,
		Manager:     ManagerContext,
		Preferred:   map[string]string{},
		ReplOpenCmd: "split-window -h",
		Host:        "",
	}
}

// Merge resolves a configuration from the given overrides. The result is the
// default configuration with every non-zero override applied on top. It never
// consults a previously resolved configuration, so a partial update cannot
// leave stale fields behind.
func Merge(overrides *Config) *Config {
	cfg := DefaultConfig()
	if overrides == nil {
		return cfg
	}
	if overrides.Visibility != "" {
		cfg.Visibility = overrides.Visibility
	}
	if overrides.Manager != "" {
		cfg.Manager = overrides.Manager
	}
	if len(overrides.Preferred) > 0 {
		cfg.Preferred = make(map[string]string, len(overrides.Preferred))
		for ctx, label := range overrides.Preferred {
			cfg.Preferred[ctx] = label
		}
	}
	if overrides.ReplOpenCmd != "" {
		cfg.ReplOpenCmd = overrides.ReplOpenCmd
	}
	if overrides.Host != "" {
		cfg.Host = overrides.Host
	}
	return cfg
}

func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create and save default config if file doesn't exist
			defaultCfg := DefaultConfig()
			if saveErr := saveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return defaultCfg
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	var overrides Config
	if err := json.Unmarshal(data, &overrides); err != nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.ErrorLog.Printf("failed to parse config file at %s: %v\nConfig content preview: %s", configPath, err, preview)

		// Backup the corrupted config before falling back to defaults
		backupPath := configPath + ".corrupt." + time.Now().Format("20060102-150405")
		if backupErr := os.WriteFile(backupPath, data, 0o644); backupErr == nil {
			log.InfoLog.Printf("backed up corrupted config to: %s", backupPath)
		}

		return DefaultConfig()
	}

	// A file on disk is treated as a set of overrides on the defaults, same
	// as programmatic reconfiguration.
	return Merge(&overrides)
}

// saveConfig saves the configuration to disk
func saveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o644)
}

// SaveConfig exports the saveConfig function for use by other packages
func SaveConfig(config *Config) error {
	return saveConfig(config)
}
