// Package config loads project configuration the way the teacher's
// internal/config does: a package-level viper singleton, config-file
// discovery by walking up from the working directory, environment
// variable overrides, and source-precedence diagnostics.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the configuration singleton. Should be called once
// at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("json")

	configFileSet := false

	// 1. Walk up from cwd looking for .medulla/config.json (§6 on-disk layout).
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".medulla", "config.json")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	// 2. User config directory fallback.
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "medulla", "config.json")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("MEDULLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout_ms", 30000)
	v.SetDefault("max_batch_size", 100)
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.host", "")
	v.SetDefault("actor", "")
	v.SetDefault("http_addr", "")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

func GetString(key string) string  { return v.GetString(key) }
func GetBool(key string) bool      { return v.GetBool(key) }
func GetInt(key string) int        { return v.GetInt(key) }
func AllSettings() map[string]any  { return v.AllSettings() }

// ConfigSource identifies where an effective value came from.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
)

// GetValueSource reports whether key's effective value came from the
// environment, the config file, or a default — the config-source
// diagnostics supplemented feature (§12), grounded on the teacher's
// GetValueSource/CheckOverrides.
func GetValueSource(key string) ConfigSource {
	envKey := "MEDULLA_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if _, ok := os.LookupEnv(envKey); ok {
		return SourceEnvVar
	}
	if v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

// Diagnostics returns every known key's value paired with its source, for
// `medulla config show`.
func Diagnostics() map[string]map[string]any {
	keys := []string{
		"log_level", "request_timeout_ms", "max_batch_size",
		"embedding.provider", "embedding.model", "embedding.host",
		"actor", "http_addr",
	}
	out := map[string]map[string]any{}
	for _, k := range keys {
		out[k] = map[string]any{
			"value":  v.Get(k),
			"source": GetValueSource(k),
		}
	}
	return out
}

// GetIdentity resolves the authoring identity: flag > config/env > git
// user.name > hostname, mirroring the teacher's GetIdentity chain.
func GetIdentity(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if actor := GetString("actor"); actor != "" {
		return actor
	}
	if name := gitUserName(); name != "" {
		return name
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return "unknown"
}
