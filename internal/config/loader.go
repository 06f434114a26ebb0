package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/strix/internal/clock"
	"firestige.xyz/strix/internal/log"
)

// Load reads configuration from an optional YAML file, with STRIX_* env
// variables overriding file values. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("STRIX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	applyDefaults(v)

	if path != "" {
		dir := filepath.Dir(path)
		filename := filepath.Base(path)
		ext := filepath.Ext(filename)

		v.SetConfigName(strings.TrimSuffix(filename, ext))
		v.SetConfigType(strings.TrimPrefix(ext, "."))
		v.AddConfigPath(dir)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Log == nil {
		config.Log = &log.LoggerConfig{Level: v.GetString("log.level")}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults registers every known key so env overrides bind even when
// no config file is present.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("filter", "")
	v.SetDefault("engine.tick_resolution", clock.DefaultResolution)
	v.SetDefault("engine.tcp_guess_after", 10)
	v.SetDefault("engine.udp_guess_after", 8)
	v.SetDefault("classifier.disabled", []string{})
	v.SetDefault("classifier.ports_file", "")
	v.SetDefault("log.level", "info")
}
