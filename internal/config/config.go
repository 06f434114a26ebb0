// Package config handles configuration loading using viper.
package config

import (
	"fmt"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/log"
)

// Config is the top-level static configuration.
type Config struct {
	Filter     string            `mapstructure:"filter"`
	Engine     EngineConfig      `mapstructure:"engine"`
	Classifier ClassifierConfig  `mapstructure:"classifier"`
	Log        *log.LoggerConfig `mapstructure:"log"`
}

// EngineConfig tunes the flow engine.
type EngineConfig struct {
	TickResolution uint64 `mapstructure:"tick_resolution"` // ticks per second
	TCPGuessAfter  uint64 `mapstructure:"tcp_guess_after"`
	UDPGuessAfter  uint64 `mapstructure:"udp_guess_after"`
}

// ClassifierConfig tunes the detection engine.
type ClassifierConfig struct {
	Disabled  []string `mapstructure:"disabled"`   // protocol names to disable
	PortsFile string   `mapstructure:"ports_file"` // YAML port registry
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	res := c.Engine.TickResolution
	if res == 0 || res > 1000000 || 1000000%res != 0 {
		return fmt.Errorf("%w: tick_resolution %d must divide 1000000",
			core.ErrConfigInvalid, res)
	}
	return nil
}
