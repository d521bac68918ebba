package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelSettings controls publishing behavior for one channel.
type ChannelSettings struct {
	Enabled       bool   `yaml:"enabled"`
	DefaultLocale string `yaml:"default_locale"`
	MaxMediaItems int    `yaml:"max_media_items"`
}

// ChannelsConfig holds per-channel publish settings keyed by channel name.
type ChannelsConfig struct {
	Channels map[string]ChannelSettings `yaml:"channels"`
}

// Enabled reports whether a channel is enabled. Unknown channels are enabled
// so a missing file never blocks publishing.
func (c *ChannelsConfig) Enabled(channel string) bool {
	settings, ok := c.Channels[channel]
	if !ok {
		return true
	}
	return settings.Enabled
}

// LoadChannelsConfig reads the channels file from path.
func LoadChannelsConfig(path string) (*ChannelsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels config: %w", err)
	}
	var cfg ChannelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse channels config: %w", err)
	}
	return &cfg, nil
}

// LoadChannelsConfigOrDefault loads the channels file, falling back to the
// defaults when it is absent.
func LoadChannelsConfigOrDefault(path string) *ChannelsConfig {
	cfg, err := LoadChannelsConfig(path)
	if err != nil {
		return DefaultChannelsConfig()
	}
	return cfg
}

// DefaultChannelsConfig enables every channel with sensible limits.
func DefaultChannelsConfig() *ChannelsConfig {
	return &ChannelsConfig{
		Channels: map[string]ChannelSettings{
			"gbp":       {Enabled: true, DefaultLocale: "en", MaxMediaItems: 10},
			"instagram": {Enabled: true, MaxMediaItems: 1},
			"facebook":  {Enabled: true, MaxMediaItems: 10},
		},
	}
}
