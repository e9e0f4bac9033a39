// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "respire"
	ConfigType    = "yaml"
	DefaultConfig = `# Respire Configuration

# Simulated respiration belt (used until a real belt driver is configured)
sim_sample_interval_ms: 50   # force sample cadence in milliseconds
sim_breaths_per_minute: 12.0 # simulated breathing rate
sim_depth: 6.0               # peak-to-peak force swing of a breath
sim_baseline: 4.0            # resting force level
sim_noise: 0.05              # uniform noise amplitude added per sample
sim_rate_warmup_ms: 30000    # device rate channel warm-up before valid values

# MQTT live-state publishing
mqtt_enabled: false
mqtt_broker: "tcp://localhost:1883"
mqtt_topic: "respire/state"

# Web live-state endpoint (JSON GET + WebSocket push)
web_enabled: true
web_listen: ":8089"

# Publish cadence for both transports
publish_interval_ms: 250

# Output
debug: false
`
)

// Settings holds all application configuration. Algorithmic constants of the
// signal core (window capacity, percentiles, thresholds) are fixed in code,
// not configured.
type Settings struct {
	// Simulated belt
	SimSampleIntervalMs int     `mapstructure:"sim_sample_interval_ms"`
	SimBreathsPerMin    float64 `mapstructure:"sim_breaths_per_minute"`
	SimDepth            float64 `mapstructure:"sim_depth"`
	SimBaseline         float64 `mapstructure:"sim_baseline"`
	SimNoise            float64 `mapstructure:"sim_noise"`
	SimRateWarmupMs     int     `mapstructure:"sim_rate_warmup_ms"`

	// MQTT publishing
	MQTTEnabled bool   `mapstructure:"mqtt_enabled"`
	MQTTBroker  string `mapstructure:"mqtt_broker"`
	MQTTTopic   string `mapstructure:"mqtt_topic"`

	// Web endpoint
	WebEnabled bool   `mapstructure:"web_enabled"`
	WebListen  string `mapstructure:"web_listen"`

	// Publish cadence
	PublishIntervalMs int `mapstructure:"publish_interval_ms"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/respire/
func Init() error {
	viper.SetDefault("sim_sample_interval_ms", 50)
	viper.SetDefault("sim_breaths_per_minute", 12.0)
	viper.SetDefault("sim_depth", 6.0)
	viper.SetDefault("sim_baseline", 4.0)
	viper.SetDefault("sim_noise", 0.05)
	viper.SetDefault("sim_rate_warmup_ms", 30000)
	viper.SetDefault("mqtt_enabled", false)
	viper.SetDefault("mqtt_broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt_topic", "respire/state")
	viper.SetDefault("web_enabled", true)
	viper.SetDefault("web_listen", ":8089")
	viper.SetDefault("publish_interval_ms", 250)
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// If no config exists anywhere, create the default in the XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if s.SimSampleIntervalMs < 10 || s.SimSampleIntervalMs > 1000 {
		errs = append(errs, fmt.Errorf("sim_sample_interval_ms must be between 10 and 1000, got %d", s.SimSampleIntervalMs))
	}
	if s.SimBreathsPerMin < 4 || s.SimBreathsPerMin > 30 {
		errs = append(errs, fmt.Errorf("sim_breaths_per_minute must be between 4 and 30, got %v", s.SimBreathsPerMin))
	}
	if s.SimDepth <= 0 || s.SimDepth > 50 {
		errs = append(errs, fmt.Errorf("sim_depth must be between 0 and 50, got %v", s.SimDepth))
	}
	if s.SimNoise < 0 || s.SimNoise > 1 {
		errs = append(errs, fmt.Errorf("sim_noise must be between 0.0 and 1.0, got %v", s.SimNoise))
	}
	if s.SimRateWarmupMs < 0 || s.SimRateWarmupMs > 120000 {
		errs = append(errs, fmt.Errorf("sim_rate_warmup_ms must be between 0 and 120000, got %d", s.SimRateWarmupMs))
	}

	if s.MQTTEnabled {
		if s.MQTTBroker == "" {
			errs = append(errs, errors.New("mqtt_broker must be set when mqtt_enabled is true"))
		}
		if s.MQTTTopic == "" {
			errs = append(errs, errors.New("mqtt_topic must be set when mqtt_enabled is true"))
		}
	}
	if s.WebEnabled && s.WebListen == "" {
		errs = append(errs, errors.New("web_listen must be set when web_enabled is true"))
	}

	if s.PublishIntervalMs < 50 || s.PublishIntervalMs > 5000 {
		errs = append(errs, fmt.Errorf("publish_interval_ms must be between 50 and 5000, got %d", s.PublishIntervalMs))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
