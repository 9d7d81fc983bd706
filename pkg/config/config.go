package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config represents the sotad configuration
type Config struct {
	Station struct {
		Callsign string `yaml:"callsign"`
	} `yaml:"station"`

	Radio struct {
		// Serial device path (e.g. /dev/ttyUSB0); empty selects the first
		// enumerated port
		Device   string `yaml:"device"`
		BaudRate int    `yaml:"baud_rate"`
	} `yaml:"radio"`

	Spots struct {
		URL             string `yaml:"url"`
		RefreshInterval int    `yaml:"refresh_interval"` // seconds
	} `yaml:"spots"`

	Tuning struct {
		// Allowed tune range in MHz; used as defaults until the operator
		// stores preferences
		MinFreqMHz float64 `yaml:"min_freq_mhz"`
		MaxFreqMHz float64 `yaml:"max_freq_mhz"`
	} `yaml:"tuning"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	Storage struct {
		DatabasePath string `yaml:"database_path"`
		MaxSpots     int    `yaml:"max_spots"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		MaxSize    int    `yaml:"max_size"`    // megabytes
		MaxBackups int    `yaml:"max_backups"` // files
		MaxAge     int    `yaml:"max_age"`     // days
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if config.Radio.BaudRate == 0 {
		config.Radio.BaudRate = 9600
	}
	if config.Spots.RefreshInterval == 0 {
		config.Spots.RefreshInterval = 300
	}
	if config.Tuning.MinFreqMHz == 0 {
		config.Tuning.MinFreqMHz = 7.0
	}
	if config.Tuning.MaxFreqMHz == 0 {
		config.Tuning.MaxFreqMHz = 28.0
	}
	if config.Web.Port == 0 {
		config.Web.Port = 8080
	}
	if config.Web.BindAddress == "" {
		config.Web.BindAddress = "0.0.0.0"
	}
	if config.Storage.MaxSpots == 0 {
		config.Storage.MaxSpots = 1000
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = 10
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = 3
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = 28
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Radio.BaudRate <= 0 {
		return fmt.Errorf("radio baud rate must be positive")
	}
	if c.Spots.RefreshInterval <= 0 {
		return fmt.Errorf("spot refresh interval must be positive")
	}
	if c.Tuning.MinFreqMHz >= c.Tuning.MaxFreqMHz {
		return fmt.Errorf("tuning min frequency must be below max frequency")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d is out of range", c.Web.Port)
	}
	return nil
}
