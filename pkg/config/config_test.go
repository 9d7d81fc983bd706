package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "sotad-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	t.Run("Valid Config", func(t *testing.T) {
		configContent := `
station:
  callsign: "HB9XYZ"

radio:
  device: "/dev/ttyUSB0"
  baud_rate: 4800

spots:
  url: "https://api2.sota.org.uk/api/spots/20/%7Bfilter%7D?filter=all"
  refresh_interval: 120

tuning:
  min_freq_mhz: 3.5
  max_freq_mhz: 21.45

web:
  port: 9090
  bind_address: "127.0.0.1"

storage:
  database_path: "/tmp/sotad.db"
  max_spots: 500

logging:
  level: "debug"
  console: true
`
		configPath := filepath.Join(tempDir, "valid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Station.Callsign != "HB9XYZ" {
			t.Errorf("Expected callsign HB9XYZ, got %s", config.Station.Callsign)
		}
		if config.Radio.Device != "/dev/ttyUSB0" {
			t.Errorf("Expected device /dev/ttyUSB0, got %s", config.Radio.Device)
		}
		if config.Radio.BaudRate != 4800 {
			t.Errorf("Expected baud rate 4800, got %d", config.Radio.BaudRate)
		}
		if config.Spots.RefreshInterval != 120 {
			t.Errorf("Expected refresh interval 120, got %d", config.Spots.RefreshInterval)
		}
		if config.Tuning.MinFreqMHz != 3.5 {
			t.Errorf("Expected min freq 3.5, got %f", config.Tuning.MinFreqMHz)
		}
		if config.Web.Port != 9090 {
			t.Errorf("Expected web port 9090, got %d", config.Web.Port)
		}
		if config.Storage.MaxSpots != 500 {
			t.Errorf("Expected max spots 500, got %d", config.Storage.MaxSpots)
		}
		if config.Logging.Level != "debug" {
			t.Errorf("Expected log level debug, got %s", config.Logging.Level)
		}
	})

	t.Run("Config With Defaults", func(t *testing.T) {
		configContent := `
station:
  callsign: "N0ABC"
`
		configPath := filepath.Join(tempDir, "minimal.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Radio.BaudRate != 9600 {
			t.Errorf("Expected default baud rate 9600, got %d", config.Radio.BaudRate)
		}
		if config.Spots.RefreshInterval != 300 {
			t.Errorf("Expected default refresh interval 300, got %d", config.Spots.RefreshInterval)
		}
		if config.Tuning.MinFreqMHz != 7.0 {
			t.Errorf("Expected default min freq 7.0, got %f", config.Tuning.MinFreqMHz)
		}
		if config.Tuning.MaxFreqMHz != 28.0 {
			t.Errorf("Expected default max freq 28.0, got %f", config.Tuning.MaxFreqMHz)
		}
		if config.Web.Port != 8080 {
			t.Errorf("Expected default web port 8080, got %d", config.Web.Port)
		}
		if config.Storage.MaxSpots != 1000 {
			t.Errorf("Expected default max spots 1000, got %d", config.Storage.MaxSpots)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(tempDir, "missing.yaml")); err == nil {
			t.Error("Expected error for missing config file")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		var c Config
		c.Radio.BaudRate = 9600
		c.Spots.RefreshInterval = 300
		c.Tuning.MinFreqMHz = 7.0
		c.Tuning.MaxFreqMHz = 28.0
		c.Web.Port = 8080
		return &c
	}

	t.Run("Valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Expected valid config, got: %v", err)
		}
	})

	t.Run("Inverted Tune Range", func(t *testing.T) {
		c := valid()
		c.Tuning.MinFreqMHz = 30.0
		if err := c.Validate(); err == nil {
			t.Error("Expected error for min >= max")
		}
	})

	t.Run("Bad Port", func(t *testing.T) {
		c := valid()
		c.Web.Port = 70000
		if err := c.Validate(); err == nil {
			t.Error("Expected error for out-of-range port")
		}
	})
}
