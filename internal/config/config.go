// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/nav_recorder/internal/ingest"
	"github.com/relabs-tech/nav_recorder/internal/recorder"
)

// Config holds all application configuration values.
// It is read once at startup and never reloaded.
type Config struct {
	// Store (InfluxDB)
	StoreEnabled  bool
	StoreHost     string
	StorePort     int
	StoreDatabase string
	StoreTimeout  time.Duration

	// MQTT
	MQTTBroker           string
	MQTTClientIDRecorder string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string

	// Topics
	TopicNMEA     string
	TopicPosition string

	// GPS
	SerialEnabled bool
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebServerPort int

	LogLevel string
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		StoreEnabled:  true,
		StoreHost:     "localhost",
		StorePort:     8086,
		StoreDatabase: "hfos_records",
		StoreTimeout:  recorder.DefaultStoreTimeout,

		MQTTBroker: "tcp://localhost:1883",

		TopicNMEA:     "nav/nmea",
		TopicPosition: "nav/position",

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		WebServerPort: 8080,
		LogLevel:      "info",
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines. Blank lines and lines starting with '#' are
// skipped; unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Store
	case "STORE_ENABLED", "USE_STORE":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.StoreEnabled = b
	case "STORE_HOST":
		c.StoreHost = value
	case "STORE_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STORE_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("STORE_PORT must be 1-65535, got %d", port)
		}
		c.StorePort = port
	case "STORE_DATABASE":
		c.StoreDatabase = value
	case "STORE_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STORE_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("STORE_TIMEOUT_MS must be positive, got %d", ms)
		}
		c.StoreTimeout = time.Duration(ms) * time.Millisecond

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_RECORDER":
		c.MQTTClientIDRecorder = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_NMEA":
		c.TopicNMEA = value
	case "TOPIC_POSITION":
		c.TopicPosition = value

	// GPS
	case "SERIAL_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_ENABLED %q: %w", value, err)
		}
		c.SerialEnabled = b
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	case "LOG_LEVEL":
		c.LogLevel = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.StoreEnabled {
		if c.StoreHost == "" {
			return fmt.Errorf("STORE_HOST is required")
		}
		if c.StoreDatabase == "" {
			return fmt.Errorf("STORE_DATABASE is required")
		}
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicNMEA == "" || c.TopicPosition == "" {
		return fmt.Errorf("TOPIC_NMEA and TOPIC_POSITION are required")
	}
	if c.TopicNMEA == c.TopicPosition {
		return fmt.Errorf("TOPIC_NMEA and TOPIC_POSITION must differ")
	}
	if c.SerialEnabled && c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required when SERIAL_ENABLED is set")
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive")
	}
	return nil
}

// Store returns the recorder store settings.
func (c *Config) Store() recorder.StoreConfig {
	return recorder.StoreConfig{
		Enabled:  c.StoreEnabled,
		Host:     c.StoreHost,
		Port:     c.StorePort,
		Database: c.StoreDatabase,
		Timeout:  c.StoreTimeout,
	}
}

// Topics returns the MQTT topics of both event kinds.
func (c *Config) Topics() ingest.Topics {
	return ingest.Topics{Sentence: c.TopicNMEA, Position: c.TopicPosition}
}

// ClientID returns id, or prefix plus a short random suffix when id is empty,
// so several instances can share a broker.
func ClientID(id, prefix string) string {
	if id != "" {
		return id
	}
	return prefix + "-" + uuid.NewString()[:8]
}
