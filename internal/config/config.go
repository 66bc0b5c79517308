package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS  GPSConfig  `yaml:"gps"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

type GPSConfig struct {
	// Port pins a specific serial device. Empty means discover by USB
	// vendor/product ID.
	Port          string        `yaml:"port"`
	Baud          int           `yaml:"baud"`
	VID           uint16        `yaml:"vid"`
	PID           uint16        `yaml:"pid"`
	PrintInterval time.Duration `yaml:"print_interval"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
	// MinMoveM suppresses publishes until the fix has moved this many
	// meters since the last published one. Zero publishes every interval.
	MinMoveM float64 `yaml:"min_move_m"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	cfg, _ := apply(Config{})
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return apply(cfg)
}

// apply fills defaults and validates.
func apply(cfg Config) (Config, error) {
	if cfg.GPS.Baud <= 0 {
		cfg.GPS.Baud = 115200
	}
	if cfg.GPS.VID == 0 {
		cfg.GPS.VID = 0x1546
	}
	if cfg.GPS.PID == 0 {
		cfg.GPS.PID = 0x01A8
	}
	if cfg.GPS.PrintInterval <= 0 {
		cfg.GPS.PrintInterval = 1 * time.Second
	}

	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "tcp://localhost:1883"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "gpsmon"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "gps/fix"
	}
	if cfg.MQTT.Interval <= 0 {
		cfg.MQTT.Interval = 1 * time.Second
	}
	if cfg.MQTT.MinMoveM < 0 {
		return Config{}, fmt.Errorf("mqtt.min_move_m must be >= 0")
	}

	return cfg, nil
}
