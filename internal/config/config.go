package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	AntiCheat struct {
		ThresholdSeconds int `yaml:"threshold_seconds"`
	} `yaml:"anticheat"`
	Payment struct {
		KeyID       string `yaml:"key_id"`
		KeySecret   string `yaml:"key_secret"`
		AmountPaise int64  `yaml:"amount_paise"`
		Currency    string `yaml:"currency"`
	} `yaml:"payment"`
}

// Load reads YAML config from path and validates the anti-cheat threshold.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.AntiCheat.ThresholdSeconds < 0 {
		return cfg, fmt.Errorf("anticheat threshold_seconds must be positive, got %d", cfg.AntiCheat.ThresholdSeconds)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
