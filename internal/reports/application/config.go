package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config tunes report behavior.
type Config struct {
	// WithdrawableAlertThreshold flags reports whose withdrawable profit
	// exceeds it, a nudge to bank the surplus cash.
	WithdrawableAlertThreshold int64 `yaml:"withdrawable_alert_threshold"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		WithdrawableAlertThreshold: getenvInt64Default("REPORTS_WITHDRAWABLE_ALERT", 50000),
	}
	if path := os.Getenv("REPORTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func getenvInt64Default(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
