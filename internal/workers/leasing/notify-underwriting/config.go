// internal/workers/leasing/notify-underwriting/config.go
package notifyunderwriting

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	ToEmail      []string
	SNSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
