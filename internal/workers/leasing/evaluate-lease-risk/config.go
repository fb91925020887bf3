// internal/workers/leasing/evaluate-lease-risk/config.go
package evaluateleaserisk

import "time"

type Config struct {
	// Timeout bounds one evaluation, enrichment retries included.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
