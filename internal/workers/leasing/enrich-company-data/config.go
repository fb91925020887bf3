// internal/workers/leasing/enrich-company-data/config.go
package enrichcompanydata

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 45 * time.Second,
	}
}
