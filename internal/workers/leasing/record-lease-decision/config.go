// internal/workers/leasing/record-lease-decision/config.go
package recordleasedecision

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
