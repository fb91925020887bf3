// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Enrichment    EnrichmentConfig        `mapstructure:"enrichment"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// ActivityRegistry is the path of the task-type catalogue checked at startup.
	ActivityRegistry string `mapstructure:"activity_registry"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// IntegrationConfig holds the external data providers and AWS settings.
type IntegrationConfig struct {
	Creditsafe struct {
		BaseURL  string `mapstructure:"base_url"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		TokenTTL int    `mapstructure:"token_ttl"` // milliseconds
		Country  string `mapstructure:"country"`
	} `mapstructure:"creditsafe"`

	VIES struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"vies"`

	ComplyAdvantage struct {
		BaseURL   string  `mapstructure:"base_url"`
		APIKey    string  `mapstructure:"api_key"`
		Fuzziness float64 `mapstructure:"fuzziness"`
	} `mapstructure:"complyadvantage"`

	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// EnrichmentConfig shapes the external lookups. All durations are
// milliseconds.
type EnrichmentConfig struct {
	BureauTimeout     int `mapstructure:"bureau_timeout"`
	VATAttemptTimeout int `mapstructure:"vat_attempt_timeout"`
	ScreeningTimeout  int `mapstructure:"screening_timeout"`
	VATMaxAttempts    int `mapstructure:"vat_max_attempts"`
	VATBackoffBase    int `mapstructure:"vat_backoff_base"`
	VATBackoffCap     int `mapstructure:"vat_backoff_cap"`
	VATMaxJitter      int `mapstructure:"vat_max_jitter"`
	BureauCacheTTL    int `mapstructure:"bureau_cache_ttl"`
}

// NotificationConfig holds settings for the notify-underwriting worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	HTTPAddress    string `mapstructure:"http_address"`
}
