package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Clinic   ClinicConfig   `mapstructure:"clinic"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" envconfig:"SERVER_PORT"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" envconfig:"SERVER_REQUEST_TIMEOUT"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" envconfig:"SERVER_RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst" envconfig:"SERVER_RATE_LIMIT_BURST"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DATABASE_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DATABASE_PORT"`
	User     string `mapstructure:"user" envconfig:"DATABASE_USER"`
	Password string `mapstructure:"password" envconfig:"DATABASE_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DATABASE_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DATABASE_SSLMODE"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"REDIS_RETRY_BACKOFF"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"REDIS_POOL_SIZE"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	User     string `mapstructure:"user" envconfig:"SMTP_USER"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret" envconfig:"JWT_SECRET"`
}

// ClinicConfig holds the scheduling policy knobs: the clinic time zone used for
// all date+time composition, the bookable window and the offered slot length.
type ClinicConfig struct {
	Timezone          string `mapstructure:"timezone" envconfig:"CLINIC_TIMEZONE"`
	WorkingHoursStart string `mapstructure:"working_hours_start" envconfig:"CLINIC_WORKING_HOURS_START"`
	WorkingHoursEnd   string `mapstructure:"working_hours_end" envconfig:"CLINIC_WORKING_HOURS_END"`
	SlotMinutes       int    `mapstructure:"slot_minutes" envconfig:"CLINIC_SLOT_MINUTES"`
}

type BookingConfig struct {
	MinDurationMinutes int `mapstructure:"min_duration_minutes" envconfig:"BOOKING_MIN_DURATION_MINUTES"`
	CancelNoticeHours  int `mapstructure:"cancel_notice_hours" envconfig:"BOOKING_CANCEL_NOTICE_HOURS"`
	FullRefundHours    int `mapstructure:"full_refund_hours" envconfig:"BOOKING_FULL_REFUND_HOURS"`
}

type OutboxConfig struct {
	BatchSize    int           `mapstructure:"batch_size" envconfig:"OUTBOX_BATCH_SIZE"`
	PollInterval time.Duration `mapstructure:"poll_interval" envconfig:"OUTBOX_POLL_INTERVAL"`
	RetryLimit   int           `mapstructure:"retry_limit" envconfig:"OUTBOX_RETRY_LIMIT"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" envconfig:"OUTBOX_RETRY_DELAY"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" envconfig:"LOG_PRETTY"`
}

// LoadConfig reads config.yaml and applies environment overrides.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.request_timeout", "30s")
	viper.SetDefault("server.rate_limit_rps", 50)
	viper.SetDefault("server.rate_limit_burst", 100)
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", "100ms")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("clinic.timezone", "Asia/Kolkata")
	viper.SetDefault("clinic.working_hours_start", "09:00")
	viper.SetDefault("clinic.working_hours_end", "17:00")
	viper.SetDefault("clinic.slot_minutes", 60)
	viper.SetDefault("booking.min_duration_minutes", 15)
	viper.SetDefault("booking.cancel_notice_hours", 24)
	viper.SetDefault("booking.full_refund_hours", 48)
	viper.SetDefault("outbox.batch_size", 50)
	viper.SetDefault("outbox.poll_interval", "5s")
	viper.SetDefault("outbox.retry_limit", 3)
	viper.SetDefault("outbox.retry_delay", "2s")
	viper.SetDefault("log.level", "info")
}
