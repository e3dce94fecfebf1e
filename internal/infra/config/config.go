package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	Upload    UploadSettings    `mapstructure:"upload"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection backing the per-user lock.
type RedisSettings struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	DB             int           `mapstructure:"db"`
	Password       string        `mapstructure:"password"`
	TLSEnabled     bool          `mapstructure:"tls_enabled"`
	UserLockPrefix string        `mapstructure:"user_lock_prefix"`
	UserLockTTL    time.Duration `mapstructure:"user_lock_ttl"`
}

// KafkaSettings configures the audit event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	AuditTopic  string   `mapstructure:"audit_topic"`
}

// LockoutSettings holds the failure threshold and lock duration applied by
// the outcome recorder.
type LockoutSettings struct {
	MaxFailedAttempts int           `mapstructure:"max_failed_attempts"`
	Duration          time.Duration `mapstructure:"duration"`
}

// UploadSettings configures packet upload storage and throttling.
type UploadSettings struct {
	Directory      string        `mapstructure:"directory"`
	MaxSizeBytes   int64         `mapstructure:"max_size_bytes"`
	ThrottleLimit  int           `mapstructure:"throttle_limit"`
	ThrottleWindow time.Duration `mapstructure:"throttle_window"`
}

type TelemetrySettings struct {
	Namespace string `mapstructure:"namespace"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("REGCLIENT")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.user_lock_prefix",
		"redis.user_lock_ttl",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.audit_topic",
		"lockout.max_failed_attempts",
		"lockout.duration",
		"upload.directory",
		"upload.max_size_bytes",
		"upload.throttle_limit",
		"upload.throttle_window",
		"telemetry.namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "prodigy-registration-client")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "reg")
	v.SetDefault("postgres.password", "reg_password")
	v.SetDefault("postgres.database", "reg")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.user_lock_prefix", "reg:user-lock")
	v.SetDefault("redis.user_lock_ttl", 5*time.Second)

	v.SetDefault("kafka.topic_prefix", "reg")
	v.SetDefault("kafka.audit_topic", "audit.events")

	v.SetDefault("lockout.max_failed_attempts", 3)
	v.SetDefault("lockout.duration", 15*time.Minute)

	v.SetDefault("upload.directory", "packets")
	v.SetDefault("upload.max_size_bytes", int64(5*1024*1024))
	v.SetDefault("upload.throttle_limit", 30)
	v.SetDefault("upload.throttle_window", time.Minute)

	v.SetDefault("telemetry.namespace", "regclient")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
