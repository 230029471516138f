package config

import "time"

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link"`
	ExchangeName string `mapstructure:"exchange_name"`
	ExchangeType string `mapstructure:"exchange_type"`
	QueueName    string `mapstructure:"queue_name"`
	RoutingKey   string `mapstructure:"routing_key"`
	WorkerCount  int    `mapstructure:"worker_count"`
}

type SchedulerConfig struct {
	// StartDelay is how soon a re-registered job fires after a control
	// signal, before settling into its regular interval.
	StartDelay time.Duration `mapstructure:"start_delay"`
}

type ProbeConfig struct {
	// DefaultTimeout applies when a monitor has no timeout of its own.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	// MaxConcurrent bounds the number of in-flight HTTP checks.
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

type AlertConfig struct {
	// WebhookURL receives incident notifications. Empty disables delivery.
	WebhookURL string `mapstructure:"webhook_url"`
}

type Config struct {
	Env         string           `mapstructure:"env"`
	ServiceName string           `mapstructure:"service_name"`
	Port        int              `mapstructure:"port" validate:"required,gt=0"`
	DB          *DBConfig        `mapstructure:"db" validate:"required"`
	Redis       *RedisConfig     `mapstructure:"redis" validate:"required"`
	RabbitMQ    *RabbitMQConfig  `mapstructure:"rabbitmq"`
	Scheduler   *SchedulerConfig `mapstructure:"scheduler"`
	Probe       *ProbeConfig     `mapstructure:"probe"`
	Alert       *AlertConfig     `mapstructure:"alert"`
}
