package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "STATUSDECK"

// LoadConfig layers the YAML file at path over the built-in defaults,
// with environment variables on top: STATUSDECK_DB_URL overrides db.url.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("service_name", "statusdeck")
	v.SetDefault("port", 8080)

	v.SetDefault("scheduler.start_delay", "5s")

	v.SetDefault("probe.default_timeout", "5s")
	v.SetDefault("probe.max_concurrent", 100)

	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.conn_max_lifetime", "2m")
	v.SetDefault("redis.conn_max_idle_time", "30s")

	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.min_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.conn_max_idle_time", "30m")
	v.SetDefault("db.health_timeout", "5s")

	v.SetDefault("rabbitmq.exchange_type", "direct")
	v.SetDefault("rabbitmq.worker_count", 10)
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			var sb strings.Builder
			sb.WriteString("config validation failed:")
			for _, fe := range ve {
				fmt.Fprintf(&sb, "\n- %s does not satisfy %q", fe.Namespace(), fe.Tag())
			}
			return errors.New(sb.String())
		}
		return err
	}
	return nil
}
