package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kuroko-shirai/embedis/v1/cluster"
)

type (
	Config struct {
		Redis    cluster.Config `yaml:"redis"`
		Vre      cluster.Config `yaml:"vre"`
		LogLevel string         `yaml:"logLevel"`

		// Период опроса узлов монитором, 0 - монитор выключен.
		MonitorDelay time.Duration `yaml:"monitorDelay"`
	}
)

// Default - значения, с которыми работает redis_data без файла конфигурации.
// У Vre нет адресов по умолчанию: пустой список означает, что роль не используется.
func Default() Config {
	return Config{
		Redis:    defaultRedis(),
		Vre:      defaultRedis(),
		LogLevel: "info",
	}
}

func defaultRedis() cluster.Config {
	return cluster.Config{
		Backend:        cluster.BackendNative,
		MaxConns:       1,
		ConnectTimeout: time.Second,
		RWTimeout:      time.Second,
	}
}

// Load читает YAML-файл поверх значений Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
