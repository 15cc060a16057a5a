package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP      HTTP
		Log       Log
		PG        PG
		Redis     Redis
		Consumer  Consumer
		Inventory Inventory
		Waitress  Waitress
		MenuCache MenuCache
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax        int           `env:"PG_POOL_MAX" envDefault:"10"`
		AcquireTimeout time.Duration `env:"PG_ACQUIRE_TIMEOUT" envDefault:"5s"`
		URL            string        `env:"PG_URL"`
	}

	Redis struct {
		Addr string `env:"REDIS_ADDR,required"`
		DB   int    `env:"REDIS_DB" envDefault:"0"`
	}

	Consumer struct {
		RetryBudget     int           `env:"CONSUMER_RETRY_BUDGET" envDefault:"3"`
		PollBlock       time.Duration `env:"CONSUMER_POLL_BLOCK" envDefault:"5s"`
		IdleDelay       time.Duration `env:"CONSUMER_IDLE_DELAY" envDefault:"5s"`
		BackoffUnit     time.Duration `env:"CONSUMER_BACKOFF_UNIT" envDefault:"1s"`
		ReconnectDelay  time.Duration `env:"CONSUMER_RECONNECT_DELAY" envDefault:"5s"`
		ShutdownTimeout time.Duration `env:"CONSUMER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Inventory struct {
		BaseURL      string        `env:"INVENTORY_BASE_URL" envDefault:"http://localhost:8000"`
		RetryMax     int           `env:"INVENTORY_RPC_RETRY_MAX" envDefault:"4"`
		RetryWaitMin time.Duration `env:"INVENTORY_RPC_RETRY_WAIT_MIN" envDefault:"1s"`
		RetryWaitMax time.Duration `env:"INVENTORY_RPC_RETRY_WAIT_MAX" envDefault:"10s"`
	}

	Waitress struct {
		PollBlock time.Duration `env:"WAITRESS_POLL_BLOCK" envDefault:"500ms"`
	}

	MenuCache struct {
		TTL time.Duration `env:"MENU_CACHE_TTL" envDefault:"3600s"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
