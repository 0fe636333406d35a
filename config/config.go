package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents an app config.
type Config struct {
	Telegram Telegram
	Logger   Logger
}

// Telegram represents a bot api client configuration.
type Telegram struct {
	BotToken       string `env:"BOT_TOKEN" env-required:"true"`
	BaseURL        string `env:"BOT_API_BASE_URL" env-default:"https://api.telegram.org/bot{token}/{method}"`
	Transport      string `env:"BOT_API_TRANSPORT" env-default:"resty"`
	UpdateStrategy string `env:"UPDATES_STRATEGY" env-default:"batch"`
	PollTimeout    int    `env:"UPDATES_POLL_TIMEOUT" env-default:"55"`
	WorkersCount   int    `env:"WORKERS_COUNT" env-default:"4"`
}

// PollTimeoutDuration returns the poll timeout as a duration.
func (t Telegram) PollTimeoutDuration() time.Duration {
	return time.Duration(t.PollTimeout) * time.Second
}

// Logger represents a logger configuration.
type Logger struct {
	LogLevel        string `env:"BOTAPI_LOGGER_LOG_LEVEL" env-default:"info"`
	LogFilename     string `env:"BOTAPI_LOGGER_LOG_FILENAME" env-default:""`
	PrettyLogOutput bool   `env:"BOTAPI_LOGGER_PRETTY_LOG_OUTPUT" env-default:"false"`
}

var (
	config Config
	once   sync.Once
)

// Get returns a new config.
func Get() *Config {
	once.Do(func() {
		err := cleanenv.ReadEnv(&config)
		if err != nil {
			log.Fatalf("read env: %v", err)
		}
	})

	return &config
}

// Read reads the config from the environment without caching it.
func Read() (*Config, error) {
	var cfg Config

	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
