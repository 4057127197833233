package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvProduction = "production"

type Config struct {
	Port            int           `envconfig:"PORT" default:"3001" validate:"min=1,max=65535"`
	AppEnv          string        `envconfig:"NODE_ENV" default:"development" validate:"required"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	MaxFileSize     int64         `envconfig:"MAX_FILE_SIZE" default:"15728640" validate:"gt=0"`
	AllowOrigins    string        `envconfig:"ALLOW_ORIGINS" default:"*"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"60s" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	BufferPoolSize  int           `envconfig:"BUFFER_POOL_SIZE" default:"4" validate:"min=1"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
