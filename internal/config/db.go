package config

import (
	"fmt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DBConfig struct {
	Driver string `validate:"oneof=sqlite postgres"`

	// sqlite
	Path string `validate:"required_if=Driver sqlite"`

	// postgres
	Host            string `validate:"required_if=Driver postgres"`
	Port            int    `validate:"gte=0,lte=65535"`
	User            string `validate:"required_if=Driver postgres"`
	Password        string
	Name            string `validate:"required_if=Driver postgres"`
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int `validate:"gte=0"`
	MaxIdleConns    int `validate:"gte=0"`
	ConnMaxLifeTime int `validate:"gte=0"` // minutes
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{
		Driver:          getEnv("DB_DRIVER", DriverSQLite),
		Path:            getEnv("DB_PATH", "data/salon_bookings.db"),
		Host:            getEnv("DB_HOST", "postgres"),
		User:            getEnv("DB_USER", "salon"),
		Password:        getEnv("DB_PASSWORD", "salon"),
		Name:            getEnv("DB_NAME", "salon_db"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
		Port:            getEnvInt("DB_PORT", 5432),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifeTime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid DB config: %w", err)
	}

	return cfg, nil
}

// PostgresDSN is the key/value DSN understood by the pgx-based driver.
func (c *DBConfig) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
		c.TimeZone,
	)
}
