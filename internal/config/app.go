package config

import (
	"fmt"
	"time"
)

const ServiceName = "salon-bot"

type AppConfig struct {
	BotToken   string `validate:"required"`
	BotDebug   bool
	TimeZone   string        `validate:"required"`
	SessionTTL time.Duration `validate:"gt=0"`
	LogLevel   string        `validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat  string        `validate:"omitempty,oneof=json text"`

	AdminAddr      string `validate:"omitempty,hostname_port"`
	AllowedOrigins []string
	GRPCAddr       string        `validate:"omitempty,hostname_port"`
	HealthInterval time.Duration `validate:"gt=0"`

	Redis RedisConfig
	Kafka KafkaConfig
	OTel  OTelConfig
}

type RedisConfig struct {
	Addr     string `validate:"omitempty,hostname_port"`
	Password string
	DB       int `validate:"gte=0"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type KafkaConfig struct {
	Brokers      []string      `validate:"dive,hostname_port"`
	Topic        string        `validate:"required"`
	PollInterval time.Duration `validate:"gt=0"`
	BatchSize    int           `validate:"gt=0"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type OTelConfig struct {
	Enabled     bool
	Endpoint    string  `validate:"required_if=Enabled true"`
	SampleRatio float64 `validate:"gte=0,lte=1"`
}

// LoadAppConfig reads everything except the database settings, which live in
// LoadDBConfig.
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotDebug:       getEnvBool("BOT_DEBUG", false),
		TimeZone:       getEnv("TIMEZONE", "Asia/Kolkata"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AdminAddr:      getEnv("ADMIN_ADDR", ":8080"),
		AllowedOrigins: getEnvList("ADMIN_ALLOWED_ORIGINS"),
		GRPCAddr:       getEnv("GRPC_ADDR", ":50051"),
		HealthInterval: getEnvDuration("HEALTH_INTERVAL", 10*time.Second),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvList("KAFKA_BROKERS"),
			Topic:        getEnv("KAFKA_TOPIC", "salon.appointments.v1"),
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 50),
		},
		OTel: OTelConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvFloat("OTEL_SAMPLING_RATIO", 1),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid app config: %w", err)
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid app config: TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	return cfg, nil
}
