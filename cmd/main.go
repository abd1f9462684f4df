package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Leganyst/salon-bot/internal/admin"
	"github.com/Leganyst/salon-bot/internal/bot"
	"github.com/Leganyst/salon-bot/internal/catalog"
	"github.com/Leganyst/salon-bot/internal/config"
	"github.com/Leganyst/salon-bot/internal/db"
	"github.com/Leganyst/salon-bot/internal/events"
	"github.com/Leganyst/salon-bot/internal/health"
	"github.com/Leganyst/salon-bot/internal/logger"
	"github.com/Leganyst/salon-bot/internal/repository"
	"github.com/Leganyst/salon-bot/internal/service"
	"github.com/Leganyst/salon-bot/internal/session"
	"github.com/Leganyst/salon-bot/internal/slots"
	"github.com/Leganyst/salon-bot/internal/telemetry"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}

	// 1. Конфиг приложения и БД из env.
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		slog.Error("load app config", "err", err)
		os.Exit(1)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		slog.Error("load db config", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Service: config.ServiceName,
		Level:   appCfg.LogLevel,
		Format:  appCfg.LogFormat,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      appCfg.OTel.Enabled,
		ServiceName:  config.ServiceName,
		OTLPEndpoint: appCfg.OTel.Endpoint,
		SampleRatio:  appCfg.OTel.SampleRatio,
	})
	if err != nil {
		fatal(log, "init tracing", err)
	}

	// 2. Подключаемся к БД через GORM и прогоняем миграции.
	gormDB, err := db.Open(dbCfg)
	if err != nil {
		fatal(log, "init db", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		fatal(log, "sql DB", err)
	}
	defer sqlDB.Close()

	// 3. Репозитории, справочники и сервис записи.
	appointments := repository.NewGormAppointmentRepository(gormDB)
	outbox := repository.NewGormEventRepository(gormDB)

	services := catalog.Default()
	slotCatalog := slots.Default()

	loc, err := time.LoadLocation(appCfg.TimeZone)
	if err != nil {
		fatal(log, "load timezone", err)
	}
	bookings := service.NewBookingService(appointments, services, slotCatalog, loc)

	checks := []health.Check{{Name: "database", Check: sqlDB.PingContext}}

	// 4. Хранилище сессий: Redis, если задан адрес, иначе память процесса.
	var wg sync.WaitGroup
	var sessions session.Store
	if appCfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.Redis.Addr,
			Password: appCfg.Redis.Password,
			DB:       appCfg.Redis.DB,
		})
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, appCfg.SessionTTL, "")
		checks = append(checks, health.Check{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		log.Info("sessions in redis", "addr", appCfg.Redis.Addr)
	} else {
		mem := session.NewMemoryStore(appCfg.SessionTTL)
		sessions = mem
		wg.Add(1)
		go func() {
			defer wg.Done()
			mem.Run(ctx, time.Minute)
		}()
	}

	// 5. Outbox -> Kafka.
	var writer events.MessageWriter
	if appCfg.Kafka.Enabled() {
		writer = events.NewKafkaWriter(appCfg.Kafka.Brokers)
		checks = append(checks, health.Check{Name: "kafka", Check: events.ReadyCheck(appCfg.Kafka.Brokers)})
	}
	publisher := events.NewPublisher(outbox, writer, log, events.Config{
		Brokers:   appCfg.Kafka.Brokers,
		Topic:     appCfg.Kafka.Topic,
		PollEvery: appCfg.Kafka.PollInterval,
		BatchSize: appCfg.Kafka.BatchSize,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		publisher.Run(ctx)
	}()

	// 6. Telegram-бот.
	api, err := tgbotapi.NewBotAPI(appCfg.BotToken)
	if err != nil {
		fatal(log, "init telegram bot", err)
	}
	api.Debug = appCfg.BotDebug
	log.Info("authorized on telegram", "account", api.Self.UserName)

	controller := bot.NewController(bot.NewTelegramMessenger(api), bookings, services, slotCatalog, sessions, log)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	wg.Add(1)
	go func() {
		defer wg.Done()
		controller.Run(ctx, updates)
	}()

	// 7. Admin HTTP API.
	adminAPI := admin.NewAPI(bookings, services,
		admin.WithPinger(sqlDB.PingContext),
		admin.WithAccessLog(os.Stdout),
		admin.WithAllowedOrigins(appCfg.AllowedOrigins...),
		admin.WithLogger(log),
	)
	httpServer := &http.Server{
		Addr:              appCfg.AdminAddr,
		Handler:           adminAPI.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("admin api listening", "addr", appCfg.AdminAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin api serve", "err", err)
			stop()
		}
	}()

	// 8. gRPC health + reflection.
	healthServer := health.NewServer(log, appCfg.HealthInterval, checks...)
	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		fatal(log, "listen "+appCfg.GRPCAddr, err)
	}
	go func() {
		log.Info("grpc health listening", "addr", appCfg.GRPCAddr)
		if err := healthServer.Serve(lis); err != nil {
			log.Error("grpc serve", "err", err)
			stop()
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		healthServer.Run(ctx)
	}()

	// 9. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	log.Info("shutting down")

	api.StopReceivingUpdates()
	healthServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("admin api shutdown", "err", err)
	}

	wg.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", "err", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
