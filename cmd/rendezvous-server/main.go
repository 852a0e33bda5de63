package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"

	"rendezvous/backend/internal/calendar"
	calendarpg "rendezvous/backend/internal/calendar/postgres"
	"rendezvous/backend/internal/config"
	"rendezvous/backend/internal/notify"
	"rendezvous/backend/internal/service/booking"
	httptransport "rendezvous/backend/internal/transport/http"
	"rendezvous/backend/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "rendezvous-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "rendezvous-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr()),
		slog.String("calendar_backend", cfg.CalendarBackend),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, cleanup, err := openGateway(ctx, cfg, log)
	if err != nil {
		log.Error("calendar gateway init failed", slog.String("backend", cfg.CalendarBackend), slog.Any("err", err))
		os.Exit(1)
	}
	defer cleanup()
	gateway = calendar.WithTimeout(gateway, cfg.CalendarTimeout)

	settings := cfg.Settings()

	channels := notify.Channels{}
	if cfg.SMTPHost != "" {
		channels.Email = &notify.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Log:      log.With(slog.String("component", "smtp")),
		}
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		channels.SMS = &notify.TwilioSender{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
			Log:        log.With(slog.String("component", "twilio")),
		}
	}

	svc := booking.NewService(gateway, channels, settings, log.With(slog.String("component", "booking")))

	var reminderSrv *worker.Server
	if cfg.RedisAddr != "" {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}

		scheduler := worker.NewScheduler(redisOpt, cfg.ReminderLead, settings.Location(), log.With(slog.String("component", "reminder-scheduler")))
		defer func() {
			if err := scheduler.Close(); err != nil {
				log.Warn("reminder scheduler close failed", slog.Any("err", err))
			}
		}()
		svc.UseReminderScheduler(scheduler)

		reminderSrv = worker.NewServer(redisOpt, svc, log.With(slog.String("component", "reminder-worker")))
		if err := reminderSrv.Start(); err != nil {
			log.Error("reminder worker start failed", slog.Any("err", err))
			os.Exit(1)
		}
		log.Info("reminder worker started", slog.String("redis_addr", cfg.RedisAddr), slog.Duration("lead", cfg.ReminderLead))
	}

	server := httptransport.NewServer(httptransport.Config{
		Addr:            cfg.HTTPAddr(),
		RequestTimeout:  cfg.HTTPRequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, svc, settings, log.With(slog.String("component", "http")))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", slog.Any("err", err))
	}
	if reminderSrv != nil {
		reminderSrv.Shutdown()
	}
	log.Info("stopped")
}

func openGateway(ctx context.Context, cfg config.Config, log *slog.Logger) (calendar.Gateway, func(), error) {
	switch cfg.CalendarBackend {
	case config.BackendGoogle:
		gw, err := calendar.NewGoogleGateway(ctx, cfg.GoogleCalendarID, cfg.GoogleCredentialsFile, cfg.Settings().Location().String())
		if err != nil {
			return nil, nil, err
		}
		return gw, func() {}, nil

	case config.BackendPostgres:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		db, err := calendarpg.Open(ctx, cfg.DatabaseURL, calendarpg.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}
		return calendarpg.NewGateway(db), cleanup, nil

	default:
		log.Warn("running with offline calendar, bookings are not persisted")
		return calendar.NewOfflineGateway(nil), func() {}, nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
