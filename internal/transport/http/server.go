package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"firesafety_reminders/internal/config"
	"firesafety_reminders/internal/database"
	"firesafety_reminders/internal/handler"
	"firesafety_reminders/internal/logger"
	"firesafety_reminders/internal/metrics"
	"firesafety_reminders/internal/queue"
	"firesafety_reminders/internal/redis"
	"firesafety_reminders/internal/repository"
	"firesafety_reminders/internal/scheduler"
	"firesafety_reminders/internal/service"
	"firesafety_reminders/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "firesafety-reminders",
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	// 3. Wire channels and services
	m := metrics.New()
	subs := repository.NewPushSubscriptionRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	push := service.NewPushSender(cfg.VAPID, cfg.Push, log)
	email := service.NewEmailSender(cfg.SMTP, nil, log)
	dispatcher := service.NewDispatcher(subs, push, m, log)
	notifService := service.NewNotificationService(subs, dispatcher, push, log)

	log.Info("Delivery channels",
		zap.Bool("email", email.IsConfigured()),
		zap.Bool("push", push.IsConfigured()),
	)

	// 4. Reminder scheduler
	loc, err := cfg.Reminder.Location()
	if err != nil {
		return err
	}
	clock := clockwork.NewRealClock()
	reminders := scheduler.NewReminderScheduler(reminderRepo, email, dispatcher, clock, m, log, scheduler.ReminderOptions{
		Location:            loc,
		Concurrency:         cfg.Reminder.Concurrency,
		DashboardURL:        cfg.FrontendURL,
		InspectionSchedule:  cfg.Reminder.InspectionSchedule,
		MaintenanceSchedule: cfg.Reminder.MaintenanceSchedule,
	})
	engine := scheduler.NewScheduler(clock, loc, log)
	if err := reminders.Register(engine); err != nil {
		return fmt.Errorf("failed to register reminder jobs: %w", err)
	}
	engine.Start(ctx)
	defer engine.Stop()

	for _, job := range []string{"inspection-reminders", "maintenance-reminders"} {
		if next, ok := engine.Next(job); ok {
			log.Info("Reminder job scheduled", zap.String("job", job), zap.Time("next_run", next))
		}
	}

	// 5. Alerts stream (optional)
	var publisher queue.Publisher
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			return err
		}

		publisher = queue.NewPublisher(rdb.Client, log)
		workers := worker.NewManager(
			queue.NewConsumer(rdb.Client, log),
			worker.NewHandler(dispatcher, log),
			worker.ManagerConfig{WorkerCount: cfg.AlertWorkerCount},
			log,
		)
		if err := workers.Start(ctx); err != nil {
			return fmt.Errorf("failed to start alert workers: %w", err)
		}
		defer workers.Stop()
	} else {
		log.Warn("REDIS_URL not set, alerts stream disabled")
	}

	// 6. Setup Server
	router := NewRouter(RouterConfig{
		NotificationHandler: handler.NewNotificationHandler(notifService, log),
		ReminderHandler:     handler.NewReminderHandler(reminders, log),
		AlertHandler:        handler.NewAlertHandler(publisher, log),
		MetricsHandler:      m.Handler(),
		Logger:              log,
		JWTSecret:           cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	// deferred: workers.Stop, engine.Stop, rdb.Close, db.Close
	log.Info("Server stopped")
	return nil
}
