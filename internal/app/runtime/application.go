// Package runtime wires configuration, stores, the notification engine and
// the HTTP server into one application lifecycle.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Integral-ind/integral-backend/internal/app/cache"
	"github.com/Integral-ind/integral-backend/internal/app/httpapi"
	"github.com/Integral-ind/integral-backend/internal/app/services/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/services/chat"
	"github.com/Integral-ind/integral-backend/internal/app/services/notes"
	"github.com/Integral-ind/integral-backend/internal/app/services/notifications"
	"github.com/Integral-ind/integral-backend/internal/app/services/tasks"
	"github.com/Integral-ind/integral-backend/internal/app/services/teams"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
	pgstore "github.com/Integral-ind/integral-backend/internal/app/storage/postgres"
	sbstore "github.com/Integral-ind/integral-backend/internal/app/storage/supabase"
	"github.com/Integral-ind/integral-backend/internal/app/system"
	"github.com/Integral-ind/integral-backend/internal/config"
	platform "github.com/Integral-ind/integral-backend/internal/platform/supabase"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Version is stamped at build time.
var Version = "dev"

// dueSoonWindow is how far ahead the task reminder scan looks.
const dueSoonWindow = 24 * time.Hour

// Application wires the backend's dependencies and manages their lifecycle.
type Application struct {
	cfg      *config.Config
	log      *logger.Logger
	server   *http.Server
	cron     *cron.Cron
	cache    *cache.Cache
	realtime *platform.RealtimeClient
	notifier *notifications.Service
	tasksSvc *tasks.Service
	calSvc   *calendar.Service
	closeFns []func() error
}

// NewApplication constructs the application from environment configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	app := &Application{cfg: cfg, log: log}

	// Platform client with retry and circuit breaking on every request.
	transport := platform.NewResilientTransport(nil,
		platform.DefaultRetryConfig(), platform.DefaultCircuitBreakerConfig())
	apiKey := cfg.Supabase.ServiceKey
	if apiKey == "" {
		apiKey = cfg.Supabase.AnonKey
	}
	client, err := platform.New(platform.Config{
		URL:    cfg.Supabase.URL,
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout:   cfg.Supabase.Timeout,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("platform client: %w", err)
	}

	// Notification-owned tables live in Postgres when a DSN is set;
	// otherwise everything runs in memory (tests, local development).
	var (
		notifStore storage.NotificationStore
		prefStore  storage.PreferenceStore
		subStore   storage.PushSubscriptionStore
		emailStore storage.EmailQueueStore
	)
	mem := memory.New()
	notifStore, prefStore, subStore, emailStore = mem, mem, mem, mem
	if cfg.Database.DSN != "" {
		db, err := pgstore.Connect(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		app.closeFns = append(app.closeFns, db.Close)
		if cfg.Database.MigrateOnStart {
			if err := pgstore.Migrate(db); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pg := pgstore.New(db)
		notifStore, prefStore, subStore, emailStore = pg, pg, pg, pg
	}

	// Entity rows stay in the platform's tables.
	entities := sbstore.New(client)

	appCache, err := cache.New(cfg.Redis, log)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, running without cache")
	} else if appCache != nil {
		app.cache = appCache
		app.closeFns = append(app.closeFns, appCache.Close)
	}

	app.realtime = platform.NewRealtimeClient(cfg.Supabase.URL, apiKey)

	app.notifier = notifications.New(
		notifStore, prefStore, subStore, emailStore,
		notifications.NewHTTPPushSender(cfg.Notifications.PushTimeout),
		notifications.NewSMTPEmailSender(cfg.SMTP),
		cfg.Notifications,
		notifications.Options{
			Broadcaster: app.realtime,
			Directory:   sbstore.NewDirectory(client),
			Cache:       app.cache,
			Logger:      log.WithField("component", "notifications"),
		},
	)

	app.tasksSvc = tasks.New(entities, app.notifier, log.WithField("component", "tasks"))
	app.calSvc = calendar.New(entities, app.notifier, log.WithField("component", "calendar"))

	services := httpapi.Services{
		Notifications: app.notifier,
		Tasks:         app.tasksSvc,
		Teams:         teams.New(entities, app.notifier, log.WithField("component", "teams")),
		Chat:          chat.New(entities, app.notifier, log.WithField("component", "chat")),
		Calendar:      app.calSvc,
		Notes:         notes.New(entities, app.notifier, log.WithField("component", "notes")),
		System:        system.NewMonitor(Version),
		Users:         client.Auth(),
	}

	router := httpapi.NewRouter(services, httpapi.Config{
		JWTSecret:       cfg.Supabase.JWTSecret,
		AllowedOrigins:  strings.Split(cfg.Server.AllowedOrigins, ","),
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
	}, log)

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := app.scheduleJobs(); err != nil {
		return nil, err
	}
	return app, nil
}

// scheduleJobs registers the background jobs: the email queue drain, the
// calendar reminder scan and the task due-soon scan.
func (a *Application) scheduleJobs() error {
	c := cron.New()

	_, err := c.AddFunc(a.cfg.Notifications.EmailDrainSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if sent, err := a.notifier.Emails().Drain(ctx); err != nil {
			a.log.WithError(err).Error("email drain failed")
		} else if sent > 0 {
			a.log.WithField("sent", sent).Info("email queue drained")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule email drain: %w", err)
	}

	_, err = c.AddFunc(a.cfg.Notifications.ReminderSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		now := time.Now().UTC()
		if fired, err := a.calSvc.ScanReminders(ctx, now); err != nil {
			a.log.WithError(err).Error("reminder scan failed")
		} else if fired > 0 {
			a.log.WithField("fired", fired).Info("event reminders sent")
		}
		if notified, err := a.tasksSvc.ScanDueSoon(ctx, now, dueSoonWindow); err != nil {
			a.log.WithError(err).Error("due-soon scan failed")
		} else if notified > 0 {
			a.log.WithField("notified", notified).Info("due-soon reminders sent")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder scan: %w", err)
	}

	a.cron = c
	return nil
}

// Run starts the application and blocks until ctx is cancelled or the
// server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.realtime.Connect(ctx); err != nil {
		a.log.WithError(err).Warn("realtime channel unavailable, broadcasts disabled")
	}
	a.cron.Start()

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.server.Addr).Info("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown()
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}
}

// Shutdown stops background jobs, drains the HTTP server and closes every
// held resource.
func (a *Application) Shutdown() error {
	a.log.Info("shutting down")

	cronCtx := a.cron.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.WithError(err).Warn("http server shutdown")
	}

	a.realtime.Disconnect()
	for _, closeFn := range a.closeFns {
		if err := closeFn(); err != nil {
			a.log.WithError(err).Warn("close resource")
		}
	}
	return nil
}
