// Package app wires configuration, storage and the Telegram runtime into the post scheduler bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m3rciful/postbot/core/bootstrap"
	coreconfig "github.com/m3rciful/postbot/core/config"
	"github.com/m3rciful/postbot/core/logger"
	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/router"
	tgsender "github.com/m3rciful/postbot/core/telegram/sender"
	"github.com/m3rciful/postbot/internal/bot"
	"github.com/m3rciful/postbot/internal/journal"
	"github.com/m3rciful/postbot/internal/metrics"
	"github.com/m3rciful/postbot/internal/scheduler"
	"github.com/m3rciful/postbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// App owns the long-lived components of the bot.
type App struct {
	cfg  *Config
	boot *bootstrap.Result

	// newBot defaults to tg.NewBot; tests swap in an offline bot.
	newBot func(*coreconfig.Config) (*tele.Bot, error)
	// clock defaults to the system clock.
	clock scheduler.Clock

	registry *prometheus.Registry
	metrics  *metrics.Metrics
	server   *metrics.Server
	recorder *journal.Recorder
	sched    *scheduler.Scheduler
	engine   *wizard.Engine
	handlers *bot.Handlers

	stopSweeper context.CancelFunc
	sweeperDone chan struct{}
}

// New prepares an App; boot may be nil when no infrastructure was initialized.
func New(cfg *Config, boot *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if boot == nil {
		boot = &bootstrap.Result{}
	}
	return &App{
		cfg:    cfg,
		boot:   boot,
		newBot: tg.NewBot,
		clock:  scheduler.SystemClock{},
	}, nil
}

// TelegramRunOptions builds the bot and every component that talks to it.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := &a.cfg.Config
	b, err := a.newBot(core)
	if err != nil {
		return tg.RunOptions{}, err
	}
	if err := a.wire(b); err != nil {
		return tg.RunOptions{}, err
	}

	reg := tg.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.handlers, reg, router.TextOptions{})...)

	return tg.RunOptions{
		Config:   core,
		Registry: reg,
		Bot:      b,
		DispatcherOptions: tgsender.Options{
			MaxRetries: 2,
			OnResult:   a.metrics.ObserveSend,
		},
		Middlewares: tg.DefaultMiddlewares(core, tg.MiddlewareHooks{OnUpdate: a.metrics.ObserveUpdate}),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

// wire builds scheduler, journal, metrics and the wizard around api.
func (a *App) wire(api helpers.Sender) error {
	s := a.cfg.Scheduler

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.MustNewMetrics(a.registry)

	messenger := bot.NewMessenger(api)
	observers := []scheduler.Observer{a.metrics}
	if a.boot.DB != nil {
		rec, err := journal.NewRecorder(journal.NewPostgresStore(a.boot.DB), journal.Options{})
		if err != nil {
			return fmt.Errorf("app: journal: %w", err)
		}
		a.recorder = rec
		observers = append(observers, rec)
	}
	if s.NotifyOrigin {
		observers = append(observers, wizard.OriginNotifier{Messenger: messenger})
	}

	sched, err := scheduler.New(scheduler.Options{
		Deliverer:      bot.NewChannel(api, s.Recipient()),
		Clock:          a.clock,
		Observers:      observers,
		DeliverTimeout: s.DeliverTimeout,
	})
	if err != nil {
		return fmt.Errorf("app: scheduler: %w", err)
	}
	a.sched = sched

	engine, err := wizard.New(wizard.Options{
		Messenger:   messenger,
		Directory:   bot.NewAllowList(s.AllowedUsers...),
		Scheduler:   sched,
		Location:    s.Location(),
		Now:         a.clock.Now,
		TTL:         s.WizardTTL,
		RecheckAuth: s.RecheckAuth,
		OnTransition: func(from, to wizard.Step) {
			a.metrics.ObserveTransition(string(from), string(to))
		},
	})
	if err != nil {
		return fmt.Errorf("app: wizard: %w", err)
	}
	a.engine = engine

	a.handlers = &bot.Handlers{
		Engine:   engine,
		Stats:    sched,
		Location: s.Location(),
	}
	if a.recorder != nil {
		a.handlers.Journal = a.recorder
	}

	logger.LogEvent(context.Background(), logger.App, slog.LevelInfo, "app.wire",
		slog.String("status", "ok"),
		slog.String("channel", string(s.Recipient())),
		slog.String("timezone", s.Timezone),
		slog.Int("allowed_users", len(s.AllowedUsers)),
		slog.Bool("journal", a.recorder != nil),
		slog.Bool("notify_origin", s.NotifyOrigin),
	)
	return nil
}

func (a *App) start(ctx context.Context, rt tg.Runtime) error {
	if rt.Dispatcher != nil {
		a.handlers.Outbox = rt.Dispatcher
	}
	if listen := a.cfg.Metrics.Listen; listen != "" {
		srv, err := metrics.Listen(listen, a.registry)
		if err != nil {
			return fmt.Errorf("app: metrics listen: %w", err)
		}
		a.server = srv
	}

	if ttl := a.cfg.Scheduler.WizardTTL; ttl > 0 {
		sweepCtx, cancel := context.WithCancel(ctx)
		a.stopSweeper = cancel
		a.sweeperDone = make(chan struct{})
		go a.sweep(sweepCtx, sweepInterval(ttl))
	}
	return nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/2, time.Minute)
}

func (a *App) sweep(ctx context.Context, every time.Duration) {
	defer close(a.sweeperDone)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.engine.Sweep(ctx)
		}
	}
}

// stop drops pending posts, drains the journal and releases infrastructure.
func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	if a.stopSweeper != nil {
		a.stopSweeper()
		<-a.sweeperDone
	}

	pending := a.sched.Pending()
	var errs []error
	if err := a.sched.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.recorder != nil {
		if err := a.recorder.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("journal close: %w", err))
		}
	}
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
	}
	if err := a.boot.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}

	err := errors.Join(errs...)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logger.LogEvent(ctx, logger.App, slog.LevelInfo, "app.stop",
		slog.String("status", status),
		slog.Int("count", pending),
	)
	return err
}
