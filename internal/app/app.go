package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"tgchannel/internal/channel"
	"tgchannel/internal/config"
	"tgchannel/internal/eventbus"
	"tgchannel/internal/httpapi"
	"tgchannel/internal/metrics"
	"tgchannel/internal/runtime/supervisor"
	"tgchannel/internal/schedule"
	"tgchannel/internal/storage"
	"tgchannel/internal/telegram"
	logx "tgchannel/pkg/logx"
)

const (
	defaultRatePerSec = 25
	defaultTimeout    = 10 * time.Second
	defaultHTTPAddr   = "127.0.0.1:8087"

	recorderMaxRestarts = 10
)

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	client   *telegram.BotClient
	channel  *channel.Channel
	metrics  *metrics.Metrics
	recorder *storage.Recorder
	sched    *schedule.Scheduler
	api      *httpapi.Server
	httpSrv  *http.Server
}

// New loads the config at cfgPath ("" means environment only) and wires
// every component. Nothing runs until Start or Run.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return schedule.Validate(cfg)
	})
	cfg, err := cfgm.Load(context.Background())
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.NewService(logConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	clientCfg, err := mapClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	if clientCfg.Token == "" {
		log.Warn("telegram.token is empty; only messages carrying their own token can be sent")
	}

	bus := eventbus.New()

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Debug("storage enabled", logx.String("driver", sc.Driver))
	}

	m := metrics.New()
	client := telegram.NewBotClient(clientCfg)
	ch := channel.New(client, channel.NewBusReporter(bus),
		channel.WithLogger(log.With(logx.String("comp", "channel"))),
		channel.WithObserver(m),
	)

	rec := storage.NewRecorder(store, bus, log.With(logx.String("comp", "recorder")))
	rec.OnStored(m.FailureStored)

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		bus:      bus,
		store:    store,
		client:   client,
		channel:  ch,
		metrics:  m,
		recorder: rec,
		sched:    schedule.New(ch, log.With(logx.String("comp", "scheduler"))),
		api:      httpapi.New(ch, store, m, log.With(logx.String("comp", "http")), apiOptions(cfg)),
	}, nil
}

func (a *App) Config() *config.Config         { return a.cfgm.Get() }
func (a *App) Channel() *channel.Channel      { return a.channel }
func (a *App) Store() storage.Store           { return a.store }
func (a *App) Logger() logx.Logger            { return a.log }
func (a *App) Scheduler() *schedule.Scheduler { return a.sched }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Send dispatches a notice to chatID, falling back to telegram.default_chat_id.
func (a *App) Send(ctx context.Context, chatID string, n channel.Notice) (map[string]any, error) {
	cfg := a.cfgm.Get()
	if strings.TrimSpace(chatID) == "" {
		chatID = cfg.Telegram.DefaultChatID
	}
	if n.ChunkSize == 0 {
		n.ChunkSize = cfg.Telegram.ChunkSize
	}
	return a.channel.Send(ctx, channel.To(chatID), n)
}

// Run executes fn with failure recording active, for one-shot commands.
func (a *App) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	a.startCore(ctx)
	runErr := fn(a.sup.Context())

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := errors.Join(runErr, a.shutdown(stopCtx))
	_ = a.logs.Close()
	return err
}

func (a *App) startCore(ctx context.Context) {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.sup.GoRestart("failures.recorder", a.recorder.Run, supervisor.WithMaxRestarts(recorderMaxRestarts))
}

// Start runs the long-lived service: failure recording, config hot reload,
// schedules and the HTTP API.
func (a *App) Start(ctx context.Context) error {
	a.startCore(ctx)
	cfg := a.cfgm.Get()

	if err := a.applySchedules(cfg); err != nil {
		return err
	}
	a.sched.Start()

	if hc := cfg.HTTP; hc != nil && hc.Enabled {
		srv, err := a.newHTTPServer(hc)
		if err != nil {
			return err
		}
		a.httpSrv = srv
		a.sup.Go("http.serve", func(context.Context) error {
			a.log.Info("http api listening", logx.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// Optional: log events for observability/debug.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}
	a.log.Info("app started", logx.Int("schedules", len(a.sched.Names())))
	return nil
}

func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	for _, s := range []string{"telegram", "storage", "http"} {
		if slices.Contains(sections, s) && restartRequired(s, oldCfg, newCfg) {
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}

	a.logs.Apply(logConfig(newCfg))
	a.api.SetOptions(apiOptions(newCfg))
	if err := a.applySchedules(newCfg); err != nil {
		a.log.Warn("invalid schedules; keeping previous", logx.Err(err))
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigReloaded, Data: newCfg})
}

// restartRequired reports whether a section changed in a way that cannot be
// applied live. default_chat_id and chunk_size reload; the client does not.
func restartRequired(section string, oldCfg, newCfg *config.Config) bool {
	switch section {
	case "telegram":
		o, n := oldCfg.Telegram, newCfg.Telegram
		o.DefaultChatID, n.DefaultChatID = "", ""
		o.ChunkSize, n.ChunkSize = 0, 0
		return o != n
	case "http":
		o, n := oldCfg.HTTP, newCfg.HTTP
		if o == nil || n == nil {
			return o != n
		}
		oc, nc := *o, *n
		oc.Token, nc.Token = "", ""
		return oc != nc
	default:
		return true
	}
}

func (a *App) applySchedules(cfg *config.Config) error {
	jobs, err := schedule.JobsFromConfig(cfg.Schedules, cfg.Telegram.DefaultChatID, cfg.Telegram.ChunkSize)
	if err != nil {
		return err
	}
	return a.sched.Apply(jobs)
}

func (a *App) newHTTPServer(hc *config.HTTPConfig) (*http.Server, error) {
	rt, err := config.DurationOr("http.read_timeout", hc.ReadTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	wt, err := config.DurationOr("http.write_timeout", hc.WriteTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	addr := strings.TrimSpace(hc.Addr)
	if addr == "" {
		addr = defaultHTTPAddr
	}
	return a.api.NewHTTPServer(addr, rt, wt), nil
}

// Stop shuts components down in order. Every step is bounded so one
// component can't stall the whole stop.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		a.log.Debug("systemd notify failed", logx.Err(err))
	}

	a.step(ctx, "http", 3*time.Second, func(c context.Context) error {
		if a.httpSrv == nil {
			return nil
		}
		return a.httpSrv.Shutdown(c)
	})
	a.step(ctx, "scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	err := a.shutdown(ctx)
	a.log.Info("stopped")
	_ = a.logs.Close()
	return err
}

// shutdown stops supervised loops and closes storage. It returns the first
// fatal error seen by the supervisor.
func (a *App) shutdown(ctx context.Context) error {
	a.step(ctx, "supervisor", 2*time.Second, a.sup.Stop)
	if c := a.sup.Counters(); c.Active > 0 {
		a.log.Warn("goroutines still running after stop", logx.Int64("active", c.Active), logx.Any("started", c.Started))
	}
	a.recorder.Close()
	a.step(ctx, "storage", time.Second, func(context.Context) error {
		if a.store == nil {
			return nil
		}
		return a.store.Close()
	})
	return a.sup.Err()
}

func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	// respect the caller's deadline; never extend it
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}
