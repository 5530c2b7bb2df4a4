package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"tgchannel/internal/channel"
	"tgchannel/internal/config"
	logx "tgchannel/pkg/logx"

	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = 30 * time.Second

// Dispatcher is the part of *channel.Channel the scheduler needs.
type Dispatcher interface {
	Send(ctx context.Context, to channel.Notifiable, n channel.Notification) (map[string]any, error)
}

// Job is one scheduled notice.
type Job struct {
	Name   string
	Spec   ParsedSpec
	Notice channel.Notice
}

type Scheduler struct {
	dispatch Dispatcher
	log      logx.Logger
	parser   cron.Parser
	timeout  time.Duration

	mu      sync.Mutex
	c       *cron.Cron
	jobs    []Job
	entries map[string]cron.EntryID
}

func New(d Dispatcher, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		dispatch: d,
		log:      log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser:  newParser(),
		timeout: defaultJobTimeout,
		entries: map[string]cron.EntryID{},
	}
}

func newParser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// JobsFromConfig converts config entries to jobs, skipping disabled ones.
// defaultChatID and chunkSize fill in what an entry leaves empty.
func JobsFromConfig(cfgs []config.ScheduleConfig, defaultChatID string, chunkSize int) ([]Job, error) {
	parser := newParser()
	jobs := make([]Job, 0, len(cfgs))
	var errs []error
	for _, c := range cfgs {
		if c.Disabled {
			continue
		}
		spec, err := ParseSchedule(c.Spec)
		if err == nil {
			_, err = parser.Parse(spec.CronSpec())
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %q: %w", c.Name, err))
			continue
		}
		chatID := strings.TrimSpace(c.ChatID)
		if chatID == "" {
			chatID = strings.TrimSpace(defaultChatID)
		}
		if chatID == "" {
			errs = append(errs, fmt.Errorf("schedule %q: chat_id required (no telegram.default_chat_id)", c.Name))
			continue
		}
		jobs = append(jobs, Job{
			Name: c.Name,
			Spec: spec,
			Notice: channel.Notice{
				Text:      c.Text,
				ChatID:    chatID,
				ParseMode: c.ParseMode,
				Token:     c.Token,
				Silent:    c.Silent,
				ChunkSize: chunkSize,
			},
		})
	}
	return jobs, errors.Join(errs...)
}

// Validate checks schedule entries the way Apply would see them.
func Validate(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	_, err := JobsFromConfig(cfg.Schedules, cfg.Telegram.DefaultChatID, cfg.Telegram.ChunkSize)
	return err
}

// Apply replaces the scheduled set. Jobs may be applied before Start.
func (s *Scheduler) Apply(jobs []Job) error {
	for _, j := range jobs {
		if _, err := s.parser.Parse(j.Spec.CronSpec()); err != nil {
			return fmt.Errorf("schedule %q: %w", j.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = slices.Clone(jobs)
	if s.c == nil {
		return nil
	}
	s.registerLocked()
	return nil
}

func (s *Scheduler) registerLocked() {
	for name, id := range s.entries {
		s.c.Remove(id)
		delete(s.entries, name)
	}
	for _, j := range s.jobs {
		j := j
		id, err := s.c.AddFunc(j.Spec.CronSpec(), func() { s.fire(j) })
		if err != nil {
			s.log.Error("schedule register failed", logx.String("name", j.Name), logx.Err(err))
			continue
		}
		s.entries[j.Name] = id
		s.log.Debug("schedule registered",
			logx.String("name", j.Name),
			logx.String("spec", j.Spec.CronSpec()),
		)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.c = cron.New(cron.WithParser(s.parser))
	s.registerLocked()
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("schedules", len(s.jobs)))
}

// Stop halts triggering and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	clear(s.entries)
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// Names lists the applied schedules.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Name)
	}
	return out
}

// RunNow dispatches the named schedule immediately.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.jobs, func(j Job) bool { return j.Name == name })
	var j Job
	if idx >= 0 {
		j = s.jobs[idx]
	}
	s.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("schedule %q not found", name)
	}
	return s.run(ctx, j)
}

func (s *Scheduler) fire(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.run(ctx, j); err != nil {
		s.log.Warn("scheduled notice failed", logx.String("name", j.Name), logx.Err(err))
	}
}

func (s *Scheduler) run(ctx context.Context, j Job) error {
	start := time.Now()
	_, err := s.dispatch.Send(ctx, channel.To(j.Notice.ChatID), j.Notice)
	if err == nil {
		s.log.Debug("scheduled notice sent", logx.String("name", j.Name), logx.Duration("took", time.Since(start)))
	}
	return err
}
