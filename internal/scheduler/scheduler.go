package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Adda-Baaj/blog-digest/internal/logger"
)

// Job is one harvest run.
type Job func(ctx context.Context) error

// Scheduler fires a Job on a five field cron spec. A tick that arrives while
// the previous run is still going is skipped, so at most one run is active.
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	log     logger.Logger
	mu      sync.Mutex
	entryID cron.EntryID
}

// New creates a scheduler in the named timezone. An empty timezone means UTC.
func New(timezone string, log logger.Logger) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log}), cron.Recover(cronLogger{log})),
	)
	return &Scheduler{cron: c, loc: loc, log: log}, nil
}

// Location returns the timezone ticks are evaluated in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Schedule registers job under spec, replacing any previous job. Each run
// gets ctx as its parent.
func (s *Scheduler) Schedule(ctx context.Context, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	id, err := s.cron.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		started := time.Now()
		s.log.InfoObj("scheduled run started", "schedule_tick", map[string]any{"spec": spec})
		if err := job(ctx); err != nil {
			s.log.ErrorObj("scheduled run failed", "schedule_run_error", map[string]any{
				"spec":  spec,
				"error": err.Error(),
			})
			return
		}
		s.log.InfoObj("scheduled run finished", "schedule_run_done", map[string]any{
			"spec":     spec,
			"duration": time.Since(started).String(),
		})
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = id
	return nil
}

// Next returns the next activation time, or the zero time when nothing is
// scheduled or the scheduler is not started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Run starts the scheduler and blocks until ctx is done, then waits for an
// in-flight job to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.log.InfoObj("scheduler started", "scheduler_start", map[string]any{
		"timezone": s.loc.String(),
		"next":     s.Next().Format(time.RFC3339),
	})
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.InfoObj("scheduler stopped", "scheduler_stop", nil)
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.DebugObj(msg, "cron", kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := kv(keysAndValues)
	fields["error"] = err.Error()
	l.log.ErrorObj(msg, "cron_error", fields)
}

func kv(pairs []any) map[string]any {
	out := make(map[string]any, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out
}
