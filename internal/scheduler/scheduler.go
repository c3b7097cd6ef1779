// Package scheduler drives correlation cycles on a fixed period.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/services"
)

const pingTimeout = 5 * time.Second

// Cycler runs one unit of work per tick.
type Cycler interface {
	RunCycle(ctx context.Context) (*services.CycleResult, error)
}

// PingFunc checks that the store is reachable.
type PingFunc func(ctx context.Context) error

// Scheduler runs the cycler every interval. Ticks never overlap: a tick that
// fires while the previous one is still running is skipped.
type Scheduler struct {
	Cron *cron.Cron

	cycler   Cycler
	ping     PingFunc
	interval time.Duration
	backoff  time.Duration
	sleep    func(time.Duration)
}

// New builds a scheduler. ping may be nil when the store needs no reconnect handling.
func New(cycler Cycler, ping PingFunc, interval, backoff time.Duration) *Scheduler {
	cronLog := cron.PrintfLogger(logger.Component("scheduler"))
	s := &Scheduler{
		Cron:     cron.New(cron.WithLogger(cronLog)),
		cycler:   cycler,
		ping:     ping,
		interval: interval,
		backoff:  backoff,
		sleep:    time.Sleep,
	}
	// Recover sits inside SkipIfStillRunning so a panicking tick still returns the run token.
	job := cron.NewChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog)).Then(cron.FuncJob(s.tick))
	s.Cron.Schedule(&startupSchedule{delay: interval}, job)
	return s
}

// Start runs the first tick immediately and then every interval.
func (s *Scheduler) Start() {
	logger.Component("scheduler").WithField("interval", s.interval.String()).Info("starting correlation scheduler")
	s.Cron.Start()
}

// Stop halts scheduling and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Component("scheduler").Info("correlation scheduler stopped")
}

func (s *Scheduler) tick() {
	log := logger.Component("scheduler")
	ctx := context.Background()

	res, err := s.cycler.RunCycle(ctx)
	if err != nil {
		log.WithError(err).Error("correlation cycle failed")
		if s.ping != nil && database.IsConnectionError(err) {
			s.reconnect(ctx)
		}
		return
	}
	if res != nil && res.Outcome == metrics.OutcomeIdle {
		log.Debug("no new critical events")
	}
}

// reconnect verifies the store, retrying once after the backoff. database/sql
// re-dials pooled connections, so a successful ping restores the handle.
func (s *Scheduler) reconnect(ctx context.Context) {
	log := logger.Component("scheduler")

	err := s.pingOnce(ctx)
	if err == nil {
		log.Info("store reachable, continuing on next tick")
		return
	}
	log.WithError(err).WithField("backoff", s.backoff.String()).Warn("store unreachable, retrying")

	s.sleep(s.backoff)
	if err = s.pingOnce(ctx); err != nil {
		log.WithError(err).Error("store still unreachable, will retry on next tick")
		return
	}
	log.Info("store connection re-established")
}

func (s *Scheduler) pingOnce(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.ping(pctx)
}

// startupSchedule fires once at start and then every delay after each activation.
// cron calls Next from its run goroutine only.
type startupSchedule struct {
	delay time.Duration
	fired bool
}

func (s *startupSchedule) Next(t time.Time) time.Time {
	if !s.fired {
		s.fired = true
		return t
	}
	return t.Add(s.delay)
}
