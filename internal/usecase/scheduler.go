package usecase

import (
	"context"
	"time"

	"skybox-manifest/pkg/logger"
	"skybox-manifest/pkg/metrics"
	"skybox-manifest/pkg/solar"
)

// Phase names the cadence the scheduler picked
type Phase string

const (
	PhaseDaytime    Phase = "daytime"
	PhaseNight      Phase = "night"
	PhaseNightBoost Phase = "night-boost"
)

// SchedulePolicy holds the polling intervals
type SchedulePolicy struct {
	Active      time.Duration
	Boost       time.Duration
	Night       time.Duration
	BoostWindow time.Duration
}

// DefaultSchedulePolicy polls every 2.5 minutes by day and every 30 minutes
// at night, boosted back to 2.5 minutes for 30 minutes after activity.
func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		Active:      150 * time.Second,
		Boost:       150 * time.Second,
		Night:       30 * time.Minute,
		BoostWindow: 30 * time.Minute,
	}
}

// Delay picks the wait before the next poll. sinceActivity is ignored when
// everActive is false.
func (p SchedulePolicy) Delay(daytime bool, sinceActivity time.Duration, everActive bool) (time.Duration, Phase) {
	if daytime {
		return p.Active, PhaseDaytime
	}
	if everActive && sinceActivity < p.BoostWindow {
		return p.Boost, PhaseNightBoost
	}
	return p.Night, PhaseNight
}

// CycleRunner runs one ingestion cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// SchedulerOptions locates the drop zone for the daylight window
type SchedulerOptions struct {
	Location  *time.Location
	Latitude  float64
	Longitude float64
}

// Scheduler repeats ingestion cycles on a daylight and activity aware cadence
type Scheduler struct {
	runner         CycleRunner
	policy         SchedulePolicy
	loc            *time.Location
	lat            float64
	lon            float64
	lastActivityAt time.Time
	now            func() time.Time
	after          func(time.Duration) <-chan time.Time
	done           chan struct{}
	logger         logger.Logger
	metrics        *metrics.Metrics
}

// NewScheduler creates a new scheduler
func NewScheduler(runner CycleRunner, policy SchedulePolicy, opts SchedulerOptions, logger logger.Logger, metrics *metrics.Metrics) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		runner:  runner,
		policy:  policy,
		loc:     loc,
		lat:     opts.Latitude,
		lon:     opts.Longitude,
		now:     time.Now,
		after:   time.After,
		logger:  logger,
		metrics: metrics,
	}
}

// Next records activity if found and returns the delay before the next poll
func (s *Scheduler) Next(found bool) (time.Duration, Phase, solar.Window) {
	now := s.now().In(s.loc)
	if found {
		s.lastActivityAt = now
	}

	window := solar.Compute(now, s.lat, s.lon, s.loc)
	everActive := !s.lastActivityAt.IsZero()
	var since time.Duration
	if everActive {
		since = now.Sub(s.lastActivityAt)
	}

	delay, phase := s.policy.Delay(window.Contains(now), since, everActive)
	return delay, phase, window
}

// RunOnce runs one cycle to completion, even if ctx is cancelled meanwhile,
// and returns the delay before the next one.
func (s *Scheduler) RunOnce(ctx context.Context) time.Duration {
	result, err := s.runner.RunCycle(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("Ingestion cycle failed", "error", err)
	}

	delay, phase, window := s.Next(result.FoundActivity())
	if s.metrics != nil {
		s.metrics.NextDelay.Reset()
		s.metrics.NextDelay.WithLabelValues(string(phase)).Set(delay.Seconds())
	}
	s.logger.Info("Next poll scheduled",
		"phase", phase,
		"delay", delay.String(),
		"daylight", window.String(),
		"foundActivity", result.FoundActivity())
	return delay
}

// Run polls until ctx is cancelled. Cancellation is only observed between
// cycles.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started",
		"timezone", s.loc.String(),
		"daylight", solar.Compute(s.now(), s.lat, s.lon, s.loc).String(),
		"active", s.policy.Active.String(),
		"night", s.policy.Night.String(),
		"boost", s.policy.Boost.String(),
		"boostWindow", s.policy.BoostWindow.String())

	for {
		delay := s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-s.after(delay):
		}
	}
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start(ctx context.Context) {
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()
}

// Wait blocks until a started scheduler returns, at most timeout. It reports
// whether the scheduler stopped, which happens only after its current cycle.
func (s *Scheduler) Wait(timeout time.Duration) bool {
	if s.done == nil {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return true
	case <-timer.C:
		return false
	}
}
