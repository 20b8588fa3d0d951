package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler runs the assemble+dispatch cycle for every active hackathon on a fixed interval.
type Scheduler struct {
	hackathons HackathonLister
	assembler  *Assembler
	dispatcher *Dispatcher
	log        *zap.Logger
	now        func() time.Time

	tickMu sync.Mutex // serializes Tick between the loop and manual runs

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(hackathons HackathonLister, assembler *Assembler, dispatcher *Dispatcher, log *zap.Logger) *Scheduler {
	return &Scheduler{
		hackathons: hackathons,
		assembler:  assembler,
		dispatcher: dispatcher,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the background loop: one tick right away, then one per interval.
// Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		s.log.Warn("reminder scheduler already running")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go s.run(ctx, interval, done)
	s.log.Info("reminder scheduler started", zap.Duration("interval", interval))
}

// Stop cancels the loop and waits until it has fully returned. No tick runs after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
	s.log.Info("reminder scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

func (s *Scheduler) runningLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	s.Tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one cycle over all active hackathons and returns the aggregate counts.
// Failures are logged per hackathon and never escape. Concurrent calls run one after another.
func (s *Scheduler) Tick(ctx context.Context) Stats {
	var total Stats
	if ctx.Err() != nil {
		return total
	}

	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	log := s.log.With(zap.String("tick_id", uuid.NewString()))
	now := s.now()

	hackathons, err := s.hackathons.ListActive(ctx)
	if err != nil {
		log.Error("list active hackathons failed", zap.Error(err))
		return total
	}

	for _, h := range hackathons {
		if ctx.Err() != nil {
			break
		}
		st, err := s.cycle(ctx, h, now)
		if err != nil {
			log.Error("reminder cycle failed", zap.Uint64("hackathon_id", h.ID), zap.Error(err))
			continue
		}
		total.Add(st)
	}

	log.Info("reminder tick finished",
		zap.Int("hackathons", len(hackathons)),
		zap.Int("sent", total.Sent),
		zap.Int("failed", total.Failed),
	)
	return total
}

func (s *Scheduler) cycle(ctx context.Context, h Hackathon, now time.Time) (st Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	piles, err := s.assembler.Assemble(ctx, h.ID, now)
	if err != nil {
		return st, err
	}
	if len(piles) == 0 {
		return st, nil
	}
	return s.dispatcher.Dispatch(ctx, piles), nil
}
