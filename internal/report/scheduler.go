package report

import (
	"context"
	"log"
	"sync"
	"time"
)

// buildTimeout caps one build-and-dispatch cycle.
const buildTimeout = 30 * time.Second

// Scheduler fires the daily report at a configured hour and supports
// manual triggering.
type Scheduler struct {
	builder    *Builder
	dispatcher Dispatcher
	hour       int

	triggerCh chan time.Time
	stopCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler that dispatches the previous day's
// report at the given hour (0-23, UTC) each day.
func NewScheduler(builder *Builder, dispatcher Dispatcher, hour int) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 8
	}
	return &Scheduler{
		builder:    builder,
		dispatcher: dispatcher,
		hour:       hour,
		triggerCh:  make(chan time.Time, 4),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the scheduling loop. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
}

// Stop halts the scheduling loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Trigger requests an immediate report for the given day. Non-blocking;
// the request is dropped if the queue is full.
func (s *Scheduler) Trigger(day time.Time) {
	select {
	case s.triggerCh <- day:
	default:
	}
}

func (s *Scheduler) loop() {
	timer := time.NewTimer(untilNextFire(time.Now().UTC(), s.hour))
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			// Scheduled fire covers yesterday.
			s.runOnce(time.Now().UTC().AddDate(0, 0, -1))
			timer.Reset(untilNextFire(time.Now().UTC(), s.hour))
		case day := <-s.triggerCh:
			s.runOnce(day)
		}
	}
}

func (s *Scheduler) runOnce(day time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	r, err := s.builder.Build(ctx, day)
	if err != nil {
		log.Printf("building daily report: %v", err)
		return
	}
	if err := s.dispatcher.Dispatch(ctx, r); err != nil {
		log.Printf("dispatching daily report: %v", err)
	}
}

// untilNextFire computes the wait until the next occurrence of hour:00.
func untilNextFire(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
