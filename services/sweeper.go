package services

import (
	"log/slog"
	"time"
)

// Sweeper drives the periodic timeout scan. It owns the clock loop so the
// engine itself stays clock-free and deterministic under test.
type Sweeper struct {
	engine   *LivenessService
	timeout  time.Duration
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// NewSweeper creates a sweeper that runs engine.Sweep(timeout, now) every
// interval.
func NewSweeper(engine *LivenessService, timeout, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		engine:   engine,
		timeout:  timeout,
		interval: interval,
		logger:   logger.With("component", "sweeper"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine.
func (s *Sweeper) Start() {
	s.logger.Info("Sweeper started", "interval", s.interval.String(), "timeout", s.timeout.String())
	go s.run()
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			transitioned, err := s.engine.Sweep(s.timeout, now)
			if err != nil {
				s.logger.Error("Sweep failed", slog.Any("error", err))
				continue
			}
			if len(transitioned) > 0 {
				s.logger.Info("Sweep detected outages", "channels", transitioned)
			}
		}
	}
}

// Stop terminates the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info("Sweeper stopped")
}
