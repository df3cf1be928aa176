package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStop may be returned by any Loop hook to end the loop cleanly.
var ErrStop = errors.New("loop stopped")

// Hooks are the per-frame callbacks of a Loop. Nil hooks are skipped.
type Hooks struct {
	// Input collects input for the frame.
	Input func(ctx context.Context) error
	// Update advances the simulation by exactly one fixed step.
	Update func(dt time.Duration) error
	// Render presents the frame.
	Render func() error
}

// Loop runs Hooks at a fixed timestep: input, update, render, then wait
// for the next frame. Hook errors other than ErrStop are logged at Warn
// and the loop continues.
type Loop struct {
	step   time.Duration
	hooks  Hooks
	logger *zap.Logger

	mu     sync.Mutex
	done   chan struct{}
	once   sync.Once
	frames int
}

// NewLoop creates a stopped Loop.
//
// Precondition: step must be > 0.
func NewLoop(step time.Duration, hooks Hooks, logger *zap.Logger) *Loop {
	if step <= 0 {
		panic("session.NewLoop: step must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{step: step, hooks: hooks, logger: logger, done: make(chan struct{})}
}

// SessionHooks returns Hooks whose Update advances s.
func SessionHooks(s *Session) Hooks {
	return Hooks{Update: s.Update}
}

// Step returns the fixed timestep.
func (l *Loop) Step() time.Duration { return l.step }

// Frames returns the number of completed frames.
func (l *Loop) Frames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Stop ends the loop after the current frame. Stop is idempotent.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Run executes frames until ctx is cancelled, Stop is called, or a hook
// returns ErrStop.
//
// Postcondition: returns nil on Stop or ErrStop, ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.step)
	defer ticker.Stop()
	l.logger.Info("loop started", zap.Duration("step", l.step))
	defer func() { l.logger.Info("loop stopped", zap.Int("frames", l.Frames())) }()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		default:
		}
		if stop := l.frame(ctx); stop {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-ticker.C:
		}
	}
}

// frame runs one input-update-render pass and reports whether a hook
// asked to stop.
func (l *Loop) frame(ctx context.Context) bool {
	stages := []struct {
		name string
		fn   func() error
	}{
		{"input", func() error {
			if l.hooks.Input == nil {
				return nil
			}
			return l.hooks.Input(ctx)
		}},
		{"update", func() error {
			if l.hooks.Update == nil {
				return nil
			}
			return l.hooks.Update(l.step)
		}},
		{"render", func() error {
			if l.hooks.Render == nil {
				return nil
			}
			return l.hooks.Render()
		}},
	}
	for _, st := range stages {
		if err := st.fn(); err != nil {
			if errors.Is(err, ErrStop) {
				return true
			}
			l.logger.Warn("frame stage failed", zap.String("stage", st.name), zap.Error(err))
		}
	}
	l.mu.Lock()
	l.frames++
	l.mu.Unlock()
	return false
}
