package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
)

func TestLoop_StagesRunInOrderWithFixedStep(t *testing.T) {
	var calls []string
	var steps []time.Duration
	var loop *session.Loop
	loop = session.NewLoop(time.Millisecond, session.Hooks{
		Input:  func(context.Context) error { calls = append(calls, "input"); return nil },
		Update: func(dt time.Duration) error { calls = append(calls, "update"); steps = append(steps, dt); return nil },
		Render: func() error {
			calls = append(calls, "render")
			if len(steps) == 3 {
				loop.Stop()
			}
			return nil
		},
	}, nil)

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 3, loop.Frames())
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, steps)
	assert.Equal(t, []string{"input", "update", "render"}, calls[:3])
}

func TestLoop_StopLogReportsFrames(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var loop *session.Loop
	loop = session.NewLoop(time.Millisecond, session.Hooks{
		Render: func() error {
			if loop.Frames() >= 2 {
				loop.Stop()
			}
			return nil
		},
	}, zap.New(core))
	require.NoError(t, loop.Run(context.Background()))

	stopped := logs.FilterMessage("loop stopped").All()
	require.Len(t, stopped, 1)
	assert.Equal(t, int64(loop.Frames()), stopped[0].ContextMap()["frames"])
	assert.Positive(t, loop.Frames())
}

func TestLoop_ErrStopEndsCleanly(t *testing.T) {
	loop := session.NewLoop(time.Millisecond, session.Hooks{
		Input: func(context.Context) error { return session.ErrStop },
	}, nil)
	assert.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 0, loop.Frames())
}

func TestLoop_HookErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := 0
	loop := session.NewLoop(time.Millisecond, session.Hooks{
		Update: func(time.Duration) error {
			n++
			if n == 2 {
				return session.ErrStop
			}
			return errors.New("transient")
		},
	}, zap.New(core))
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("frame stage failed").Len())
}

func TestLoop_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := session.NewLoop(time.Millisecond, session.Hooks{
		Update: func(time.Duration) error { cancel(); return nil },
	}, nil)
	assert.ErrorIs(t, loop.Run(ctx), context.Canceled)
	loop.Stop()
	loop.Stop()
}

func TestLoop_DrivesSession(t *testing.T) {
	f := newFixture(t)
	loop := session.NewLoop(10*time.Millisecond, session.SessionHooks(f.sess), nil)
	f.sess.Schedule("halt", 30*time.Millisecond, func() error { loop.Stop(); return nil })
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 30*time.Millisecond, f.sess.Now())
}

func TestNewLoop_PanicsOnZeroStep(t *testing.T) {
	assert.Panics(t, func() { session.NewLoop(0, session.Hooks{}, nil) })
}
