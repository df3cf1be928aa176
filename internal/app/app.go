// Package app wires configuration, content, scripting, storage and the
// game loop into a runnable simulation.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/config"
	"github.com/cory-johannsen/rpgworld/internal/content"
	"github.com/cory-johannsen/rpgworld/internal/game/dice"
	"github.com/cory-johannsen/rpgworld/internal/game/session"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
	"github.com/cory-johannsen/rpgworld/internal/scripting"
	"github.com/cory-johannsen/rpgworld/internal/server"
	"github.com/cory-johannsen/rpgworld/internal/storage"
	"github.com/cory-johannsen/rpgworld/internal/storage/backend"
)

// shutdownSaveTimeout bounds the final save after the loop stops.
const shutdownSaveTimeout = 10 * time.Second

// App is a loaded simulation ready to run.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	scripts *scripting.Manager
	lib     *content.Library
	sess    *session.Session
	store   storage.Store
	loop    *session.Loop
	roller  *dice.Roller
	period  session.TimePeriod
}

// Option configures New.
type Option func(*options)

type options struct {
	store  storage.Store
	roller *dice.Roller
}

// WithStore uses s instead of opening the configured backend.
func WithStore(s storage.Store) Option { return func(o *options) { o.store = s } }

// WithRoller sets the dice roller used by scripts and initiative.
func WithRoller(r *dice.Roller) Option { return func(o *options) { o.roller = r } }

// New loads content and scripts, opens the save store, builds the session
// and restores the configured save slot when it holds a save.
//
// Precondition: cfg has passed Validate.
// Postcondition: Returns a ready App or a non-nil error; the caller must Close the App.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.roller == nil {
		o.roller = dice.NewRoller(dice.NewCryptoSource(), logger.Named("dice"))
	}
	a := &App{cfg: cfg, logger: logger, roller: o.roller}
	a.scripts = scripting.NewManager(cfg.Scripting.InstructionLimit, o.roller, logger.Named("scripting"))
	if cfg.Scripting.Dir != "" {
		if err := a.scripts.LoadDir(cfg.Scripting.Dir); err != nil {
			a.scripts.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
	}

	lib, err := content.Load(cfg.Game.ContentDir,
		content.WithScripts(a.scripts),
		content.WithStatOptions(stats.WithClamped(cfg.Game.ClampedAttributes...)),
		content.WithLogger(logger.Named("content")),
	)
	if err != nil {
		a.scripts.Close()
		return nil, err
	}
	a.lib = lib
	if a.sess, err = lib.NewSession(cfg.Game.StartHour, cfg.Game.HourLength); err != nil {
		a.scripts.Close()
		return nil, fmt.Errorf("building session: %w", err)
	}

	a.store = o.store
	if a.store == nil {
		if a.store, err = backend.Open(ctx, cfg.Storage, logger.Named("storage")); err != nil {
			a.scripts.Close()
			return nil, err
		}
	}
	if err := a.restore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if cfg.Game.AutosaveInterval > 0 {
		a.scheduleAutosave()
	}

	a.period = a.sess.Clock().Hour().Period()
	a.loop = session.NewLoop(cfg.Game.TickRate, session.Hooks{
		Update: a.sess.Update,
		Render: a.render,
	}, logger.Named("loop"))
	return a, nil
}

func (a *App) restore(ctx context.Context) error {
	slot := a.cfg.Game.SaveSlot
	if slot == "" {
		return nil
	}
	snap, err := a.store.Load(ctx, slot)
	if errors.Is(err, storage.ErrSlotNotFound) {
		a.logger.Info("no save found, starting new game", zap.String("slot", slot))
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading save: %w", err)
	}
	if err := a.sess.Restore(snap, a.lib, a.lib.StatOptions()...); err != nil {
		return fmt.Errorf("restoring save %q: %w", slot, err)
	}
	return nil
}

func (a *App) scheduleAutosave() {
	a.sess.Schedule("autosave", a.cfg.Game.AutosaveInterval, func() error {
		defer a.scheduleAutosave()
		_, err := a.Save(context.Background())
		return err
	})
}

// render announces time-of-day changes.
func (a *App) render() error {
	hour := a.sess.Clock().Hour()
	if p := hour.Period(); p != a.period {
		a.period = p
		a.logger.Info("time of day", zap.String("period", string(p)), zap.Stringer("hour", hour))
	}
	return nil
}

// Session returns the running session.
func (a *App) Session() *session.Session { return a.sess }

// Library returns the loaded content.
func (a *App) Library() *content.Library { return a.lib }

// Loop returns the game loop.
func (a *App) Loop() *session.Loop { return a.loop }

// Store returns the save store.
func (a *App) Store() storage.Store { return a.store }

// Save writes the session to the configured slot.
//
// Precondition: the loop is not running on another goroutine, or Save is
// called from a loop hook or scheduled action.
func (a *App) Save(ctx context.Context) (storage.SlotInfo, error) {
	slot := a.cfg.Game.SaveSlot
	if slot == "" {
		return storage.SlotInfo{}, errors.New("app: no save slot configured")
	}
	info, err := a.store.Save(ctx, slot, a.sess.Snapshot())
	if err != nil {
		return storage.SlotInfo{}, err
	}
	a.logger.Info("game saved",
		zap.String("slot", info.Slot),
		zap.String("id", info.ID),
		zap.Duration("game_time", info.GameTime),
	)
	return info, nil
}

// Run drives the game loop until SIGINT, SIGTERM, ctx cancellation or
// Loop().Stop, then saves to the configured slot.
func (a *App) Run(ctx context.Context) error {
	lc := server.NewLifecycle(a.logger.Named("lifecycle"))
	loopCtx := context.WithoutCancel(ctx)
	lc.Add("game-loop", &server.FuncService{
		StartFn: func() error { return a.loop.Run(loopCtx) },
		StopFn:  a.loop.Stop,
	})
	runErr := lc.Run(ctx)

	if a.cfg.Game.SaveSlot == "" {
		return runErr
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownSaveTimeout)
	defer cancel()
	_, saveErr := a.Save(saveCtx)
	return errors.Join(runErr, saveErr)
}

// Close releases the store and the script VM.
func (a *App) Close() error {
	a.scripts.Close()
	return a.store.Close()
}
