package combat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Outcome is the state of a battle.
type Outcome int

const (
	// Ongoing means both sides have at least one living member.
	Ongoing Outcome = iota
	// PlayersWin means every enemy is dead.
	PlayersWin
	// EnemiesWin means every player is dead.
	EnemiesWin
)

func (o Outcome) String() string {
	switch o {
	case PlayersWin:
		return "players win"
	case EnemiesWin:
		return "enemies win"
	default:
		return "ongoing"
	}
}

// ErrBattleOver is returned by ExecuteTurn once the outcome is decided.
var ErrBattleOver = errors.New("battle is over")

// ErrTurnLimit is returned by Run when maxTurns elapse without an outcome.
var ErrTurnLimit = errors.New("battle turn limit reached")

// ActFunc performs one combatant's action. Action choice is the caller's.
type ActFunc func(ctx context.Context, actor Combatant, b *BattleManager) error

// BattleManager runs a battle between two parties over a TurnOrder.
// BattleManager is not safe for concurrent use.
type BattleManager struct {
	players []Combatant
	enemies []Combatant
	formula OrderFormula
	order   *TurnOrder
	turns   int
	logger  *zap.Logger
}

// NewBattleManager creates a BattleManager.
//
// Precondition: formula is non-nil.
func NewBattleManager(players, enemies []Combatant, formula OrderFormula, logger *zap.Logger) *BattleManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleManager{
		players: append([]Combatant(nil), players...),
		enemies: append([]Combatant(nil), enemies...),
		formula: formula,
		logger:  logger,
	}
}

// Start builds the turn order over players followed by enemies.
// Calling Start again restarts the turn order.
func (b *BattleManager) Start() {
	all := make([]Combatant, 0, len(b.players)+len(b.enemies))
	all = append(all, b.players...)
	all = append(all, b.enemies...)
	b.order = NewTurnOrder(all, b.formula, b.logger)
	b.turns = 0
	b.logger.Info("battle started",
		zap.Int("players", len(b.players)),
		zap.Int("enemies", len(b.enemies)),
	)
}

// Players returns the player party.
func (b *BattleManager) Players() []Combatant { return append([]Combatant(nil), b.players...) }

// Enemies returns the enemy party.
func (b *BattleManager) Enemies() []Combatant { return append([]Combatant(nil), b.enemies...) }

// Opponents returns the living members of the party opposing c.
func (b *BattleManager) Opponents(c Combatant) []Combatant {
	if contains(b.players, c.ID()) {
		return living(b.enemies)
	}
	return living(b.players)
}

// Allies returns the living members of c's party, including c.
func (b *BattleManager) Allies(c Combatant) []Combatant {
	if contains(b.players, c.ID()) {
		return living(b.players)
	}
	return living(b.enemies)
}

// Turns returns the number of executed turns.
func (b *BattleManager) Turns() int { return b.turns }

// Outcome reports whether either side has been wiped out. Enemies are
// checked first, so a simultaneous wipe is a player win.
func (b *BattleManager) Outcome() Outcome {
	if len(living(b.enemies)) == 0 {
		return PlayersWin
	}
	if len(living(b.players)) == 0 {
		return EnemiesWin
	}
	return Ongoing
}

// ExecuteTurn polls the turn order for the next living combatant and calls
// act for it. Dead combatants are skipped. The dead may close one round and
// open the next, so up to two rounds of participants are polled.
//
// Precondition: Start has been called.
// Postcondition: returns the actor, or ErrBattleOver when the outcome is decided.
func (b *BattleManager) ExecuteTurn(ctx context.Context, act ActFunc) (Combatant, error) {
	if b.order == nil {
		panic("combat: ExecuteTurn precondition violated: Start not called")
	}
	if o := b.Outcome(); o != Ongoing {
		return nil, fmt.Errorf("combat: %s: %w", o, ErrBattleOver)
	}
	polls := 2 * len(b.order.Participants())
	for i := 0; i < polls; i++ {
		actor, err := b.order.Next()
		if err != nil {
			return nil, err
		}
		if !actor.IsAlive() {
			b.logger.Debug("skipping dead combatant", zap.String("combatant", actor.ID()))
			continue
		}
		b.turns++
		if err := act(ctx, actor, b); err != nil {
			return actor, fmt.Errorf("combat: turn %d for %q: %w", b.turns, actor.ID(), err)
		}
		return actor, nil
	}
	return nil, fmt.Errorf("combat: no living combatant in two rounds: %w", ErrBattleOver)
}

// Run starts the battle and executes turns until an outcome, the context
// is cancelled, or maxTurns have run. maxTurns <= 0 means no limit.
//
// Postcondition: on nil error the returned Outcome is not Ongoing.
func (b *BattleManager) Run(ctx context.Context, act ActFunc, maxTurns int) (Outcome, error) {
	b.Start()
	for b.Outcome() == Ongoing {
		if err := ctx.Err(); err != nil {
			return Ongoing, err
		}
		if maxTurns > 0 && b.turns >= maxTurns {
			return Ongoing, fmt.Errorf("combat: after %d turns: %w", b.turns, ErrTurnLimit)
		}
		if _, err := b.ExecuteTurn(ctx, act); err != nil && !errors.Is(err, ErrBattleOver) {
			return Ongoing, err
		}
	}
	o := b.Outcome()
	b.logger.Info("battle finished", zap.Stringer("outcome", o), zap.Int("turns", b.turns))
	return o, nil
}

func living(cs []Combatant) []Combatant {
	var out []Combatant
	for _, c := range cs {
		if c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

func contains(cs []Combatant, id string) bool {
	for _, c := range cs {
		if c.ID() == id {
			return true
		}
	}
	return false
}
