package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/content"
	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/combat"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// woundedThreshold is the health fraction below which ally spells are cast.
const woundedThreshold = 0.5

// Battle runs a battle between the named characters. Turn order is rolled
// as 1d20 plus the configured initiative attribute. Before each turn the
// session advances by game.turn_length, then act decides the turn; a nil
// act uses AutoAct.
//
// Postcondition: on nil error the outcome is decided; a battle still
// undecided after game.max_battle_turns returns combat.ErrTurnLimit.
func (a *App) Battle(ctx context.Context, players, enemies []string, act combat.ActFunc) (combat.Outcome, error) {
	if act == nil {
		act = a.AutoAct
	}
	turn := func(ctx context.Context, actor combat.Combatant, b *combat.BattleManager) error {
		if err := a.sess.Update(a.cfg.Game.TurnLength); err != nil {
			return err
		}
		return act(ctx, actor, b)
	}
	order := combat.NewInitiativeOrder(a.cfg.Game.InitiativeAttribute, a.roller)
	return a.sess.Battle(ctx, players, enemies, order, turn, a.cfg.Game.MaxBattleTurns)
}

// AutoAct is a combat.ActFunc that casts the actor's first ready spell in
// name order: enemy spells at the living opponent with the least health,
// ally spells at the most wounded living ally under half health. An actor
// with nothing to cast passes.
func (a *App) AutoAct(ctx context.Context, actor combat.Combatant, b *combat.BattleManager) error {
	caster, ok := actor.(*character.Character)
	if !ok || !caster.IsAlive() {
		return nil
	}
	for _, name := range caster.SpellNames() {
		side, err := a.lib.SpellTarget(name)
		if err != nil {
			return err
		}
		var target *character.Character
		if side == content.TargetAlly {
			target = mostWounded(b.Allies(actor))
		} else {
			target = weakest(b.Opponents(actor))
		}
		if target == nil {
			continue
		}
		cast, err := caster.CastSpell(name, target, a.sess.Now())
		if err != nil {
			return fmt.Errorf("auto act: %w", err)
		}
		if cast {
			a.logger.Debug("auto act",
				zap.String("actor", caster.ID()),
				zap.String("spell", name),
				zap.String("target", target.ID()),
			)
			return nil
		}
	}
	a.logger.Debug("auto act: pass", zap.String("actor", caster.ID()))
	return nil
}

func weakest(cs []combat.Combatant) *character.Character {
	var best *character.Character
	for _, c := range cs {
		ch, ok := c.(*character.Character)
		if !ok {
			continue
		}
		if best == nil || ch.Stats().Value(stats.Health) < best.Stats().Value(stats.Health) {
			best = ch
		}
	}
	return best
}

func mostWounded(cs []combat.Combatant) *character.Character {
	var (
		best     *character.Character
		bestFrac = woundedThreshold
	)
	for _, c := range cs {
		ch, ok := c.(*character.Character)
		if !ok {
			continue
		}
		ceiling := ch.Stats().Value(stats.MaxPrefix + stats.Health)
		if ceiling <= 0 {
			continue
		}
		if frac := ch.Stats().Value(stats.Health) / ceiling; frac < bestFrac {
			best, bestFrac = ch, frac
		}
	}
	return best
}
