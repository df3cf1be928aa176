// Package content loads game definitions from a YAML content tree and
// builds live game objects from them.
//
// Layout under the content root:
//
//	world.yaml     the world and its locations
//	spells/        SpellDef files
//	items/         inventory.ItemDef files
//	characters/    CharacterDef files
//	quests/        QuestDef files
//	events/        EventDef files
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/ability"
	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/inventory"
	"github.com/cory-johannsen/rpgworld/internal/game/quest"
	"github.com/cory-johannsen/rpgworld/internal/game/session"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
	"github.com/cory-johannsen/rpgworld/internal/game/world"
)

var _ character.Catalog = (*Library)(nil)

// ErrUnknownDefinition is returned when a definition ID is not loaded.
var ErrUnknownDefinition = errors.New("unknown definition")

// Scripts resolves scripted formulas and triggers.
type Scripts interface {
	formula.ScriptResolver
	event.ScriptResolver
}

// Library holds every loaded definition. It implements character.Catalog.
type Library struct {
	world      []byte
	spells     map[string]*SpellDef
	items      *inventory.Registry
	characters []*CharacterDef
	quests     []*QuestDef
	events     []*EventDef

	scripts  Scripts
	statOpts []stats.Option
	logger   *zap.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithScripts sets the resolver for scripted formulas and triggers.
func WithScripts(s Scripts) Option { return func(l *Library) { l.scripts = s } }

// WithStatOptions sets the options applied to every character's stat table.
func WithStatOptions(opts ...stats.Option) Option {
	return func(l *Library) { l.statOpts = append(l.statOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Load reads the content tree rooted at dir. Every definition is built
// once so that missing scripts and bad references fail here, not mid-game.
//
// Precondition: dir is a readable directory containing world.yaml.
// Postcondition: returns a fully validated Library or a non-nil error.
func Load(dir string, opts ...Option) (*Library, error) {
	l := &Library{spells: make(map[string]*SpellDef), items: inventory.NewRegistry(), logger: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}

	var err error
	if l.world, err = os.ReadFile(filepath.Join(dir, "world.yaml")); err != nil {
		return nil, fmt.Errorf("content: reading world: %w", err)
	}
	spells, err := loadDir[SpellDef](filepath.Join(dir, "spells"))
	if err != nil {
		return nil, fmt.Errorf("content: spells: %w", err)
	}
	for _, s := range spells {
		if _, dup := l.spells[s.Name]; dup {
			return nil, fmt.Errorf("content: spell %q defined twice", s.Name)
		}
		l.spells[s.Name] = s
	}
	items, err := loadItems(filepath.Join(dir, "items"))
	if err != nil {
		return nil, fmt.Errorf("content: items: %w", err)
	}
	for _, it := range items {
		if err := l.items.RegisterItem(it); err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
	}
	if l.characters, err = loadDir[CharacterDef](filepath.Join(dir, "characters")); err != nil {
		return nil, fmt.Errorf("content: characters: %w", err)
	}
	if l.quests, err = loadDir[QuestDef](filepath.Join(dir, "quests")); err != nil {
		return nil, fmt.Errorf("content: quests: %w", err)
	}
	if l.events, err = loadDir[EventDef](filepath.Join(dir, "events")); err != nil {
		return nil, fmt.Errorf("content: events: %w", err)
	}

	if err := l.check(); err != nil {
		return nil, err
	}
	l.logger.Info("content loaded",
		zap.String("dir", dir),
		zap.Int("spells", len(l.spells)),
		zap.Int("items", len(items)),
		zap.Int("characters", len(l.characters)),
		zap.Int("quests", len(l.quests)),
		zap.Int("events", len(l.events)),
	)
	return l, nil
}

func loadItems(dir string) ([]*inventory.ItemDef, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return inventory.LoadItems(dir)
}

// check builds everything once.
func (l *Library) check() error {
	var errs []error
	if _, err := l.World(); err != nil {
		errs = append(errs, err)
	}
	for name := range l.spells {
		if _, err := l.NewSpell(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, def := range l.items.AllItems() {
		if _, err := def.Instantiate(l.Resolver()); err != nil {
			errs = append(errs, fmt.Errorf("item %q: %w", def.ID, err))
		}
	}
	for _, def := range l.characters {
		if _, err := l.NewCharacter(def.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := l.Quests(); err != nil {
		errs = append(errs, err)
	}
	if _, err := l.Events(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}

// Resolver implements character.Catalog.
func (l *Library) Resolver() formula.ScriptResolver {
	if l.scripts == nil {
		return nil
	}
	return l.scripts
}

func (l *Library) triggerResolver() event.ScriptResolver {
	if l.scripts == nil {
		return nil
	}
	return l.scripts
}

// ItemRegistry implements character.Catalog.
func (l *Library) ItemRegistry() *inventory.Registry { return l.items }

// StatOptions returns the options applied to character stat tables.
func (l *Library) StatOptions() []stats.Option { return append([]stats.Option(nil), l.statOpts...) }

// SpellNames returns every spell name, sorted.
func (l *Library) SpellNames() []string {
	out := make([]string, 0, len(l.spells))
	for name := range l.spells {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewSpell implements character.Catalog.
func (l *Library) NewSpell(name string) (*ability.Ability, error) {
	def, ok := l.spells[name]
	if !ok {
		return nil, fmt.Errorf("spell %q: %w", name, ErrUnknownDefinition)
	}
	effects, err := effect.BuildAll(def.Effects, l.Resolver())
	if err != nil {
		return nil, fmt.Errorf("spell %q: %w", name, err)
	}
	spell, err := ability.NewSpell(def.Name, def.ManaCost, def.Cooldown, effects, l.logger.Named("ability"))
	if err != nil {
		return nil, fmt.Errorf("spell %q: %w", name, err)
	}
	if len(def.Attributes) == 0 {
		return spell, nil
	}
	attrs := spell.Attributes()
	for k, v := range def.Attributes {
		attrs[k] = v
	}
	return ability.New(def.Name, attrs, effects, l.logger.Named("ability"))
}

// SpellTarget returns the side the named spell is aimed at: TargetEnemy or TargetAlly.
func (l *Library) SpellTarget(name string) (string, error) {
	def, ok := l.spells[name]
	if !ok {
		return "", fmt.Errorf("spell %q: %w", name, ErrUnknownDefinition)
	}
	if def.Target == "" {
		return TargetEnemy, nil
	}
	return def.Target, nil
}

// CharacterIDs returns the IDs of every character definition in load order.
func (l *Library) CharacterIDs() []string {
	out := make([]string, 0, len(l.characters))
	for _, d := range l.characters {
		out = append(out, d.ID)
	}
	return out
}

// NewCharacter builds the character defined with id: stats, spells,
// inventory and equipped items.
func (l *Library) NewCharacter(id string) (*character.Character, error) {
	var def *CharacterDef
	for _, d := range l.characters {
		if d.ID == id {
			def = d
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("character %q: %w", id, ErrUnknownDefinition)
	}
	c, err := character.New(def.ID, def.Name, stats.New(def.Stats, l.statOpts...), l.logger.Named("character"))
	if err != nil {
		return nil, err
	}
	for _, name := range def.Spells {
		spell, err := l.NewSpell(name)
		if err != nil {
			return nil, fmt.Errorf("character %q: %w", id, err)
		}
		c.LearnSpell(spell)
	}
	for _, itemID := range def.Items {
		if err := l.give(c, itemID); err != nil {
			return nil, fmt.Errorf("character %q: %w", id, err)
		}
	}
	for _, itemID := range def.Equip {
		itemDef, ok := l.items.Item(itemID)
		if !ok {
			return nil, fmt.Errorf("character %q: item %q: %w", id, itemID, ErrUnknownDefinition)
		}
		if err := l.give(c, itemID); err != nil {
			return nil, fmt.Errorf("character %q: %w", id, err)
		}
		if itemDef.Kind != inventory.KindEquipment {
			return nil, fmt.Errorf("character %q: item %q is not equipment", id, itemID)
		}
		if err := c.Inventory().Use(itemDef.Name, c); err != nil {
			return nil, fmt.Errorf("character %q: equipping %q: %w", id, itemID, err)
		}
	}
	return c, nil
}

func (l *Library) give(c *character.Character, itemID string) error {
	it, err := l.items.New(itemID, l.Resolver())
	if errors.Is(err, inventory.ErrUnknownItem) {
		return fmt.Errorf("item %q: %w", itemID, ErrUnknownDefinition)
	}
	if err != nil {
		return err
	}
	c.Inventory().Add(it)
	return nil
}

// World builds a fresh World.
func (l *Library) World() (*world.World, error) {
	w, err := world.LoadFromBytes(l.world, l.logger.Named("world"))
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	return w, nil
}

// Quests builds a fresh quest manager holding every quest.
func (l *Library) Quests() (*quest.Manager, error) {
	m := quest.NewManager(l.logger.Named("quest"))
	for _, def := range l.quests {
		q, err := quest.NewQuest(def.ID, def.Name, def.Description, def.Rewards, l.logger.Named("quest"))
		if err != nil {
			return nil, err
		}
		for _, od := range def.Objectives {
			triggers, err := event.BuildTriggers(od.Triggers, l.triggerResolver())
			if err != nil {
				return nil, fmt.Errorf("quest %q objective %q: %w", def.ID, od.Name, err)
			}
			o, err := quest.NewObjective(od.Name, od.Description, triggers, l.logger.Named("event"))
			if err != nil {
				return nil, fmt.Errorf("quest %q: %w", def.ID, err)
			}
			q.AddObjective(o)
		}
		m.Add(q)
	}
	return m, nil
}

// Events builds a fresh world event manager holding every event.
func (l *Library) Events() (*event.Manager, error) {
	m := event.NewManager("world", "World events", "")
	logger := l.logger.Named("event")
	for _, def := range l.events {
		triggers, err := event.BuildTriggers(def.Triggers, l.triggerResolver())
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", def.Name, err)
		}
		var e *event.Event
		switch def.Action {
		case ActionHeal:
			e, err = event.NewHealEvent(def.Name, def.Character, triggers, logger)
		case ActionModify:
			e, err = event.New(def.Name, def.Description, triggers, modifyAction(def.Character, def.Attribute, def.Amount), logger)
		default:
			e, err = event.New(def.Name, def.Description, triggers, nil, logger)
		}
		if err != nil {
			return nil, err
		}
		m.Add(e)
	}
	return m, nil
}

func modifyAction(characterID, attribute string, amount float64) event.Action {
	return func(st event.State) error {
		c, err := st.Character(characterID)
		if err != nil {
			return err
		}
		c.Stats().Modify(attribute, amount)
		return nil
	}
}

// NewSession builds a session holding the world, every defined character,
// quest and event.
//
// Precondition: hourLength > 0.
func (l *Library) NewSession(startHour int, hourLength time.Duration) (*session.Session, error) {
	w, err := l.World()
	if err != nil {
		return nil, err
	}
	quests, err := l.Quests()
	if err != nil {
		return nil, err
	}
	events, err := l.Events()
	if err != nil {
		return nil, err
	}
	st := session.NewState(w, quests, l.logger.Named("state"))
	sess := session.New(st, events, session.NewClock(startHour, hourLength), l.logger.Named("session"))
	for _, id := range l.CharacterIDs() {
		c, err := l.NewCharacter(id)
		if err != nil {
			return nil, err
		}
		if err := sess.AddCharacter(c); err != nil {
			return nil, err
		}
	}
	return sess, nil
}
