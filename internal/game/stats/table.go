// Package stats provides the per-character attribute table with max-value clamping.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// MaxPrefix is prepended to an attribute name to form its ceiling entry.
const MaxPrefix = "max_"

// Common attribute names.
const (
	Health = "health"
	Mana   = "mana"
	Focus  = "focus"
	Armor  = "armor"
)

// DefaultClamped lists the attributes clamped to [0, max_<attr>] when no
// explicit set is configured.
var DefaultClamped = []string{Health, Mana, Focus}

// Reader is a read-only view of a Table. Formulas and triggers receive
// Readers so they cannot mutate the entity they inspect.
type Reader interface {
	// Get returns the value of name and whether it is present.
	Get(name string) (float64, bool)
}

// Table maps attribute names to numeric values.
// It is not safe for concurrent use; the caller must serialise access.
type Table struct {
	values  map[string]float64
	clamped map[string]struct{}
	logger  *zap.Logger
}

// Option configures a Table at construction.
type Option func(*Table)

// WithClamped replaces the clamped attribute set.
func WithClamped(attrs ...string) Option {
	return func(t *Table) {
		t.clamped = make(map[string]struct{}, len(attrs))
		for _, a := range attrs {
			t.clamped[a] = struct{}{}
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Table seeded with initial values.
//
// Postcondition: Get(k) == initial[k] for every key; the clamped set is
// DefaultClamped unless WithClamped is given.
func New(initial map[string]float64, opts ...Option) *Table {
	t := &Table{
		values: make(map[string]float64, len(initial)),
		logger: zap.NewNop(),
	}
	WithClamped(DefaultClamped...)(t)
	for _, o := range opts {
		o(t)
	}
	for k, v := range initial {
		t.values[k] = v
	}
	return t
}

// NewCharacter creates a Table in the usual character shape: every clamped
// attribute starts full, with its max_ entry equal to the starting value.
//
// Postcondition: Get("max_health") == health, and likewise for mana and focus.
func NewCharacter(health, mana, focus, armor float64, extra map[string]float64, opts ...Option) *Table {
	initial := map[string]float64{
		Health:             health,
		MaxPrefix + Health: health,
		Mana:               mana,
		MaxPrefix + Mana:   mana,
		Focus:              focus,
		MaxPrefix + Focus:  focus,
		Armor:              armor,
	}
	for k, v := range extra {
		initial[k] = v
	}
	return New(initial, opts...)
}

// Get returns the value of name. A missing attribute reports (0, false).
func (t *Table) Get(name string) (float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Value returns the value of name, or 0 when absent.
func (t *Table) Value(name string) float64 {
	return t.values[name]
}

// Set overwrites name with value without clamping.
//
// Postcondition: Get(name) == (value, true).
func (t *Table) Set(name string, value float64) {
	t.values[name] = value
}

// IsClamped reports whether name is kept within [0, max_<name>].
func (t *Table) IsClamped(name string) bool {
	_, ok := t.clamped[name]
	return ok
}

// Bounds returns the [min, max] range for a clamped attribute. ok is false
// when the attribute is not clamped or has no max_ entry.
func (t *Table) Bounds(name string) (lo, hi float64, ok bool) {
	if !t.IsClamped(name) {
		return 0, 0, false
	}
	hi, ok = t.values[MaxPrefix+name]
	return 0, hi, ok
}

// Modify adds delta to name and returns the value actually stored.
// A missing attribute counts as 0 and is created. Clamped attributes are
// bounded to [0, max_<name>]; without a max_ entry the ceiling is the
// unclamped result.
//
// Postcondition: for a clamped attribute with a max_ entry,
// 0 <= Get(name) <= Get(max_<name>).
func (t *Table) Modify(name string, delta float64) float64 {
	before := t.values[name]
	next := before + delta
	if t.IsClamped(name) {
		ceiling := next
		if m, ok := t.values[MaxPrefix+name]; ok {
			ceiling = m
		}
		next = clamp(next, 0, ceiling)
	}
	t.values[name] = next
	t.logger.Debug("stat modified",
		zap.String("attribute", name),
		zap.Float64("delta", delta),
		zap.Float64("before", before),
		zap.Float64("after", next),
	)
	return next
}

// IsAlive reports whether health is above zero.
func (t *Table) IsAlive() bool {
	return t.values[Health] > 0
}

// Names returns all attribute names in sorted order.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.values))
	for k := range t.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of every attribute.
func (t *Table) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Restore replaces every attribute with the snapshot contents.
//
// Postcondition: Snapshot() equals snap.
func (t *Table) Restore(snap map[string]float64) {
	t.values = make(map[string]float64, len(snap))
	for k, v := range snap {
		t.values[k] = v
	}
}

// String lists attributes in sorted order.
func (t *Table) String() string {
	parts := make([]string, 0, len(t.values))
	for _, k := range t.Names() {
		parts = append(parts, fmt.Sprintf("%s: %g", k, t.values[k]))
	}
	return "Stats(" + strings.Join(parts, ", ") + ")"
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
