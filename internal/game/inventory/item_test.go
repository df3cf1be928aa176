package inventory_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/inventory"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
	"pgregory.net/rapid"
)

type wearer struct {
	stats *stats.Table
}

func (w *wearer) ID() string          { return "wearer" }
func (w *wearer) Name() string        { return "Wearer" }
func (w *wearer) Stats() *stats.Table { return w.stats }

func newWearer() *wearer {
	return &wearer{stats: stats.NewCharacter(100, 50, 40, 5, nil)}
}

func TestItemDef_Validate_RejectsEmptyID(t *testing.T) {
	d := &inventory.ItemDef{Name: "Potion", Kind: inventory.KindConsumable}
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for empty ID, got nil")
	}
}

func TestItemDef_Validate_RejectsInvalidKind(t *testing.T) {
	d := &inventory.ItemDef{ID: "p", Name: "Potion", Kind: "junk"}
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for invalid Kind, got nil")
	}
}

func TestItemDef_Validate_RejectsEffectWithoutAttribute(t *testing.T) {
	d := &inventory.ItemDef{
		ID: "p", Name: "Potion", Kind: inventory.KindConsumable,
		Effects: []effect.Spec{{Formula: formula.Spec{Kind: formula.KindFixed, Value: 1}}},
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for empty effect attribute, got nil")
	}
}

func TestNewEquipment_RejectsUnstableFormula(t *testing.T) {
	e := effect.Spec{Attribute: stats.Armor, Formula: formula.Spec{Kind: formula.KindTargetDerived}}
	_, err := inventory.NewEquipment("Cursed Plate", "", 10, []effect.Spec{e}, nil)
	if !errors.Is(err, inventory.ErrUnstableFormula) {
		t.Fatalf("expected ErrUnstableFormula, got %v", err)
	}
}

func TestEquipment_UseTogglesSymmetrically(t *testing.T) {
	w := newWearer()
	plate, err := inventory.NewEquipment("Plate", "heavy", 40, []effect.Spec{
		{Attribute: stats.Armor, Formula: formula.Spec{Kind: formula.KindFixed, Value: 20}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	consumed, err := plate.Use(w)
	if err != nil || consumed {
		t.Fatalf("Use: consumed=%v err=%v", consumed, err)
	}
	if !plate.Equipped() || w.Stats().Value(stats.Armor) != 25 {
		t.Fatalf("after equip: equipped=%v armor=%v", plate.Equipped(), w.Stats().Value(stats.Armor))
	}

	if _, err := plate.Use(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plate.Equipped() || w.Stats().Value(stats.Armor) != 5 {
		t.Fatalf("after unequip: equipped=%v armor=%v", plate.Equipped(), w.Stats().Value(stats.Armor))
	}
}

func TestEquipment_DoubleEquipRejected(t *testing.T) {
	w := newWearer()
	ring, _ := inventory.NewEquipment("Ring", "", 5, []effect.Spec{
		{Attribute: stats.Focus, Formula: formula.Spec{Kind: formula.KindFixed, Value: 3}},
	}, nil)
	if err := ring.Equip(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ring.Equip(w); !errors.Is(err, inventory.ErrAlreadyEquipped) {
		t.Fatalf("expected ErrAlreadyEquipped, got %v", err)
	}
	if err := ring.Unequip(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ring.Unequip(w); !errors.Is(err, inventory.ErrNotEquipped) {
		t.Fatalf("expected ErrNotEquipped, got %v", err)
	}
}

func TestConsumable_LimitedHealDoesNotOverheal(t *testing.T) {
	w := newWearer()
	w.Stats().Modify(stats.Health, -10)
	potion, err := inventory.NewConsumable("Potion", "", 5, []effect.Spec{
		{Attribute: stats.Health, Formula: formula.Spec{Kind: formula.KindFixedLimited, Value: 50}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	consumed, err := potion.Use(w)
	if err != nil || !consumed {
		t.Fatalf("Use: consumed=%v err=%v", consumed, err)
	}
	if got := w.Stats().Value(stats.Health); got != 100 {
		t.Fatalf("health = %v, want 100", got)
	}
}

func TestItemDef_Instantiate(t *testing.T) {
	d := &inventory.ItemDef{
		ID: "elixir", Name: "Elixir", Kind: inventory.KindConsumable, Value: 12,
		Effects: []effect.Spec{{Attribute: stats.Mana, Formula: formula.Spec{Kind: formula.KindFixedLimited, Value: 30}}},
	}
	a, err := d.Instantiate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := d.Instantiate(nil)
	if a.InstanceID == "" || a.InstanceID == b.InstanceID {
		t.Fatalf("instance IDs must be unique and non-empty: %q %q", a.InstanceID, b.InstanceID)
	}
	if a.DefID != "elixir" || len(a.Effects()) != 1 {
		t.Fatalf("unexpected instance: %+v", a)
	}
}

func TestLoadItems_ReadsYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	content := `id: small_potion
name: Small Potion
description: Restores a little health.
kind: consumable
value: 5
effects:
  - attribute: health
    formula:
      kind: fixed_limited
      value: 25
`
	if err := os.WriteFile(filepath.Join(dir, "small_potion.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}

	items, err := inventory.LoadItems(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.ID != "small_potion" || got.Effects[0].Formula.Kind != formula.KindFixedLimited || got.Effects[0].Formula.Value != 25 {
		t.Fatalf("unexpected item: %+v", got)
	}
}

func TestLoadItems_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nname: X\nkind: weapon\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := inventory.LoadItems(dir); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

// TestEquipment_EquipUnequipRestoresStats_Property verifies that equip then
// unequip of stable equipment leaves every stat unchanged.
func TestEquipment_EquipUnequipRestoresStats_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		delta := rapid.IntRange(-50, 50).Draw(rt, "delta")
		attr := rapid.SampledFrom([]string{stats.Armor, "strength", "speed"}).Draw(rt, "attr")
		w := newWearer()
		before := w.Stats().Value(attr)
		item, err := inventory.NewEquipment("Gear", "", 1, []effect.Spec{
			{Attribute: attr, Formula: formula.Spec{Kind: formula.KindFixed, Value: float64(delta)}},
		}, nil)
		if err != nil {
			rt.Fatal(err)
		}
		if err := item.Equip(w); err != nil {
			rt.Fatal(err)
		}
		if err := item.Unequip(w); err != nil {
			rt.Fatal(err)
		}
		if got := w.Stats().Value(attr); got != before {
			rt.Fatalf("%s: got %v, want %v", attr, got, before)
		}
	})
}
