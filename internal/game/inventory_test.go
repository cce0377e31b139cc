package game

import (
	"testing"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
	"firefight/internal/protocol"
)

func TestInventoryStacks(t *testing.T) {
	inv := NewInventory(100)

	if got := inv.AddUnitsOfType("ammo_556", 80); got != 80 {
		t.Errorf("Expected 80 added, got %d", got)
	}
	if got := inv.AddUnitsOfType("ammo_556", 50); got != 20 {
		t.Errorf("Expected add capped at 20, got %d", got)
	}
	if got := inv.AddUnitsOfType("", 5); got != 0 {
		t.Errorf("Expected empty type refused, got %d", got)
	}

	stack, ok := inv.FindStackByType("ammo_556")
	if !ok || stack.Quantity != 100 {
		t.Fatalf("Expected stack of 100, got %+v", stack)
	}
	v := inv.Version()
	if got := inv.ConsumeUnits(stack, 30); got != 30 {
		t.Errorf("Expected 30 consumed, got %d", got)
	}
	if inv.Version() == v {
		t.Error("Expected version bump after consume")
	}
	if got := inv.ConsumeUnits(stack, 500); got != 70 {
		t.Errorf("Expected remaining 70 consumed, got %d", got)
	}
	if _, ok := inv.FindStackByType("ammo_556"); ok {
		t.Error("Expected emptied stack dropped")
	}

	// A stale stack pointer no longer belongs to the inventory.
	if got := inv.ConsumeUnits(stack, 1); got != 0 {
		t.Errorf("Expected stale stack refused, got %d", got)
	}
	if got := inv.ConsumeUnits(nil, 1); got != 0 {
		t.Errorf("Expected nil stack refused, got %d", got)
	}
}

func TestInventoryTypesSorted(t *testing.T) {
	inv := NewInventory(0)
	inv.AddUnitsOfType("grenade", 1)
	inv.AddUnitsOfType("ammo_9mm", 1)
	inv.AddUnitsOfType("ammo_12g", 1)

	want := []string{"ammo_12g", "ammo_9mm", "grenade"}
	got := inv.Types()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
	if q := inv.Quantities(); len(q) != 3 || q["grenade"] != 1 {
		t.Errorf("Expected 3 quantities, got %v", q)
	}
}

func TestMirrorInventoryIsReadOnly(t *testing.T) {
	m := NewMirrorInventory()
	m.Apply(map[string]int{"ammo_556": 40, "grenade": 0})

	stack, ok := m.FindStackByType("ammo_556")
	if !ok || stack.Quantity != 40 {
		t.Fatalf("Expected mirrored 40, got %+v", stack)
	}
	if _, ok := m.FindStackByType("grenade"); ok {
		t.Error("Expected zero quantities skipped")
	}
	if m.ConsumeUnits(stack, 10) != 0 || m.AddUnitsOfType("ammo_556", 10) != 0 {
		t.Error("Expected mirror mutations to be no-ops")
	}
	if m.Quantity("ammo_556") != 40 {
		t.Errorf("Expected 40 after no-op mutations, got %d", m.Quantity("ammo_556"))
	}
}

// -----------------------------------------------------------------------------
// ITEM CATALOG
// -----------------------------------------------------------------------------

func TestItemCatalog(t *testing.T) {
	ic := NewItemCatalog(config.DefaultCatalog(), config.DefaultCombat())

	tests := []struct {
		name string
		kind ItemKind
		slot string
	}{
		{"rifle", ItemWeapon, SlotWeapon},
		{"pistol", ItemWeapon, SlotWeapon},
		{"helmet", ItemGear, "head"},
		{"vest", ItemGear, "chest"},
		{"grenade", ItemThrowable, SlotThrowable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := ic.Item(tt.name)
			if !ok {
				t.Fatalf("Expected %s in catalog", tt.name)
			}
			if it.Kind() != tt.kind || it.Slot() != tt.slot || it.ItemName() != tt.name {
				t.Errorf("Expected %s/%s, got %s/%s", tt.kind, tt.slot, it.Kind(), it.Slot())
			}
		})
	}

	if _, ok := ic.Weapon("helmet"); ok {
		t.Error("Expected gear not to resolve as a weapon")
	}
	spec, ok := ic.Weapon("rifle")
	if !ok || spec.HitScan.MinBoxExtent != config.DefaultCombat().MinBoxExtent {
		t.Errorf("Expected rifle with the combat box floor, got %+v", spec)
	}
	if n := len(ic.AmmoTypes()); n != 3 {
		t.Errorf("Expected 3 ammo types, got %v", ic.AmmoTypes())
	}
	if len(ic.ThrowableNames()) != 1 {
		t.Errorf("Expected 1 throwable, got %v", ic.ThrowableNames())
	}
}

func TestItemKindString(t *testing.T) {
	if ItemWeapon.String() != "weapon" || ItemGear.String() != "gear" || ItemThrowable.String() != "throwable" {
		t.Error("Unexpected item kind names")
	}
	if ItemKind(99).String() != "unknown" {
		t.Errorf("Expected unknown, got %s", ItemKind(99))
	}
}

// -----------------------------------------------------------------------------
// EQUIP / UNEQUIP
// -----------------------------------------------------------------------------

func equipRig(t *testing.T, role Role) (*World, *recordingNet, *Character, *Inventory) {
	t.Helper()
	net := newRecordingNet()
	w := newTestWorld(role, net, nil)
	inv := NewInventory(0)
	c := NewCharacter("c1", "c1", CharacterOptions{
		Position:  spatial.V(1000, 1000, 88),
		Mobility:  MobilityMovable,
		Inventory: inv,
	})
	w.AddEntity(c)
	return w, net, c, inv
}

func TestEquipWeaponReplacesCurrent(t *testing.T) {
	w, _, c, _ := equipRig(t, RoleAuthority)

	if !w.Equip(c, "rifle") {
		t.Fatal("Expected rifle equipped")
	}
	first := c.Weapon()
	if !w.Equip(c, "pistol") {
		t.Fatal("Expected pistol equipped")
	}
	if c.Weapon() == first {
		t.Error("Expected a new weapon instance")
	}
	if _, ok := w.Registry().Weapon(first); ok {
		t.Error("Expected the rifle destroyed")
	}
	if n := len(w.Registry().Weapons()); n != 1 {
		t.Errorf("Expected 1 weapon, got %d", n)
	}
	wp, _ := w.Registry().Weapon(c.Weapon())
	if wp.Spec().Name != "pistol" {
		t.Errorf("Expected pistol, got %s", wp.Spec().Name)
	}

	w.Unequip(c, SlotWeapon)
	if c.Weapon() != "" || len(w.Registry().Weapons()) != 0 {
		t.Error("Expected weapon slot cleared")
	}
}

func TestEquipGearAndThrowable(t *testing.T) {
	w, _, c, _ := equipRig(t, RoleAuthority)

	if !w.Equip(c, "helmet") || !w.Equip(c, "grenade") {
		t.Fatal("Expected helmet and grenade equipped")
	}
	if g, ok := c.Gear("head"); !ok || g != "helmet" {
		t.Errorf("Expected helmet in head slot, got %q", g)
	}
	if c.Throwable() != "grenade" {
		t.Errorf("Expected grenade selected, got %q", c.Throwable())
	}

	w.Unequip(c, "head")
	w.Unequip(c, SlotThrowable)
	if _, ok := c.Gear("head"); ok {
		t.Error("Expected head slot empty")
	}
	if c.Throwable() != "" {
		t.Error("Expected throwable cleared")
	}
}

func TestEquipRejected(t *testing.T) {
	w, _, c, _ := equipRig(t, RoleAuthority)
	if w.Equip(c, "bazooka") {
		t.Error("Expected unknown item refused")
	}

	c.TakeDamage(c.MaxHealth(), HitCandidate{}, "", "")
	if w.Equip(c, "rifle") {
		t.Error("Expected dead character refused")
	}

	rw, _, rc, _ := equipRig(t, RoleReplica)
	if rw.Equip(rc, "rifle") {
		t.Error("Expected replicas unable to equip directly")
	}
}

func TestUseThrowableOnAuthority(t *testing.T) {
	w, net, c, inv := equipRig(t, RoleAuthority)
	inv.AddUnitsOfType("grenade", 2)
	w.Equip(c, "grenade")

	if !w.UseThrowable(c) || !w.UseThrowable(c) {
		t.Fatal("Expected two tosses")
	}
	if countKind(net.broadcast, protocol.KindThrowableToss) != 2 {
		t.Errorf("Expected 2 toss broadcasts, got %v", net.broadcast)
	}
	if c.Throwable() != "" {
		t.Error("Expected selection cleared once the stack ran out")
	}
	if w.UseThrowable(c) {
		t.Error("Expected no toss without a selection")
	}
}

func TestUseThrowableOnReplica(t *testing.T) {
	net := newRecordingNet()
	w := newTestWorld(RoleReplica, net, nil)
	mirror := NewMirrorInventory()
	mirror.Apply(map[string]int{"grenade": 1})
	c := NewCharacter("me", "me", CharacterOptions{Local: true, Inventory: mirror})
	w.AddEntity(c)
	c.throwable = "grenade"

	if !w.UseThrowable(c) {
		t.Fatal("Expected local toss")
	}
	if countKind(net.toAuthority, protocol.KindServerUseThrowable) != 1 {
		t.Errorf("Expected toss forwarded, got %v", net.toAuthority)
	}
	if mirror.Quantity("grenade") != 1 {
		t.Error("Expected the mirror untouched")
	}
	if c.Throwable() != "" {
		t.Error("Expected last unit to clear the prediction")
	}
}
