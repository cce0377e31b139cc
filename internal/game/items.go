package game

import (
	"log"
	"time"

	"firefight/internal/config"
)

// AmmoClipConfig is the magazine side of a weapon.
type AmmoClipConfig struct {
	ClipCapacity     int
	TimeBetweenShots time.Duration
	AmmoType         string
	AllowCatchup     bool // absorb late-frame slack into the next refire
}

// HitScanConfig is the trace and damage tuning of a hitscan weapon.
type HitScanConfig struct {
	MaxRange   float64
	Damage     float64
	Radius     float64 // 0 = line trace
	DamageType string
	Leeway     float64
	// MinBoxExtent floors each axis of the expanded target box.
	MinBoxExtent float64
	// BoneDamageModifiers is loaded from content but damage is always flat.
	BoneDamageModifiers map[string]float64
}

// WeaponSpec is the immutable runtime description of a weapon type.
type WeaponSpec struct {
	Name          string
	Ammo          AmmoClipConfig
	HitScan       HitScanConfig
	MuzzleSocket  string
	Anims         config.WeaponAnimDefs
	Sounds        config.WeaponSoundDefs
	Recoil        config.RecoilDef
	CameraShake   float64
	ForceFeedback string

	LoopedMuzzleFX  bool
	LoopedFireAnim  bool
	LoopedFireSound bool
}

// NewWeaponSpec converts a catalog entry into its runtime form.
func NewWeaponSpec(def config.WeaponDef, minBoxExtent float64) *WeaponSpec {
	return &WeaponSpec{
		Name: def.Name,
		Ammo: AmmoClipConfig{
			ClipCapacity:     def.ClipCapacity,
			TimeBetweenShots: def.TimeBetweenShots,
			AmmoType:         def.AmmoType,
			AllowCatchup:     def.AllowCatchup,
		},
		HitScan: HitScanConfig{
			MaxRange:            def.HitScan.Distance,
			Damage:              def.HitScan.Damage,
			Radius:              def.HitScan.Radius,
			DamageType:          def.HitScan.DamageType,
			Leeway:              def.HitScan.Leeway,
			MinBoxExtent:        minBoxExtent,
			BoneDamageModifiers: def.HitScan.BoneModifiers,
		},
		MuzzleSocket:    def.MuzzleSocket,
		Anims:           def.Anims,
		Sounds:          def.Sounds,
		Recoil:          def.Recoil,
		CameraShake:     def.CameraShake,
		ForceFeedback:   def.ForceFeedback,
		LoopedMuzzleFX:  def.LoopedMuzzleFX,
		LoopedFireAnim:  def.LoopedFireAnim,
		LoopedFireSound: def.LoopedFireSound,
	}
}

// =============================================================================
// EQUIPPABLE VARIANTS
// =============================================================================

// ItemKind tags the closed set of equippable variants.
type ItemKind uint8

const (
	ItemWeapon ItemKind = iota + 1
	ItemGear
	ItemThrowable
)

// String returns human-readable item kind
func (k ItemKind) String() string {
	switch k {
	case ItemWeapon:
		return "weapon"
	case ItemGear:
		return "gear"
	case ItemThrowable:
		return "throwable"
	default:
		return "unknown"
	}
}

// Slot names that are not gear slots.
const (
	SlotWeapon    = "weapon"
	SlotThrowable = "throwable"
)

// Equippable is the capability every item variant exposes to a character.
// Equip and Unequip run on the authority only.
type Equippable interface {
	ItemName() string
	Kind() ItemKind
	Slot() string
	Equip(w *World, c *Character) bool
	Unequip(w *World, c *Character)
}

// WeaponItem spawns a Weapon into the weapon slot.
type WeaponItem struct {
	Spec *WeaponSpec
}

func (i *WeaponItem) ItemName() string { return i.Spec.Name }
func (i *WeaponItem) Kind() ItemKind { return ItemWeapon }
func (i *WeaponItem) Slot() string { return SlotWeapon }

// Equip replaces the character's current weapon with a freshly spawned one.
func (i *WeaponItem) Equip(w *World, c *Character) bool {
	w.DestroyWeapon(c.weapon)
	weapon := w.SpawnWeapon(i.Spec, c.id)
	weapon.OnEquip()
	return true
}

// Unequip destroys the character's weapon.
func (i *WeaponItem) Unequip(w *World, c *Character) {
	w.DestroyWeapon(c.weapon)
}

// GearItem occupies a named gear slot.
type GearItem struct {
	Def config.GearDef
}

func (i *GearItem) ItemName() string { return i.Def.Name }
func (i *GearItem) Kind() ItemKind { return ItemGear }
func (i *GearItem) Slot() string { return i.Def.Slot }

// Equip puts the gear into its slot. The defense multiplier is carried as data only.
func (i *GearItem) Equip(w *World, c *Character) bool {
	c.gear[i.Def.Slot] = i.Def.Name
	w.MarkDirty()
	return true
}

func (i *GearItem) Unequip(w *World, c *Character) {
	delete(c.gear, i.Def.Slot)
	w.MarkDirty()
}

// ThrowableItem selects a throwable type; units come from the inventory.
type ThrowableItem struct {
	Def config.ThrowableDef
}

func (i *ThrowableItem) ItemName() string { return i.Def.Name }
func (i *ThrowableItem) Kind() ItemKind { return ItemThrowable }
func (i *ThrowableItem) Slot() string { return SlotThrowable }

func (i *ThrowableItem) Equip(w *World, c *Character) bool {
	c.throwable = i.Def.Name
	w.MarkDirty()
	return true
}

func (i *ThrowableItem) Unequip(w *World, c *Character) {
	c.throwable = ""
	w.MarkDirty()
}

// =============================================================================
// CATALOG
// =============================================================================

// ItemCatalog resolves item names to variants.
type ItemCatalog struct {
	items      map[string]Equippable
	weapons    []string
	throwables []string
	montages   map[string]time.Duration
}

// NewItemCatalog builds the runtime catalog from validated content.
func NewItemCatalog(c *config.Catalog, combat config.CombatConfig) *ItemCatalog {
	ic := &ItemCatalog{
		items:    make(map[string]Equippable),
		montages: c.MontageDurations(),
	}
	for _, name := range c.Names() {
		def, _ := c.Weapon(name)
		ic.items[name] = &WeaponItem{Spec: NewWeaponSpec(def, combat.MinBoxExtent)}
		ic.weapons = append(ic.weapons, name)
	}
	for _, g := range c.AllGear() {
		if _, dup := ic.items[g.Name]; dup {
			log.Printf("⚠️ Gear %q shadows an existing item, skipped", g.Name)
			continue
		}
		ic.items[g.Name] = &GearItem{Def: g}
	}
	for _, t := range c.AllThrowables() {
		if _, dup := ic.items[t.Name]; dup {
			log.Printf("⚠️ Throwable %q shadows an existing item, skipped", t.Name)
			continue
		}
		ic.items[t.Name] = &ThrowableItem{Def: t}
		ic.throwables = append(ic.throwables, t.Name)
	}
	return ic
}

// Item resolves any equippable by name.
func (ic *ItemCatalog) Item(name string) (Equippable, bool) {
	it, ok := ic.items[name]
	return it, ok
}

// Weapon resolves a weapon spec by name.
func (ic *ItemCatalog) Weapon(name string) (*WeaponSpec, bool) {
	it, ok := ic.items[name].(*WeaponItem)
	if !ok {
		return nil, false
	}
	return it.Spec, true
}

// WeaponNames lists weapon names in sorted order.
func (ic *ItemCatalog) WeaponNames() []string { return ic.weapons }

// ThrowableNames lists throwable names in sorted order.
func (ic *ItemCatalog) ThrowableNames() []string { return ic.throwables }

// AmmoTypes lists the distinct ammo types used by catalog weapons.
func (ic *ItemCatalog) AmmoTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range ic.weapons {
		t := ic.items[name].(*WeaponItem).Spec.Ammo.AmmoType
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Montages returns clip lengths keyed by montage name.
func (ic *ItemCatalog) Montages() map[string]time.Duration { return ic.montages }
