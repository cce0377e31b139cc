package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Fallbacks applied to weapon fields left empty in the catalog.
const (
	DefaultHitScanDistance = 10000.0
	DefaultHitScanDamage   = 25.0
	DefaultHitLeeway       = 1.5
	DefaultClipCapacity    = 20
	DefaultTimeBetweenShot = 200 * time.Millisecond
	DefaultMuzzleSocket    = "Muzzle"
)

// MontageDef names the first- and third-person animation for one action.
type MontageDef struct {
	FirstPerson string `yaml:"first_person"`
	ThirdPerson string `yaml:"third_person"`
}

// WeaponAnimDefs groups the montages a weapon plays.
type WeaponAnimDefs struct {
	Fire   MontageDef `yaml:"fire"`
	Reload MontageDef `yaml:"reload"`
	Equip  MontageDef `yaml:"equip"`
}

// WeaponSoundDefs groups the sound cues a weapon plays.
type WeaponSoundDefs struct {
	Fire       string `yaml:"fire"`
	FireLoop   string `yaml:"fire_loop"`
	FireFinish string `yaml:"fire_finish"`
	OutOfAmmo  string `yaml:"out_of_ammo"`
	Reload     string `yaml:"reload"`
	Equip      string `yaml:"equip"`
}

// RecoilDef is the recoil applied to the firing controller per shot.
type RecoilDef struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Speed      float64 `yaml:"speed"`
	ResetSpeed float64 `yaml:"reset_speed"`
}

// HitScanDef is the trace and damage tuning of a hitscan weapon.
type HitScanDef struct {
	Distance   float64 `yaml:"distance"`
	Damage     float64 `yaml:"damage"`
	Radius     float64 `yaml:"radius"` // 0 = line trace
	DamageType string  `yaml:"damage_type"`
	Leeway     float64 `yaml:"leeway"`
	// BoneModifiers is carried through to the runtime config but damage stays flat.
	BoneModifiers map[string]float64 `yaml:"bone_modifiers"`
}

// WeaponDef defines the static properties of a weapon loaded from YAML.
type WeaponDef struct {
	Name             string          `yaml:"name"`
	AmmoType         string          `yaml:"ammo_type"`
	ClipCapacity     int             `yaml:"clip_capacity"`
	TimeBetweenShots time.Duration   `yaml:"time_between_shots"`
	AllowCatchup     bool            `yaml:"allow_catchup"`
	HitScan          HitScanDef      `yaml:"hitscan"`
	MuzzleSocket     string          `yaml:"muzzle_socket"`
	Anims            WeaponAnimDefs  `yaml:"anims"`
	Sounds           WeaponSoundDefs `yaml:"sounds"`
	Recoil           RecoilDef       `yaml:"recoil"`
	CameraShake      float64         `yaml:"camera_shake"`
	ForceFeedback    string          `yaml:"force_feedback"`
	LoopedMuzzleFX   bool            `yaml:"looped_muzzle_fx"`
	LoopedFireAnim   bool            `yaml:"looped_fire_anim"`
	LoopedFireSound  bool            `yaml:"looped_fire_sound"`
}

// applyDefaults fills fields that content authors commonly leave out.
func (w *WeaponDef) applyDefaults() {
	if w.ClipCapacity == 0 {
		w.ClipCapacity = DefaultClipCapacity
	}
	if w.TimeBetweenShots == 0 {
		w.TimeBetweenShots = DefaultTimeBetweenShot
	}
	if w.HitScan.Distance == 0 {
		w.HitScan.Distance = DefaultHitScanDistance
	}
	if w.HitScan.Damage == 0 {
		w.HitScan.Damage = DefaultHitScanDamage
	}
	if w.HitScan.Leeway == 0 {
		w.HitScan.Leeway = DefaultHitLeeway
	}
	if w.MuzzleSocket == "" {
		w.MuzzleSocket = DefaultMuzzleSocket
	}
}

// Validate checks that the WeaponDef satisfies its invariants.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if w.AmmoType == "" {
		errs = append(errs, errors.New("ammo_type must not be empty"))
	}
	if w.ClipCapacity <= 0 {
		errs = append(errs, errors.New("clip_capacity must be > 0"))
	}
	if w.TimeBetweenShots < 0 {
		errs = append(errs, errors.New("time_between_shots must be >= 0"))
	}
	if w.HitScan.Distance <= 0 {
		errs = append(errs, errors.New("hitscan.distance must be > 0"))
	}
	if w.HitScan.Radius < 0 {
		errs = append(errs, errors.New("hitscan.radius must be >= 0"))
	}
	if w.HitScan.Leeway < 0 {
		errs = append(errs, errors.New("hitscan.leeway must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon %q: %w", w.Name, errors.Join(errs...))
	}
	return nil
}

// GearDef is a wearable item occupying one slot.
type GearDef struct {
	Name                    string  `yaml:"name"`
	Slot                    string  `yaml:"slot"`
	DamageDefenseMultiplier float64 `yaml:"damage_defense_multiplier"`
}

// ThrowableDef is a consumable tossed from the throwable slot.
type ThrowableDef struct {
	Name        string `yaml:"name"`
	TossMontage string `yaml:"toss_montage"`
}

// catalogFile is the on-disk layout of the weapon catalog.
type catalogFile struct {
	Montages   map[string]time.Duration `yaml:"montages"`
	Weapons    []WeaponDef              `yaml:"weapons"`
	Gear       []GearDef                `yaml:"gear"`
	Throwables []ThrowableDef           `yaml:"throwables"`
}

// Catalog is the validated, read-only set of item definitions and montage lengths.
type Catalog struct {
	weapons    map[string]WeaponDef
	gear       map[string]GearDef
	throwables map[string]ThrowableDef
	montages   map[string]time.Duration
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Weapons) == 0 {
		return nil, errors.New("parse catalog: no weapons defined")
	}

	c := &Catalog{
		weapons:    make(map[string]WeaponDef, len(f.Weapons)),
		gear:       make(map[string]GearDef, len(f.Gear)),
		throwables: make(map[string]ThrowableDef, len(f.Throwables)),
		montages:   f.Montages,
	}
	if c.montages == nil {
		c.montages = make(map[string]time.Duration)
	}

	var errs []error
	for _, w := range f.Weapons {
		w.applyDefaults()
		if err := w.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.weapons[w.Name]; dup {
			errs = append(errs, fmt.Errorf("weapon %q: defined twice", w.Name))
			continue
		}
		c.weapons[w.Name] = w
	}
	for _, g := range f.Gear {
		if g.Name == "" || g.Slot == "" {
			errs = append(errs, fmt.Errorf("gear %q: name and slot are required", g.Name))
			continue
		}
		c.gear[g.Name] = g
	}
	for _, t := range f.Throwables {
		if t.Name == "" {
			errs = append(errs, errors.New("throwable: name is required"))
			continue
		}
		c.throwables[t.Name] = t
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("parse catalog: %w", errors.Join(errs...))
	}
	return c, nil
}

// LoadCatalog reads and validates the catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", path, err)
	}
	return c, nil
}

// Weapon returns the named definition.
func (c *Catalog) Weapon(name string) (WeaponDef, bool) {
	w, ok := c.weapons[name]
	return w, ok
}

// Gear returns the named gear definition.
func (c *Catalog) Gear(name string) (GearDef, bool) {
	g, ok := c.gear[name]
	return g, ok
}

// Throwable returns the named throwable definition.
func (c *Catalog) Throwable(name string) (ThrowableDef, bool) {
	t, ok := c.throwables[name]
	return t, ok
}

// Names returns all weapon names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.weapons))
	for n := range c.weapons {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every definition in name order.
func (c *Catalog) All() []WeaponDef {
	out := make([]WeaponDef, 0, len(c.weapons))
	for _, n := range c.Names() {
		out = append(out, c.weapons[n])
	}
	return out
}

// AllGear returns every gear definition in name order.
func (c *Catalog) AllGear() []GearDef {
	out := make([]GearDef, 0, len(c.gear))
	for _, g := range c.gear {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllThrowables returns every throwable definition in name order.
func (c *Catalog) AllThrowables() []ThrowableDef {
	out := make([]ThrowableDef, 0, len(c.throwables))
	for _, t := range c.throwables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MontageDurations returns a copy of the montage length table.
func (c *Catalog) MontageDurations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.montages))
	for k, v := range c.montages {
		out[k] = v
	}
	return out
}

// defaultCatalogYAML mirrors configs/weapons.yaml so the server runs without it.
const defaultCatalogYAML = `
montages:
  rifle_fire_1p: 150ms
  rifle_fire_3p: 150ms
  rifle_reload_1p: 1800ms
  rifle_reload_3p: 1800ms
  rifle_equip_1p: 400ms
  rifle_equip_3p: 400ms
  pistol_reload_1p: 1200ms
  pistol_reload_3p: 1200ms
  shotgun_reload_1p: 2200ms
  shotgun_reload_3p: 2200ms
  grenade_toss: 900ms
weapons:
  - name: rifle
    ammo_type: ammo_556
    clip_capacity: 30
    time_between_shots: 100ms
    allow_catchup: true
    muzzle_socket: Muzzle
    hitscan:
      distance: 10000
      damage: 25
      damage_type: bullet
      leeway: 1.5
      bone_modifiers:
        head: 2.5
        spine_03: 1.0
    anims:
      fire: {first_person: rifle_fire_1p, third_person: rifle_fire_3p}
      reload: {first_person: rifle_reload_1p, third_person: rifle_reload_3p}
      equip: {first_person: rifle_equip_1p, third_person: rifle_equip_3p}
    sounds:
      fire_loop: rifle_fire_loop
      fire_finish: rifle_fire_tail
      out_of_ammo: dry_fire
      reload: rifle_reload
      equip: rifle_equip
    recoil: {x: 0.2, y: 0.6, speed: 12, reset_speed: 6}
    camera_shake: 0.4
    force_feedback: rifle_kick
    looped_muzzle_fx: true
    looped_fire_anim: true
    looped_fire_sound: true
  - name: pistol
    ammo_type: ammo_9mm
    clip_capacity: 12
    time_between_shots: 250ms
    muzzle_socket: Muzzle
    hitscan:
      distance: 6000
      damage: 20
      damage_type: bullet
      leeway: 1.5
    anims:
      reload: {first_person: pistol_reload_1p, third_person: pistol_reload_3p}
    sounds:
      fire: pistol_fire
      out_of_ammo: dry_fire
      reload: pistol_reload
    recoil: {x: 0.1, y: 0.9, speed: 14, reset_speed: 8}
    camera_shake: 0.2
  - name: shotgun
    ammo_type: ammo_12g
    clip_capacity: 6
    time_between_shots: 900ms
    muzzle_socket: Muzzle
    hitscan:
      distance: 2500
      damage: 60
      radius: 8
      damage_type: buckshot
      leeway: 1.5
    anims:
      reload: {first_person: shotgun_reload_1p, third_person: shotgun_reload_3p}
    sounds:
      fire: shotgun_fire
      out_of_ammo: dry_fire
      reload: shotgun_reload
    recoil: {x: 0.4, y: 2.0, speed: 8, reset_speed: 4}
    camera_shake: 1.0
    force_feedback: shotgun_kick
gear:
  - name: helmet
    slot: head
    damage_defense_multiplier: 0.8
  - name: vest
    slot: chest
    damage_defense_multiplier: 0.7
throwables:
  - name: grenade
    toss_montage: grenade_toss
`

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog([]byte(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in weapon catalog is invalid: %v", err))
	}
	return c
}
