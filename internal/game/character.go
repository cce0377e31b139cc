package game

import (
	"math"

	"firefight/internal/game/spatial"
)

// Character body defaults, in world units.
var DefaultHalfExtent = spatial.V(34, 34, 88)

const (
	DefaultMaxHealth = 100.0
	eyeHeightRatio   = 0.7  // eye height as a fraction of the half height
	muzzleForward    = 45.0 // muzzle offset along the aim from the eye
)

// Character is a combatant: the owner a weapon resolves through the registry,
// and a damageable trace target.
type Character struct {
	id   EntityID
	name string

	position   spatial.Vec3 // box center
	halfExtent spatial.Vec3
	aim        spatial.Vec3 // unit vector
	mobility   Mobility

	health    float64
	maxHealth float64

	local     bool // controlled by this process
	bot       bool // training target spawned through the API
	inventory InventoryCollaborator
	anim      AnimationCollaborator

	weapon    WeaponID
	gear      map[string]string // slot -> gear name
	throwable string

	patrol *Patrol
}

// CharacterOptions configures NewCharacter.
type CharacterOptions struct {
	Position   spatial.Vec3
	HalfExtent spatial.Vec3 // zero = DefaultHalfExtent
	Aim        spatial.Vec3 // zero = +X
	Mobility   Mobility
	MaxHealth  float64 // 0 = DefaultMaxHealth
	Local      bool
	Bot        bool
	Inventory  InventoryCollaborator
	Animation  AnimationCollaborator
}

// NewCharacter creates a character at full health.
func NewCharacter(id EntityID, name string, opts CharacterOptions) *Character {
	half := opts.HalfExtent
	if half.IsZero() {
		half = DefaultHalfExtent
	}
	aim := opts.Aim.SafeNormal()
	if aim.IsZero() {
		aim = spatial.V(1, 0, 0)
	}
	maxHP := opts.MaxHealth
	if maxHP <= 0 {
		maxHP = DefaultMaxHealth
	}
	return &Character{
		id:         id,
		name:       name,
		position:   opts.Position,
		halfExtent: half,
		aim:        aim,
		mobility:   opts.Mobility,
		health:     maxHP,
		maxHealth:  maxHP,
		local:      opts.Local,
		bot:        opts.Bot,
		inventory:  opts.Inventory,
		anim:       opts.Animation,
		gear:       make(map[string]string),
	}
}

func (c *Character) EntityID() EntityID { return c.id }
func (c *Character) Name() string { return c.name }
func (c *Character) Mobility() Mobility { return c.mobility }
func (c *Character) Position() spatial.Vec3 { return c.position }
func (c *Character) HalfExtent() spatial.Vec3 { return c.halfExtent }
func (c *Character) Health() float64 { return c.health }
func (c *Character) MaxHealth() float64 { return c.maxHealth }
func (c *Character) IsAlive() bool { return c.health > 0 }
func (c *Character) IsBot() bool { return c.bot }

// Bounds returns the current collision box.
func (c *Character) Bounds() spatial.Box { return spatial.BoxAround(c.position, c.halfExtent) }

// SetPosition teleports the character. Callers mark the world dirty.
func (c *Character) SetPosition(p spatial.Vec3) { c.position = p }

// SetAim stores a new view direction. Zero vectors are ignored.
func (c *Character) SetAim(dir spatial.Vec3) {
	if n := dir.SafeNormal(); !n.IsZero() {
		c.aim = n
	}
}

// SetHealth overwrites health from replication, clamped to [0, max].
func (c *Character) SetHealth(hp, maxHP float64) {
	if maxHP > 0 {
		c.maxHealth = maxHP
	}
	c.health = math.Max(0, math.Min(hp, c.maxHealth))
}

func (c *Character) eye() spatial.Vec3 {
	return c.position.Add(spatial.V(0, 0, c.halfExtent.Z*eyeHeightRatio))
}

// ViewPoint returns the camera origin and aim direction.
func (c *Character) ViewPoint() (origin, dir spatial.Vec3) { return c.eye(), c.aim }

// AimDirection returns the replicated aim.
func (c *Character) AimDirection() spatial.Vec3 { return c.aim }

// IsLocallyControlled reports whether this process drives the character.
func (c *Character) IsLocallyControlled() bool { return c.local }

// SocketLocation resolves an attachment point on the character's body.
func (c *Character) SocketLocation(socket string) (spatial.Vec3, bool) {
	switch socket {
	case "Muzzle":
		return c.eye().Add(c.aim.Scale(muzzleForward)), true
	case "Grip":
		return c.eye().Add(c.aim.Scale(muzzleForward * 0.5)).Sub(spatial.V(0, 0, 10)), true
	case "Head":
		return c.position.Add(spatial.V(0, 0, c.halfExtent.Z*0.85)), true
	default:
		return spatial.Vec3{}, false
	}
}

func (c *Character) Inventory() InventoryCollaborator { return c.inventory }
func (c *Character) Animation() AnimationCollaborator { return c.anim }

// Weapon returns the id of the equipped weapon, or "".
func (c *Character) Weapon() WeaponID { return c.weapon }

// Throwable returns the selected throwable name.
func (c *Character) Throwable() string { return c.throwable }

// Gear returns the gear equipped in slot.
func (c *Character) Gear(slot string) (string, bool) {
	g, ok := c.gear[slot]
	return g, ok
}

// TakeDamage removes health and returns the amount actually removed.
func (c *Character) TakeDamage(amount float64, hit HitCandidate, instigator EntityID, causer WeaponID) float64 {
	if amount <= 0 || !c.IsAlive() {
		return 0
	}
	removed := math.Min(amount, c.health)
	c.health -= removed
	return removed
}

// Revive restores full health.
func (c *Character) Revive() { c.health = c.maxHealth }

// Patrol moves a training target back and forth between two points.
type Patrol struct {
	A, B  spatial.Vec3
	Speed float64 // units per second
	toB   bool
}

// SetPatrol makes the character walk between a and b.
func (c *Character) SetPatrol(a, b spatial.Vec3, speed float64) {
	c.patrol = &Patrol{A: a, B: b, Speed: speed, toB: true}
	c.position = a
}

// stepPatrol advances the patrol by dt seconds and reports whether the character moved.
func (c *Character) stepPatrol(dt float64) bool {
	p := c.patrol
	if p == nil || p.Speed <= 0 || !c.IsAlive() {
		return false
	}
	target := p.A
	if p.toB {
		target = p.B
	}
	delta := target.Sub(c.position)
	dist := delta.Len()
	step := p.Speed * dt
	if dist <= step {
		c.position = target
		p.toB = !p.toB
		return true
	}
	c.position = c.position.Add(delta.Scale(step / dist))
	return true
}

// Prop is static level geometry or a placed object that blocks traces.
type Prop struct {
	id         EntityID
	box        spatial.Box
	mobility   Mobility
	clientOnly bool // spawned locally, never replicated from the authority
}

// NewProp creates a prop with the given box.
func NewProp(id EntityID, box spatial.Box, mobility Mobility) *Prop {
	return &Prop{id: id, box: box, mobility: mobility}
}

// NewClientOnlyProp creates a prop that exists only on the calling replica.
func NewClientOnlyProp(id EntityID, box spatial.Box) *Prop {
	return &Prop{id: id, box: box, mobility: MobilityMovable, clientOnly: true}
}

func (p *Prop) EntityID() EntityID { return p.id }
func (p *Prop) Bounds() spatial.Box { return p.box }
func (p *Prop) Mobility() Mobility { return p.mobility }
func (p *Prop) ClientOnly() bool { return p.clientOnly }

// SetBounds moves the prop.
func (p *Prop) SetBounds(b spatial.Box) { p.box = b }
