package game

import (
	"time"

	"firefight/internal/game/spatial"
)

//go:generate go tool mockgen -destination=./mocks/collaborators_mock.go -package=mocks . InventoryCollaborator,AnimationCollaborator,Net

// EntityID identifies a character or prop. IDs are assigned by the authority.
type EntityID string

// WeaponID identifies a spawned weapon instance.
type WeaponID string

// Mobility describes whether an entity's transform can change at runtime.
type Mobility uint8

const (
	MobilityStatic Mobility = iota
	MobilityStationary
	MobilityMovable
)

// String returns human-readable mobility
func (m Mobility) String() string {
	switch m {
	case MobilityStatic:
		return "static"
	case MobilityStationary:
		return "stationary"
	case MobilityMovable:
		return "movable"
	default:
		return "unknown"
	}
}

// Entity is anything a weapon trace can hit.
type Entity interface {
	EntityID() EntityID
	Bounds() spatial.Box
	Mobility() Mobility
}

// Damageable entities accept damage from confirmed hits.
type Damageable interface {
	// TakeDamage applies amount and returns the health actually removed.
	TakeDamage(amount float64, hit HitCandidate, instigator EntityID, causer WeaponID) float64
	IsAlive() bool
}

// Stack is one inventory entry.
type Stack struct {
	Type     string
	Quantity int
}

// InventoryCollaborator is the reserve-ammo source of a weapon's owner.
type InventoryCollaborator interface {
	FindStackByType(itemType string) (*Stack, bool)
	// ConsumeUnits removes up to n units from stack and returns how many were removed.
	ConsumeUnits(stack *Stack, n int) int
	// AddUnitsOfType adds up to n units and returns how many were added.
	AddUnitsOfType(itemType string, n int) int
}

// AnimationCollaborator plays montages on the owner's mesh.
type AnimationCollaborator interface {
	// PlayMontage starts clip and returns its length, or 0 when it cannot play.
	PlayMontage(clip string) time.Duration
	StopMontage(clip string)
}

// OwnerCharacter is what a weapon needs from the character holding it.
type OwnerCharacter interface {
	EntityID() EntityID
	ViewPoint() (origin, dir spatial.Vec3)
	// AimDirection is the replicated aim, valid on every process.
	AimDirection() spatial.Vec3
	IsLocallyControlled() bool
	SocketLocation(socket string) (spatial.Vec3, bool)
	Inventory() InventoryCollaborator
	Animation() AnimationCollaborator
	IsAlive() bool
}

// Presentation receives cosmetic weapon output. Authority processes run
// without one.
type Presentation interface {
	MuzzleFlash(w WeaponID, socket string, looped bool)
	StopMuzzleFlash(w WeaponID)
	Impact(point, normal spatial.Vec3)
	Sound(cue string, at EntityID)
	StopSound(cue string, at EntityID)
	CameraShake(scale float64)
	ForceFeedback(tag string)
	Recoil(x, y, speed, resetSpeed float64)
	HitMarker(victim EntityID)
}
