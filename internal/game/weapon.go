package game

import (
	"time"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
)

// WeaponState is the display state of a weapon.
type WeaponState uint8

const (
	StateIdle WeaponState = iota
	StateFiring
	StateReloading
	StateEquipping
)

// String returns human-readable weapon state
func (s WeaponState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFiring:
		return "firing"
	case StateReloading:
		return "reloading"
	case StateEquipping:
		return "equipping"
	default:
		return "unknown"
	}
}

// replicatedWeapon is the authority-canonical copy of the replicated fields
// as last received by a replica. It is written only by replication and read
// by local prediction, never the other way round.
type replicatedWeapon struct {
	item          string
	clip          int
	burst         int
	pendingReload bool
	hitOrigin     spatial.Vec3
}

// Weapon is one spawned weapon instance. All methods run on the tick goroutine.
//
// The owner is held as an EntityID and resolved through the world registry on
// every use, so an owner that has left the world makes every operation a no-op.
type Weapon struct {
	id      WeaponID
	spec    *WeaponSpec
	world   *World
	ownerID EntityID

	state           WeaponState
	clip            int // authority only; replicas read canon.clip
	burstCounter    int
	lastFireTime    time.Duration
	hasFired        bool
	timerAdjustment time.Duration // catch-up slack, <= 0
	refiring        bool

	// Inputs driving determineState.
	wantsToFire   bool
	pendingReload bool
	pendingEquip  bool
	equipped      bool

	fireTimer        TimerHandle
	stopReloadTimer  TimerHandle
	reloadApplyTimer TimerHandle // authority only
	equipTimer       TimerHandle

	hitNotify spatial.Vec3 // one-shot confirmed-hit origin, authority only

	canon replicatedWeapon

	// Cosmetic bookkeeping, replicas only.
	muzzleActive    bool
	playingFireAnim bool
	fireLoopActive  bool

	destroyed bool
}

func newWeapon(world *World, id WeaponID, spec *WeaponSpec) *Weapon {
	return &Weapon{
		id:    id,
		spec:  spec,
		world: world,
		canon: replicatedWeapon{item: spec.Name},
	}
}

func (w *Weapon) ID() WeaponID { return w.id }
func (w *Weapon) Spec() *WeaponSpec { return w.spec }
func (w *Weapon) OwnerID() EntityID { return w.ownerID }
func (w *Weapon) State() WeaponState { return w.state }
func (w *Weapon) IsEquipped() bool { return w.equipped }
func (w *Weapon) WantsToFire() bool { return w.wantsToFire }
func (w *Weapon) IsPendingEquip() bool { return w.pendingEquip }

// ClipAmmo returns the loaded rounds as known to this process.
func (w *Weapon) ClipAmmo() int { return w.clipAmmo() }

// BurstCounter returns the authoritative counter on the authority and on
// remote proxies, and the locally predicted one on the owning replica.
func (w *Weapon) BurstCounter() int {
	if w.world.role == RoleReplica && !w.ownerIsLocal() {
		return w.canon.burst
	}
	return w.burstCounter
}

// IsPendingReload mirrors BurstCounter's view rules for the reload flag.
func (w *Weapon) IsPendingReload() bool {
	if w.world.role == RoleReplica && !w.ownerIsLocal() {
		return w.canon.pendingReload
	}
	return w.pendingReload
}

// HitNotifyOrigin returns the last confirmed-hit origin.
func (w *Weapon) HitNotifyOrigin() spatial.Vec3 {
	if w.world.role == RoleReplica {
		return w.canon.hitOrigin
	}
	return w.hitNotify
}

func (w *Weapon) clipAmmo() int {
	if w.world.role == RoleReplica {
		return w.canon.clip
	}
	return w.clip
}

func (w *Weapon) isAuthority() bool { return w.world.role == RoleAuthority }

func (w *Weapon) owner() (OwnerCharacter, bool) {
	if w.destroyed {
		return nil, false
	}
	return w.world.reg.Owner(w.ownerID)
}

func (w *Weapon) ownerIsLocal() bool {
	o, ok := w.owner()
	return ok && o.IsLocallyControlled()
}

// canFire: owner alive, Idle or Firing, no reload pending.
func (w *Weapon) canFire() bool {
	o, ok := w.owner()
	if !ok || !o.IsAlive() {
		return false
	}
	stateOK := w.state == StateIdle || w.state == StateFiring
	return stateOK && !w.pendingReload
}

// canReload: owner present, clip not full, reserve available, Idle or Firing.
func (w *Weapon) canReload() bool {
	o, ok := w.owner()
	if !ok || !o.IsAlive() {
		return false
	}
	gotAmmo := w.clipAmmo() < w.spec.Ammo.ClipCapacity && w.ReserveAmmo() > 0
	stateOK := w.state == StateIdle || w.state == StateFiring
	return gotAmmo && stateOK
}

// determineState recomputes the state from the input flags. It is safe to
// call any number of times; only an actual state change has side effects.
func (w *Weapon) determineState() {
	next := StateIdle
	if w.equipped {
		if w.pendingReload {
			if w.canReload() {
				next = StateReloading
			} else {
				next = w.state
			}
		} else if w.wantsToFire && w.canFire() {
			next = StateFiring
		}
	} else if w.pendingEquip {
		next = StateEquipping
	}
	w.setState(next)
}

func (w *Weapon) setState(next WeaponState) {
	prev := w.state
	if prev == StateFiring && next != StateFiring {
		w.onBurstFinished()
	}
	w.state = next
	if prev != StateFiring && next == StateFiring {
		w.onBurstStarted()
	}
}

// onBurstStarted fires now, or once the inter-shot interval since the last
// shot has elapsed.
func (w *Weapon) onBurstStarted() {
	now := w.world.sched.Now()
	tbs := w.spec.Ammo.TimeBetweenShots
	if w.hasFired && tbs > 0 && w.lastFireTime+tbs > now {
		w.world.sched.SetTimer(&w.fireTimer, w.lastFireTime+tbs-now, w.handleFiring)
		return
	}
	w.handleFiring()
}

func (w *Weapon) onBurstFinished() {
	w.burstCounter = 0
	w.stopSimulatingWeaponFire()
	w.world.sched.ClearTimer(&w.fireTimer)
	w.refiring = false
	w.timerAdjustment = 0
}

// =============================================================================
// ANIMATION AND SOUND HELPERS
// =============================================================================

// montageClip picks the first-person clip for a locally controlled owner.
func (w *Weapon) montageClip(m config.MontageDef) (AnimationCollaborator, string) {
	o, ok := w.owner()
	if !ok {
		return nil, ""
	}
	anim := o.Animation()
	if anim == nil {
		return nil, ""
	}
	clip := m.ThirdPerson
	if o.IsLocallyControlled() && m.FirstPerson != "" {
		clip = m.FirstPerson
	}
	return anim, clip
}

func (w *Weapon) playMontage(m config.MontageDef) time.Duration {
	anim, clip := w.montageClip(m)
	if anim == nil || clip == "" {
		return 0
	}
	return anim.PlayMontage(clip)
}

func (w *Weapon) stopMontage(m config.MontageDef) {
	anim, clip := w.montageClip(m)
	if anim == nil || clip == "" {
		return
	}
	anim.StopMontage(clip)
}

// cosmetic reports whether presentation output should be produced at all.
func (w *Weapon) cosmetic() bool { return w.world.role == RoleReplica }

func (w *Weapon) playSound(cue string) {
	if cue == "" || !w.cosmetic() {
		return
	}
	w.world.fx.Sound(cue, w.ownerID)
}
