package game

import (
	"sort"
	"sync/atomic"
	"time"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
)

// CharacterSnapshot is an immutable copy of a character for readers outside
// the tick goroutine. Value types only.
type CharacterSnapshot struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Position  spatial.Vec3 `json:"position"`
	Aim       spatial.Vec3 `json:"aim"`
	HalfExt   spatial.Vec3 `json:"halfExtent"`
	HP        float64      `json:"hp"`
	MaxHP     float64      `json:"maxHp"`
	IsDead    bool         `json:"isDead"`
	IsBot     bool         `json:"isBot"`
	Weapon    string       `json:"weapon,omitempty"`
	Throwable string       `json:"throwable,omitempty"`
	Reserve   int          `json:"reserve"`
}

// WeaponSnapshot is an immutable copy of one weapon.
type WeaponSnapshot struct {
	ID            string `json:"id"`
	Item          string `json:"item"`
	Owner         string `json:"owner"`
	State         string `json:"state"`
	ClipAmmo      int    `json:"clipAmmo"`
	ClipCapacity  int    `json:"clipCapacity"`
	BurstCounter  int    `json:"burstCounter"`
	PendingReload bool   `json:"pendingReload"`
}

// PropSnapshot is an immutable copy of a blocking prop.
type PropSnapshot struct {
	ID       string      `json:"id"`
	Box      spatial.Box `json:"box"`
	Mobility string      `json:"mobility"`
}

// TracerSnapshot is one recent shot line.
type TracerSnapshot struct {
	From     spatial.Vec3 `json:"from"`
	To       spatial.Vec3 `json:"to"`
	Accepted bool         `json:"accepted"`
	Alpha    float64      `json:"alpha"`
}

// FlashSnapshot is an immutable impact flash
type FlashSnapshot struct {
	Point     spatial.Vec3 `json:"point"`
	Radius    float64      `json:"radius"`
	Confirmed bool         `json:"confirmed"`
}

// CombatSnapshot is a complete immutable view of the world.
// Tracer and flash slices are capped by ResourceLimits.
type CombatSnapshot struct {
	Sequence   uint64             `json:"sequence"`
	Timestamp  time.Time          `json:"timestamp"`
	TickNumber uint64             `json:"tick"`
	Role       string             `json:"role"`
	Arena      config.WorldConfig `json:"arena"`

	Characters []CharacterSnapshot `json:"characters"`
	Weapons    []WeaponSnapshot    `json:"weapons"`
	Props      []PropSnapshot      `json:"props"`
	Tracers    []TracerSnapshot    `json:"tracers"`
	Flashes    []FlashSnapshot     `json:"flashes"`

	Stats       CombatStats `json:"stats"`
	AliveCount  int         `json:"aliveCount"`
	Connections int         `json:"connections"`
}

// SnapshotPool publishes snapshots built on the tick goroutine to any number
// of readers. A published snapshot is never written again.
type SnapshotPool struct {
	limits   config.ResourceLimits
	latest   atomic.Pointer[CombatSnapshot]
	sequence atomic.Uint64
}

// NewSnapshotPool creates a pool whose snapshots respect limits.
func NewSnapshotPool(limits config.ResourceLimits) *SnapshotPool {
	p := &SnapshotPool{limits: limits}
	p.latest.Store(&CombatSnapshot{})
	return p
}

// Capture copies the world into a new snapshot and publishes it.
// Called from the tick goroutine only.
func (p *SnapshotPool) Capture(w *World, connections int) *CombatSnapshot {
	snap := &CombatSnapshot{
		Sequence:    p.sequence.Add(1),
		Timestamp:   time.Now(),
		TickNumber:  w.tick,
		Role:        w.role.String(),
		Arena:       w.arena,
		Stats:       w.stats,
		Connections: connections,
		Characters:  make([]CharacterSnapshot, 0, w.reg.Len()),
	}

	w.reg.Each(func(e Entity) {
		switch v := e.(type) {
		case *Character:
			cs := CharacterSnapshot{
				ID:        string(v.id),
				Name:      v.name,
				Position:  v.position,
				Aim:       v.aim,
				HalfExt:   v.halfExtent,
				HP:        v.health,
				MaxHP:     v.maxHealth,
				IsDead:    !v.IsAlive(),
				IsBot:     v.bot,
				Weapon:    string(v.weapon),
				Throwable: v.throwable,
			}
			if wp, ok := w.reg.Weapon(v.weapon); ok {
				cs.Reserve = wp.ReserveAmmo()
			}
			if !cs.IsDead {
				snap.AliveCount++
			}
			snap.Characters = append(snap.Characters, cs)
		case *Prop:
			snap.Props = append(snap.Props, PropSnapshot{ID: string(v.id), Box: v.box, Mobility: v.mobility.String()})
		}
	})
	sort.Slice(snap.Characters, func(i, j int) bool { return snap.Characters[i].ID < snap.Characters[j].ID })

	for _, wp := range w.reg.Weapons() {
		snap.Weapons = append(snap.Weapons, WeaponSnapshot{
			ID:            string(wp.id),
			Item:          wp.spec.Name,
			Owner:         string(wp.ownerID),
			State:         wp.state.String(),
			ClipAmmo:      wp.ClipAmmo(),
			ClipCapacity:  wp.spec.Ammo.ClipCapacity,
			BurstCounter:  wp.BurstCounter(),
			PendingReload: wp.IsPendingReload(),
		})
	}

	for _, t := range w.tracers {
		if p.limits.MaxTracers > 0 && len(snap.Tracers) >= p.limits.MaxTracers {
			break
		}
		snap.Tracers = append(snap.Tracers, TracerSnapshot{From: t.From, To: t.To, Accepted: t.Accepted, Alpha: t.Alpha()})
	}
	for _, f := range w.flashes {
		if p.limits.MaxImpacts > 0 && len(snap.Flashes) >= p.limits.MaxImpacts {
			break
		}
		snap.Flashes = append(snap.Flashes, FlashSnapshot{Point: f.Point, Radius: f.Radius, Confirmed: f.Confirmed})
	}

	p.latest.Store(snap)
	return snap
}

// Latest returns the newest published snapshot. Never nil.
func (p *SnapshotPool) Latest() *CombatSnapshot { return p.latest.Load() }

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() config.ResourceLimits { return p.limits }
