package game

import (
	"log"
	"math"
	"time"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
	"firefight/internal/protocol"

	"github.com/google/uuid"
)

// Role says whether a process's decisions are canonical.
type Role uint8

const (
	RoleAuthority Role = iota
	RoleReplica
)

// String returns human-readable role
func (r Role) String() string {
	if r == RoleAuthority {
		return "authority"
	}
	return "replica"
}

// Net is the outbound side of the fire-control protocol. Every call is a
// reliable one-way message; none of them block.
type Net interface {
	// ToAuthority sends a replica request. Unused on the authority.
	ToAuthority(msg protocol.Message)
	// ToOwner sends an authority call to the connection controlling owner.
	ToOwner(owner EntityID, msg protocol.Message)
	// Broadcast sends an authority event to every connection.
	Broadcast(msg protocol.Message)
}

type nopNet struct{}

func (nopNet) ToAuthority(protocol.Message) {}
func (nopNet) ToOwner(EntityID, protocol.Message) {}
func (nopNet) Broadcast(protocol.Message) {}

// ReviveDelay is how long a killed character stays down.
const ReviveDelay = 5 * time.Second

// CombatStats are running totals for the stats endpoint.
type CombatStats struct {
	ShotsFired     int     `json:"shotsFired"`
	HitsConfirmed  int     `json:"hitsConfirmed"`
	HitsRejected   int     `json:"hitsRejected"`
	ReloadsApplied int     `json:"reloadsApplied"`
	ReloadsEmpty   int     `json:"reloadsEmpty"`
	DamageDealt    float64 `json:"damageDealt"`
	Kills          int     `json:"kills"`
}

// WorldOptions configures NewWorld.
type WorldOptions struct {
	Role   Role
	Combat config.CombatConfig
	Arena  config.WorldConfig
	Limits config.ResourceLimits
	Items  *ItemCatalog
	Net    Net          // nil = drop everything
	FX     Presentation // nil = render nothing
	Events *EventLog    // nil = no audit trail
	// LocalCharacter is the character this replica controls.
	LocalCharacter EntityID
}

// World is everything one process knows about the fight: entities, weapons,
// the shared scheduler and the trace scene. It is owned by a single goroutine.
type World struct {
	role   Role
	cfg    config.CombatConfig
	arena  config.WorldConfig
	limits config.ResourceLimits
	items  *ItemCatalog
	sched  *Scheduler
	reg    *Registry
	net    Net
	fx     Presentation
	events *EventLog
	local  EntityID

	grid      *spatial.SpatialGrid
	gridIDs   []EntityID
	gridDirty bool

	flashes []*ImpactFlash
	tracers []*ShotTrace
	tick    uint64
	stats   CombatStats
}

// NewWorld creates an empty world.
func NewWorld(opts WorldOptions) *World {
	w := &World{
		role:   opts.Role,
		cfg:    opts.Combat,
		arena:  opts.Arena,
		limits: opts.Limits,
		items:  opts.Items,
		sched:  NewScheduler(),
		reg:    NewRegistry(),
		net:    opts.Net,
		fx:     opts.FX,
		events: opts.Events,
		local:  opts.LocalCharacter,
	}
	if w.net == nil {
		w.net = nopNet{}
	}
	if w.fx == nil {
		w.fx = nopPresentation{}
	}
	if w.arena.Width <= 0 || w.arena.Depth <= 0 {
		w.arena = config.DefaultWorld()
	}
	if w.arena.GridCellSize <= 0 {
		w.arena.GridCellSize = config.DefaultWorld().GridCellSize
	}
	w.grid = spatial.NewSpatialGrid(w.arena.Width, w.arena.Depth, w.arena.GridCellSize, 64)
	w.gridDirty = true
	return w
}

func (w *World) Role() Role { return w.role }
func (w *World) Scheduler() *Scheduler { return w.sched }
func (w *World) Registry() *Registry { return w.reg }
func (w *World) Items() *ItemCatalog { return w.items }
func (w *World) Stats() CombatStats { return w.stats }
func (w *World) LocalCharacter() EntityID { return w.local }
func (w *World) Arena() config.WorldConfig { return w.arena }
func (w *World) Now() time.Duration { return w.sched.Now() }
func (w *World) Tick() uint64 { return w.tick }
func (w *World) Flashes() []*ImpactFlash { return w.flashes }
func (w *World) Tracers() []*ShotTrace { return w.tracers }
func (w *World) Combat() config.CombatConfig { return w.cfg }

// SetLocalCharacter records which character this replica controls.
func (w *World) SetLocalCharacter(id EntityID) {
	w.local = id
	if c, ok := w.reg.Character(id); ok {
		c.local = true
	}
}

// MarkDirty flags that an entity moved or was added, so the trace grid is rebuilt.
func (w *World) MarkDirty() { w.gridDirty = true }

func (w *World) emit(t EventType, actor EntityID, payload any) {
	if w.events == nil {
		return
	}
	w.events.EmitSimple(t, w.tick, string(actor), payload)
}

// Advance runs one frame: timers first, then patrols and effect decay.
func (w *World) Advance(dt time.Duration) {
	w.tick++
	w.sched.Advance(dt)

	secs := dt.Seconds()
	w.reg.Each(func(e Entity) {
		if c, ok := e.(*Character); ok && c.stepPatrol(secs) {
			w.MarkDirty()
		}
	})
	w.updateEffects()
}

// =============================================================================
// ENTITIES AND WEAPONS
// =============================================================================

// AddEntity registers a character or prop.
func (w *World) AddEntity(e Entity) {
	w.reg.Add(e)
	if c, ok := e.(*Character); ok && c.id == w.local && w.local != "" {
		c.local = true
	}
	w.MarkDirty()
}

// RemoveEntity destroys an entity and the weapon it holds.
func (w *World) RemoveEntity(id EntityID) {
	if c, ok := w.reg.Character(id); ok && c.weapon != "" {
		w.DestroyWeapon(c.weapon)
	}
	w.reg.Remove(id)
	w.MarkDirty()
}

// SpawnWeapon creates a weapon owned by owner and puts it in the owner's hand.
// The caller runs OnEquip.
func (w *World) SpawnWeapon(spec *WeaponSpec, owner EntityID) *Weapon {
	return w.adoptWeapon(WeaponID(uuid.NewString()), spec, owner)
}

func (w *World) adoptWeapon(id WeaponID, spec *WeaponSpec, owner EntityID) *Weapon {
	wp := newWeapon(w, id, spec)
	wp.ownerID = owner
	w.reg.AddWeapon(wp)
	if c, ok := w.reg.Character(owner); ok {
		c.weapon = id
	}
	w.MarkDirty()
	return wp
}

// DestroyWeapon unequips and forgets a weapon. Unknown ids are ignored.
func (w *World) DestroyWeapon(id WeaponID) {
	if id == "" {
		return
	}
	wp, ok := w.reg.Weapon(id)
	if !ok {
		return
	}
	wp.OnUnequip()
	for _, h := range []*TimerHandle{&wp.fireTimer, &wp.stopReloadTimer, &wp.reloadApplyTimer, &wp.equipTimer} {
		w.sched.ClearTimer(h)
	}
	if c, ok := w.reg.Character(wp.ownerID); ok && c.weapon == id {
		c.weapon = ""
	}
	wp.destroyed = true
	w.reg.RemoveWeapon(id)
	w.MarkDirty()
}

// onKilled is called once when a confirmed hit takes a character to zero health.
func (w *World) onKilled(victim *Character, by *Weapon) {
	w.stats.Kills++
	log.Printf("💀 %s killed by %s (%s)", victim.name, by.ownerID, by.spec.Name)
	w.emit(EventTypeKill, by.ownerID, KillPayload{
		KillerID: string(by.ownerID),
		VictimID: string(victim.id),
		WeaponID: string(by.id),
	})
	if wp, ok := w.reg.Weapon(victim.weapon); ok {
		wp.wantsToFire = false
		wp.determineState()
	}

	id := victim.id
	var revive TimerHandle
	w.sched.SetTimer(&revive, ReviveDelay, func() {
		if c, ok := w.reg.Character(id); ok && !c.IsAlive() {
			c.Revive()
			w.MarkDirty()
		}
	})
}

// playToss plays a throwable toss on c.
func (w *World) playToss(c *Character, def config.ThrowableDef) {
	if c.anim != nil && def.TossMontage != "" {
		c.anim.PlayMontage(def.TossMontage)
	}
}

// =============================================================================
// TRACING
// =============================================================================

func (w *World) rebuildGrid() {
	if !w.gridDirty {
		return
	}
	w.grid.Clear()
	w.gridIDs = w.gridIDs[:0]
	w.reg.Each(func(e Entity) {
		w.grid.Insert(uint32(len(w.gridIDs)), e.Bounds())
		w.gridIDs = append(w.gridIDs, e.EntityID())
	})
	w.gridDirty = false
}

// Trace casts a line (radius 0) or sphere from origin to end against every
// entity except ignore, the ground plane and the arena walls. A miss returns
// a non-blocking candidate ending at end.
func (w *World) Trace(origin, end spatial.Vec3, radius float64, ignore EntityID) HitCandidate {
	delta := end.Sub(origin)
	maxDist := delta.Len()
	dir := delta.SafeNormal()
	hit := HitCandidate{Origin: origin, Direction: dir, Impact: end, Distance: maxDist}
	if maxDist == 0 {
		return hit
	}

	best := maxDist
	w.rebuildGrid()
	for _, idx := range w.grid.QuerySegment(origin, end, radius) {
		if int(idx) >= len(w.gridIDs) {
			continue
		}
		id := w.gridIDs[idx]
		if id == ignore {
			continue
		}
		e, ok := w.reg.Get(id)
		if !ok {
			continue
		}
		if c, ok := e.(*Character); ok && !c.IsAlive() {
			continue
		}
		box := e.Bounds()
		if radius > 0 {
			box = box.Expand(radius)
		}
		rh, ok := box.IntersectRay(origin, dir, best)
		if !ok || (hit.Blocking && rh.Distance >= best) {
			continue
		}
		best = rh.Distance
		hit.Blocking = true
		hit.Entity = id
		hit.AuthorityControlled = !isClientOnly(e)
		hit.Impact = rh.Point
		hit.Normal = rh.Normal
		hit.Distance = rh.Distance
	}

	if d, n, ok := w.traceGeometry(origin, dir, best); ok && (!hit.Blocking || d < best) {
		hit.Blocking = true
		hit.Entity = ""
		hit.AuthorityControlled = false
		hit.Impact = origin.Add(dir.Scale(d))
		hit.Normal = n
		hit.Distance = d
	}
	return hit
}

// traceGeometry intersects a ray with the ground (z = 0) and the four arena walls.
func (w *World) traceGeometry(origin, dir spatial.Vec3, maxDist float64) (float64, spatial.Vec3, bool) {
	const eps = 1e-9
	best := math.Inf(1)
	var normal spatial.Vec3

	try := func(t float64, n spatial.Vec3) {
		if t >= 0 && t <= maxDist && t < best {
			best = t
			normal = n
		}
	}

	if dir.Z < -eps {
		try(-origin.Z/dir.Z, spatial.V(0, 0, 1))
	}
	if dir.X > eps {
		try((w.arena.Width-origin.X)/dir.X, spatial.V(-1, 0, 0))
	} else if dir.X < -eps {
		try(-origin.X/dir.X, spatial.V(1, 0, 0))
	}
	if dir.Y > eps {
		try((w.arena.Depth-origin.Y)/dir.Y, spatial.V(0, -1, 0))
	} else if dir.Y < -eps {
		try(-origin.Y/dir.Y, spatial.V(0, 1, 0))
	}

	if math.IsInf(best, 1) {
		return 0, spatial.Vec3{}, false
	}
	return best, normal, true
}

func isClientOnly(e Entity) bool {
	co, ok := e.(interface{ ClientOnly() bool })
	return ok && co.ClientOnly()
}

// =============================================================================
// DEBUG VIEW EFFECTS
// =============================================================================

func (w *World) addTracer(id WeaponID, from, to spatial.Vec3, accepted bool) {
	if w.limits.MaxTracers > 0 && len(w.tracers) >= w.limits.MaxTracers {
		w.tracers = w.tracers[1:]
	}
	w.tracers = append(w.tracers, &ShotTrace{Weapon: id, From: from, To: to, Accepted: accepted, Timer: shotTraceTicks})
}

func (w *World) addFlash(at spatial.Vec3, confirmed bool) {
	if w.limits.MaxImpacts > 0 && len(w.flashes) >= w.limits.MaxImpacts {
		return
	}
	w.flashes = append(w.flashes, NewImpactFlash(at, confirmed))
}

// updateEffects fades tracers and flashes in place.
func (w *World) updateEffects() {
	n := 0
	for _, f := range w.flashes {
		if f.Update() {
			w.flashes[n] = f
			n++
		}
	}
	w.flashes = w.flashes[:n]

	n = 0
	for _, t := range w.tracers {
		if t.Update() {
			w.tracers[n] = t
			n++
		}
	}
	w.tracers = w.tracers[:n]
}
