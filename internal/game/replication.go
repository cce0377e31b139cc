package game

import (
	"log"
	"maps"
	"sort"

	"firefight/internal/game/spatial"
	"firefight/internal/protocol"
)

// =============================================================================
// AUTHORITY: PER-CONNECTION DELTAS
// =============================================================================

// weaponShadow is what one connection was last told about a weapon.
type weaponShadow struct {
	owner         EntityID
	clip          int
	clipSent      bool
	burst         int
	pendingReload bool
	hitOrigin     spatial.Vec3
}

// ConnShadow tracks replicated state per connection so only changes are sent.
// A fresh shadow produces a full initial state.
type ConnShadow struct {
	Viewer   EntityID // character this connection controls
	weapons  map[WeaponID]weaponShadow
	entities map[EntityID]protocol.EntityState

	inventoryVersion uint64
	inventorySent    bool
}

// NewConnShadow creates an empty shadow for a connection controlling viewer.
func NewConnShadow(viewer EntityID) *ConnShadow {
	return &ConnShadow{
		Viewer:   viewer,
		weapons:  make(map[WeaponID]weaponShadow),
		entities: make(map[EntityID]protocol.EntityState),
	}
}

// Replicate sends everything that changed since the shadow was last updated.
// send reports whether the frame was queued; a refused frame leaves the
// shadow untouched so the change is retried on the next call.
func (w *World) Replicate(s *ConnShadow, send func(protocol.Message) bool) {
	w.replicateEntities(s, send)
	w.replicateInventory(s, send)
	w.replicateWeapons(s, send)
}

func (w *World) replicateEntities(s *ConnShadow, send func(protocol.Message) bool) {
	seen := make(map[EntityID]struct{}, w.reg.Len())
	w.reg.Each(func(e Entity) {
		state, ok := entityState(e)
		if !ok {
			return
		}
		seen[e.EntityID()] = struct{}{}
		if prev, sent := s.entities[e.EntityID()]; sent && entityStateEqual(prev, state) {
			return
		}
		if send(state) {
			s.entities[e.EntityID()] = state
		}
	})
	for _, id := range sortedKeys(s.entities) {
		if _, ok := seen[id]; ok {
			continue
		}
		if send(protocol.EntityRemoved{ID: string(id)}) {
			delete(s.entities, id)
		}
	}
}

func (w *World) replicateInventory(s *ConnShadow, send func(protocol.Message) bool) {
	c, ok := w.reg.Character(s.Viewer)
	if !ok {
		return
	}
	inv, ok := c.inventory.(*Inventory)
	if !ok {
		return
	}
	if s.inventorySent && s.inventoryVersion == inv.Version() {
		return
	}
	if send(protocol.InventoryUpdate{Owner: string(c.id), Stacks: inv.Quantities()}) {
		s.inventorySent = true
		s.inventoryVersion = inv.Version()
	}
}

func (w *World) replicateWeapons(s *ConnShadow, send func(protocol.Message) bool) {
	live := w.reg.Weapons()
	seen := make(map[WeaponID]struct{}, len(live))
	for _, wp := range live {
		seen[wp.id] = struct{}{}
		prev, sent := s.weapons[wp.id]
		d, next := weaponDelta(wp, prev, sent, wp.ownerID == s.Viewer)
		if d.Fields == 0 {
			continue
		}
		if send(d) {
			s.weapons[wp.id] = next
		}
	}
	for _, id := range sortedKeys(s.weapons) {
		if _, ok := seen[id]; ok {
			continue
		}
		if send(protocol.WeaponRemoved{Weapon: string(id)}) {
			delete(s.weapons, id)
		}
	}
}

// weaponDelta applies the per-field conditions: the item once, the owner to
// everyone, the clip to the owner only, burst and reload to everyone except
// the owner, and the hit origin to everyone whenever it changes.
func weaponDelta(wp *Weapon, prev weaponShadow, sent, toOwner bool) (protocol.WeaponDelta, weaponShadow) {
	d := protocol.WeaponDelta{Weapon: string(wp.id)}
	next := prev

	if !sent {
		d.Fields |= protocol.FieldItem
		d.Item = wp.spec.Name
	}
	if !sent || prev.owner != wp.ownerID {
		d.Fields |= protocol.FieldOwner
		d.Owner = string(wp.ownerID)
		next.owner = wp.ownerID
		next.clipSent = false
	}
	if toOwner {
		if !next.clipSent || prev.clip != wp.clip {
			d.Fields |= protocol.FieldClipAmmo
			d.ClipAmmo = wp.clip
			next.clip = wp.clip
			next.clipSent = true
		}
	} else {
		if !sent || prev.burst != wp.burstCounter {
			d.Fields |= protocol.FieldBurstCounter
			d.BurstCounter = wp.burstCounter
			next.burst = wp.burstCounter
		}
		if !sent || prev.pendingReload != wp.pendingReload {
			d.Fields |= protocol.FieldPendingReload
			d.PendingReload = wp.pendingReload
			next.pendingReload = wp.pendingReload
		}
	}
	if wp.hitNotify != prev.hitOrigin {
		d.Fields |= protocol.FieldHitOrigin
		d.HitOrigin = wp.hitNotify
		next.hitOrigin = wp.hitNotify
	}
	return d, next
}

func entityState(e Entity) (protocol.EntityState, bool) {
	switch v := e.(type) {
	case *Character:
		st := protocol.EntityState{
			ID:         string(v.id),
			Type:       protocol.EntityCharacter,
			Name:       v.name,
			Mobility:   uint8(v.mobility),
			Position:   v.position,
			HalfExtent: v.halfExtent,
			Aim:        v.aim,
			Health:     v.health,
			MaxHealth:  v.maxHealth,
			Weapon:     string(v.weapon),
			Throwable:  v.throwable,
		}
		if len(v.gear) > 0 {
			st.Gear = maps.Clone(v.gear)
		}
		return st, true
	case *Prop:
		if v.clientOnly {
			return protocol.EntityState{}, false
		}
		return protocol.EntityState{
			ID:         string(v.id),
			Type:       protocol.EntityProp,
			Mobility:   uint8(v.mobility),
			Position:   v.box.Center(),
			HalfExtent: v.box.Extent(),
		}, true
	}
	return protocol.EntityState{}, false
}

func entityStateEqual(a, b protocol.EntityState) bool {
	return a.ID == b.ID &&
		a.Type == b.Type &&
		a.Name == b.Name &&
		a.Mobility == b.Mobility &&
		a.Position == b.Position &&
		a.HalfExtent == b.HalfExtent &&
		a.Aim == b.Aim &&
		a.Health == b.Health &&
		a.MaxHealth == b.MaxHealth &&
		a.Weapon == b.Weapon &&
		a.Throwable == b.Throwable &&
		maps.Equal(a.Gear, b.Gear)
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// =============================================================================
// REPLICA: APPLYING AUTHORITY TRAFFIC
// =============================================================================

// ApplyFromAuthority applies one authority message on a replica. It reports
// whether the message kind was handled.
func (w *World) ApplyFromAuthority(msg protocol.Message) bool {
	if w.role != RoleReplica {
		return false
	}
	switch m := msg.(type) {
	case protocol.Welcome:
		w.SetLocalCharacter(EntityID(m.Character))
	case protocol.EntityState:
		w.applyEntityState(m)
	case protocol.EntityRemoved:
		w.RemoveEntity(EntityID(m.ID))
	case protocol.WeaponDelta:
		w.applyWeaponDelta(m)
	case protocol.WeaponRemoved:
		w.DestroyWeapon(WeaponID(m.Weapon))
	case protocol.InventoryUpdate:
		if c, ok := w.reg.Character(EntityID(m.Owner)); ok {
			if mirror, ok := c.inventory.(*MirrorInventory); ok {
				mirror.Apply(m.Stacks)
			}
		}
	case protocol.ClientStartReload:
		if wp, ok := w.reg.Weapon(WeaponID(m.Weapon)); ok && wp.ownerIsLocal() {
			wp.startReload(true)
		}
	case protocol.ClientHitMarker:
		w.fx.HitMarker(EntityID(m.Victim))
	case protocol.ThrowableToss:
		c, ok := w.reg.Character(EntityID(m.Character))
		if !ok || c.local {
			return true
		}
		if it, ok := w.items.Item(m.Item); ok {
			if ti, ok := it.(*ThrowableItem); ok {
				w.playToss(c, ti.Def)
			}
		}
	default:
		return false
	}
	return true
}

func (w *World) applyEntityState(st protocol.EntityState) {
	id := EntityID(st.ID)
	switch st.Type {
	case protocol.EntityCharacter:
		c, ok := w.reg.Character(id)
		if !ok {
			c = NewCharacter(id, st.Name, CharacterOptions{
				Position:   st.Position,
				HalfExtent: st.HalfExtent,
				Aim:        st.Aim,
				Mobility:   Mobility(st.Mobility),
				MaxHealth:  st.MaxHealth,
				Local:      id == w.local && id != "",
				Inventory:  NewMirrorInventory(),
				Animation:  NewMontagePlayer(w.items.Montages(), w.sched.Now),
			})
			w.AddEntity(c)
		}
		c.position = st.Position
		c.halfExtent = st.HalfExtent
		c.mobility = Mobility(st.Mobility)
		c.SetHealth(st.Health, st.MaxHealth)
		if !c.local {
			// The controlling replica owns its aim.
			c.SetAim(st.Aim)
		}
		c.throwable = st.Throwable
		c.gear = make(map[string]string, len(st.Gear))
		maps.Copy(c.gear, st.Gear)
	case protocol.EntityProp:
		box := spatial.BoxAround(st.Position, st.HalfExtent)
		if e, ok := w.reg.Get(id); ok {
			if p, ok := e.(*Prop); ok {
				p.SetBounds(box)
				p.mobility = Mobility(st.Mobility)
			}
		} else {
			w.AddEntity(NewProp(id, box, Mobility(st.Mobility)))
		}
	default:
		log.Printf("⚠️ Entity %s has unknown type %d", st.ID, st.Type)
		return
	}
	w.MarkDirty()
}

// applyWeaponDelta writes canonical fields then fires their notifications.
// The clip lands before the owner so an equip on arrival sees the real count.
func (w *World) applyWeaponDelta(d protocol.WeaponDelta) {
	id := WeaponID(d.Weapon)
	wp, ok := w.reg.Weapon(id)
	if !ok {
		if !d.Fields.Has(protocol.FieldItem) {
			log.Printf("⚠️ Delta for unknown weapon %s without an item", id)
			return
		}
		spec, ok := w.items.Weapon(d.Item)
		if !ok {
			log.Printf("⚠️ Weapon %s uses unknown item %q", id, d.Item)
			return
		}
		wp = newWeapon(w, id, spec)
		w.reg.AddWeapon(wp)
	}

	if d.Fields.Has(protocol.FieldClipAmmo) {
		wp.canon.clip = d.ClipAmmo
	}
	if d.Fields.Has(protocol.FieldOwner) {
		prev := wp.ownerID
		wp.ownerID = EntityID(d.Owner)
		wp.onRepOwner(prev)
	}
	if d.Fields.Has(protocol.FieldBurstCounter) {
		wp.canon.burst = d.BurstCounter
		wp.onRepBurstCounter()
	}
	if d.Fields.Has(protocol.FieldPendingReload) {
		wp.canon.pendingReload = d.PendingReload
		wp.onRepReload()
	}
	if d.Fields.Has(protocol.FieldHitOrigin) {
		wp.canon.hitOrigin = d.HitOrigin
		wp.onRepHitNotify()
	}
}

func (w *Weapon) onRepOwner(prev EntityID) {
	if c, ok := w.world.reg.Character(prev); ok && c.weapon == w.id && prev != w.ownerID {
		c.weapon = ""
	}
	if w.ownerID == "" {
		w.OnUnequip()
		return
	}
	if c, ok := w.world.reg.Character(w.ownerID); ok {
		c.weapon = w.id
	}
	w.OnEquip()
}

func (w *Weapon) onRepBurstCounter() {
	if w.ownerIsLocal() {
		return
	}
	if w.canon.burst > 0 {
		w.simulateWeaponFire()
		return
	}
	w.stopSimulatingWeaponFire()
}

func (w *Weapon) onRepReload() {
	if w.ownerIsLocal() {
		return
	}
	if w.canon.pendingReload {
		w.startReload(true)
		return
	}
	w.cancelReload()
	w.determineState()
}

func (w *Weapon) onRepHitNotify() {
	if w.ownerIsLocal() || w.canon.hitOrigin.IsZero() {
		return
	}
	w.simulateInstantHit(w.canon.hitOrigin)
}

// =============================================================================
// REPLICA: LOCAL INPUT
// =============================================================================

// LocalCharacterRef returns the character this replica controls.
func (w *World) LocalCharacterRef() (*Character, bool) {
	if w.local == "" {
		return nil, false
	}
	return w.reg.Character(w.local)
}

// LocalWeapon returns the weapon held by the local character.
func (w *World) LocalWeapon() (*Weapon, bool) {
	c, ok := w.LocalCharacterRef()
	if !ok || c.weapon == "" {
		return nil, false
	}
	return w.reg.Weapon(c.weapon)
}

// AimLocal points the local character and tells the authority.
func (w *World) AimLocal(dir spatial.Vec3) {
	c, ok := w.LocalCharacterRef()
	if !ok {
		return
	}
	c.SetAim(dir)
	w.net.ToAuthority(protocol.ServerAim{Aim: c.aim})
}

// RequestEquip asks the authority to equip an item on the local character.
func (w *World) RequestEquip(item string) { w.net.ToAuthority(protocol.ServerEquip{Item: item}) }

// RequestUnequip asks the authority to clear a slot of the local character.
func (w *World) RequestUnequip(slot string) {
	w.net.ToAuthority(protocol.ServerUnequip{Slot: slot})
}
