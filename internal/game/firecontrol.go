package game

import (
	"log"

	"firefight/internal/protocol"
	"firefight/internal/telemetry"
)

// forward sends a fire-control input to the authority. Only the replica that
// controls the owner may speak for the weapon.
func (w *Weapon) forward(msg protocol.Message) {
	if w.isAuthority() || !w.ownerIsLocal() {
		return
	}
	w.world.net.ToAuthority(msg)
}

// StartFire sets want-to-fire. Replicas forward it and predict locally.
func (w *Weapon) StartFire() {
	w.forward(protocol.ServerStartFire{Weapon: string(w.id)})
	if !w.wantsToFire {
		w.wantsToFire = true
		w.determineState()
	}
}

// StopFire clears want-to-fire.
func (w *Weapon) StopFire() {
	w.forward(protocol.ServerStopFire{Weapon: string(w.id)})
	if w.wantsToFire {
		w.wantsToFire = false
		w.determineState()
	}
}

// StartReload begins a reload when one is legal. The montage starts at once
// on the initiating process; its length drives the stop timer everywhere and
// the refill timer on the authority.
func (w *Weapon) StartReload() { w.startReload(false) }

func (w *Weapon) startReload(fromReplication bool) {
	if !fromReplication {
		w.forward(protocol.ServerStartReload{Weapon: string(w.id)})
	}
	if !fromReplication && !w.canReload() {
		return
	}

	w.pendingReload = true
	w.determineState()

	cfg := w.world.cfg
	d := w.playMontage(w.spec.Anims.Reload)
	if d <= 0 {
		d = cfg.ReloadFallback
	}
	w.world.sched.SetTimer(&w.stopReloadTimer, d, w.stopReloading)
	if w.isAuthority() {
		w.world.sched.SetTimer(&w.reloadApplyTimer, max(cfg.ReloadApplyFloor, d-cfg.ReloadApplyLead), w.ReloadWeapon)
		w.world.emit(EventTypeReloadStart, w.ownerID, ReloadPayload{
			WeaponID: string(w.id),
			ClipAmmo: w.clip,
			Reserve:  w.ReserveAmmo(),
		})
	}
	if w.ownerIsLocal() {
		w.playSound(w.spec.Sounds.Reload)
	}
}

// StopReload cancels a reload in progress, including a refill that has not run yet.
func (w *Weapon) StopReload() {
	if w.state != StateReloading {
		return
	}
	w.forward(protocol.ServerStopReload{Weapon: string(w.id)})
	w.world.sched.ClearTimer(&w.reloadApplyTimer)
	w.stopReloading()
}

// stopReloading is the end of the visual reload.
func (w *Weapon) stopReloading() {
	if w.state != StateReloading {
		return
	}
	w.world.sched.ClearTimer(&w.stopReloadTimer)
	w.stopMontage(w.spec.Anims.Reload)
	w.pendingReload = false
	w.determineState()
}

// cancelReload drops a reload regardless of state. Used by unequip and by
// remote proxies, whose state cannot be trusted to have reached Reloading.
func (w *Weapon) cancelReload() {
	w.stopMontage(w.spec.Anims.Reload)
	w.pendingReload = false
	w.world.sched.ClearTimer(&w.stopReloadTimer)
	w.world.sched.ClearTimer(&w.reloadApplyTimer)
}

// OnEquip starts the equip montage; the weapon becomes usable when it ends.
func (w *Weapon) OnEquip() {
	w.pendingEquip = true
	w.determineState()

	if w.ownerIsLocal() {
		w.playSound(w.spec.Sounds.Equip)
	}
	d := w.playMontage(w.spec.Anims.Equip)
	if d > 0 {
		w.world.sched.SetTimer(&w.equipTimer, d, w.onEquipFinished)
		return
	}
	w.onEquipFinished()
}

func (w *Weapon) onEquipFinished() {
	w.equipped = true
	w.pendingEquip = false
	w.determineState()

	if w.ownerIsLocal() && w.clipAmmo() <= 0 && w.canReload() {
		w.StartReload()
	}
}

// OnUnequip stops everything in flight: fire, reload (both timers) and
// equip, then hands the loaded rounds back.
func (w *Weapon) OnUnequip() {
	w.equipped = false
	// The authority tears down its own copy; nothing is forwarded from here.
	w.wantsToFire = false

	if w.pendingReload {
		w.cancelReload()
	}
	if w.pendingEquip {
		w.stopMontage(w.spec.Anims.Equip)
		w.pendingEquip = false
		w.world.sched.ClearTimer(&w.equipTimer)
	}

	w.ReturnAmmoToInventory()
	w.determineState()
}

// =============================================================================
// AUTHORITY DISPATCH
// =============================================================================

// ApplyFromOwner executes one replica message on the authority on behalf of
// the character the sending connection controls. It reports whether the
// message was recognised; rejected commands are logged and counted, never
// answered.
func (w *World) ApplyFromOwner(from EntityID, msg protocol.Message) bool {
	c, ok := w.reg.Character(from)
	if !ok {
		return false
	}

	switch m := msg.(type) {
	case protocol.ServerAim:
		c.SetAim(m.Aim)
		w.MarkDirty()
	case protocol.ServerEquip:
		w.Equip(c, m.Item)
	case protocol.ServerUnequip:
		w.Unequip(c, m.Slot)
	case protocol.ServerUseThrowable:
		w.UseThrowable(c)
	case protocol.ServerStartFire:
		if wp := w.ownedWeapon(from, m.Weapon); wp != nil {
			wp.StartFire()
		}
	case protocol.ServerStopFire:
		if wp := w.ownedWeapon(from, m.Weapon); wp != nil {
			wp.StopFire()
		}
	case protocol.ServerStartReload:
		if wp := w.ownedWeapon(from, m.Weapon); wp != nil {
			wp.StartReload()
		}
	case protocol.ServerStopReload:
		if wp := w.ownedWeapon(from, m.Weapon); wp != nil {
			wp.StopReload()
		}
	case protocol.ServerHandleFiring:
		if wp := w.ownedWeapon(from, m.Weapon); wp != nil {
			wp.ServerHandleFiring()
		}
	case protocol.ServerNotifyHit:
		if wp := w.ownedWeapon(from, m.Weapon); wp != nil {
			wp.ServerNotifyHit(hitFromWire(m.Hit), m.ShootDir)
		}
	default:
		return false
	}
	return true
}

func (w *World) ownedWeapon(from EntityID, id string) *Weapon {
	wp, ok := w.reg.Weapon(WeaponID(id))
	if !ok {
		telemetry.RecordRejectedCommand("unknown_weapon")
		return nil
	}
	if wp.ownerID != from {
		log.Printf("🚫 %s sent a command for weapon %s owned by %q", from, id, wp.ownerID)
		telemetry.RecordRejectedCommand("not_owner")
		return nil
	}
	return wp
}

// Equip puts a catalog item on c. Authority only.
func (w *World) Equip(c *Character, item string) bool {
	if w.role != RoleAuthority || !c.IsAlive() {
		return false
	}
	it, ok := w.items.Item(item)
	if !ok {
		telemetry.RecordRejectedCommand("unknown_item")
		return false
	}
	if !it.Equip(w, c) {
		return false
	}
	w.emit(EventTypeEquip, c.id, EquipPayload{CharacterID: string(c.id), Item: item, Slot: it.Slot()})
	return true
}

// Unequip clears one slot of c. Authority only.
func (w *World) Unequip(c *Character, slot string) {
	if w.role != RoleAuthority {
		return
	}
	switch slot {
	case SlotWeapon:
		if wp, ok := w.reg.Weapon(c.weapon); ok {
			w.emit(EventTypeUnequip, c.id, EquipPayload{CharacterID: string(c.id), Item: wp.spec.Name, Slot: slot})
		}
		w.DestroyWeapon(c.weapon)
	case SlotThrowable:
		c.throwable = ""
		w.MarkDirty()
	default:
		if name, ok := c.gear[slot]; ok {
			if it, ok := w.items.Item(name); ok {
				it.Unequip(w, c)
			}
			w.emit(EventTypeUnequip, c.id, EquipPayload{CharacterID: string(c.id), Item: name, Slot: slot})
		}
	}
}

// UseThrowable tosses one unit of the selected throwable. The authority
// consumes the unit and tells everyone; the controlling replica plays the
// toss right away and forwards the request. No projectile is simulated.
func (w *World) UseThrowable(c *Character) bool {
	if c.throwable == "" || !c.IsAlive() {
		return false
	}
	it, ok := w.items.Item(c.throwable)
	if !ok {
		return false
	}
	ti, ok := it.(*ThrowableItem)
	if !ok {
		return false
	}
	inv := c.Inventory()
	if inv == nil {
		return false
	}
	stack, ok := inv.FindStackByType(ti.Def.Name)
	if !ok || stack.Quantity <= 0 {
		return false
	}

	if w.role == RoleAuthority {
		if inv.ConsumeUnits(stack, 1) == 0 {
			return false
		}
		if _, left := inv.FindStackByType(ti.Def.Name); !left {
			c.throwable = ""
			w.MarkDirty()
		}
		if c.local {
			w.playToss(c, ti.Def)
		}
		w.net.Broadcast(protocol.ThrowableToss{Character: string(c.id), Item: ti.Def.Name})
		w.emit(EventTypeThrowable, c.id, EquipPayload{CharacterID: string(c.id), Item: ti.Def.Name, Slot: SlotThrowable})
		return true
	}

	if !c.local {
		return false
	}
	if stack.Quantity <= 1 {
		c.throwable = ""
	}
	w.playToss(c, ti.Def)
	w.net.ToAuthority(protocol.ServerUseThrowable{})
	return true
}
