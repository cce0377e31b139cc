package game

import (
	"log"

	"firefight/internal/telemetry"
)

// ReserveAmmo returns the owner's stack of this weapon's ammo type. Replicas
// read the mirrored inventory.
func (w *Weapon) ReserveAmmo() int {
	o, ok := w.owner()
	if !ok {
		return 0
	}
	inv := o.Inventory()
	if inv == nil {
		return 0
	}
	stack, ok := inv.FindStackByType(w.spec.Ammo.AmmoType)
	if !ok || stack == nil {
		return 0
	}
	return stack.Quantity
}

// useClipAmmo spends one loaded round. Authority only.
func (w *Weapon) useClipAmmo() {
	if !w.isAuthority() {
		return
	}
	if w.clip > 0 {
		w.clip--
	}
}

// ConsumeReserve removes up to n rounds from the owner's inventory and
// returns how many were removed. Authority only.
func (w *Weapon) ConsumeReserve(n int) int {
	if !w.isAuthority() || n <= 0 {
		return 0
	}
	o, ok := w.owner()
	if !ok {
		return 0
	}
	inv := o.Inventory()
	if inv == nil {
		return 0
	}
	stack, ok := inv.FindStackByType(w.spec.Ammo.AmmoType)
	if !ok {
		return 0
	}
	return inv.ConsumeUnits(stack, n)
}

// ReloadWeapon moves as many rounds as fit from reserve into the clip. It is
// the reload-apply timer callback and deliberately does not re-check whether
// a reload is still legal.
func (w *Weapon) ReloadWeapon() {
	if !w.isAuthority() {
		return
	}
	fill := min(w.spec.Ammo.ClipCapacity-w.clip, w.ReserveAmmo())
	if fill <= 0 {
		log.Printf("⚠️ Reload of %s (%s) moved nothing: clip %d/%d, reserve %d",
			w.id, w.spec.Name, w.clip, w.spec.Ammo.ClipCapacity, w.ReserveAmmo())
		w.world.stats.ReloadsEmpty++
		telemetry.RecordReload("empty")
		return
	}
	w.clip += fill
	w.ConsumeReserve(fill)
	w.world.stats.ReloadsApplied++
	telemetry.RecordReload("applied")
	w.world.emit(EventTypeReload, w.ownerID, ReloadPayload{
		WeaponID: string(w.id),
		Filled:   fill,
		ClipAmmo: w.clip,
		Reserve:  w.ReserveAmmo(),
	})
}

// ReturnAmmoToInventory pushes the loaded rounds back to the owner on
// unequip. Whatever the inventory refuses is lost; unequip never waits on it.
func (w *Weapon) ReturnAmmoToInventory() {
	if !w.isAuthority() || w.clip <= 0 {
		return
	}
	o, ok := w.owner()
	if !ok {
		return
	}
	inv := o.Inventory()
	if inv == nil {
		return
	}
	if added := inv.AddUnitsOfType(w.spec.Ammo.AmmoType, w.clip); added < w.clip {
		log.Printf("⚠️ Inventory of %s took %d/%d rounds back from %s", w.ownerID, added, w.clip, w.id)
	}
}
