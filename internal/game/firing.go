package game

import (
	"time"

	"firefight/internal/protocol"
	"firefight/internal/telemetry"
)

// minRefireDelay keeps a fully caught-up refire timer from firing in the same frame.
const minRefireDelay = time.Millisecond

// handleFiring runs one shot of the burst loop. It is entered from burst
// start, from the refire timer, and on the authority from ServerHandleFiring.
func (w *Weapon) handleFiring() {
	owner, ok := w.owner()
	if !ok {
		return
	}
	local := owner.IsLocallyControlled()
	shot := w.clipAmmo() > 0 && w.canFire()

	switch {
	case shot:
		if w.cosmetic() {
			w.simulateWeaponFire()
		}
		if local {
			w.fireShot(owner)
			w.burstCounter++
		}
	case w.canReload():
		w.startReloadFromFiring(local)
	case local:
		if w.ReserveAmmo() == 0 && !w.refiring {
			w.playSound(w.spec.Sounds.OutOfAmmo)
		}
		// Out of ammo: stop the burst but stay in Firing until the trigger is released.
		if w.burstCounter > 0 {
			w.onBurstFinished()
		}
	}

	if local {
		if !w.isAuthority() {
			w.world.net.ToAuthority(protocol.ServerHandleFiring{Weapon: string(w.id)})
		} else if shot {
			w.useClipAmmo()
		}

		// Reload right after the last round.
		if w.clipAmmo() <= 0 && w.canReload() {
			w.StartReload()
		}

		w.refiring = w.state == StateFiring && w.spec.Ammo.TimeBetweenShots > 0
		if w.refiring {
			delay := max(w.spec.Ammo.TimeBetweenShots+w.timerAdjustment, minRefireDelay)
			w.world.sched.SetTimer(&w.fireTimer, delay, w.handleReFiring)
			w.timerAdjustment = 0
		}
	}

	w.lastFireTime = w.world.sched.Now()
	w.hasFired = true
}

// startReloadFromFiring starts an automatic reload inside the shot loop. The
// authority tells a remote owner, which never asked for it.
func (w *Weapon) startReloadFromFiring(local bool) {
	w.StartReload()
	if w.isAuthority() && !local && w.pendingReload {
		w.world.net.ToOwner(w.ownerID, protocol.ClientStartReload{Weapon: string(w.id)})
	}
}

// handleReFiring absorbs the frame slack of a late refire when catch-up is allowed.
func (w *Weapon) handleReFiring() {
	now := w.world.sched.Now()
	slack := max(0, now-w.lastFireTime-w.spec.Ammo.TimeBetweenShots)
	if w.spec.Ammo.AllowCatchup {
		w.timerAdjustment -= slack
	}
	w.handleFiring()
}

// ServerHandleFiring is the authority side of one replica shot: it spends a
// round and bumps the replicated burst counter when the shot was legal.
func (w *Weapon) ServerHandleFiring() {
	if !w.isAuthority() {
		return
	}
	shouldUpdate := w.clip > 0 && w.canFire()
	w.handleFiring()
	if shouldUpdate {
		w.useClipAmmo()
		if w.state == StateFiring {
			w.burstCounter++
		}
	}
}

// fireShot traces the shot from the owner's view point and hands the result
// to hit processing.
func (w *Weapon) fireShot(owner OwnerCharacter) {
	origin, dir := owner.ViewPoint()
	end := origin.Add(dir.Scale(w.spec.HitScan.MaxRange))
	hit := w.world.Trace(origin, end, w.spec.HitScan.Radius, w.ownerID)
	w.world.stats.ShotsFired++
	telemetry.RecordShot(w.world.role.String())

	muzzle := w.muzzleLocation(owner)
	w.world.addTracer(w.id, muzzle, hit.Impact, hit.Blocking)
	w.processInstantHit(hit, origin, dir)
}

// simulateWeaponFire plays the cosmetic side of a shot. Looped effects start once per burst.
func (w *Weapon) simulateWeaponFire() {
	if !w.cosmetic() {
		return
	}
	owner, ok := w.owner()
	if !ok {
		return
	}
	fx := w.world.fx

	if !w.spec.LoopedMuzzleFX || !w.muzzleActive {
		fx.MuzzleFlash(w.id, w.spec.MuzzleSocket, w.spec.LoopedMuzzleFX)
		w.muzzleActive = w.spec.LoopedMuzzleFX
	}

	if !w.spec.LoopedFireAnim || !w.playingFireAnim {
		w.playMontage(w.spec.Anims.Fire)
		w.playingFireAnim = true
	}

	if w.spec.LoopedFireSound {
		if !w.fireLoopActive {
			w.playSound(w.spec.Sounds.FireLoop)
			w.fireLoopActive = true
		}
	} else {
		w.playSound(w.spec.Sounds.Fire)
	}

	if owner.IsLocallyControlled() {
		if w.spec.CameraShake > 0 {
			fx.CameraShake(w.spec.CameraShake)
		}
		if w.spec.ForceFeedback != "" {
			fx.ForceFeedback(w.spec.ForceFeedback)
		}
		r := w.spec.Recoil
		if r.X != 0 || r.Y != 0 {
			fx.Recoil(r.X, r.Y, r.Speed, r.ResetSpeed)
		}
	}
}

// stopSimulatingWeaponFire ends looped fire effects.
func (w *Weapon) stopSimulatingWeaponFire() {
	if !w.cosmetic() {
		return
	}
	if w.spec.LoopedMuzzleFX && w.muzzleActive {
		w.world.fx.StopMuzzleFlash(w.id)
		w.muzzleActive = false
	}
	if w.spec.LoopedFireAnim && w.playingFireAnim {
		w.stopMontage(w.spec.Anims.Fire)
	}
	w.playingFireAnim = false
	if w.fireLoopActive {
		w.world.fx.StopSound(w.spec.Sounds.FireLoop, w.ownerID)
		w.fireLoopActive = false
		w.playSound(w.spec.Sounds.FireFinish)
	}
}
