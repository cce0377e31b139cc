package replica

import (
	"log"
	"math"

	"firefight/internal/config"
	"firefight/internal/game"
	"firefight/internal/game/spatial"
)

// aimEpsilon is the smallest aim change worth a ServerAim.
const aimEpsilon = 1e-3

// pilot drives the local character: it aims at the nearest living opponent in
// range and holds the trigger for BurstLength out of every BurstEvery.
type pilot struct {
	world *game.World
	cfg   config.ReplicaConfig

	equipRequested bool
	lastAim        spatial.Vec3
}

func newPilot(w *game.World, cfg config.ReplicaConfig) *pilot {
	return &pilot{world: w, cfg: cfg}
}

// fly runs once per frame on the tick goroutine.
func (p *pilot) fly() {
	me, ok := p.world.LocalCharacterRef()
	if !ok || !me.IsAlive() {
		return
	}
	wp, ok := p.world.LocalWeapon()
	if !ok {
		return
	}

	if p.cfg.Weapon != "" && wp.Spec().Name != p.cfg.Weapon {
		if !p.equipRequested {
			log.Printf("🔁 Requesting %s instead of %s", p.cfg.Weapon, wp.Spec().Name)
			p.world.RequestEquip(p.cfg.Weapon)
			p.equipRequested = true
		}
		return
	}

	target, found := p.nearestTarget(me, wp.Spec().HitScan.MaxRange)
	if found {
		origin, _ := me.ViewPoint()
		dir := target.Position().Sub(origin).SafeNormal()
		if dir.Sub(p.lastAim).Len() > aimEpsilon {
			p.world.AimLocal(dir)
			p.lastAim = dir
		}
	}

	trigger := found && wp.IsEquipped() && p.inBurst()
	switch {
	case trigger && !wp.WantsToFire():
		wp.StartFire()
	case trigger && p.stalled(wp):
		// A held trigger does not resume fire after an equip or reload.
		wp.StopFire()
		wp.StartFire()
	case !trigger && wp.WantsToFire():
		wp.StopFire()
	}
}

// stalled reports a weapon that settled in Idle with the trigger still held.
func (p *pilot) stalled(wp *game.Weapon) bool {
	return wp.WantsToFire() && wp.State() == game.StateIdle && !wp.IsPendingReload()
}

// inBurst reports whether the trigger is held at the current world time.
func (p *pilot) inBurst() bool {
	if p.cfg.BurstEvery <= 0 {
		return true
	}
	return p.world.Now()%p.cfg.BurstEvery < p.cfg.BurstLength
}

func (p *pilot) nearestTarget(me *game.Character, maxRange float64) (*game.Character, bool) {
	var best *game.Character
	bestDist := math.Inf(1)
	p.world.Registry().Each(func(e game.Entity) {
		c, ok := e.(*game.Character)
		if !ok || c == me || !c.IsAlive() {
			return
		}
		d := me.Position().DistTo(c.Position())
		if maxRange > 0 && d > maxRange {
			return
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	})
	return best, best != nil
}
