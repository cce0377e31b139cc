package game

import (
	"log"

	"firefight/internal/game/spatial"
	"firefight/internal/protocol"
	"firefight/internal/telemetry"
)

// HitCandidate is the result of one weapon trace.
type HitCandidate struct {
	Blocking bool
	Entity   EntityID // "" for world geometry or a miss
	// AuthorityControlled is set when the entity was replicated from the
	// authority, as opposed to existing only on the tracing replica.
	AuthorityControlled bool
	Origin              spatial.Vec3
	Direction           spatial.Vec3
	Impact              spatial.Vec3
	Normal              spatial.Vec3
	Distance            float64
}

// ToWire converts the candidate for ServerNotifyHit.
func (h HitCandidate) ToWire() protocol.Hit {
	return protocol.Hit{
		Blocking: h.Blocking,
		Entity:   string(h.Entity),
		Origin:   h.Origin,
		Impact:   h.Impact,
		Normal:   h.Normal,
		Distance: h.Distance,
	}
}

func hitFromWire(h protocol.Hit) HitCandidate {
	return HitCandidate{
		Blocking: h.Blocking,
		Entity:   EntityID(h.Entity),
		Origin:   h.Origin,
		Impact:   h.Impact,
		Normal:   h.Normal,
		Distance: h.Distance,
	}
}

// HitVerdict is the authority's decision on a reported hit.
type HitVerdict uint8

const (
	VerdictAcceptedGeometry HitVerdict = iota + 1 // blocking hit with no entity
	VerdictAcceptedStatic                         // entity cannot move
	VerdictAcceptedBox                            // inside the leeway box
	VerdictRejectedBox
	VerdictRejectedUnknown // entity id not in the registry
	VerdictRejectedNoOwner
	VerdictIgnored // non-blocking hit with no entity
)

// String returns human-readable verdict
func (v HitVerdict) String() string {
	switch v {
	case VerdictAcceptedGeometry:
		return "accepted_geometry"
	case VerdictAcceptedStatic:
		return "accepted_static"
	case VerdictAcceptedBox:
		return "accepted_box"
	case VerdictRejectedBox:
		return "rejected_box"
	case VerdictRejectedUnknown:
		return "rejected_unknown"
	case VerdictRejectedNoOwner:
		return "rejected_no_owner"
	case VerdictIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Accepted reports whether the hit should be confirmed.
func (v HitVerdict) Accepted() bool {
	return v == VerdictAcceptedGeometry || v == VerdictAcceptedStatic || v == VerdictAcceptedBox
}

// ValidateHitBox reports whether impact lies strictly inside box after its
// half-extent is scaled by leeway and floored per axis at minExtent.
func ValidateHitBox(box spatial.Box, impact spatial.Vec3, leeway, minExtent float64) bool {
	extent := box.Extent().Scale(leeway).MaxScalar(minExtent)
	return spatial.BoxAround(box.Center(), extent).ContainsStrict(impact)
}

// muzzleLocation is where the authority considers shots to leave the weapon.
// Owners without the socket fall back to their view point.
func (w *Weapon) muzzleLocation(owner OwnerCharacter) spatial.Vec3 {
	if p, ok := owner.SocketLocation(w.spec.MuzzleSocket); ok {
		return p
	}
	origin, _ := owner.ViewPoint()
	return origin
}

// processInstantHit reports a locally traced hit to the authority when it
// needs confirmation, then plays it out locally without waiting.
func (w *Weapon) processInstantHit(hit HitCandidate, origin, shootDir spatial.Vec3) {
	if !w.isAuthority() && hit.Blocking && (hit.Entity == "" || hit.AuthorityControlled) {
		w.world.net.ToAuthority(protocol.ServerNotifyHit{
			Weapon:   string(w.id),
			Hit:      hit.ToWire(),
			ShootDir: shootDir,
		})
	}
	w.confirmHit(hit, origin)
}

// ServerNotifyHit validates a client-reported hit against the authority's
// view of the world and confirms it when it passes.
func (w *Weapon) ServerNotifyHit(hit HitCandidate, shootDir spatial.Vec3) HitVerdict {
	if !w.isAuthority() {
		return VerdictIgnored
	}
	verdict, origin := w.validateHit(hit, shootDir)
	telemetry.RecordHitValidation(verdict.String())

	switch {
	case verdict.Accepted():
		w.world.stats.HitsConfirmed++
		w.world.addTracer(w.id, origin, hit.Impact, true)
		w.confirmHit(hit, origin)
	case verdict == VerdictIgnored:
	default:
		w.world.stats.HitsRejected++
		w.world.addTracer(w.id, origin, hit.Impact, false)
		w.world.emit(EventTypeHitRejected, w.ownerID, HitPayload{
			WeaponID: string(w.id),
			TargetID: string(hit.Entity),
			Verdict:  verdict.String(),
			ImpactX:  hit.Impact.X,
			ImpactY:  hit.Impact.Y,
			ImpactZ:  hit.Impact.Z,
		})
	}
	return verdict
}

func (w *Weapon) validateHit(hit HitCandidate, shootDir spatial.Vec3) (HitVerdict, spatial.Vec3) {
	owner, ok := w.owner()
	if !ok {
		return VerdictRejectedNoOwner, spatial.Vec3{}
	}
	// Never the client's origin.
	origin := w.muzzleLocation(owner)

	if hit.Entity == "" {
		if hit.Blocking {
			return VerdictAcceptedGeometry, origin
		}
		return VerdictIgnored, origin
	}

	target, ok := w.world.reg.Get(hit.Entity)
	if !ok {
		log.Printf("🚫 %s reported a hit on unknown entity %s", w.ownerID, hit.Entity)
		return VerdictRejectedUnknown, origin
	}

	// Aim sanity is measured but never enforced.
	viewDot := shootDir.SafeNormal().Dot(hit.Impact.Sub(origin).SafeNormal())
	telemetry.ObserveAimDot(viewDot)

	if m := target.Mobility(); m == MobilityStatic || m == MobilityStationary {
		return VerdictAcceptedStatic, origin
	}

	hs := w.spec.HitScan
	if ValidateHitBox(target.Bounds(), hit.Impact, hs.Leeway, hs.MinBoxExtent) {
		return VerdictAcceptedBox, origin
	}
	log.Printf("🚫 %s rejected client hit of %s (outside bounding box tolerance)", w.ownerID, hit.Entity)
	return VerdictRejectedBox, origin
}

// confirmHit applies a hit: damage and the hit-notify origin on the
// authority, impact effects everywhere else.
func (w *Weapon) confirmHit(hit HitCandidate, origin spatial.Vec3) {
	if w.isAuthority() {
		if hit.Entity != "" {
			if e, ok := w.world.reg.Get(hit.Entity); ok {
				if d, ok := e.(Damageable); ok {
					w.dealDamage(d, hit)
				}
			}
		}
		w.hitNotify = origin
		w.world.addFlash(hit.Impact, true)
		return
	}
	w.spawnImpactEffects(hit)
}

// dealDamage applies flat weapon damage exactly once. The bone table is not consulted.
func (w *Weapon) dealDamage(target Damageable, hit HitCandidate) {
	removed := target.TakeDamage(w.spec.HitScan.Damage, hit, w.ownerID, w.id)
	w.world.stats.DamageDealt += removed
	w.world.MarkDirty()

	w.world.emit(EventTypeDamage, w.ownerID, DamagePayload{
		AttackerID: string(w.ownerID),
		VictimID:   string(hit.Entity),
		WeaponID:   string(w.id),
		DamageType: w.spec.HitScan.DamageType,
		Damage:     removed,
	})

	victim, ok := target.(*Character)
	if !ok {
		return
	}
	if victim.IsAlive() {
		w.sendHitMarker(victim.id)
		return
	}
	if removed > 0 {
		w.world.onKilled(victim, w)
	}
}

func (w *Weapon) sendHitMarker(victim EntityID) {
	if w.ownerIsLocal() {
		w.world.fx.HitMarker(victim)
		return
	}
	w.world.net.ToOwner(w.ownerID, protocol.ClientHitMarker{Weapon: string(w.id), Victim: string(victim)})
}

// spawnImpactEffects plays the impact cosmetic unless the local character is
// the one that was hit.
func (w *Weapon) spawnImpactEffects(hit HitCandidate) {
	if !w.cosmetic() || !hit.Blocking {
		return
	}
	if hit.Entity != "" && hit.Entity == w.world.local {
		return
	}
	w.world.fx.Impact(hit.Impact, hit.Normal)
}

// simulateInstantHit replays a confirmed hit on a replica that did not fire
// it, tracing from the replicated origin along the owner's aim.
func (w *Weapon) simulateInstantHit(origin spatial.Vec3) {
	owner, ok := w.owner()
	if !ok {
		return
	}
	dir := owner.AimDirection()
	end := origin.Add(dir.Scale(w.spec.HitScan.MaxRange))
	hit := w.world.Trace(origin, end, w.spec.HitScan.Radius, w.ownerID)
	w.world.addTracer(w.id, origin, hit.Impact, hit.Blocking)
	w.spawnImpactEffects(hit)
}
