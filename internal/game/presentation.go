package game

import (
	"firefight/internal/game/spatial"
)

// FXKind classifies a recorded cosmetic event.
type FXKind uint8

const (
	FXMuzzleFlash FXKind = iota + 1
	FXStopMuzzleFlash
	FXImpact
	FXSound
	FXStopSound
	FXCameraShake
	FXForceFeedback
	FXRecoil
	FXHitMarker
)

// String returns human-readable fx kind
func (k FXKind) String() string {
	switch k {
	case FXMuzzleFlash:
		return "muzzle_flash"
	case FXStopMuzzleFlash:
		return "stop_muzzle_flash"
	case FXImpact:
		return "impact"
	case FXSound:
		return "sound"
	case FXStopSound:
		return "stop_sound"
	case FXCameraShake:
		return "camera_shake"
	case FXForceFeedback:
		return "force_feedback"
	case FXRecoil:
		return "recoil"
	case FXHitMarker:
		return "hit_marker"
	default:
		return "unknown"
	}
}

// FXEvent is one cosmetic call.
type FXEvent struct {
	Kind   FXKind
	Weapon WeaponID
	Entity EntityID
	Cue    string // sound cue, socket or force-feedback tag
	Point  spatial.Vec3
	Normal spatial.Vec3
	Scale  float64
	Looped bool
}

// FXBufferSize is the number of recent events an FXBuffer keeps.
const FXBufferSize = 256

// FXBuffer is the headless Presentation: a fixed-size ring of recent events
// plus per-kind counters. Replicas without a renderer use it, and tests read it.
type FXBuffer struct {
	events [FXBufferSize]FXEvent // ring buffer
	head   int
	count  int
	totals map[FXKind]int
}

// NewFXBuffer creates an empty buffer.
func NewFXBuffer() *FXBuffer {
	return &FXBuffer{totals: make(map[FXKind]int)}
}

func (b *FXBuffer) push(ev FXEvent) {
	b.events[b.head] = ev
	b.head = (b.head + 1) % len(b.events)
	if b.count < len(b.events) {
		b.count++
	}
	b.totals[ev.Kind]++
}

func (b *FXBuffer) MuzzleFlash(w WeaponID, socket string, looped bool) {
	b.push(FXEvent{Kind: FXMuzzleFlash, Weapon: w, Cue: socket, Looped: looped})
}

func (b *FXBuffer) StopMuzzleFlash(w WeaponID) {
	b.push(FXEvent{Kind: FXStopMuzzleFlash, Weapon: w})
}

func (b *FXBuffer) Impact(point, normal spatial.Vec3) {
	b.push(FXEvent{Kind: FXImpact, Point: point, Normal: normal})
}

func (b *FXBuffer) Sound(cue string, at EntityID) {
	b.push(FXEvent{Kind: FXSound, Cue: cue, Entity: at})
}

func (b *FXBuffer) StopSound(cue string, at EntityID) {
	b.push(FXEvent{Kind: FXStopSound, Cue: cue, Entity: at})
}

func (b *FXBuffer) CameraShake(scale float64) {
	b.push(FXEvent{Kind: FXCameraShake, Scale: scale})
}

func (b *FXBuffer) ForceFeedback(tag string) {
	b.push(FXEvent{Kind: FXForceFeedback, Cue: tag})
}

func (b *FXBuffer) Recoil(x, y, speed, resetSpeed float64) {
	b.push(FXEvent{Kind: FXRecoil, Point: spatial.V(x, y, 0), Normal: spatial.V(speed, resetSpeed, 0)})
}

func (b *FXBuffer) HitMarker(victim EntityID) {
	b.push(FXEvent{Kind: FXHitMarker, Entity: victim})
}

// Count returns how many events of kind were ever recorded.
func (b *FXBuffer) Count(kind FXKind) int { return b.totals[kind] }

// Recent returns the buffered events, oldest first.
func (b *FXBuffer) Recent() []FXEvent {
	out := make([]FXEvent, 0, b.count)
	start := (b.head - b.count + len(b.events)) % len(b.events)
	for i := 0; i < b.count; i++ {
		out = append(out, b.events[(start+i)%len(b.events)])
	}
	return out
}

// Last returns the most recent event of kind.
func (b *FXBuffer) Last(kind FXKind) (FXEvent, bool) {
	for i := 1; i <= b.count; i++ {
		ev := b.events[(b.head-i+len(b.events))%len(b.events)]
		if ev.Kind == kind {
			return ev, true
		}
	}
	return FXEvent{}, false
}

// nopPresentation is used by processes that render nothing.
type nopPresentation struct{}

func (nopPresentation) MuzzleFlash(WeaponID, string, bool) {}
func (nopPresentation) StopMuzzleFlash(WeaponID) {}
func (nopPresentation) Impact(spatial.Vec3, spatial.Vec3) {}
func (nopPresentation) Sound(string, EntityID) {}
func (nopPresentation) StopSound(string, EntityID) {}
func (nopPresentation) CameraShake(float64) {}
func (nopPresentation) ForceFeedback(string) {}
func (nopPresentation) Recoil(float64, float64, float64, float64) {}
func (nopPresentation) HitMarker(EntityID) {}

// =============================================================================
// DEBUG VIEW EFFECTS
// =============================================================================

// ImpactFlash is a fading marker where a shot landed.
type ImpactFlash struct {
	Point     spatial.Vec3
	Radius    float64
	MaxRadius float64
	Confirmed bool
	Timer     int // remaining ticks
}

// NewImpactFlash creates a flash at point.
func NewImpactFlash(point spatial.Vec3, confirmed bool) *ImpactFlash {
	r := 18.0
	if confirmed {
		r = 30
	}
	return &ImpactFlash{Point: point, Radius: r * 0.4, MaxRadius: r, Confirmed: confirmed, Timer: 30}
}

// Update grows the flash and reports whether it is still alive.
func (f *ImpactFlash) Update() bool {
	f.Timer--
	if f.Radius < f.MaxRadius {
		f.Radius += (f.MaxRadius - f.Radius) * 0.3
	}
	return f.Timer > 0
}

// shotTraceTicks is how long a tracer stays visible.
const shotTraceTicks = 20

// ShotTrace is a tracer line from muzzle to impact.
type ShotTrace struct {
	Weapon   WeaponID
	From, To spatial.Vec3
	Accepted bool
	Timer    int
}

// Update fades the tracer and reports whether it is still alive.
func (s *ShotTrace) Update() bool {
	s.Timer--
	return s.Timer > 0
}

// Alpha is the tracer opacity in [0, 1].
func (s *ShotTrace) Alpha() float64 {
	if s.Timer <= 0 {
		return 0
	}
	return min(1, float64(s.Timer)/shotTraceTicks)
}
