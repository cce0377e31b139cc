package game

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
	"firefight/internal/protocol"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// benchEngine joins n peers, equips and loads their rifles.
func benchEngine(b *testing.B, n int) (*Engine, []*countingPeer) {
	b.Helper()
	opts := testEngineOptions()
	opts.MaxCharacters = n
	engine := NewEngine(opts)

	peers := make([]*countingPeer, n)
	for i := range peers {
		peers[i] = &countingPeer{id: fmt.Sprintf("peer-%d", i)}
		engine.Attach(peers[i])
		engine.Submit(peers[i].id, protocol.Join{Name: fmt.Sprintf("Player%d", i)})
	}
	for i := 0; i < 30; i++ {
		engine.Step(frame)
	}
	for _, p := range peers {
		engine.Submit(p.id, protocol.ServerStartReload{Weapon: p.weaponID()})
	}
	for i := 0; i < 120; i++ {
		engine.Step(frame)
	}
	return engine, peers
}

// -----------------------------------------------------------------------------
// ENGINE STEP BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkEngineStep_10Peers(b *testing.B)  { benchmarkEngineStep(b, 10) }
func BenchmarkEngineStep_50Peers(b *testing.B)  { benchmarkEngineStep(b, 50) }
func BenchmarkEngineStep_100Peers(b *testing.B) { benchmarkEngineStep(b, 100) }

func benchmarkEngineStep(b *testing.B, peerCount int) {
	engine, _ := benchEngine(b, peerCount)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.Step(frame)
	}
}

// Every peer fires one shot per step.
func BenchmarkEngineStep_50PeersFiring(b *testing.B) {
	engine, peers := benchEngine(b, 50)
	for _, p := range peers {
		engine.Submit(p.id, protocol.ServerStartFire{Weapon: p.weaponID()})
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		for _, p := range peers {
			engine.Submit(p.id, protocol.ServerHandleFiring{Weapon: p.weaponID()})
		}
		engine.Step(frame)
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT CAPTURE BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkSnapshotCapture_10Peers(b *testing.B)  { benchmarkSnapshot(b, 10) }
func BenchmarkSnapshotCapture_50Peers(b *testing.B)  { benchmarkSnapshot(b, 50) }
func BenchmarkSnapshotCapture_100Peers(b *testing.B) { benchmarkSnapshot(b, 100) }

func benchmarkSnapshot(b *testing.B, peerCount int) {
	engine, _ := benchEngine(b, peerCount)
	pool := NewSnapshotPool(config.DefaultLimits())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.WithWorld(func(w *World) {
			pool.Capture(w, peerCount)
		})
	}
}

// -----------------------------------------------------------------------------
// TRACE BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkTrace_10Targets(b *testing.B)  { benchmarkTrace(b, 10) }
func BenchmarkTrace_100Targets(b *testing.B) { benchmarkTrace(b, 100) }
func BenchmarkTrace_500Targets(b *testing.B) { benchmarkTrace(b, 500) }

func benchmarkTrace(b *testing.B, targetCount int) {
	w := newTestWorld(RoleAuthority, newRecordingNet(), nil)
	arena := w.Arena()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < targetCount; i++ {
		pos := spatial.V(rng.Float64()*arena.Width, rng.Float64()*arena.Depth, 88)
		w.AddEntity(NewCharacter(EntityID(fmt.Sprintf("t%d", i)), "target", CharacterOptions{Position: pos, Bot: true}))
	}
	w.Advance(frame) // builds the grid

	origins := make([]spatial.Vec3, 64)
	ends := make([]spatial.Vec3, 64)
	for i := range origins {
		origins[i] = spatial.V(rng.Float64()*arena.Width, rng.Float64()*arena.Depth, 100)
		dir := spatial.FromYawPitch(rng.Float64()*6.28, 0)
		ends[i] = origins[i].Add(dir.Scale(10000))
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		j := i % len(origins)
		w.Trace(origins[j], ends[j], 0, "")
	}
}

// -----------------------------------------------------------------------------
// HIT VALIDATION BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkValidateHitBox(b *testing.B) {
	box := spatial.BoxAround(spatial.V(1000, 1000, 88), DefaultHalfExtent)
	impact := spatial.V(1040, 1000, 100)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ValidateHitBox(box, impact, 1.5, 20)
	}
}

// -----------------------------------------------------------------------------
// REPLICATION BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkReplicate_InitialState(b *testing.B) {
	engine, _ := benchEngine(b, 50)
	send := func(protocol.Message) bool { return true }

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.WithWorld(func(w *World) {
			w.Replicate(NewConnShadow("viewer"), send)
		})
	}
}

func BenchmarkReplicate_SteadyState(b *testing.B) {
	engine, _ := benchEngine(b, 50)
	send := func(protocol.Message) bool { return true }
	shadow := NewConnShadow("viewer")
	engine.WithWorld(func(w *World) { w.Replicate(shadow, send) })

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.WithWorld(func(w *World) {
			w.Replicate(shadow, send)
		})
	}
}

// -----------------------------------------------------------------------------
// SCHEDULER BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkScheduler_1000Timers(b *testing.B) {
	s := NewScheduler()
	handles := make([]TimerHandle, 1000)
	noop := func() {}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		h := &handles[i%len(handles)]
		s.SetTimer(h, time.Duration(i%100)*time.Millisecond, noop)
		if i%10 == 0 {
			s.Advance(frame)
		}
	}
}

// -----------------------------------------------------------------------------
// STRESS BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkStress_RapidJoinLeave(b *testing.B) {
	opts := testEngineOptions()
	opts.MaxCharacters = 64
	engine := NewEngine(opts)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p := &countingPeer{id: fmt.Sprintf("temp-%d", i)}
		engine.Attach(p)
		engine.Submit(p.id, protocol.Join{Name: "Temp"})
		engine.Step(frame)
		engine.Detach(p.id)
		engine.Step(frame)
	}
}
