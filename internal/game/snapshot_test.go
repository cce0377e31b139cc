package game

import (
	"testing"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
)

func TestSnapshotCapture(t *testing.T) {
	h := newHarness(t, harnessOptions{role: RoleAuthority, clip: 12, reserve: 40})
	h.addTarget("dummy", targetPos)
	dummy, _ := h.world.Registry().Character("dummy")
	dummy.TakeDamage(dummy.MaxHealth(), HitCandidate{}, "", "")
	h.world.AddEntity(NewProp("crate", spatial.BoxAround(spatial.V(0, 0, 50), spatial.V(50, 50, 50)), MobilityStatic))

	pool := NewSnapshotPool(config.DefaultLimits())
	snap := pool.Capture(h.world, 3)

	if snap.Sequence != 1 || pool.Latest() != snap {
		t.Errorf("Expected snapshot 1 published, got %d", snap.Sequence)
	}
	if snap.Role != "authority" || snap.Connections != 3 {
		t.Errorf("Expected authority with 3 connections, got %s/%d", snap.Role, snap.Connections)
	}
	if len(snap.Characters) != 2 || snap.AliveCount != 1 {
		t.Fatalf("Expected 2 characters with 1 alive, got %d/%d", len(snap.Characters), snap.AliveCount)
	}
	// Sorted by id.
	if snap.Characters[0].ID != "dummy" || !snap.Characters[0].IsDead {
		t.Errorf("Expected dead dummy first, got %+v", snap.Characters[0])
	}
	owner := snap.Characters[1]
	if owner.Weapon != string(h.weapon.ID()) || owner.Reserve != 40 {
		t.Errorf("Expected owner with weapon and reserve 40, got %+v", owner)
	}
	if len(snap.Weapons) != 1 || snap.Weapons[0].ClipAmmo != 12 || snap.Weapons[0].ClipCapacity != 30 {
		t.Errorf("Expected one weapon at 12/30, got %+v", snap.Weapons)
	}
	if len(snap.Props) != 1 || snap.Props[0].Mobility != MobilityStatic.String() {
		t.Errorf("Expected one static prop, got %+v", snap.Props)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	h := newHarness(t, harnessOptions{role: RoleAuthority, clip: 30, reserve: 0})
	pool := NewSnapshotPool(config.DefaultLimits())

	first := pool.Capture(h.world, 0)
	h.setClip(5)
	second := pool.Capture(h.world, 0)

	if first.Weapons[0].ClipAmmo != 30 {
		t.Errorf("Expected earlier snapshot unchanged, got clip %d", first.Weapons[0].ClipAmmo)
	}
	if second.Weapons[0].ClipAmmo != 5 || second.Sequence != first.Sequence+1 {
		t.Errorf("Expected new snapshot with clip 5, got %+v", second.Weapons[0])
	}
}

func TestSnapshotLimits(t *testing.T) {
	w := newTestWorld(RoleAuthority, newRecordingNet(), nil)
	for i := 0; i < 10; i++ {
		w.addTracer("w", spatial.V(0, 0, 0), spatial.V(float64(i), 0, 0), true)
		w.addFlash(spatial.V(float64(i), 0, 0), true)
	}

	pool := NewSnapshotPool(config.ResourceLimits{MaxTracers: 4, MaxImpacts: 2})
	snap := pool.Capture(w, 0)
	if len(snap.Tracers) != 4 {
		t.Errorf("Expected 4 tracers, got %d", len(snap.Tracers))
	}
	if len(snap.Flashes) != 2 {
		t.Errorf("Expected 2 flashes, got %d", len(snap.Flashes))
	}
}

func TestSnapshotLatestNeverNil(t *testing.T) {
	pool := NewSnapshotPool(config.DefaultLimits())
	if pool.Latest() == nil {
		t.Fatal("Expected an empty snapshot before the first capture")
	}
	if len(pool.Latest().Characters) != 0 {
		t.Error("Expected no characters in the initial snapshot")
	}
}
