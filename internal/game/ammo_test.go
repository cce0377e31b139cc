package game

import (
	"testing"
	"time"

	"firefight/internal/protocol"
)

func TestReloadWeaponFill(t *testing.T) {
	tests := []struct {
		name          string
		clip, reserve int
		wantClip      int
		wantReserve   int
		wantEmpty     int
	}{
		{"empty clip deep reserve", 0, 50, 30, 20, 0},
		{"empty clip shallow reserve", 0, 10, 10, 0, 0},
		{"top up", 25, 50, 30, 45, 0},
		{"already full", 30, 50, 30, 50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, harnessOptions{role: RoleAuthority, clip: tt.clip, reserve: tt.reserve})

			h.weapon.ReloadWeapon()

			if h.weapon.ClipAmmo() != tt.wantClip {
				t.Errorf("Expected clip %d, got %d", tt.wantClip, h.weapon.ClipAmmo())
			}
			if h.weapon.ReserveAmmo() != tt.wantReserve {
				t.Errorf("Expected reserve %d, got %d", tt.wantReserve, h.weapon.ReserveAmmo())
			}
			if h.world.Stats().ReloadsEmpty != tt.wantEmpty {
				t.Errorf("Expected %d empty reloads, got %d", tt.wantEmpty, h.world.Stats().ReloadsEmpty)
			}
		})
	}
}

func TestReloadWeaponOnReplicaIsNoop(t *testing.T) {
	h := newHarness(t, harnessOptions{role: RoleReplica, local: true, clip: 0, reserve: 50})
	h.weapon.ReloadWeapon()
	if h.weapon.ClipAmmo() != 0 {
		t.Errorf("Expected replica clip untouched, got %d", h.weapon.ClipAmmo())
	}
}

func TestReloadTiming(t *testing.T) {
	tests := []struct {
		name      string
		montage   time.Duration // 0 = no montage, fallback applies
		refillAt  time.Duration
		visualEnd time.Duration
	}{
		{"montage length", 1800 * time.Millisecond, 1700 * time.Millisecond, 1800 * time.Millisecond},
		{"fallback without montage", 0, 400 * time.Millisecond, 500 * time.Millisecond},
		{"short montage floors refill", 150 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			montages := map[string]time.Duration{}
			if tt.montage > 0 {
				montages["test_reload_1p"] = tt.montage
			}
			h := newHarness(t, harnessOptions{role: RoleAuthority, local: true, clip: 10, reserve: 50, montages: montages})

			h.weapon.StartReload()
			if h.weapon.State() != StateReloading {
				t.Fatalf("Expected Reloading, got %s", h.weapon.State())
			}

			h.advance(tt.refillAt - time.Millisecond)
			if h.weapon.ClipAmmo() != 10 {
				t.Errorf("Expected no refill before %v, clip %d", tt.refillAt, h.weapon.ClipAmmo())
			}
			h.advance(time.Millisecond)
			if h.weapon.ClipAmmo() != 30 {
				t.Errorf("Expected refill at %v, clip %d", tt.refillAt, h.weapon.ClipAmmo())
			}
			if h.weapon.State() != StateReloading {
				t.Errorf("Expected Reloading until %v, got %s", tt.visualEnd, h.weapon.State())
			}

			h.advance(tt.visualEnd - tt.refillAt)
			if h.weapon.State() != StateIdle {
				t.Errorf("Expected Idle at %v, got %s", tt.visualEnd, h.weapon.State())
			}
			if h.weapon.IsPendingReload() {
				t.Error("Expected pending reload cleared")
			}
		})
	}
}

func TestReloadUsesThirdPersonMontageForRemoteOwner(t *testing.T) {
	h := newHarness(t, harnessOptions{
		role: RoleAuthority, clip: 10, reserve: 50,
		montages: map[string]time.Duration{
			"test_reload_1p": 1800 * time.Millisecond,
			"test_reload_3p": 1200 * time.Millisecond,
		},
	})

	h.world.ApplyFromOwner(h.owner.id, protocol.ServerStartReload{Weapon: string(h.weapon.id)})
	h.advance(1100 * time.Millisecond)
	if h.weapon.ClipAmmo() != 30 {
		t.Errorf("Expected refill at 1100ms, clip %d", h.weapon.ClipAmmo())
	}
	h.advance(100 * time.Millisecond)
	if h.weapon.State() != StateIdle {
		t.Errorf("Expected Idle at 1200ms, got %s", h.weapon.State())
	}
}

func TestStopReloadCancelsRefill(t *testing.T) {
	h := newHarness(t, harnessOptions{
		role: RoleAuthority, local: true, clip: 10, reserve: 50,
		montages: map[string]time.Duration{"test_reload_1p": 1800 * time.Millisecond},
	})

	h.weapon.StartReload()
	h.advance(time.Second)
	h.weapon.StopReload()
	if h.weapon.State() != StateIdle {
		t.Errorf("Expected Idle after StopReload, got %s", h.weapon.State())
	}

	h.advance(2 * time.Second)
	if h.weapon.ClipAmmo() != 10 || h.weapon.ReserveAmmo() != 50 {
		t.Errorf("Expected 10/50 after cancelled reload, got %d/%d", h.weapon.ClipAmmo(), h.weapon.ReserveAmmo())
	}
}

func TestStartReloadRejected(t *testing.T) {
	tests := []struct {
		name          string
		clip, reserve int
	}{
		{"full clip", 30, 50},
		{"no reserve", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, harnessOptions{role: RoleAuthority, local: true, clip: tt.clip, reserve: tt.reserve})

			h.weapon.StartReload()
			if h.weapon.State() != StateIdle || h.weapon.IsPendingReload() {
				t.Errorf("Expected no reload, got %s pending=%v", h.weapon.State(), h.weapon.IsPendingReload())
			}
			if h.world.sched.Pending() != 0 {
				t.Errorf("Expected no timers, got %d", h.world.sched.Pending())
			}
		})
	}
}

func TestReplicaReloadForwardsAndPredicts(t *testing.T) {
	h := newHarness(t, harnessOptions{role: RoleReplica, local: true, clip: 10, reserve: 50})

	h.weapon.StartReload()
	if countKind(h.net.toAuthority, protocol.KindServerStartReload) != 1 {
		t.Error("Expected ServerStartReload forwarded")
	}
	if h.weapon.State() != StateReloading {
		t.Errorf("Expected predicted Reloading, got %s", h.weapon.State())
	}
	if ev, ok := h.fx.Last(FXSound); !ok || ev.Cue != "test_reload" {
		t.Errorf("Expected reload sound, got %+v", ev)
	}

	// Replicas never refill; the clip changes only by replication.
	h.advance(time.Second)
	if h.weapon.ClipAmmo() != 10 {
		t.Errorf("Expected clip unchanged on replica, got %d", h.weapon.ClipAmmo())
	}
	if h.weapon.State() != StateIdle {
		t.Errorf("Expected Idle after fallback, got %s", h.weapon.State())
	}
}
