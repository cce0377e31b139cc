package game

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
	"firefight/internal/protocol"
)

type fakePeer struct {
	id     string
	mu     sync.Mutex
	msgs   []protocol.Message
	closed bool
	refuse bool
}

func newFakePeer(id string) *fakePeer { return &fakePeer{id: id} }

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(m protocol.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refuse || p.closed {
		return false
	}
	p.msgs = append(p.msgs, m)
	return true
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// drain returns and clears everything received so far.
func (p *fakePeer) drain() []protocol.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.msgs
	p.msgs = nil
	return out
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func testEngineOptions() EngineOptions {
	return EngineOptions{
		Tick:          config.DefaultTick(),
		Combat:        config.DefaultCombat(),
		World:         config.DefaultWorld(),
		Limits:        config.DefaultLimits(),
		MaxCharacters: 8,
		Catalog:       config.DefaultCatalog(),
		Seed:          42,
	}
}

const frame = 16 * time.Millisecond

// joinPeer attaches a peer, joins it and returns its character id.
func joinPeer(t *testing.T, e *Engine, p *fakePeer, name string) EntityID {
	t.Helper()
	e.Attach(p)
	e.Submit(p.id, protocol.Join{Name: name})
	e.Step(frame)
	for _, m := range p.msgs {
		if w, ok := m.(protocol.Welcome); ok {
			return EntityID(w.Character)
		}
	}
	t.Fatalf("Expected Welcome for %s", name)
	return ""
}

func TestEngineJoin(t *testing.T) {
	e := NewEngine(testEngineOptions())
	p := newFakePeer("p1")
	id := joinPeer(t, e, p, "  alice  ")

	msgs := p.drain()
	welcome := msgs[0].(protocol.Welcome)
	if welcome.TickRate != 60 {
		t.Errorf("Expected tick rate 60, got %d", welcome.TickRate)
	}
	if len(welcome.Weapons) != 3 {
		t.Errorf("Expected 3 catalog weapons, got %v", welcome.Weapons)
	}
	if countKind(msgs, protocol.KindEntityState) != 1 {
		t.Errorf("Expected own entity state, got %v", msgs)
	}
	if countKind(msgs, protocol.KindInventoryUpdate) != 1 {
		t.Errorf("Expected inventory update, got %v", msgs)
	}
	deltas := weaponDeltas(msgs)
	if len(deltas) != 1 || deltas[0].Item != "rifle" || deltas[0].Owner != string(id) || deltas[0].ClipAmmo != 0 {
		t.Errorf("Expected empty rifle delta for %s, got %+v", id, deltas)
	}

	snap := e.Snapshot()
	if len(snap.Characters) != 1 || snap.Characters[0].Name != "alice" {
		t.Errorf("Expected alice in snapshot, got %+v", snap.Characters)
	}
}

func TestEngineSpawnLoadout(t *testing.T) {
	e := NewEngine(testEngineOptions())
	id := joinPeer(t, e, newFakePeer("p1"), "bob")

	e.WithWorld(func(w *World) {
		c, ok := w.Registry().Character(id)
		if !ok {
			t.Fatal("Expected character in world")
		}
		inv := c.Inventory().(*Inventory)
		for _, ammo := range []string{"ammo_556", "ammo_9mm", "ammo_12g"} {
			if q := inv.Quantity(ammo); q != 90 {
				t.Errorf("Expected 90 %s, got %d", ammo, q)
			}
		}
		if inv.Quantity("grenade") != StartingThrowables {
			t.Errorf("Expected %d grenades, got %d", StartingThrowables, inv.Quantity("grenade"))
		}
		if c.Throwable() != "grenade" {
			t.Errorf("Expected grenade selected, got %q", c.Throwable())
		}
		if c.Weapon() == "" {
			t.Error("Expected default weapon equipped")
		}
	})
}

func TestEngineIgnoresCommandsBeforeJoin(t *testing.T) {
	e := NewEngine(testEngineOptions())
	p := newFakePeer("p1")
	e.Attach(p)
	e.Submit(p.id, protocol.ServerEquip{Item: "pistol"})
	e.Step(frame)

	if len(p.drain()) != 0 {
		t.Error("Expected nothing sent to an unjoined peer")
	}
	if len(e.Snapshot().Characters) != 0 {
		t.Error("Expected no character for an unjoined peer")
	}
}

func TestEngineCharacterLimit(t *testing.T) {
	opts := testEngineOptions()
	opts.MaxCharacters = 1
	e := NewEngine(opts)

	joinPeer(t, e, newFakePeer("p1"), "first")
	p2 := newFakePeer("p2")
	e.Attach(p2)
	e.Submit(p2.id, protocol.Join{Name: "second"})
	e.Step(frame)

	if !p2.isClosed() {
		t.Error("Expected second peer closed at the character limit")
	}
	if n := len(e.Snapshot().Characters); n != 1 {
		t.Errorf("Expected 1 character, got %d", n)
	}
}

func TestEngineLeave(t *testing.T) {
	e := NewEngine(testEngineOptions())
	p1 := newFakePeer("p1")
	p2 := newFakePeer("p2")
	gone := joinPeer(t, e, p1, "leaver")
	joinPeer(t, e, p2, "stayer")
	e.Step(frame)
	p2.drain()

	e.Detach(p1.id)
	e.Step(frame)

	msgs := p2.drain()
	removed := false
	for _, m := range msgs {
		if r, ok := m.(protocol.EntityRemoved); ok && r.ID == string(gone) {
			removed = true
		}
	}
	if !removed {
		t.Errorf("Expected EntityRemoved for %s, got %v", gone, msgs)
	}
	if countKind(msgs, protocol.KindWeaponRemoved) != 1 {
		t.Errorf("Expected the leaver's weapon removed, got %v", msgs)
	}
	if n := len(e.Connections()); n != 1 {
		t.Errorf("Expected 1 connection left, got %d", n)
	}
}

func TestEngineFireFlow(t *testing.T) {
	e := NewEngine(testEngineOptions())
	p := newFakePeer("p1")
	joinPeer(t, e, p, "shooter")
	deltas := weaponDeltas(p.drain())
	if len(deltas) != 1 {
		t.Fatalf("Expected weapon delta, got %d", len(deltas))
	}
	weapon := deltas[0].Weapon

	// Joined characters spawn with an empty rifle; their replica asks for the
	// first reload once the equip montage is over.
	for i := 0; i < 30; i++ {
		e.Step(frame)
	}
	e.Submit(p.id, protocol.ServerStartReload{Weapon: weapon})
	for i := 0; i < 120; i++ {
		e.Step(frame)
	}
	var clip int
	for _, d := range weaponDeltas(p.drain()) {
		if d.Fields.Has(protocol.FieldClipAmmo) {
			clip = d.ClipAmmo
		}
	}
	if clip != 30 {
		t.Fatalf("Expected clip 30 after reload, got %d", clip)
	}

	e.Submit(p.id, protocol.ServerStartFire{Weapon: weapon})
	e.Submit(p.id, protocol.ServerHandleFiring{Weapon: weapon})
	e.Submit(p.id, protocol.ServerStopFire{Weapon: weapon})
	e.Step(frame)

	got := weaponDeltas(p.drain())
	if len(got) != 1 || got[0].ClipAmmo != 29 {
		t.Errorf("Expected clip 29 replicated, got %+v", got)
	}
}

func TestEngineSubmitInboxFull(t *testing.T) {
	opts := testEngineOptions()
	opts.Limits.InboxSize = 2
	e := NewEngine(opts)

	if !e.Submit("p", protocol.Join{}) || !e.Submit("p", protocol.Join{}) {
		t.Fatal("Expected first two submits accepted")
	}
	if e.Submit("p", protocol.Join{}) {
		t.Error("Expected third submit dropped")
	}
}

func TestEngineTargets(t *testing.T) {
	opts := testEngineOptions()
	opts.Limits.MaxTargets = 2
	e := NewEngine(opts)

	patrolTo := spatial.V(3000, 1000, 88)
	a, err := e.SpawnTarget(TargetOptions{Name: "still", Position: spatial.V(1000, 1000, 88), Static: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := e.SpawnTarget(TargetOptions{Position: spatial.V(2000, 1000, 88), PatrolTo: &patrolTo, PatrolSpeed: 300}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := e.SpawnTarget(TargetOptions{}); !errors.Is(err, ErrTargetLimit) {
		t.Errorf("Expected ErrTargetLimit, got %v", err)
	}

	e.WithWorld(func(w *World) {
		c, _ := w.Registry().Character(a)
		if c.Mobility() != MobilityStatic || c.Weapon() != "" || !c.IsBot() {
			t.Errorf("Expected unarmed static bot, got %s weapon=%q", c.Mobility(), c.Weapon())
		}
	})

	if err := e.RemoveTarget("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := e.RemoveTarget(a); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := e.SpawnTarget(TargetOptions{}); err != nil {
		t.Errorf("Expected a free target slot after removal, got %v", err)
	}
}

func TestEngineRemoveTargetRefusesPlayers(t *testing.T) {
	e := NewEngine(testEngineOptions())
	id := joinPeer(t, e, newFakePeer("p1"), "human")
	if err := e.RemoveTarget(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a player, got %v", err)
	}
}

func TestEngineRefusedFramesAreRetried(t *testing.T) {
	e := NewEngine(testEngineOptions())
	p := newFakePeer("p1")
	joinPeer(t, e, p, "slow")
	p.drain()

	prop := e.AddProp(spatial.BoxAround(spatial.V(500, 500, 50), spatial.V(50, 50, 50)), MobilityStatic)
	p.refuse = true
	e.Step(frame)
	p.refuse = false
	e.Step(frame)

	found := false
	for _, m := range p.drain() {
		if st, ok := m.(protocol.EntityState); ok && st.ID == string(prop) {
			found = true
		}
	}
	if !found {
		t.Error("Expected prop state delivered after the peer recovered")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"alice", "alice"},
		{"  padded  ", "padded"},
		{"", "anonymous"},
		{"   ", "anonymous"},
		{"abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz012345"},
		{strings.Repeat("é", 40), strings.Repeat("é", 32)},
		{strings.Repeat("🔥", 33), strings.Repeat("🔥", 32)},
		{"a" + strings.Repeat("ж", 31), "a" + strings.Repeat("ж", 31)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeName(tt.input)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Expected valid UTF-8, got %q", got)
			}
		})
	}
}
