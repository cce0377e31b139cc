package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestEventLogRejectsWhenStopped(t *testing.T) {
	el := NewEventLog()
	if el.EmitSimple(EventTypeKill, 1, "a", KillPayload{}) {
		t.Error("Expected emit refused before Start")
	}
	if el.GetTotalCount() != 0 {
		t.Errorf("Expected 0 total, got %d", el.GetTotalCount())
	}
}

func TestEventLogRecent(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer el.Stop()

	for i := 0; i < 5; i++ {
		el.EmitSimple(EventTypeDamage, uint64(i), "", DamagePayload{Damage: float64(i)})
	}
	got := el.Recent(3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(got))
	}
	if got[0].Sequence != 2 || got[2].Sequence != 4 {
		t.Errorf("Expected sequences 2..4 oldest first, got %d..%d", got[0].Sequence, got[2].Sequence)
	}
	if n := len(el.Recent(0)); n != 5 {
		t.Errorf("Expected all 5 events, got %d", n)
	}
}

func TestEventLogOverwritesOldest(t *testing.T) {
	el := NewEventLog()
	el.globalLimiter = rate.NewLimiter(rate.Inf, 0)
	el.Start("")
	defer el.Stop()

	total := EventBufferSize + 10
	for i := 0; i < total; i++ {
		el.Emit(NewEvent(EventTypeTick, uint64(i), "", TickPayload{}))
	}
	recent := el.Recent(0)
	if len(recent) != EventBufferSize {
		t.Errorf("Expected a full buffer of %d, got %d", EventBufferSize, len(recent))
	}
	if recent[0].Sequence != 10 {
		t.Errorf("Expected oldest sequence 10, got %d", recent[0].Sequence)
	}
}

func TestEventLogActorRateLimit(t *testing.T) {
	el := NewEventLog()
	el.Start("")
	defer el.Stop()

	accepted := 0
	for i := 0; i < MaxEventsPerActor; i++ {
		if el.EmitSimple(EventTypeDamage, 0, "spammer", DamagePayload{}) {
			accepted++
		}
	}
	// Burst is a tenth of the per-second rate.
	if accepted >= MaxEventsPerActor {
		t.Errorf("Expected the actor limiter to drop some events, accepted %d", accepted)
	}
	if el.GetDroppedCount() == 0 {
		t.Error("Expected dropped events counted")
	}
	if !el.EmitSimple(EventTypeDamage, 0, "quiet", DamagePayload{}) {
		t.Error("Expected other actors unaffected")
	}
}

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combat.jsonl")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	el.EmitSimple(EventTypeReload, 7, "shooter", ReloadPayload{WeaponID: "w1", Filled: 30, ClipAmmo: 30, Reserve: 60})
	el.EmitSimple(EventTypeKill, 8, "shooter", KillPayload{KillerID: "shooter", VictimID: "dummy", WeaponID: "w1"})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["type"] != "reload" || lines[1]["type"] != "kill" {
		t.Errorf("Expected reload then kill, got %v / %v", lines[0]["type"], lines[1]["type"])
	}
	payload := lines[1]["payload"].(map[string]any)
	if payload["victimId"] != "dummy" {
		t.Errorf("Expected victim dummy, got %v", payload["victimId"])
	}

	stats := el.GetStats()
	if stats["total"].(uint64) != 2 || stats["running"].(bool) {
		t.Errorf("Unexpected stats %v", stats)
	}
}

func TestEventLogFedByWorld(t *testing.T) {
	el := NewEventLog()
	el.Start("")
	defer el.Stop()

	h := newHarness(t, harnessOptions{role: RoleAuthority, clip: 0, reserve: 50})
	h.world.events = el
	h.advance(frame)
	h.weapon.StartReload()
	h.advance(time.Second)

	types := make(map[EventType]int)
	for _, e := range el.Recent(0) {
		types[e.Type]++
	}
	if types[EventTypeReloadStart] != 1 || types[EventTypeReload] != 1 {
		t.Errorf("Expected one reload start and one refill, got %v", types)
	}
}
