package protocol

import (
	"errors"
	"reflect"
	"testing"

	"firefight/internal/game/spatial"

	"github.com/vmihailenco/msgpack/v5"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []Message{
		Join{Name: "alice"},
		Welcome{Character: "c1", TickRate: 60, Weapons: []string{"pistol", "rifle"}},
		ServerAim{Aim: spatial.V(0, 1, 0)},
		ServerHandleFiring{Weapon: "w1"},
		ServerNotifyHit{
			Weapon:   "w1",
			Hit:      Hit{Blocking: true, Entity: "c2", Origin: spatial.V(1, 2, 3), Impact: spatial.V(4, 5, 6), Normal: spatial.V(-1, 0, 0), Distance: 42},
			ShootDir: spatial.V(1, 0, 0),
		},
		ServerUseThrowable{},
		ClientHitMarker{Weapon: "w1", Victim: "c2"},
		WeaponDelta{Weapon: "w1", Fields: FieldClipAmmo | FieldBurstCounter, ClipAmmo: 29, BurstCounter: 3},
		EntityState{ID: "c1", Type: EntityCharacter, Position: spatial.V(1, 1, 88), Health: 75, MaxHealth: 100, Gear: map[string]string{"head": "helmet"}},
		InventoryUpdate{Owner: "c1", Stacks: map[string]int{"ammo_556": 60}},
	}

	for _, msg := range tests {
		t.Run(msg.Kind().String(), func(t *testing.T) {
			data, err := Encode(msg)
			if err != nil {
				t.Fatalf("Unexpected encode error: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(got, msg) {
				t.Errorf("Expected %#v, got %#v", msg, got)
			}
		})
	}
}

// Fields outside the mask are still decoded as zero values, so receivers must
// consult Fields rather than compare against zero.
func TestWeaponDeltaZeroClipIsFlagged(t *testing.T) {
	data, err := Encode(WeaponDelta{Weapon: "w1", Fields: FieldClipAmmo, ClipAmmo: 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	d := got.(WeaponDelta)
	if !d.Fields.Has(FieldClipAmmo) || d.ClipAmmo != 0 {
		t.Errorf("Expected flagged empty clip, got %+v", d)
	}
	if d.Fields.Has(FieldOwner) {
		t.Error("Expected owner not flagged")
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	data, err := msgpack.Marshal(&envelope{Kind: Kind(200)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1, 0x00}); err == nil {
		t.Error("Expected error for a malformed frame")
	}

	// A valid envelope whose payload does not match the kind.
	payload, _ := msgpack.Marshal("not a struct")
	data, _ := msgpack.Marshal(&envelope{Kind: KindWeaponDelta, Payload: payload})
	if _, err := Decode(data); err == nil {
		t.Error("Expected error for a mismatched payload")
	}
}

func TestKindString(t *testing.T) {
	if KindServerNotifyHit.String() != "server_notify_hit" {
		t.Errorf("Unexpected name %q", KindServerNotifyHit.String())
	}
	if Kind(250).String() != "unknown" {
		t.Errorf("Expected unknown, got %q", Kind(250).String())
	}
}

func TestWeaponFieldHas(t *testing.T) {
	m := FieldOwner | FieldHitOrigin
	if !m.Has(FieldOwner) || !m.Has(FieldHitOrigin) || m.Has(FieldClipAmmo) {
		t.Errorf("Unexpected mask behaviour for %b", m)
	}
	if !m.Has(FieldOwner | FieldHitOrigin) {
		t.Error("Expected combined mask present")
	}
}
