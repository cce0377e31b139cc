package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownKind is returned when a frame carries an unrecognized kind tag.
var ErrUnknownKind = errors.New("protocol: unknown message kind")

// envelope is the frame layout: a kind tag plus the msgpack-encoded payload.
type envelope struct {
	Kind    Kind               `msgpack:"t"`
	Payload msgpack.RawMessage `msgpack:"p"`
}

// Encode marshals m into a single binary frame.
func Encode(m Message) ([]byte, error) {
	payload, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	data, err := msgpack.Marshal(&envelope{Kind: m.Kind(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", m.Kind(), err)
	}
	return data, nil
}

// Decode unmarshals a frame produced by Encode. The returned Message is a
// value type (for example protocol.WeaponDelta, not *WeaponDelta).
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Kind {
	case KindJoin:
		return decodeAs[Join](env)
	case KindWelcome:
		return decodeAs[Welcome](env)
	case KindServerEquip:
		return decodeAs[ServerEquip](env)
	case KindServerUnequip:
		return decodeAs[ServerUnequip](env)
	case KindServerAim:
		return decodeAs[ServerAim](env)
	case KindServerStartFire:
		return decodeAs[ServerStartFire](env)
	case KindServerStopFire:
		return decodeAs[ServerStopFire](env)
	case KindServerStartReload:
		return decodeAs[ServerStartReload](env)
	case KindServerStopReload:
		return decodeAs[ServerStopReload](env)
	case KindServerHandleFiring:
		return decodeAs[ServerHandleFiring](env)
	case KindServerNotifyHit:
		return decodeAs[ServerNotifyHit](env)
	case KindServerUseThrowable:
		return decodeAs[ServerUseThrowable](env)
	case KindClientStartReload:
		return decodeAs[ClientStartReload](env)
	case KindClientHitMarker:
		return decodeAs[ClientHitMarker](env)
	case KindWeaponDelta:
		return decodeAs[WeaponDelta](env)
	case KindWeaponRemoved:
		return decodeAs[WeaponRemoved](env)
	case KindEntityState:
		return decodeAs[EntityState](env)
	case KindEntityRemoved:
		return decodeAs[EntityRemoved](env)
	case KindInventoryUpdate:
		return decodeAs[InventoryUpdate](env)
	case KindThrowableToss:
		return decodeAs[ThrowableToss](env)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, env.Kind)
	}
}

func decodeAs[T Message](env envelope) (Message, error) {
	var m T
	if err := msgpack.Unmarshal(env.Payload, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return m, nil
}
