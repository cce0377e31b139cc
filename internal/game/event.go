package game

import (
	"encoding/json"
	"time"
)

// EventType classifies audit-trail entries.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // periodic world summary
	EventTypeCharacterJoin
	EventTypeCharacterLeave
	EventTypeEquip
	EventTypeUnequip
	EventTypeReloadStart
	EventTypeReload // rounds actually moved into a clip
	EventTypeHitRejected
	EventTypeDamage
	EventTypeKill
	EventTypeThrowable
)

// EventVersion is bumped whenever a payload changes shape.
const EventVersion uint8 = 1

// Event is one line of the combat audit trail.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	ActorID   string          `json:"actorId"` // rate limiting key
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeCharacterJoin:
		return "character_join"
	case EventTypeCharacterLeave:
		return "character_leave"
	case EventTypeEquip:
		return "equip"
	case EventTypeUnequip:
		return "unequip"
	case EventTypeReloadStart:
		return "reload_start"
	case EventTypeReload:
		return "reload"
	case EventTypeHitRejected:
		return "hit_rejected"
	case EventTypeDamage:
		return "damage"
	case EventTypeKill:
		return "kill"
	case EventTypeThrowable:
		return "throwable"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name in JSON output.
func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// TickPayload summarises one world step.
type TickPayload struct {
	Characters  int   `json:"characters"`
	Weapons     int   `json:"weapons"`
	Timers      int   `json:"timers"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// JoinPayload describes a character entering or leaving.
type JoinPayload struct {
	CharacterID string  `json:"characterId"`
	Name        string  `json:"name"`
	SpawnX      float64 `json:"spawnX"`
	SpawnY      float64 `json:"spawnY"`
	Bot         bool    `json:"bot,omitempty"`
}

// EquipPayload describes an equip, unequip or throwable use.
type EquipPayload struct {
	CharacterID string `json:"characterId"`
	Item        string `json:"item"`
	Slot        string `json:"slot"`
}

// ReloadPayload describes a reload start or refill.
type ReloadPayload struct {
	WeaponID string `json:"weaponId"`
	Filled   int    `json:"filled,omitempty"`
	ClipAmmo int    `json:"clipAmmo"`
	Reserve  int    `json:"reserve"`
}

// HitPayload describes a rejected client hit.
type HitPayload struct {
	WeaponID string  `json:"weaponId"`
	TargetID string  `json:"targetId,omitempty"`
	Verdict  string  `json:"verdict"`
	ImpactX  float64 `json:"impactX"`
	ImpactY  float64 `json:"impactY"`
	ImpactZ  float64 `json:"impactZ"`
}

// DamagePayload contains damage event details
type DamagePayload struct {
	AttackerID string  `json:"attackerId"`
	VictimID   string  `json:"victimId"`
	WeaponID   string  `json:"weaponId"`
	DamageType string  `json:"damageType,omitempty"`
	Damage     float64 `json:"damage"`
}

// KillPayload contains kill event details
type KillPayload struct {
	KillerID string `json:"killerId"`
	VictimID string `json:"victimId"`
	WeaponID string `json:"weaponId"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload any) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, actorID string, payload any) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		ActorID:   actorID,
		Payload:   EncodePayload(payload),
	}
}
