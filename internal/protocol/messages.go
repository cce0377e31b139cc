// Package protocol defines the messages exchanged between the authority and
// replicas, and their msgpack wire encoding.
//
// Every message is a one-way, reliable, ordered frame on the replica's
// WebSocket. Replica->authority messages are prefixed Server*, authority->owner
// calls are prefixed Client*, and the rest are replication traffic.
package protocol

import "firefight/internal/game/spatial"

// Kind tags a message on the wire.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindJoin
	KindWelcome
	KindServerEquip
	KindServerUnequip
	KindServerAim
	KindServerStartFire
	KindServerStopFire
	KindServerStartReload
	KindServerStopReload
	KindServerHandleFiring
	KindServerNotifyHit
	KindServerUseThrowable
	KindClientStartReload
	KindClientHitMarker
	KindWeaponDelta
	KindWeaponRemoved
	KindEntityState
	KindEntityRemoved
	KindInventoryUpdate
	KindThrowableToss
)

// String returns human-readable message kind
func (k Kind) String() string {
	switch k {
	case KindJoin:
		return "join"
	case KindWelcome:
		return "welcome"
	case KindServerEquip:
		return "server_equip"
	case KindServerUnequip:
		return "server_unequip"
	case KindServerAim:
		return "server_aim"
	case KindServerStartFire:
		return "server_start_fire"
	case KindServerStopFire:
		return "server_stop_fire"
	case KindServerStartReload:
		return "server_start_reload"
	case KindServerStopReload:
		return "server_stop_reload"
	case KindServerHandleFiring:
		return "server_handle_firing"
	case KindServerNotifyHit:
		return "server_notify_hit"
	case KindServerUseThrowable:
		return "server_use_throwable"
	case KindClientStartReload:
		return "client_start_reload"
	case KindClientHitMarker:
		return "client_hit_marker"
	case KindWeaponDelta:
		return "weapon_delta"
	case KindWeaponRemoved:
		return "weapon_removed"
	case KindEntityState:
		return "entity_state"
	case KindEntityRemoved:
		return "entity_removed"
	case KindInventoryUpdate:
		return "inventory_update"
	case KindThrowableToss:
		return "throwable_toss"
	default:
		return "unknown"
	}
}

// Message is implemented by every payload type.
type Message interface {
	Kind() Kind
}

// =============================================================================
// SESSION
// =============================================================================

// Join asks the authority for a character.
type Join struct {
	Name string `msgpack:"n"`
}

// Welcome tells a replica which character it controls.
type Welcome struct {
	Character string   `msgpack:"c"`
	TickRate  int      `msgpack:"tr"`
	Weapons   []string `msgpack:"w"`
}

// ServerEquip equips a catalog item (weapon, gear or throwable) by name.
type ServerEquip struct {
	Item string `msgpack:"i"`
}

// ServerUnequip removes the item in the given slot ("weapon", "throwable", or a gear slot).
type ServerUnequip struct {
	Slot string `msgpack:"s"`
}

// ServerAim carries the controlling replica's view direction.
type ServerAim struct {
	Aim spatial.Vec3 `msgpack:"a"`
}

// =============================================================================
// FIRE CONTROL (replica -> authority)
// =============================================================================

// ServerStartFire forwards a StartFire input.
type ServerStartFire struct {
	Weapon string `msgpack:"w"`
}

// ServerStopFire forwards a StopFire input.
type ServerStopFire struct {
	Weapon string `msgpack:"w"`
}

// ServerStartReload forwards a StartReload input.
type ServerStartReload struct {
	Weapon string `msgpack:"w"`
}

// ServerStopReload forwards a StopReload input.
type ServerStopReload struct {
	Weapon string `msgpack:"w"`
}

// ServerHandleFiring is sent once per locally fired shot.
type ServerHandleFiring struct {
	Weapon string `msgpack:"w"`
}

// Hit is the wire form of a trace result.
type Hit struct {
	Blocking bool         `msgpack:"b"`
	Entity   string       `msgpack:"e,omitempty"`
	Origin   spatial.Vec3 `msgpack:"o"`
	Impact   spatial.Vec3 `msgpack:"i"`
	Normal   spatial.Vec3 `msgpack:"n"`
	Distance float64      `msgpack:"d"`
}

// ServerNotifyHit reports a client-side hit for validation.
type ServerNotifyHit struct {
	Weapon   string       `msgpack:"w"`
	Hit      Hit          `msgpack:"h"`
	ShootDir spatial.Vec3 `msgpack:"s"`
}

// ServerUseThrowable forwards a throwable toss.
type ServerUseThrowable struct{}

// =============================================================================
// CLIENT CALLS (authority -> owning replica)
// =============================================================================

// ClientStartReload tells the owner the authority started a reload on its own.
type ClientStartReload struct {
	Weapon string `msgpack:"w"`
}

// ClientHitMarker confirms a hit on a living character.
type ClientHitMarker struct {
	Weapon string `msgpack:"w"`
	Victim string `msgpack:"v"`
}

// =============================================================================
// REPLICATION (authority -> replicas)
// =============================================================================

// WeaponField is a bitmask of the fields present in a WeaponDelta.
type WeaponField uint8

const (
	FieldOwner WeaponField = 1 << iota
	FieldClipAmmo
	FieldBurstCounter
	FieldPendingReload
	FieldHitOrigin
	FieldItem
)

// Has reports whether all bits of f are set.
func (m WeaponField) Has(f WeaponField) bool { return m&f == f }

// WeaponDelta carries the weapon fields that changed for one connection.
// Only fields flagged in Fields are meaningful.
type WeaponDelta struct {
	Weapon        string       `msgpack:"w"`
	Fields        WeaponField  `msgpack:"f"`
	Owner         string       `msgpack:"o,omitempty"`
	ClipAmmo      int          `msgpack:"c,omitempty"`
	BurstCounter  int          `msgpack:"bc,omitempty"`
	PendingReload bool         `msgpack:"r,omitempty"`
	HitOrigin     spatial.Vec3 `msgpack:"h"`
	Item          string       `msgpack:"i,omitempty"`
}

// WeaponRemoved tells replicas to destroy their copy of a weapon.
type WeaponRemoved struct {
	Weapon string `msgpack:"w"`
}

// Entity types carried in EntityState.
const (
	EntityCharacter uint8 = iota + 1
	EntityProp
)

// EntityState is the replicated body of a character or prop.
type EntityState struct {
	ID         string            `msgpack:"id"`
	Type       uint8             `msgpack:"k"`
	Name       string            `msgpack:"n,omitempty"`
	Mobility   uint8             `msgpack:"m"`
	Position   spatial.Vec3      `msgpack:"p"`
	HalfExtent spatial.Vec3      `msgpack:"x"`
	Aim        spatial.Vec3      `msgpack:"a"`
	Health     float64           `msgpack:"hp"`
	MaxHealth  float64           `msgpack:"mhp"`
	Weapon     string            `msgpack:"w,omitempty"`
	Throwable  string            `msgpack:"t,omitempty"`
	Gear       map[string]string `msgpack:"g,omitempty"` // slot -> item
}

// EntityRemoved tells replicas an entity left the world.
type EntityRemoved struct {
	ID string `msgpack:"id"`
}

// InventoryUpdate mirrors the owner's stack quantities. Owner-only.
type InventoryUpdate struct {
	Owner  string         `msgpack:"o"`
	Stacks map[string]int `msgpack:"s"`
}

// ThrowableToss lets replicas play the toss animation of another character.
type ThrowableToss struct {
	Character string `msgpack:"c"`
	Item      string `msgpack:"i"`
}

func (Join) Kind() Kind { return KindJoin }
func (Welcome) Kind() Kind { return KindWelcome }
func (ServerEquip) Kind() Kind { return KindServerEquip }
func (ServerUnequip) Kind() Kind { return KindServerUnequip }
func (ServerAim) Kind() Kind { return KindServerAim }
func (ServerStartFire) Kind() Kind { return KindServerStartFire }
func (ServerStopFire) Kind() Kind { return KindServerStopFire }
func (ServerStartReload) Kind() Kind { return KindServerStartReload }
func (ServerStopReload) Kind() Kind { return KindServerStopReload }
func (ServerHandleFiring) Kind() Kind { return KindServerHandleFiring }
func (ServerNotifyHit) Kind() Kind { return KindServerNotifyHit }
func (ServerUseThrowable) Kind() Kind { return KindServerUseThrowable }
func (ClientStartReload) Kind() Kind { return KindClientStartReload }
func (ClientHitMarker) Kind() Kind { return KindClientHitMarker }
func (WeaponDelta) Kind() Kind { return KindWeaponDelta }
func (WeaponRemoved) Kind() Kind { return KindWeaponRemoved }
func (EntityState) Kind() Kind { return KindEntityState }
func (EntityRemoved) Kind() Kind { return KindEntityRemoved }
func (InventoryUpdate) Kind() Kind { return KindInventoryUpdate }
func (ThrowableToss) Kind() Kind { return KindThrowableToss }
