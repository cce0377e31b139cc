package game

import "sort"

// DefaultMaxStack caps a single inventory stack.
const DefaultMaxStack = 999

// Inventory is the authority's minimal stack store. Stacking rules beyond a
// per-type cap are out of scope; weapons only use it as an ammo source.
type Inventory struct {
	stacks   map[string]*Stack
	maxStack int
	version  uint64 // bumped on every change, drives InventoryUpdate
}

// NewInventory creates an empty inventory. maxStack <= 0 uses DefaultMaxStack.
func NewInventory(maxStack int) *Inventory {
	if maxStack <= 0 {
		maxStack = DefaultMaxStack
	}
	return &Inventory{stacks: make(map[string]*Stack), maxStack: maxStack}
}

// FindStackByType returns the stack holding itemType, if any.
func (inv *Inventory) FindStackByType(itemType string) (*Stack, bool) {
	s, ok := inv.stacks[itemType]
	return s, ok
}

// ConsumeUnits removes up to n units from stack. Emptied stacks are dropped.
func (inv *Inventory) ConsumeUnits(stack *Stack, n int) int {
	if stack == nil || n <= 0 {
		return 0
	}
	if inv.stacks[stack.Type] != stack {
		return 0
	}
	take := min(n, stack.Quantity)
	stack.Quantity -= take
	if stack.Quantity <= 0 {
		delete(inv.stacks, stack.Type)
	}
	if take > 0 {
		inv.version++
	}
	return take
}

// AddUnitsOfType adds up to n units of itemType, limited by the stack cap.
func (inv *Inventory) AddUnitsOfType(itemType string, n int) int {
	if n <= 0 || itemType == "" {
		return 0
	}
	s, ok := inv.stacks[itemType]
	if !ok {
		s = &Stack{Type: itemType}
	}
	add := min(n, inv.maxStack-s.Quantity)
	if add <= 0 {
		return 0
	}
	s.Quantity += add
	inv.stacks[itemType] = s
	inv.version++
	return add
}

// Quantity returns the units held of itemType.
func (inv *Inventory) Quantity(itemType string) int {
	if s, ok := inv.stacks[itemType]; ok {
		return s.Quantity
	}
	return 0
}

// Quantities returns a copy of all stack sizes.
func (inv *Inventory) Quantities() map[string]int {
	out := make(map[string]int, len(inv.stacks))
	for t, s := range inv.stacks {
		out[t] = s.Quantity
	}
	return out
}

// Types returns held item types in sorted order.
func (inv *Inventory) Types() []string {
	out := make([]string, 0, len(inv.stacks))
	for t := range inv.stacks {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Version changes whenever a quantity changes.
func (inv *Inventory) Version() uint64 { return inv.version }

// MirrorInventory is the read-only replica copy of the owner's inventory.
// It answers reserve queries for local prediction and never mutates.
type MirrorInventory struct {
	stacks map[string]int
}

// NewMirrorInventory creates an empty mirror.
func NewMirrorInventory() *MirrorInventory {
	return &MirrorInventory{stacks: make(map[string]int)}
}

// Apply replaces the mirrored quantities.
func (m *MirrorInventory) Apply(stacks map[string]int) {
	m.stacks = make(map[string]int, len(stacks))
	for t, q := range stacks {
		if q > 0 {
			m.stacks[t] = q
		}
	}
}

func (m *MirrorInventory) FindStackByType(itemType string) (*Stack, bool) {
	q, ok := m.stacks[itemType]
	if !ok {
		return nil, false
	}
	return &Stack{Type: itemType, Quantity: q}, true
}

// ConsumeUnits is a no-op: reserve ammo only changes on the authority.
func (m *MirrorInventory) ConsumeUnits(*Stack, int) int { return 0 }

// AddUnitsOfType is a no-op for the same reason.
func (m *MirrorInventory) AddUnitsOfType(string, int) int { return 0 }

// Quantity returns the mirrored units of itemType.
func (m *MirrorInventory) Quantity(itemType string) int { return m.stacks[itemType] }
