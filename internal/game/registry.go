package game

import "sort"

// Registry is the id-indexed lookup of everything alive in a world.
// Weapons hold only their owner's EntityID and resolve it here on every use,
// so a destroyed owner simply stops resolving.
type Registry struct {
	entities map[EntityID]Entity
	order    []EntityID // insertion order, for deterministic iteration
	weapons  map[WeaponID]*Weapon
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[EntityID]Entity),
		weapons:  make(map[WeaponID]*Weapon),
	}
}

// Add registers e. Re-adding an existing id replaces the entity in place.
func (r *Registry) Add(e Entity) {
	id := e.EntityID()
	if _, exists := r.entities[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entities[id] = e
}

// Remove forgets the entity with the given id.
func (r *Registry) Remove(id EntityID) {
	if _, ok := r.entities[id]; !ok {
		return
	}
	delete(r.entities, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get resolves an entity id.
func (r *Registry) Get(id EntityID) (Entity, bool) {
	if id == "" {
		return nil, false
	}
	e, ok := r.entities[id]
	return e, ok
}

// Character resolves an id to a character.
func (r *Registry) Character(id EntityID) (*Character, bool) {
	e, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	c, ok := e.(*Character)
	return c, ok
}

// Owner resolves an id to anything that can hold a weapon.
func (r *Registry) Owner(id EntityID) (OwnerCharacter, bool) {
	e, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	o, ok := e.(OwnerCharacter)
	return o, ok
}

// Each visits entities in insertion order. Do not add or remove during the walk.
func (r *Registry) Each(fn func(Entity)) {
	for _, id := range r.order {
		fn(r.entities[id])
	}
}

// Len returns the number of entities.
func (r *Registry) Len() int { return len(r.order) }

// AddWeapon registers a spawned weapon.
func (r *Registry) AddWeapon(w *Weapon) { r.weapons[w.id] = w }

// RemoveWeapon forgets a weapon.
func (r *Registry) RemoveWeapon(id WeaponID) { delete(r.weapons, id) }

// Weapon resolves a weapon id.
func (r *Registry) Weapon(id WeaponID) (*Weapon, bool) {
	w, ok := r.weapons[id]
	return w, ok
}

// Weapons returns all weapons sorted by id.
func (r *Registry) Weapons() []*Weapon {
	out := make([]*Weapon, 0, len(r.weapons))
	for _, w := range r.weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
