package game

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"firefight/internal/config"
	"firefight/internal/game/spatial"
	"firefight/internal/protocol"
	"firefight/internal/telemetry"

	"github.com/google/uuid"
)

// StartingThrowables is how many of each throwable a joining character gets.
const StartingThrowables = 3

var (
	// ErrTargetLimit is returned when the training target cap is reached.
	ErrTargetLimit = errors.New("training target limit reached")
	// ErrNotFound is returned for an unknown entity id.
	ErrNotFound = errors.New("entity not found")
)

// Peer is one replica connection as seen by the engine.
type Peer interface {
	ID() string
	// Send queues msg without blocking and reports whether it was accepted.
	Send(msg protocol.Message) bool
	Close()
}

// Inbound is a decoded replica message waiting for the tick goroutine.
type Inbound struct {
	Peer string
	Msg  protocol.Message
}

type connection struct {
	peer      Peer
	character EntityID
	shadow    *ConnShadow
}

func (c *connection) joined() bool { return c.character != "" }

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Tick          config.TickConfig
	Combat        config.CombatConfig
	World         config.WorldConfig
	Limits        config.ResourceLimits
	MaxCharacters int
	Catalog       *config.Catalog
	Seed          int64 // spawn positions; 0 = time based
}

// Engine is the authority: it owns the world, runs the fixed-rate step and
// fans replication out to every attached connection.
type Engine struct {
	mu    sync.Mutex // guards everything below except inbox
	world *World
	items *ItemCatalog
	opts  EngineOptions

	conns        map[string]*connection
	byCharacter  map[EntityID]*connection
	pendingLeave []string
	inbox        chan Inbound

	snapshots *SnapshotPool
	eventLog  *EventLog
	rng       *rand.Rand
	targets   int

	tickRate  int
	tickCount uint64
	running   bool
	ticker    *time.Ticker
	stopChan  chan struct{}
}

// NewEngine creates an authority with an empty arena.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	if opts.Limits.InboxSize <= 0 {
		opts.Limits = config.DefaultLimits()
	}
	if opts.MaxCharacters <= 0 {
		opts.MaxCharacters = config.DefaultServer().MaxCharacters
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		items:       NewItemCatalog(opts.Catalog, opts.Combat),
		opts:        opts,
		conns:       make(map[string]*connection),
		byCharacter: make(map[EntityID]*connection),
		inbox:       make(chan Inbound, opts.Limits.InboxSize),
		snapshots:   NewSnapshotPool(opts.Limits),
		eventLog:    NewEventLog(),
		rng:         rand.New(rand.NewSource(seed)),
		tickRate:    opts.Tick.Rate,
		stopChan:    make(chan struct{}),
	}
	if e.tickRate <= 0 {
		e.tickRate = config.DefaultTick().Rate
	}
	e.world = NewWorld(WorldOptions{
		Role:   RoleAuthority,
		Combat: opts.Combat,
		Arena:  opts.World,
		Limits: opts.Limits,
		Items:  e.items,
		Net:    engineNet{e},
		Events: e.eventLog,
	})
	return e
}

// Start begins the fixed-rate loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	interval := e.opts.Tick.Interval()
	e.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Step(interval)
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Combat engine started at %d TPS", e.tickRate)
}

// Stop stops the loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Combat engine stopped")
}

// Step advances the world by dt. Order: timers and patrols, replica input,
// disconnects, replication, snapshot.
func (e *Engine) Step(dt time.Duration) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	e.world.Advance(dt)
	e.drainInbox()
	e.processLeaves()

	for _, id := range sortedKeys(e.conns) {
		c := e.conns[id]
		if c.joined() {
			e.world.Replicate(c.shadow, c.peer.Send)
		}
	}

	e.snapshots.Capture(e.world, len(e.conns))

	if e.tickCount%uint64(e.tickRate) == 0 {
		e.eventLog.EmitSimple(EventTypeTick, e.tickCount, "", TickPayload{
			Characters:  len(e.byCharacter),
			Weapons:     len(e.world.reg.weapons),
			Timers:      e.world.sched.Pending(),
			DeltaTimeNs: dt.Nanoseconds(),
		})
		telemetry.UpdateEventLogStats(e.eventLog.GetTotalCount(), e.eventLog.GetDroppedCount())
	}
	telemetry.SetConnections(len(e.conns))
	telemetry.SetCharacters(e.world.reg.Len())
	telemetry.RecordTick(time.Since(start))
}

// =============================================================================
// CONNECTIONS
// =============================================================================

// Attach registers a connection. It gets a character once its Join is processed.
func (e *Engine) Attach(p Peer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns[p.ID()] = &connection{peer: p}
}

// Detach schedules a connection for removal after its queued input is applied.
func (e *Engine) Detach(peerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingLeave = append(e.pendingLeave, peerID)
}

// Submit queues a replica message for the next step. It never blocks; a full
// inbox drops the message and reports false.
func (e *Engine) Submit(peerID string, msg protocol.Message) bool {
	select {
	case e.inbox <- Inbound{Peer: peerID, Msg: msg}:
		return true
	default:
		telemetry.RecordDroppedFrame("inbox_full")
		return false
	}
}

// drainInbox applies what was queued when the step began.
func (e *Engine) drainInbox() {
	for n := len(e.inbox); n > 0; n-- {
		in := <-e.inbox
		c, ok := e.conns[in.Peer]
		if !ok {
			continue
		}
		if j, ok := in.Msg.(protocol.Join); ok {
			if !c.joined() {
				e.join(c, j.Name)
			}
			continue
		}
		if !c.joined() {
			telemetry.RecordRejectedCommand("not_joined")
			continue
		}
		if !e.world.ApplyFromOwner(c.character, in.Msg) {
			telemetry.RecordRejectedCommand("unexpected_kind")
		}
	}
}

func (e *Engine) processLeaves() {
	for _, id := range e.pendingLeave {
		c, ok := e.conns[id]
		if !ok {
			continue
		}
		delete(e.conns, id)
		if !c.joined() {
			continue
		}
		delete(e.byCharacter, c.character)
		name := string(c.character)
		if ch, ok := e.world.reg.Character(c.character); ok {
			name = ch.name
		}
		e.world.RemoveEntity(c.character)
		e.eventLog.EmitSimple(EventTypeCharacterLeave, e.tickCount, string(c.character),
			JoinPayload{CharacterID: string(c.character), Name: name})
		log.Printf("👋 %s left", name)
	}
	e.pendingLeave = e.pendingLeave[:0]
}

func (e *Engine) join(c *connection, name string) {
	if len(e.byCharacter) >= e.opts.MaxCharacters {
		log.Printf("⚠️ Character limit reached (%d), rejecting: %s", e.opts.MaxCharacters, name)
		telemetry.RecordRejectedCommand("character_limit")
		c.peer.Close()
		return
	}
	name = sanitizeName(name)
	ch := e.spawnCharacter(EntityID(uuid.NewString()), name, false)

	c.character = ch.id
	c.shadow = NewConnShadow(ch.id)
	e.byCharacter[ch.id] = c

	c.peer.Send(protocol.Welcome{
		Character: string(ch.id),
		TickRate:  e.tickRate,
		Weapons:   e.items.WeaponNames(),
	})
	log.Printf("👤 %s joined as %s", name, ch.id)
}

// spawnCharacter creates a stocked, armed character at a random point.
func (e *Engine) spawnCharacter(id EntityID, name string, bot bool) *Character {
	inv := NewInventory(DefaultMaxStack)
	for _, t := range e.items.AmmoTypes() {
		inv.AddUnitsOfType(t, e.opts.Combat.StartingAmmo)
	}
	for _, t := range e.items.ThrowableNames() {
		inv.AddUnitsOfType(t, StartingThrowables)
	}

	ch := NewCharacter(id, name, CharacterOptions{
		Position:  e.spawnPoint(),
		Aim:       spatial.FromYawPitch(e.rng.Float64()*2*math.Pi, 0),
		Mobility:  MobilityMovable,
		Bot:       bot,
		Inventory: inv,
		Animation: NewMontagePlayer(e.items.Montages(), e.world.Now),
	})
	e.world.AddEntity(ch)

	if !bot && e.opts.Combat.DefaultWeapon != "" {
		if !e.world.Equip(ch, e.opts.Combat.DefaultWeapon) {
			log.Printf("⚠️ Default weapon %q could not be equipped on %s", e.opts.Combat.DefaultWeapon, name)
		}
		if names := e.items.ThrowableNames(); len(names) > 0 {
			e.world.Equip(ch, names[0])
		}
	}

	e.eventLog.EmitSimple(EventTypeCharacterJoin, e.tickCount, string(id), JoinPayload{
		CharacterID: string(id),
		Name:        name,
		SpawnX:      ch.position.X,
		SpawnY:      ch.position.Y,
		Bot:         bot,
	})
	return ch
}

func (e *Engine) spawnPoint() spatial.Vec3 {
	a := e.world.arena
	return spatial.V(
		e.rng.Float64()*a.Width*0.8+a.Width*0.1,
		e.rng.Float64()*a.Depth*0.8+a.Depth*0.1,
		DefaultHalfExtent.Z,
	)
}

// maxNameRunes caps character names, counted in runes.
const maxNameRunes = 32

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	if name == "" {
		return "anonymous"
	}
	return name
}

// engineNet routes world output to connections. Only used from Step, with mu held.
type engineNet struct{ e *Engine }

func (n engineNet) ToAuthority(protocol.Message) {}

func (n engineNet) ToOwner(owner EntityID, msg protocol.Message) {
	if c, ok := n.e.byCharacter[owner]; ok {
		c.peer.Send(msg)
	}
}

func (n engineNet) Broadcast(msg protocol.Message) {
	for _, c := range n.e.conns {
		if c.joined() {
			c.peer.Send(msg)
		}
	}
}

// =============================================================================
// TRAINING TARGETS AND ARENA
// =============================================================================

// TargetOptions describes a training target.
type TargetOptions struct {
	Name     string
	Position spatial.Vec3
	Static   bool
	// PatrolTo makes the target walk between Position and PatrolTo.
	PatrolTo    *spatial.Vec3
	PatrolSpeed float64
}

// SpawnTarget adds an unarmed bot character that can be shot.
func (e *Engine) SpawnTarget(opts TargetOptions) (EntityID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.Limits.MaxTargets > 0 && e.targets >= e.opts.Limits.MaxTargets {
		return "", ErrTargetLimit
	}
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("target-%d", e.targets+1)
	}
	ch := e.spawnCharacter(EntityID(uuid.NewString()), sanitizeName(name), true)
	if !opts.Position.IsZero() {
		ch.SetPosition(opts.Position)
	}
	if opts.Static {
		ch.mobility = MobilityStatic
	} else if opts.PatrolTo != nil {
		ch.SetPatrol(ch.position, *opts.PatrolTo, opts.PatrolSpeed)
	}
	e.world.MarkDirty()
	e.targets++
	return ch.id, nil
}

// RemoveTarget deletes a training target.
func (e *Engine) RemoveTarget(id EntityID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.world.reg.Character(id)
	if !ok || !ch.bot {
		return ErrNotFound
	}
	e.world.RemoveEntity(id)
	e.targets--
	return nil
}

// AddProp places blocking geometry.
func (e *Engine) AddProp(box spatial.Box, mobility Mobility) EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := EntityID(uuid.NewString())
	e.world.AddEntity(NewProp(id, box, mobility))
	return id
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Snapshot returns the latest published world view. Safe from any goroutine.
func (e *Engine) Snapshot() *CombatSnapshot { return e.snapshots.Latest() }

// Items returns the runtime item catalog.
func (e *Engine) Items() *ItemCatalog { return e.items }

// TickRate returns the configured ticks per second.
func (e *Engine) TickRate() int { return e.tickRate }

// WithWorld runs fn on the world with the step lock held.
func (e *Engine) WithWorld(fn func(w *World)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.world)
}

// Connections returns attached connection ids in order.
func (e *Engine) Connections() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.conns))
	for id := range e.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartEventLog starts the audit trail writer
func (e *Engine) StartEventLog(filePath string) error { return e.eventLog.Start(filePath) }

// StopEventLog flushes and closes the audit trail
func (e *Engine) StopEventLog() { e.eventLog.Stop() }

// EventLog exposes the audit trail for readers.
func (e *Engine) EventLog() *EventLog { return e.eventLog }
