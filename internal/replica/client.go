// Package replica runs a headless replica process: it joins the authority
// over a websocket, mirrors the combat world at the tick rate and drives its
// character with a scripted trigger.
package replica

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"firefight/internal/config"
	"firefight/internal/game"
	"firefight/internal/protocol"
	"firefight/internal/telemetry"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = 5 * time.Second
	maxInboundSize = 1 << 20
)

// Options configures New.
type Options struct {
	Replica config.ReplicaConfig
	Tick    config.TickConfig
	Combat  config.CombatConfig
	World   config.WorldConfig
	Limits  config.ResourceLimits
	Catalog *config.Catalog
}

// Stats are the client's transport counters.
type Stats struct {
	FramesIn      uint64
	FramesOut     uint64
	FramesDropped uint64
	Unhandled     uint64
	HitMarkers    uint64 // confirmed hits reported back by the authority
}

// Client is one replica process.
type Client struct {
	cfg      config.ReplicaConfig
	interval time.Duration
	dialer   *websocket.Dialer

	world     *game.World
	fx        *game.FXBuffer
	snapshots *game.SnapshotPool
	pilot     *pilot

	inbox  chan protocol.Message
	outbox chan []byte

	framesIn      atomic.Uint64
	framesOut     atomic.Uint64
	framesDropped atomic.Uint64
	unhandled     atomic.Uint64
	hitMarkers    atomic.Uint64
	joined        atomic.Bool
}

// New creates a replica client. Nothing connects until Run.
func New(opts Options) *Client {
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	if opts.Limits.InboxSize <= 0 {
		opts.Limits = config.DefaultLimits()
	}

	c := &Client{
		cfg:       opts.Replica,
		interval:  opts.Tick.Interval(),
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		fx:        game.NewFXBuffer(),
		snapshots: game.NewSnapshotPool(opts.Limits),
		inbox:     make(chan protocol.Message, opts.Limits.InboxSize),
		outbox:    make(chan []byte, opts.Limits.PeerQueueSize),
	}
	c.world = game.NewWorld(game.WorldOptions{
		Role:   game.RoleReplica,
		Combat: opts.Combat,
		Arena:  opts.World,
		Limits: opts.Limits,
		Items:  game.NewItemCatalog(opts.Catalog, opts.Combat),
		Net:    clientNet{c},
		FX:     c.fx,
	})
	c.pilot = newPilot(c.world, opts.Replica)
	return c
}

// clientNet routes replica commands to the outbound queue. A replica never
// talks to other replicas.
type clientNet struct{ c *Client }

func (n clientNet) ToAuthority(msg protocol.Message) { n.c.enqueue(msg) }
func (n clientNet) ToOwner(game.EntityID, protocol.Message) {}
func (n clientNet) Broadcast(protocol.Message) {}

// enqueue encodes msg for the write loop without blocking the tick.
func (c *Client) enqueue(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		log.Printf("❌ Encode %s failed: %v", msg.Kind(), err)
		telemetry.RecordDroppedFrame("encode")
		c.framesDropped.Add(1)
		return
	}
	select {
	case c.outbox <- data:
	default:
		telemetry.RecordDroppedFrame("queue_full")
		c.framesDropped.Add(1)
	}
}

// Run connects, joins and plays until ctx is cancelled or the connection
// fails. A cancelled ctx is a clean exit and returns nil.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.ServerURL, err)
	}
	defer conn.Close()
	log.Printf("🔌 Connected to %s as %q", c.cfg.ServerURL, c.cfg.Name)

	c.enqueue(protocol.Join{Name: c.cfg.Name})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(gctx, conn) })
	g.Go(func() error { return c.writeLoop(gctx, conn) })
	g.Go(func() error { return c.tickLoop(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks ReadMessage.
		conn.Close()
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		log.Printf("👋 Replica %q disconnected", c.cfg.Name)
		return nil
	}
	return err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxInboundSize)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			telemetry.RecordDroppedFrame("decode")
			c.framesDropped.Add(1)
			continue
		}
		c.framesIn.Add(1)
		select {
		case c.inbox <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case data := <-c.outbox:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			c.framesOut.Add(1)
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()
		}
	}
}

// tickLoop owns the world: inbound messages, timers and the pilot all run here.
func (c *Client) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.step(c.interval)
		}
	}
}

// step drains pending authority messages, advances the world one frame and
// publishes a snapshot.
func (c *Client) step(dt time.Duration) {
drain:
	for {
		select {
		case msg := <-c.inbox:
			c.apply(msg)
		default:
			break drain
		}
	}
	c.world.Advance(dt)
	c.pilot.fly()
	c.hitMarkers.Store(uint64(c.fx.Count(game.FXHitMarker)))
	c.snapshots.Capture(c.world, 1)
}

func (c *Client) apply(msg protocol.Message) {
	if w, ok := msg.(protocol.Welcome); ok {
		c.joined.Store(true)
		log.Printf("🎯 Joined as %s (authority at %d TPS, weapons %v)", w.Character, w.TickRate, w.Weapons)
	}
	if !c.world.ApplyFromAuthority(msg) {
		c.unhandled.Add(1)
	}
}

// Joined reports whether the authority has welcomed this replica.
func (c *Client) Joined() bool { return c.joined.Load() }

// Snapshot returns the latest immutable view of the replica's world.
func (c *Client) Snapshot() *game.CombatSnapshot { return c.snapshots.Latest() }

// Stats returns transport counters.
func (c *Client) Stats() Stats {
	return Stats{
		FramesIn:      c.framesIn.Load(),
		FramesOut:     c.framesOut.Load(),
		FramesDropped: c.framesDropped.Load(),
		Unhandled:     c.unhandled.Load(),
		HitMarkers:    c.hitMarkers.Load(),
	}
}
