package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"firefight/internal/game"
	"firefight/internal/protocol"
	"firefight/internal/telemetry"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// DefaultPeerQueueSize bounds outbound frames per connection.
	DefaultPeerQueueSize = 512

	writeWait      = 5 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// PeerEngine is the part of the authority a websocket connection talks to.
type PeerEngine interface {
	Attach(p game.Peer)
	Detach(peerID string)
	Submit(peerID string, msg protocol.Message) bool
}

// wsPeer is one websocket connection seen by the engine as a game.Peer.
// Send is called on the tick goroutine and never blocks: frames go through a
// bounded queue drained by writePump, and a full queue drops the connection.
type wsPeer struct {
	id   string
	ip   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newWSPeer(conn *websocket.Conn, ip string, queueSize int) *wsPeer {
	return &wsPeer{
		id:   uuid.NewString(),
		ip:   ip,
		conn: conn,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Send(msg protocol.Message) bool {
	data, err := protocol.Encode(msg)
	if err != nil {
		log.Printf("❌ Encode %s for %s failed: %v", msg.Kind(), p.id, err)
		telemetry.RecordDroppedFrame("encode")
		return false
	}
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- data:
		return true
	default:
		log.Printf("⚠️ Peer %s (%s) cannot keep up, disconnecting", p.id, p.ip)
		telemetry.RecordDroppedFrame("queue_full")
		p.Close()
		return false
	}
}

// Close stops the write pump, which closes the socket and unblocks the reader.
func (p *wsPeer) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *wsPeer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case data := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				p.Close()
				return
			}
			telemetry.RecordFrameSent()
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.Close()
				return
			}
		case <-p.done:
			p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// readPump feeds decoded frames into the engine inbox until the socket fails.
func (p *wsPeer) readPump(engine PeerEngine) {
	p.conn.SetReadLimit(maxInboundSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("⚠️ Peer %s read error: %v", p.id, err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			telemetry.RecordDroppedFrame("decode")
			continue
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			telemetry.RecordDroppedFrame("decode")
			continue
		}
		engine.Submit(p.id, msg)
	}
}

// PeerHub accepts websocket connections and attaches them to the engine
// with DoS protection.
type PeerHub struct {
	engine    PeerEngine
	queueSize int
	maxTotal  int

	mu    sync.RWMutex
	peers map[string]*wsPeer
	wg    sync.WaitGroup

	slots *PeerSlots
}

// NewPeerHub creates a hub. queueSize <= 0 takes DefaultPeerQueueSize.
func NewPeerHub(engine PeerEngine, queueSize int) *PeerHub {
	if queueSize <= 0 {
		queueSize = DefaultPeerQueueSize
	}
	return &PeerHub{
		engine:    engine,
		queueSize: queueSize,
		maxTotal:  MaxWSConnectionsTotal,
		peers:     make(map[string]*wsPeer),
		slots:     NewPeerSlots(MaxWSConnectionsPerIP),
	}
}

// ServeHTTP makes the hub mountable on a router.
func (h *PeerHub) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.HandleWebSocket(w, r) }

// HandleWebSocket upgrades the request and runs the connection until it closes.
func (h *PeerHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.Count(); total >= h.maxTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		telemetry.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.slots.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		telemetry.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.slots.Release(ip)
		return
	}

	p := newWSPeer(conn, ip, h.queueSize)
	h.mu.Lock()
	h.peers[p.id] = p
	count := len(h.peers)
	h.mu.Unlock()
	log.Printf("📱 Peer %s connected from %s (%d total)", p.id, ip, count)

	h.engine.Attach(p)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		p.writePump()
	}()
	go func() {
		defer h.wg.Done()
		p.readPump(h.engine)
		p.Close()
		h.engine.Detach(p.id)
		h.remove(p)
	}()
}

func (h *PeerHub) remove(p *wsPeer) {
	h.mu.Lock()
	delete(h.peers, p.id)
	count := len(h.peers)
	h.mu.Unlock()
	h.slots.Release(p.ip)
	log.Printf("📱 Peer %s disconnected (%d remaining)", p.id, count)
}

// Count returns the number of open connections.
func (h *PeerHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every peer and waits for their goroutines.
func (h *PeerHub) Close() {
	h.mu.RLock()
	for _, p := range h.peers {
		p.Close()
	}
	h.mu.RUnlock()
	h.wg.Wait()
}
