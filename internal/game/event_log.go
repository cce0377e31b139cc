package game

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize     = 1024                   // Circular buffer size
	MaxEventsPerSec     = 10000                  // Global rate limit
	MaxEventsPerActor   = 200                    // Per-character rate limit per second
	BatchFlushSize      = 64                     // Events per batch write
	BatchFlushInterval  = 100 * time.Millisecond // How often to flush
	ActorLimiterCleanup = 5 * time.Minute        // Cleanup interval for actor limiters
)

// EventLog is a bounded, rate-limited combat audit trail. The tick goroutine
// emits; a writer goroutine appends batches to a JSONL file.
type EventLog struct {
	mu      sync.Mutex
	buffer  [EventBufferSize]Event
	head    uint64 // next sequence to assign
	flushed uint64 // sequences below this were handed to the writer
	oldest  uint64 // sequences below this were overwritten

	globalLimiter *rate.Limiter
	actorLimiters sync.Map // map[string]*actorLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

type actorLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer. An empty path keeps events in memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}
	el.filePath = filePath

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes what is pending and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			if err := el.file.Close(); err != nil {
				log.Printf("⚠️ Event log close failed: %v", err)
			}
		}
		el.fileMu.Unlock()
	})
}

// Emit records an event. It returns false when the log is stopped or the
// event was rate limited. A full buffer drops the oldest entry.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}
	if event.ActorID != "" && !el.actorLimiter(event.ActorID).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	el.mu.Lock()
	event.Sequence = el.head
	el.buffer[el.head%EventBufferSize] = event
	el.head++
	if el.head-el.oldest > EventBufferSize {
		el.oldest = el.head - EventBufferSize
		if el.flushed < el.oldest {
			el.droppedCount.Add(el.oldest - el.flushed)
			el.flushed = el.oldest
		}
	}
	el.mu.Unlock()

	el.totalCount.Add(1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, actorID string, payload any) bool {
	return el.Emit(NewEvent(eventType, tickNum, actorID, payload))
}

// Recent returns up to n of the newest events still in the buffer, oldest first.
func (el *EventLog) Recent(n int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	avail := int(el.head - el.oldest)
	if n <= 0 || n > avail {
		n = avail
	}
	out := make([]Event, 0, n)
	for seq := el.head - uint64(n); seq < el.head; seq++ {
		out = append(out, el.buffer[seq%EventBufferSize])
	}
	return out
}

func (el *EventLog) actorLimiter(actorID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.actorLimiters.Load(actorID); ok {
		e := v.(*actorLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}
	entry := &actorLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerActor, MaxEventsPerActor/10)}
	entry.lastUsed.Store(now)
	actual, _ := el.actorLimiters.LoadOrStore(actorID, entry)
	return actual.(*actorLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop forgets limiters of characters that went quiet.
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(ActorLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupActorLimiters()
		}
	}
}

func (el *EventLog) cleanupActorLimiters() {
	cutoff := time.Now().Add(-ActorLimiterCleanup).UnixNano()
	el.actorLimiters.Range(func(key, value any) bool {
		if value.(*actorLimiterEntry).lastUsed.Load() < cutoff {
			el.actorLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch takes the next unflushed events from the buffer.
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.flushed < el.head && len(batch) < BatchFlushSize {
		batch = append(batch, el.buffer[el.flushed%EventBufferSize])
		el.flushed++
	}
	return batch
}

// flushBatch appends events as newline-delimited JSON.
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}
	bw := bufio.NewWriter(el.file)
	enc := json.NewEncoder(bw)
	for _, event := range batch {
		if err := enc.Encode(event); err != nil {
			log.Printf("⚠️ Event %d not written: %v", event.Sequence, err)
		}
	}
	if err := bw.Flush(); err != nil {
		log.Printf("⚠️ Event log flush failed: %v", err)
	}
}

// GetStats returns counters for the stats endpoint.
func (el *EventLog) GetStats() map[string]any {
	el.mu.Lock()
	pending := el.head - el.flushed
	el.mu.Unlock()

	return map[string]any{
		"total":   el.totalCount.Load(),
		"dropped": el.droppedCount.Load(),
		"pending": pending,
		"running": el.running.Load(),
		"file":    el.filePath,
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 { return el.droppedCount.Load() }

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 { return el.totalCount.Load() }
