// Package ws streams ingestion events to browser clients over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/metrics"
)

// Hub channel buffer sizes and connection cap.
const (
	broadcastBuffer = 256
	opsBuffer       = 64
	maxClients      = 1000
)

// maxBroadcastPayload is the maximum allowed event payload size (4 KB).
const maxBroadcastPayload = 4096

// resetMsg tells a client its last seen event was evicted.
var resetMsg = mustMarshal(ResetMsg{
	Type:   "reset",
	Reason: "requested events no longer available, reload articles",
})

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// Hub fans events out to connected clients. All client map mutations happen
// in the Run goroutine. An event published during a replay can arrive twice;
// clients drop IDs they have already seen.
type Hub struct {
	clients   map[*Client]struct{}
	ops       chan clientOp
	broadcast chan []byte
	done      chan struct{}
	count     atomic.Int64
	log       *logrus.Logger

	// pubMu orders ID assignment with buffering so replay sees IDs ascending.
	pubMu  sync.Mutex
	seq    uint64
	buffer *EventBuffer
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		ops:       make(chan clientOp, opsBuffer),
		broadcast: make(chan []byte, broadcastBuffer),
		done:      make(chan struct{}),
		log:       log,
		buffer:    NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// Run starts the hub event loop and drains clients when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.drainClients()

			return

		case op := <-h.ops:
			h.apply(op)

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer; it can reconnect and replay.
					client.closeSend()
					delete(h.clients, client)
				}
			}

			h.setCount()
		}
	}
}

// Done is closed once Run has drained all clients.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.EventSubscribers.Set(float64(len(h.clients)))
}

// Publish assigns the next sequence ID, buffers the event for replay and
// queues it for broadcast. It never blocks the caller.
func (h *Hub) Publish(eventType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.log.WithError(err).WithField("type", eventType).Error("marshaling event")

		return
	}

	h.pubMu.Lock()
	h.seq++
	evt := Event{Type: eventType, ID: h.seq, Data: raw, Time: time.Now()}
	h.buffer.Append(&evt)
	h.pubMu.Unlock()

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("marshaling event envelope")

		return
	}

	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"type":         eventType,
			"payload_size": len(msg),
		}).Warn("dropping oversized event")

		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast channel full, dropping event")
	}
}

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opReplay
)

// clientOp is a per-client request handled by Run. A single FIFO keeps a
// client's register, replay and unregister in the order they were issued.
type clientOp struct {
	kind        opKind
	client      *Client
	lastEventID uint64
}

func (h *Hub) apply(op clientOp) {
	client := op.client
	_, registered := h.clients[client]

	switch op.kind {
	case opRegister:
		if len(h.clients) >= maxClients {
			h.log.Warn("event stream connection limit reached, dropping client")
			client.closeSend()

			return
		}

		h.clients[client] = struct{}{}
	case opUnregister:
		if registered {
			delete(h.clients, client)
			client.closeSend()
		}
	case opReplay:
		if registered {
			h.replayTo(client, op.lastEventID)
		}
	}

	h.setCount()
}

func (h *Hub) enqueue(op clientOp) bool {
	select {
	case h.ops <- op:
		return true
	default:
		return false
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	if !h.enqueue(clientOp{kind: opRegister, client: c}) {
		h.log.Warn("hub queue full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub. After Run exits this is a no-op;
// drain already closed every client.
func (h *Hub) Unregister(c *Client) {
	h.enqueue(clientOp{kind: opUnregister, client: c})
}

// RequestReplay asks Run to send the client every buffered event after
// lastEventID. Only Run sends to or closes a client's channel.
func (h *Hub) RequestReplay(c *Client, lastEventID uint64) {
	if !h.enqueue(clientOp{kind: opReplay, client: c, lastEventID: lastEventID}) {
		h.log.Warn("hub queue full, dropping replay request")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// replayTo sends buffered events after lastEventID, or a reset message when
// lastEventID predates the buffer.
func (h *Hub) replayTo(client *Client, lastEventID uint64) {
	oldest := h.buffer.OldestID()
	if oldest > 0 && lastEventID > 0 && lastEventID < oldest-1 {
		select {
		case client.send <- resetMsg:
		default:
		}

		return
	}

	for _, evt := range h.buffer.Since(lastEventID) {
		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		select {
		case client.send <- msg:
		default:
			return
		}
	}
}

// drainClients sends a shutdown notice to every client and waits for buffers to flush.
func (h *Hub) drainClients() {
	defer func() {
		for client := range h.clients {
			client.closeSend()
			delete(h.clients, client)
		}

		h.setCount()
	}()

	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining event stream clients")

	shutdownMsg := []byte(`{"type":"shutdown","message":"server shutting down"}`)
	for client := range h.clients {
		select {
		case client.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond) //nolint:mnd // poll interval
	defer ticker.Stop()

	for !h.allDrained() {
		select {
		case <-deadline:
			h.log.Warn("event stream drain timeout, closing remaining clients")

			return
		case <-ticker.C:
		}
	}
}

func (h *Hub) allDrained() bool {
	for client := range h.clients {
		if len(client.send) > 0 {
			return false
		}
	}

	return true
}
