package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Peer is one live connection as seen by the hub.
// Send must not block; transports queue and drop slow consumers themselves.
type Peer interface {
	ID() string
	Send(event string, data json.RawMessage) error
}

// Hub tracks room membership of the connections of this process and
// delivers broker envelopes to them.
type Hub struct {
	broker Broker
	log    *slog.Logger

	mu     sync.RWMutex
	rooms  map[string]map[string]Peer
	joined map[string]map[string]struct{} // peer id -> rooms
}

func NewHub(broker Broker, log *slog.Logger) *Hub {
	return &Hub{
		broker: broker,
		log:    log,
		rooms:  make(map[string]map[string]Peer),
		joined: make(map[string]map[string]struct{}),
	}
}

// Start attaches the hub to its broker.
func (h *Hub) Start(ctx context.Context) error {
	return h.broker.Start(ctx, h.deliver)
}

func (h *Hub) Close() error {
	return h.broker.Close()
}

// Join adds p to room. Joining twice is a no-op.
func (h *Hub) Join(room string, p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Peer)
		h.rooms[room] = members
	}
	members[p.ID()] = p

	rooms, ok := h.joined[p.ID()]
	if !ok {
		rooms = make(map[string]struct{})
		h.joined[p.ID()] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes a peer from one room.
func (h *Hub) Leave(room, peerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, peerID)
}

// LeaveAll removes a peer from every room it joined.
func (h *Hub) LeaveAll(peerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.joined[peerID] {
		h.leaveLocked(room, peerID)
	}
}

func (h *Hub) leaveLocked(room, peerID string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, peerID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.joined[peerID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.joined, peerID)
		}
	}
}

// InRoom reports whether peerID joined room on this hub.
func (h *Hub) InRoom(room, peerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][peerID]
	return ok
}

// Members counts local members of room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast publishes event to every member of room except the peer with id
// exclude (empty excludes nobody).
func (h *Hub) Broadcast(ctx context.Context, room, event string, payload any, exclude string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.broker.Publish(ctx, Envelope{Room: room, Event: event, Data: data, Exclude: exclude})
}

func (h *Hub) deliver(env Envelope) {
	h.mu.RLock()
	members := make([]Peer, 0, len(h.rooms[env.Room]))
	for id, p := range h.rooms[env.Room] {
		if id != env.Exclude {
			members = append(members, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range members {
		if err := p.Send(env.Event, env.Data); err != nil {
			h.log.Debug("relay delivery failed", "peer", p.ID(), "event", env.String(), "err", err)
		}
	}
}
