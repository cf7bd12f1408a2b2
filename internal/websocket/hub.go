// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package websocket

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/events"
)

// Message types sent to clients.
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeRunStarted   = "run_started"
	MessageTypeRunSucceeded = "run_succeeded"
	MessageTypeRunFailed    = "run_failed"
)

// Message is the wire frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewHub creates a hub. Call RunWithContext to start it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With().Str("component", "websocket-hub").Logger(),
	}
}

// RunWithContext serves register, unregister and broadcast until ctx ends,
// then closes every client and returns ctx.Err().
//
// Lifecycle events are drained before broadcasts so a client registered
// just before a broadcast receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	n := h.ClientCount()
	h.mu.Lock()
	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.logger.Info().Str("reason", ctx.Err().Error()).Int("clients_closed", n).Msg("websocket hub stopped")
}

// sortedClients must be called with mu held. Ordering by id keeps delivery
// order stable across broadcasts.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
		}
	}
}

// Broadcast queues a message for every client; it drops the message when
// the hub's queue is full.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		h.logger.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastRunEvent forwards a run event under its topic's message type.
func (h *Hub) BroadcastRunEvent(event *events.RunEvent) {
	h.Broadcast(MessageTypeForTopic(event.Topic), event)
}

// MessageTypeForTopic maps "seatcast.run.succeeded" to "run_succeeded".
func MessageTypeForTopic(topic string) string {
	switch topic {
	case events.TopicRunStarted:
		return MessageTypeRunStarted
	case events.TopicRunSucceeded:
		return MessageTypeRunSucceeded
	case events.TopicRunFailed:
		return MessageTypeRunFailed
	default:
		return strings.ReplaceAll(strings.TrimPrefix(topic, "seatcast."), ".", "_")
	}
}

// Relay broadcasts every event from ch until ctx ends or ch closes.
func (h *Hub) Relay(ctx context.Context, ch <-chan *events.RunEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			h.BroadcastRunEvent(event)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage encodes a frame.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
