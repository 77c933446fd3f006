package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/models"
)

// EventTypePost is sent when someone the receiver follows publishes a post
const EventTypePost = "post"

// Event is a server-pushed live feed message
type Event struct {
	Type      string       `json:"type"`
	Post      *models.Post `json:"post,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type delivery struct {
	recipients []int64
	event      *Event
}

// Hub keeps the live feed connections of every online user and fans new
// posts out to the followers of their author.
type Hub struct {
	// Connected clients keyed by user id. A user may have several tabs open.
	clients map[int64]map[*Client]bool

	deliver    chan *delivery
	register   chan *Client
	unregister chan *Client
	// closed once Run has returned
	done chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		deliver:    make(chan *delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled. It must
// be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.deliver:
			h.deliverEvent(d)
		}
	}
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// join hands client to the running hub. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave detaches client. After shutdown closeAll has already removed it.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Live feed client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Live feed client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// deliverEvent writes the event to every connection of every recipient.
// Clients whose buffer is full are dropped.
func (h *Hub) deliverEvent(d *delivery) {
	data, err := json.Marshal(d.event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", d.event.Type).Msg("Failed to marshal live feed event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for _, userID := range d.recipients {
		for client := range h.clients[userID] {
			select {
			case client.send <- data:
				sent++
			default:
				h.logger.Warn().Int64("userID", userID).Msg("Dropping slow live feed client")
				h.removeLocked(client)
			}
		}
	}

	h.logger.Debug().
		Int("recipients", len(d.recipients)).
		Int("sent", sent).
		Msg("Live feed event delivered")
}

// PostPublished queues post for delivery to the online recipients. It never
// blocks the caller; when the queue is full the event is dropped.
func (h *Hub) PostPublished(recipientIDs []int64, post *models.Post) {
	d := &delivery{
		recipients: recipientIDs,
		event:      &Event{Type: EventTypePost, Post: post, Timestamp: time.Now()},
	}
	select {
	case h.deliver <- d:
	default:
		h.logger.Warn().Int64("postID", post.ID).Msg("Live feed queue full, event dropped")
	}
}

// ClientsCount returns the number of open connections of a user
func (h *Hub) ClientsCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
