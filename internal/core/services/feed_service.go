package services

import (
	"log"
	"sync"
)

// Feed collections dashboards subscribe to
const (
	FeedBookings = "bookings"
	FeedMessages = "messages"
	FeedAgents   = "agents"
)

// FeedEvent signals that a collection changed. Subscribers re-query and push
// the full current result set; the event itself carries no record data.
type FeedEvent struct {
	Collection  string
	AgentEmails []string // assignees affected by a bookings change
}

// FeedClient represents a connected dashboard subscriber
type FeedClient struct {
	ID      string
	Role    string // admin or agent
	Email   string // agent email, used to scope bookings events
	Channel chan FeedEvent
}

// FeedHub manages dashboard live-update subscriptions
type FeedHub struct {
	mu      sync.RWMutex
	clients map[string]*FeedClient
}

// NewFeedHub creates a new feed hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients: make(map[string]*FeedClient),
	}
}

// Register adds a subscriber
func (h *FeedHub) Register(client *FeedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 Feed client registered: %s (role=%s) | total=%d", client.ID, client.Role, len(h.clients))
}

// Unregister removes a subscriber and closes its channel
func (h *FeedHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 Feed client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// Publish fans an event out. Admin subscribers see every change; agent
// subscribers only see bookings changes that touch their own assignment.
func (h *FeedHub) Publish(event FeedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !h.wants(client, event) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			// Client channel full, skip
			log.Printf("⚠️ Feed channel full for client %s, skipping", client.ID)
		}
	}
}

func (h *FeedHub) wants(client *FeedClient, event FeedEvent) bool {
	if client.Role == "admin" {
		return true
	}
	if event.Collection != FeedBookings {
		return false
	}
	for _, email := range event.AgentEmails {
		if email == client.Email {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected subscribers
func (h *FeedHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
