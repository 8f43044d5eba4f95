package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/core/services"
	"tripeasy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// feedQueryLimit bounds how many records a snapshot pushes per event
const feedQueryLimit = 200

// EventsHandler streams live dashboard updates over SSE. A change event
// carries no payload itself; the handler re-queries the affected collection
// and pushes the fresh snapshot, so clients never merge partial updates.
type EventsHandler struct {
	bookingService *services.BookingService
	agentService   *services.AgentService
	hub            *services.FeedHub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(
	bookingService *services.BookingService,
	agentService *services.AgentService,
	hub *services.FeedHub,
) *EventsHandler {
	return &EventsHandler{
		bookingService: bookingService,
		agentService:   agentService,
		hub:            hub,
	}
}

// AdminEvents streams bookings, messages and agents to the admin dashboard
// @Summary Admin live feed
// @Description SSE stream of booking, message and agent collection snapshots
// @Tags Events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200
// @Router /admin/events [get]
func (h *EventsHandler) AdminEvents(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	clientID := fmt.Sprintf("admin-%d", time.Now().UnixNano())
	h.setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.FeedClient{
			ID:      clientID,
			Role:    models.RoleAdmin,
			Email:   email,
			Channel: make(chan services.FeedEvent, 50),
		}

		h.hub.Register(client)
		defer h.hub.Unregister(clientID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":\"%s\"}\n\n", clientID)
		w.Flush()

		// Initial snapshots so the dashboard renders without waiting for a
		// change
		h.pushAdminSnapshot(w, services.FeedBookings)
		h.pushAdminSnapshot(w, services.FeedMessages)
		h.pushAdminSnapshot(w, services.FeedAgents)
		w.Flush()

		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				h.pushAdminSnapshot(w, event.Collection)
				if err := w.Flush(); err != nil {
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 Admin SSE client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

// AgentEvents streams the caller's assigned bookings to the agent dashboard
// @Summary Agent live feed
// @Description SSE stream of the agent's assigned booking snapshots
// @Tags Events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200
// @Router /agent/events [get]
func (h *EventsHandler) AgentEvents(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	clientID := fmt.Sprintf("agent-%d", time.Now().UnixNano())
	h.setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.FeedClient{
			ID:      clientID,
			Role:    models.RoleAgent,
			Email:   email,
			Channel: make(chan services.FeedEvent, 50),
		}

		h.hub.Register(client)
		defer h.hub.Unregister(clientID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":\"%s\"}\n\n", clientID)
		w.Flush()

		h.pushAgentSnapshot(w, email)
		w.Flush()

		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case _, ok := <-client.Channel:
				if !ok {
					return
				}
				h.pushAgentSnapshot(w, email)
				if err := w.Flush(); err != nil {
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 Agent SSE client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

func (h *EventsHandler) setSSEHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
}

// pushAdminSnapshot re-queries one collection and writes it as an SSE event
func (h *EventsHandler) pushAdminSnapshot(w *bufio.Writer, collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch collection {
	case services.FeedBookings:
		bookings, _, err := h.bookingService.List(ctx, repositories.BookingFilter{Kind: models.KindTravel}, 0, feedQueryLimit)
		if err != nil {
			log.Printf("❌ Feed snapshot query failed (%s): %v", collection, err)
			return
		}
		packages, _, err := h.bookingService.List(ctx, repositories.BookingFilter{Kind: models.KindPackage}, 0, feedQueryLimit)
		if err != nil {
			log.Printf("❌ Feed snapshot query failed (%s): %v", collection, err)
			return
		}
		writeFeedEvent(w, collection, fiber.Map{
			"bookings":         bookings,
			"package_bookings": packages,
		})

	case services.FeedMessages:
		messages, _, err := h.bookingService.List(ctx, repositories.BookingFilter{Kind: models.KindContact}, 0, feedQueryLimit)
		if err != nil {
			log.Printf("❌ Feed snapshot query failed (%s): %v", collection, err)
			return
		}
		writeFeedEvent(w, collection, fiber.Map{"messages": messages})

	case services.FeedAgents:
		agents, err := h.agentService.ListAll(ctx)
		if err != nil {
			log.Printf("❌ Feed snapshot query failed (%s): %v", collection, err)
			return
		}
		writeFeedEvent(w, collection, fiber.Map{"agents": agents})
	}
}

// pushAgentSnapshot re-queries the agent's assigned bookings
func (h *EventsHandler) pushAgentSnapshot(w *bufio.Writer, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := repositories.BookingFilter{AssignedAgent: &email}
	bookings, _, err := h.bookingService.List(ctx, filter, 0, feedQueryLimit)
	if err != nil {
		log.Printf("❌ Feed snapshot query failed (bookings for %s): %v", email, err)
		return
	}
	writeFeedEvent(w, services.FeedBookings, fiber.Map{"bookings": bookings})
}

// writeFeedEvent writes a formatted SSE event with a JSON payload
func writeFeedEvent(w *bufio.Writer, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Feed payload marshal failed: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
