package handlers

import (
	"errors"
	"strconv"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/core/services"
	"tripeasy/internal/pkg/pagination"
	"tripeasy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the admin dashboard endpoints
type AdminHandler struct {
	bookingService *services.BookingService
	agentService   *services.AgentService
	quoteService   *services.QuoteService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	bookingService *services.BookingService,
	agentService *services.AgentService,
	quoteService *services.QuoteService,
) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		agentService:   agentService,
		quoteService:   quoteService,
	}
}

// actingEmail returns the authenticated identity's email for audit stamping
func actingEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	return email
}

// ============================================================
// Bookings
// ============================================================

// bookingFilterFromQuery builds a booking filter from query params
func bookingFilterFromQuery(c *fiber.Ctx) repositories.BookingFilter {
	filter := repositories.BookingFilter{}
	if kind := c.Query("kind"); kind != "" {
		filter.Kind = kind
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if agent := c.Query("assigned_agent"); agent != "" {
		filter.AssignedAgent = &agent
	}
	return filter
}

// ListBookings lists travel and package bookings
// @Summary List bookings
// @Description List bookings newest first, filterable by kind, status and assignee
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Booking kind (travel|package)"
// @Param status query string false "Status (pending|completed)"
// @Param assigned_agent query string false "Assigned agent email"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := bookingFilterFromQuery(c)
	// Contact messages have their own endpoint; everything else lists here
	if filter.Kind == "" {
		filter.ExcludeKind = models.KindContact
	}

	bookings, total, err := h.bookingService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list bookings")
	}

	return response.SuccessWithMeta(c, "Bookings retrieved successfully", fiber.Map{
		"bookings": bookings,
	}, pagination.NewMeta(params, total))
}

// ListMessages lists contact messages
// @Summary List contact messages
// @Description List contact form submissions newest first
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/messages [get]
func (h *AdminHandler) ListMessages(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := bookingFilterFromQuery(c)
	filter.Kind = models.KindContact

	messages, total, err := h.bookingService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list messages")
	}

	return response.SuccessWithMeta(c, "Messages retrieved successfully", fiber.Map{
		"messages": messages,
	}, pagination.NewMeta(params, total))
}

// GetBooking gets one booking
// @Summary Get booking
// @Description Get a booking by ID
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/bookings/{id} [get]
func (h *AdminHandler) GetBooking(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	booking, err := h.bookingService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			return response.NotFound(c, "Booking not found")
		}
		return response.InternalServerError(c, "Failed to get booking")
	}

	return response.Success(c, "Booking retrieved successfully", fiber.Map{
		"booking": booking,
	})
}

// SetStatusRequest represents a status change request body
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetBookingStatus transitions a booking's status
// @Summary Set booking status
// @Description Mark a booking pending or completed
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Param body body SetStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/bookings/{id}/status [put]
func (h *AdminHandler) SetBookingStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	booking, err := h.bookingService.SetStatus(c.Context(), uint(id), req.Status, actingEmail(c), nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Status must be 'pending' or 'completed'")
		case errors.Is(err, services.ErrBookingNotFound):
			return response.NotFound(c, "Booking not found")
		default:
			return response.InternalServerError(c, "Failed to update status")
		}
	}

	return response.Success(c, "Status updated successfully", fiber.Map{
		"booking": booking,
	})
}

// SetNoteRequest represents a note edit request body
type SetNoteRequest struct {
	Note string `json:"note"`
}

// SetBookingNote buffers an admin note edit. The write is debounced; the
// response acknowledges acceptance, not persistence.
// @Summary Set booking note
// @Description Save a free-text admin note on a booking (debounced write)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Param body body SetNoteRequest true "Note text"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/bookings/{id}/note [put]
func (h *AdminHandler) SetBookingNote(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	var req SetNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	h.bookingService.SetNote(uint(id), req.Note, actingEmail(c))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Note accepted",
	})
}

// AssignRequest represents an assignment change request body. An empty
// agent_email clears the assignment.
type AssignRequest struct {
	AgentEmail string `json:"agent_email"`
}

// AssignBooking sets or clears a booking's assigned agent
// @Summary Assign booking
// @Description Assign a booking to an agent, or clear the assignment with an empty email. Assignment returns a WhatsApp link notifying the agent.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Param body body AssignRequest true "Agent email (empty to unassign)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/bookings/{id}/assign [put]
func (h *AdminHandler) AssignBooking(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.bookingService.Assign(c.Context(), uint(id), req.AgentEmail, actingEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			return response.NotFound(c, "Booking not found")
		case errors.Is(err, services.ErrAgentNotFound):
			return response.NotFound(c, "Agent not found")
		default:
			return response.InternalServerError(c, "Failed to update assignment")
		}
	}

	message := "Booking assigned successfully"
	if result.Unassigned {
		message = "Booking unassigned successfully"
	}

	return response.Success(c, message, result)
}

// BulkDeleteRequest represents a bulk delete request body. The client sends
// the confirmed ID list after its own confirmation step.
type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

// BulkDeleteBookings deletes a set of bookings
// @Summary Bulk delete bookings
// @Description Delete a confirmed set of bookings; per-record failures are reported without blocking the rest
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BulkDeleteRequest true "Booking IDs to delete"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/bookings/bulk-delete [post]
func (h *AdminHandler) BulkDeleteBookings(c *fiber.Ctx) error {
	var req BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.IDs) == 0 {
		return response.BadRequest(c, "No booking IDs provided")
	}

	result, err := h.bookingService.BulkDelete(c.Context(), req.IDs)
	if err != nil {
		return response.InternalServerError(c, "Failed to delete bookings")
	}

	message := "Bookings deleted successfully"
	if result.AnyFailed() {
		message = "Some bookings could not be deleted"
	}

	return response.Success(c, message, result)
}

// ============================================================
// Agents
// ============================================================

// ListAgents lists agents
// @Summary List agents
// @Description List agents newest first
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/agents [get]
func (h *AdminHandler) ListAgents(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	agents, total, err := h.agentService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list agents")
	}

	return response.SuccessWithMeta(c, "Agents retrieved successfully", fiber.Map{
		"agents": agents,
	}, pagination.NewMeta(params, total))
}

// CreateAgent creates an agent pending login provisioning
// @Summary Create agent
// @Description Create an agent record; a login is provisioned in the background
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateAgentInput true "Agent details"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/agents [post]
func (h *AdminHandler) CreateAgent(c *fiber.Ctx) error {
	var input services.CreateAgentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fields := input.Validate(); len(fields) > 0 {
		return response.UnprocessableEntity(c, "Validation failed", fields)
	}

	agent, err := h.agentService.Create(c.Context(), &input)
	if err != nil {
		if errors.Is(err, services.ErrAgentExists) {
			return response.Conflict(c, "An agent with this email already exists")
		}
		return response.InternalServerError(c, "Failed to create agent")
	}

	return response.Created(c, "Agent created successfully", fiber.Map{
		"agent": agent,
	})
}

// UpdateAgent edits an agent's profile fields
// @Summary Update agent
// @Description Edit agent profile fields; credentials are never changed here
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Agent ID"
// @Param body body services.UpdateAgentInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/agents/{id} [put]
func (h *AdminHandler) UpdateAgent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid agent ID")
	}

	var input services.UpdateAgentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	agent, err := h.agentService.Update(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAgentNotFound):
			return response.NotFound(c, "Agent not found")
		case errors.Is(err, services.ErrAgentExists):
			return response.Conflict(c, "An agent with this email already exists")
		default:
			return response.BadRequest(c, err.Error())
		}
	}

	return response.Success(c, "Agent updated successfully", fiber.Map{
		"agent": agent,
	})
}

// DeleteAgent removes an agent
// @Summary Delete agent
// @Description Delete an agent; their past booking assignments are preserved
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Agent ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/agents/{id} [delete]
func (h *AdminHandler) DeleteAgent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid agent ID")
	}

	if err := h.agentService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrAgentNotFound) {
			return response.NotFound(c, "Agent not found")
		}
		return response.InternalServerError(c, "Failed to delete agent")
	}

	return response.Success(c, "Agent deleted successfully", nil)
}

// ============================================================
// Quotes
// ============================================================

// ComposeQuote composes a fare quote with the booking charge applied
// @Summary Compose quote
// @Description Compute the booking charge for a fare and build the WhatsApp quote message
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.QuoteInput true "Quote details"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/quotes [post]
func (h *AdminHandler) ComposeQuote(c *fiber.Ctx) error {
	var input services.QuoteInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.TicketCost < 0 {
		return response.BadRequest(c, "Ticket cost cannot be negative")
	}
	if input.CustomerPhone == "" {
		return response.BadRequest(c, "Customer phone is required")
	}

	quote := h.quoteService.Compose(&input)

	return response.Success(c, "Quote composed successfully", fiber.Map{
		"quote": quote,
	})
}
