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

// AgentHandler handles the agent dashboard endpoints. Agents only ever see
// bookings assigned to them; every query is pinned to the caller's email.
type AgentHandler struct {
	bookingService *services.BookingService
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(bookingService *services.BookingService) *AgentHandler {
	return &AgentHandler{
		bookingService: bookingService,
	}
}

// ListMyBookings lists the caller's assigned bookings. Without a kind
// filter this spans travel and package bookings, matching the live feed.
// @Summary List my bookings
// @Description List bookings assigned to the authenticated agent
// @Tags Agent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Booking kind (travel|package)"
// @Param status query string false "Status (pending|completed)"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /agent/bookings [get]
func (h *AgentHandler) ListMyBookings(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	filter := repositories.BookingFilter{
		Kind:          c.Query("kind"),
		AssignedAgent: &email,
	}
	if filter.Kind == "" {
		filter.ExcludeKind = models.KindContact
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	bookings, total, err := h.bookingService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list bookings")
	}

	return response.SuccessWithMeta(c, "Bookings retrieved successfully", fiber.Map{
		"bookings": bookings,
	}, pagination.NewMeta(params, total))
}

// GetMyBooking gets one of the caller's assigned bookings
// @Summary Get my booking
// @Description Get a booking assigned to the authenticated agent
// @Tags Agent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /agent/bookings/{id} [get]
func (h *AgentHandler) GetMyBooking(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

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

	if booking.AssignedAgent == nil || *booking.AssignedAgent != email {
		return response.Forbidden(c, "This booking is not assigned to you")
	}

	return response.Success(c, "Booking retrieved successfully", fiber.Map{
		"booking": booking,
	})
}

// SetMyBookingStatus transitions the status of one of the caller's bookings
// @Summary Set my booking status
// @Description Mark an assigned booking pending or completed
// @Tags Agent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Param body body SetStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /agent/bookings/{id}/status [put]
func (h *AgentHandler) SetMyBookingStatus(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	booking, err := h.bookingService.SetStatus(c.Context(), uint(id), req.Status, email, &email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Status must be 'pending' or 'completed'")
		case errors.Is(err, services.ErrBookingNotFound):
			return response.NotFound(c, "Booking not found")
		case errors.Is(err, services.ErrNotAssignee):
			return response.Forbidden(c, "This booking is not assigned to you")
		default:
			return response.InternalServerError(c, "Failed to update status")
		}
	}

	return response.Success(c, "Status updated successfully", fiber.Map{
		"booking": booking,
	})
}
