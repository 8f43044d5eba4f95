package handlers

import (
	"errors"

	"tripeasy/internal/core/services"
	"tripeasy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookingHandler handles public intake endpoints (no auth)
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// CreateTravelBooking handles the travel booking form
// @Summary Submit a travel booking
// @Description Submit a general travel booking with a passenger breakdown
// @Tags Bookings
// @Accept json
// @Produce json
// @Param body body services.TravelBookingInput true "Booking details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /bookings/travel [post]
func (h *BookingHandler) CreateTravelBooking(c *fiber.Ctx) error {
	var input services.TravelBookingInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fields := input.Validate(); len(fields) > 0 {
		return response.UnprocessableEntity(c, "Validation failed", fields)
	}

	booking, err := h.bookingService.CreateTravelBooking(c.Context(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to submit booking")
	}

	return response.Created(c, "Booking submitted successfully", fiber.Map{
		"booking": booking,
	})
}

// CreateContactMessage handles the contact form
// @Summary Submit a contact message
// @Description Submit an enquiry through the contact form
// @Tags Bookings
// @Accept json
// @Produce json
// @Param body body services.ContactMessageInput true "Message details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /bookings/contact [post]
func (h *BookingHandler) CreateContactMessage(c *fiber.Ctx) error {
	var input services.ContactMessageInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fields := input.Validate(); len(fields) > 0 {
		return response.UnprocessableEntity(c, "Validation failed", fields)
	}

	booking, err := h.bookingService.CreateContactMessage(c.Context(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to submit message")
	}

	return response.Created(c, "Message submitted successfully", fiber.Map{
		"message": booking,
	})
}

// CreatePackageBooking handles the tour package booking form
// @Summary Submit a package booking
// @Description Book a tour package from the catalog
// @Tags Bookings
// @Accept json
// @Produce json
// @Param body body services.PackageBookingInput true "Booking details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /bookings/package [post]
func (h *BookingHandler) CreatePackageBooking(c *fiber.Ctx) error {
	var input services.PackageBookingInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fields := input.Validate(); len(fields) > 0 {
		return response.UnprocessableEntity(c, "Validation failed", fields)
	}

	booking, err := h.bookingService.CreatePackageBooking(c.Context(), &input)
	if err != nil {
		if errors.Is(err, services.ErrPackageNotFound) {
			return response.NotFound(c, "Tour package not found")
		}
		return response.InternalServerError(c, "Failed to submit booking")
	}

	return response.Created(c, "Booking submitted successfully", fiber.Map{
		"booking": booking,
	})
}
