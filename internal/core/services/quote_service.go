package services

import (
	"fmt"
	"strings"
)

// Booking-charge categories with special pricing
const (
	CategoryTatkal  = "Tatkal"
	CategoryPremium = "Premium"
)

// Charge rule constants
const (
	tatkalFlatCharge  = 200.0
	premiumMinCharge  = 200.0
	premiumRate       = 0.15
	defaultFlatCharge = 50.0
)

// QuoteService composes priced quote messages for customers. Quotes are a
// formatting/computation utility, never persisted.
type QuoteService struct {
	notifyService *NotificationService
}

// NewQuoteService creates a new quote service
func NewQuoteService(notifyService *NotificationService) *QuoteService {
	return &QuoteService{notifyService: notifyService}
}

// BookingCharge computes the service charge for a ticket cost by category:
// Tatkal is a flat 200, Premium is 15% with a 200 floor, anything else
// (including unset) is a flat 50.
func BookingCharge(category string, ticketCost float64) float64 {
	switch category {
	case CategoryTatkal:
		return tatkalFlatCharge
	case CategoryPremium:
		charge := ticketCost * premiumRate
		if charge < premiumMinCharge {
			return premiumMinCharge
		}
		return charge
	default:
		return defaultFlatCharge
	}
}

// QuoteInput represents quote composition input
type QuoteInput struct {
	CustomerName   string   `json:"customer_name"`
	CustomerPhone  string   `json:"customer_phone"`
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	TravelDate     string   `json:"travel_date"`
	Category       string   `json:"category"`
	TicketCost     float64  `json:"ticket_cost"`
	ChargeOverride *float64 `json:"charge_override,omitempty"`
}

// Quote represents a composed quote
type Quote struct {
	TicketCost    float64 `json:"ticket_cost"`
	BookingCharge float64 `json:"booking_charge"`
	Total         float64 `json:"total"`
	Message       string  `json:"message"`
	WhatsAppLink  string  `json:"whatsapp_link"`
}

// Compose computes the charge (honoring a manual override) and builds the
// quote message plus its WhatsApp deep link.
func (s *QuoteService) Compose(input *QuoteInput) *Quote {
	charge := BookingCharge(input.Category, input.TicketCost)
	if input.ChargeOverride != nil {
		charge = *input.ChargeOverride
	}
	total := input.TicketCost + charge

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s, here is your quote from TripEasy:\n", input.CustomerName)
	if input.Origin != "" || input.Destination != "" {
		fmt.Fprintf(&sb, "Route: %s → %s\n", input.Origin, input.Destination)
	}
	if input.TravelDate != "" {
		fmt.Fprintf(&sb, "Date: %s\n", input.TravelDate)
	}
	category := input.Category
	if category == "" {
		category = "General"
	}
	fmt.Fprintf(&sb, "Category: %s\n", category)
	fmt.Fprintf(&sb, "Ticket cost: ₹%.2f\n", input.TicketCost)
	fmt.Fprintf(&sb, "Booking charge: ₹%.2f\n", charge)
	fmt.Fprintf(&sb, "Total: ₹%.2f", total)
	message := sb.String()

	return &Quote{
		TicketCost:    input.TicketCost,
		BookingCharge: charge,
		Total:         total,
		Message:       message,
		WhatsAppLink:  s.notifyService.QuoteLink(input.CustomerPhone, message),
	}
}
