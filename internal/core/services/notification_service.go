package services

import (
	"fmt"
	"net/url"
	"strings"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/pkg/validate"
)

// NotificationService composes outbound WhatsApp deep links. Links are
// returned to the caller to open in the browser; nothing is stored, sent
// server-side, or retried.
type NotificationService struct {
	baseURL string
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	return &NotificationService{
		baseURL: "https://wa.me/",
	}
}

// DeepLink builds a WhatsApp deep link for a phone number and message body.
// The phone is reduced to digits only; the body is URL-encoded.
func (s *NotificationService) DeepLink(phone, body string) string {
	digits := validate.DigitsOnly(phone)
	return s.baseURL + digits + "?text=" + url.QueryEscape(body)
}

// AssignmentMessage formats the booking summary sent to a newly assigned
// agent: customer, route, date, passenger breakdown, special requirements.
func (s *NotificationService) AssignmentMessage(b *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New booking assigned to you (ref %s)\n", b.Ref)
	fmt.Fprintf(&sb, "Customer: %s (%s)\n", b.Name, b.Phone)
	if b.Origin != "" || b.Destination != "" {
		fmt.Fprintf(&sb, "Route: %s → %s\n", b.Origin, b.Destination)
	}
	if b.TravelDate != "" {
		fmt.Fprintf(&sb, "Date: %s\n", b.TravelDate)
	}
	if len(b.Passengers) > 0 {
		fmt.Fprintf(&sb, "Passengers (%d):\n", len(b.Passengers))
		for i, p := range b.Passengers {
			fmt.Fprintf(&sb, "  %d. %s (%d, %s)\n", i+1, p.Name, p.Age, p.Gender)
		}
	}
	if b.Requirements != "" {
		fmt.Fprintf(&sb, "Requirements: %s\n", b.Requirements)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// AssignmentLink builds the deep link addressed to the agent's phone
func (s *NotificationService) AssignmentLink(agentPhone string, b *models.Booking) string {
	return s.DeepLink(agentPhone, s.AssignmentMessage(b))
}

// QuoteLink builds the deep link addressed to the customer's phone with a
// pre-composed quote message
func (s *NotificationService) QuoteLink(customerPhone, message string) string {
	return s.DeepLink(customerPhone, message)
}
