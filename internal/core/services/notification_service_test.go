package services

import (
	"net/url"
	"strings"
	"testing"

	"tripeasy/internal/adapters/persistence/models"
)

func TestNotificationService_DeepLink(t *testing.T) {
	svc := NewNotificationService()

	link := svc.DeepLink("+91 98765-43210", "Hello & welcome")
	if !strings.HasPrefix(link, "https://wa.me/919876543210?text=") {
		t.Fatalf("phone must be reduced to digits: %s", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link must parse as a URL: %v", err)
	}
	if got := parsed.Query().Get("text"); got != "Hello & welcome" {
		t.Fatalf("body must round-trip through encoding, got %q", got)
	}
}

func TestNotificationService_AssignmentMessage(t *testing.T) {
	svc := NewNotificationService()

	assignee := "priya@tripeasy.in"
	booking := &models.Booking{
		Ref:           "ref-123",
		Name:          "Ravi Kumar",
		Phone:         "9876543210",
		Origin:        "Delhi",
		Destination:   "Mumbai",
		TravelDate:    "2026-09-15",
		Requirements:  "Window seats",
		AssignedAgent: &assignee,
		Passengers: models.PassengerList{
			{Name: "Ravi Kumar", Age: 34, Gender: "male"},
			{Name: "Meena Kumar", Age: 31, Gender: "female"},
		},
	}

	msg := svc.AssignmentMessage(booking)
	for _, want := range []string{
		"ref-123",
		"Ravi Kumar (9876543210)",
		"Delhi → Mumbai",
		"2026-09-15",
		"Passengers (2):",
		"1. Ravi Kumar (34, male)",
		"2. Meena Kumar (31, female)",
		"Window seats",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestNotificationService_AssignmentMessageOmitsEmptySections(t *testing.T) {
	svc := NewNotificationService()

	msg := svc.AssignmentMessage(&models.Booking{
		Ref:   "ref-456",
		Name:  "Asha",
		Phone: "9876500000",
	})
	if strings.Contains(msg, "Route:") {
		t.Error("routeless booking must not include a route line")
	}
	if strings.Contains(msg, "Passengers") {
		t.Error("booking without passengers must not include a passenger section")
	}
}
