package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
)

func newTestBookingService() (*BookingService, *fakeBookingRepo, *fakeAgentRepo, *fakePackageRepo) {
	bookingRepo := newFakeBookingRepo()
	agentRepo := newFakeAgentRepo()
	packageRepo := newFakePackageRepo()
	svc := NewBookingService(bookingRepo, agentRepo, packageRepo, NewNotificationService(), NewFeedHub())
	return svc, bookingRepo, agentRepo, packageRepo
}

func TestNormalizePassengers(t *testing.T) {
	two := []models.Passenger{
		{Name: "Ravi", Age: 34, Gender: "male"},
		{Name: "Meena", Age: 31, Gender: "female"},
	}

	grown := NormalizePassengers(two, 4)
	if len(grown) != 4 {
		t.Fatalf("expected 4 passengers, got %d", len(grown))
	}
	if grown[0].Name != "Ravi" || grown[1].Name != "Meena" {
		t.Fatal("growing must keep existing entries")
	}
	if grown[2] != (models.Passenger{}) || grown[3] != (models.Passenger{}) {
		t.Fatal("grown slots must be blank passengers")
	}

	shrunk := NormalizePassengers(grown, 2)
	if len(shrunk) != 2 {
		t.Fatalf("expected 2 passengers, got %d", len(shrunk))
	}
	if shrunk[0].Name != "Ravi" || shrunk[1].Name != "Meena" {
		t.Fatal("shrinking must truncate from the end")
	}

	// Resizing to the current length is the identity
	same := NormalizePassengers(two, 2)
	if !reflect.DeepEqual(same, two) {
		t.Fatalf("expected identity resize, got %+v", same)
	}

	// Bounds are clamped
	if got := NormalizePassengers(nil, 0); len(got) != MinPassengers {
		t.Fatalf("expected clamp to %d, got %d", MinPassengers, len(got))
	}
	if got := NormalizePassengers(nil, 99); len(got) != MaxPassengers {
		t.Fatalf("expected clamp to %d, got %d", MaxPassengers, len(got))
	}
}

func TestBookingService_CreateTravelBooking(t *testing.T) {
	svc, _, _, _ := newTestBookingService()
	defer svc.Close()

	input := &TravelBookingInput{
		Name:           "Ravi Kumar",
		Email:          "Ravi@Example.com",
		Phone:          "9876543210",
		Origin:         "Delhi",
		Destination:    "Mumbai",
		TravelDate:     "2026-09-15",
		Category:       CategoryTatkal,
		PassengerCount: 2,
		Passengers: []models.Passenger{
			{Name: "Ravi Kumar", Age: 34, Gender: "male"},
			{Name: "Meena Kumar", Age: 31, Gender: "female"},
		},
	}
	if fields := input.Validate(); len(fields) != 0 {
		t.Fatalf("expected valid input, got %v", fields)
	}

	booking, err := svc.CreateTravelBooking(context.Background(), input)
	if err != nil {
		t.Fatalf("create: unexpected error: %v", err)
	}
	if booking.Ref == "" {
		t.Fatal("booking must get a reference")
	}
	if booking.Email != "ravi@example.com" {
		t.Fatalf("email must be normalized, got %q", booking.Email)
	}
	if booking.StatusOrDefault() != models.StatusPending {
		t.Fatalf("new booking must be pending, got %s", booking.StatusOrDefault())
	}
	if booking.IsAssigned() {
		t.Fatal("new booking must have no assignee")
	}
	if len(booking.Passengers) != 2 {
		t.Fatalf("expected 2 passengers, got %d", len(booking.Passengers))
	}
}

func TestTravelBookingInput_Validate(t *testing.T) {
	input := &TravelBookingInput{
		Email:          "not-an-email",
		Phone:          "12345",
		PassengerCount: 9,
	}
	fields := input.Validate()

	for _, key := range []string{"name", "email", "phone", "origin", "destination", "travel_date", "passenger_count"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected a field error for %q, got %v", key, fields)
		}
	}
}

func TestBookingService_CreatePackageBookingUnknownPackage(t *testing.T) {
	svc, _, _, _ := newTestBookingService()
	defer svc.Close()

	_, err := svc.CreatePackageBooking(context.Background(), &PackageBookingInput{
		Name:       "Asha",
		Email:      "asha@example.com",
		Phone:      "9876500000",
		PackageID:  42,
		TravelDate: "2026-10-01",
	})
	if !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestBookingService_SetStatus(t *testing.T) {
	svc, _, _, _ := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	booking, err := svc.CreateContactMessage(ctx, &ContactMessageInput{
		Name: "Asha", Email: "asha@example.com", Phone: "9876500000", Message: "Hi",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.SetStatus(ctx, booking.ID, models.StatusCompleted, "admin@tripeasy.in", nil)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.StatusOrDefault() != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.StatusOrDefault())
	}
	if updated.UpdatedBy == nil || *updated.UpdatedBy != "admin@tripeasy.in" {
		t.Fatal("status change must stamp the acting identity")
	}

	if _, err := svc.SetStatus(ctx, booking.ID, "archived", "admin@tripeasy.in", nil); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestBookingService_SetStatusEnforcesAssignee(t *testing.T) {
	svc, _, agentRepo, _ := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	if err := agentRepo.Create(ctx, &models.Agent{Name: "Priya", Email: "priya@tripeasy.in", Phone: "9876512345"}); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	booking, err := svc.CreateTravelBooking(ctx, &TravelBookingInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210",
		Origin: "Delhi", Destination: "Mumbai", TravelDate: "2026-09-15",
		PassengerCount: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Unassigned booking: no agent may complete it
	other := "priya@tripeasy.in"
	if _, err := svc.SetStatus(ctx, booking.ID, models.StatusCompleted, other, &other); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee, got %v", err)
	}

	if _, err := svc.Assign(ctx, booking.ID, "priya@tripeasy.in", "admin@tripeasy.in"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Now the assignee may
	if _, err := svc.SetStatus(ctx, booking.ID, models.StatusCompleted, other, &other); err != nil {
		t.Fatalf("assignee status change: %v", err)
	}

	// But a different agent may not
	stranger := "someone-else@tripeasy.in"
	if _, err := svc.SetStatus(ctx, booking.ID, models.StatusPending, stranger, &stranger); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee for non-assignee, got %v", err)
	}
}

func TestBookingService_AssignAndClear(t *testing.T) {
	svc, _, agentRepo, _ := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	if err := agentRepo.Create(ctx, &models.Agent{Name: "Priya", Email: "priya@tripeasy.in", Phone: "+91 98765 12345"}); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	booking, err := svc.CreateTravelBooking(ctx, &TravelBookingInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210",
		Origin: "Delhi", Destination: "Mumbai", TravelDate: "2026-09-15",
		PassengerCount: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.Assign(ctx, booking.ID, "priya@tripeasy.in", "admin@tripeasy.in")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !result.Booking.IsAssigned() {
		t.Fatal("booking must be assigned")
	}
	if result.Booking.AssignedAt == nil {
		t.Fatal("assignment must stamp assigned_at")
	}
	if !strings.HasPrefix(result.NotificationLink, "https://wa.me/919876512345?text=") {
		t.Fatalf("assignment must carry a deep link to the agent's phone: %s", result.NotificationLink)
	}

	// Clearing removes assignee and timestamp and composes no notification
	cleared, err := svc.Assign(ctx, booking.ID, "", "admin@tripeasy.in")
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if !cleared.Unassigned {
		t.Fatal("expected an unassigned result")
	}
	if cleared.Booking.IsAssigned() || cleared.Booking.AssignedAt != nil {
		t.Fatal("clearing must null both assignee and assigned_at")
	}
	if cleared.NotificationLink != "" {
		t.Fatal("clearing an assignment must not compose a notification")
	}
}

func TestBookingService_AssignUnknownAgent(t *testing.T) {
	svc, _, _, _ := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	booking, err := svc.CreateTravelBooking(ctx, &TravelBookingInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210",
		Origin: "Delhi", Destination: "Mumbai", TravelDate: "2026-09-15",
		PassengerCount: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Assign(ctx, booking.ID, "ghost@tripeasy.in", "admin@tripeasy.in"); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestBookingService_AgentVisibilityFilter(t *testing.T) {
	svc, _, agentRepo, _ := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	for _, email := range []string{"priya@tripeasy.in", "arjun@tripeasy.in"} {
		if err := agentRepo.Create(ctx, &models.Agent{Name: email, Email: email, Phone: "9876512345"}); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
	}

	var ids []uint
	for i := 0; i < 3; i++ {
		booking, err := svc.CreateTravelBooking(ctx, &TravelBookingInput{
			Name: "Customer", Email: "c@example.com", Phone: "9876543210",
			Origin: "Delhi", Destination: "Goa", TravelDate: "2026-09-15",
			PassengerCount: 1,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, booking.ID)
	}

	if _, err := svc.Assign(ctx, ids[0], "priya@tripeasy.in", "admin@tripeasy.in"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Assign(ctx, ids[1], "arjun@tripeasy.in", "admin@tripeasy.in"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	priya := "priya@tripeasy.in"
	mine, total, err := svc.List(ctx, repositories.BookingFilter{AssignedAgent: &priya}, 0, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(mine) != 1 {
		t.Fatalf("expected exactly 1 visible booking, got %d", total)
	}
	if mine[0].ID != ids[0] {
		t.Fatalf("expected booking %d, got %d", ids[0], mine[0].ID)
	}
}

func TestBookingService_AgentListSpansBookingKinds(t *testing.T) {
	svc, _, agentRepo, packageRepo := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	if err := agentRepo.Create(ctx, &models.Agent{Name: "Priya", Email: "priya@tripeasy.in", Phone: "9876512345"}); err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	pkg := &models.TourPackage{Name: "Goa Beach Escape", Destination: "Goa", Days: 4, Price: 15999, IsActive: true}
	if err := packageRepo.Create(ctx, pkg); err != nil {
		t.Fatalf("seed package: %v", err)
	}

	travel, err := svc.CreateTravelBooking(ctx, &TravelBookingInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210",
		Origin: "Delhi", Destination: "Goa", TravelDate: "2026-09-15",
		PassengerCount: 1,
	})
	if err != nil {
		t.Fatalf("create travel booking: %v", err)
	}
	pkgBooking, err := svc.CreatePackageBooking(ctx, &PackageBookingInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210",
		PackageID: pkg.ID, TravelDate: "2026-09-20", Travellers: 2,
	})
	if err != nil {
		t.Fatalf("create package booking: %v", err)
	}
	if _, err := svc.CreateContactMessage(ctx, &ContactMessageInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9876543210", Message: "please call back",
	}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	for _, id := range []uint{travel.ID, pkgBooking.ID} {
		if _, err := svc.Assign(ctx, id, "priya@tripeasy.in", "admin@tripeasy.in"); err != nil {
			t.Fatalf("assign %d: %v", id, err)
		}
	}

	// The kind-less agent view spans travel and package bookings, and never
	// includes contact messages
	priya := "priya@tripeasy.in"
	mine, total, err := svc.List(ctx, repositories.BookingFilter{
		AssignedAgent: &priya,
		ExcludeKind:   models.KindContact,
	}, 0, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("expected both booking kinds, got %d", total)
	}
	kinds := map[string]bool{}
	for _, booking := range mine {
		kinds[booking.Kind] = true
	}
	if !kinds[models.KindTravel] || !kinds[models.KindPackage] {
		t.Fatalf("expected travel and package kinds, got %v", kinds)
	}
}

func TestBookingService_BulkDeleteIndependentOutcomes(t *testing.T) {
	svc, _, _, _ := newTestBookingService()
	defer svc.Close()

	ctx := context.Background()
	var ids []uint
	for i := 0; i < 3; i++ {
		booking, err := svc.CreateContactMessage(ctx, &ContactMessageInput{
			Name: "Asha", Email: "asha@example.com", Phone: "9876500000", Message: "Hi",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, booking.ID)
	}

	// One ID that does not exist: its failure must not block the others
	batch := append([]uint{9999}, ids...)
	result, err := svc.BulkDelete(ctx, batch)
	if err != nil {
		t.Fatalf("bulk delete: unexpected error: %v", err)
	}
	if len(result.Deleted) != 3 {
		t.Fatalf("expected 3 deletions, got %d (%v)", len(result.Deleted), result.Deleted)
	}
	if !result.AnyFailed() {
		t.Fatal("expected the missing ID to be reported as failed")
	}
	if _, ok := result.Failed[9999]; !ok {
		t.Fatalf("expected failure entry for 9999, got %v", result.Failed)
	}

	for _, id := range ids {
		if _, err := svc.GetByID(ctx, id); !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("booking %d should be gone, got %v", id, err)
		}
	}
}
