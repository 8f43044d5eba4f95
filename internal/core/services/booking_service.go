package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/pkg/validate"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Booking service errors
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidStatus   = errors.New("invalid booking status")
	ErrNotAssignee     = errors.New("booking is not assigned to this agent")
	ErrPackageNotFound = errors.New("tour package not found")
)

// Passenger list bounds for travel bookings
const (
	MinPassengers = 1
	MaxPassengers = 6
)

// BookingService handles intake, triage and assignment of bookings
type BookingService struct {
	bookingRepo   repositories.BookingRepository
	agentRepo     repositories.AgentRepository
	packageRepo   repositories.PackageRepository
	notifyService *NotificationService
	hub           *FeedHub
	noteWriter    *NoteWriter
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo repositories.BookingRepository,
	agentRepo repositories.AgentRepository,
	packageRepo repositories.PackageRepository,
	notifyService *NotificationService,
	hub *FeedHub,
) *BookingService {
	s := &BookingService{
		bookingRepo:   bookingRepo,
		agentRepo:     agentRepo,
		packageRepo:   packageRepo,
		notifyService: notifyService,
		hub:           hub,
	}
	s.noteWriter = NewNoteWriter(DefaultNoteDebounce, s.writeNote)
	return s
}

// Close flushes pending debounced writes; called on shutdown
func (s *BookingService) Close() {
	s.noteWriter.Stop()
}

// ============================================================
// Intake
// ============================================================

// TravelBookingInput represents a general travel booking submission
type TravelBookingInput struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Origin         string             `json:"origin"`
	Destination    string             `json:"destination"`
	TravelDate     string             `json:"travel_date"`
	Category       string             `json:"category"`
	PassengerCount int                `json:"passenger_count"`
	Passengers     []models.Passenger `json:"passengers"`
	Requirements   string             `json:"requirements"`
}

// ContactMessageInput represents a contact form submission
type ContactMessageInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// PackageBookingInput represents a tour package booking submission
type PackageBookingInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PackageID    uint   `json:"package_id"`
	TravelDate   string `json:"travel_date"`
	Travellers   int    `json:"travellers"`
	Requirements string `json:"requirements"`
}

// NormalizePassengers resizes a passenger list to count entries: growing
// appends blank passengers, shrinking truncates from the end. Resizing to
// the current length returns the entries unchanged.
func NormalizePassengers(passengers []models.Passenger, count int) []models.Passenger {
	if count < MinPassengers {
		count = MinPassengers
	}
	if count > MaxPassengers {
		count = MaxPassengers
	}

	out := make([]models.Passenger, 0, count)
	if len(passengers) > count {
		out = append(out, passengers[:count]...)
		return out
	}
	out = append(out, passengers...)
	for len(out) < count {
		out = append(out, models.Passenger{})
	}
	return out
}

// validateContact checks the shared contact fields of every intake kind
func validateContact(name, email, phone string, fields validate.FieldErrors) {
	if !validate.Required(name) {
		fields["name"] = "name is required"
	}
	if !validate.Required(email) {
		fields["email"] = "email is required"
	} else if !validate.Email(email) {
		fields["email"] = "email is not a valid address"
	}
	if !validate.Required(phone) {
		fields["phone"] = "phone is required"
	} else if !validate.Phone(phone) {
		fields["phone"] = "phone must be exactly 10 digits"
	}
}

// Validate checks a travel booking submission
func (in *TravelBookingInput) Validate() validate.FieldErrors {
	fields := validate.FieldErrors{}
	validateContact(in.Name, in.Email, in.Phone, fields)
	if !validate.Required(in.Origin) {
		fields["origin"] = "origin is required"
	}
	if !validate.Required(in.Destination) {
		fields["destination"] = "destination is required"
	}
	if !validate.Required(in.TravelDate) {
		fields["travel_date"] = "travel date is required"
	}
	if in.PassengerCount < MinPassengers || in.PassengerCount > MaxPassengers {
		fields["passenger_count"] = fmt.Sprintf("passenger count must be between %d and %d", MinPassengers, MaxPassengers)
	}
	return fields
}

// Validate checks a contact message submission
func (in *ContactMessageInput) Validate() validate.FieldErrors {
	fields := validate.FieldErrors{}
	validateContact(in.Name, in.Email, in.Phone, fields)
	if !validate.Required(in.Message) {
		fields["message"] = "message is required"
	}
	return fields
}

// Validate checks a package booking submission
func (in *PackageBookingInput) Validate() validate.FieldErrors {
	fields := validate.FieldErrors{}
	validateContact(in.Name, in.Email, in.Phone, fields)
	if in.PackageID == 0 {
		fields["package_id"] = "package is required"
	}
	if !validate.Required(in.TravelDate) {
		fields["travel_date"] = "travel date is required"
	}
	return fields
}

// CreateTravelBooking creates a general travel booking in the pending state
// with no assignee
func (s *BookingService) CreateTravelBooking(ctx context.Context, input *TravelBookingInput) (*models.Booking, error) {
	status := models.StatusPending
	booking := &models.Booking{
		Ref:          uuid.New().String(),
		Kind:         models.KindTravel,
		Name:         input.Name,
		Email:        validate.NormalizeEmail(input.Email),
		Phone:        input.Phone,
		Origin:       input.Origin,
		Destination:  input.Destination,
		TravelDate:   input.TravelDate,
		Category:     input.Category,
		Passengers:   NormalizePassengers(input.Passengers, input.PassengerCount),
		Requirements: input.Requirements,
		Status:       &status,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	log.Printf("🧳 New travel booking %s: %s → %s", booking.Ref, booking.Origin, booking.Destination)
	s.publishBookings(booking)
	return booking, nil
}

// CreateContactMessage creates a contact message in the pending state
func (s *BookingService) CreateContactMessage(ctx context.Context, input *ContactMessageInput) (*models.Booking, error) {
	status := models.StatusPending
	booking := &models.Booking{
		Ref:     uuid.New().String(),
		Kind:    models.KindContact,
		Name:    input.Name,
		Email:   validate.NormalizeEmail(input.Email),
		Phone:   input.Phone,
		Message: input.Message,
		Status:  &status,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	log.Printf("✉️ New contact message %s from %s", booking.Ref, booking.Email)
	s.hub.Publish(FeedEvent{Collection: FeedMessages})
	return booking, nil
}

// CreatePackageBooking creates a tour package booking in the pending state
func (s *BookingService) CreatePackageBooking(ctx context.Context, input *PackageBookingInput) (*models.Booking, error) {
	pkg, err := s.packageRepo.GetByID(ctx, input.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	travellers := input.Travellers
	if travellers < MinPassengers {
		travellers = MinPassengers
	}

	status := models.StatusPending
	booking := &models.Booking{
		Ref:          uuid.New().String(),
		Kind:         models.KindPackage,
		Name:         input.Name,
		Email:        validate.NormalizeEmail(input.Email),
		Phone:        input.Phone,
		Destination:  pkg.Destination,
		TravelDate:   input.TravelDate,
		PackageID:    &pkg.ID,
		Passengers:   NormalizePassengers(nil, travellers),
		Requirements: input.Requirements,
		Status:       &status,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	log.Printf("🏝️ New package booking %s: %s", booking.Ref, pkg.Name)
	s.publishBookings(booking)
	return booking, nil
}

// ============================================================
// Triage
// ============================================================

// GetByID gets a booking
func (s *BookingService) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// List lists bookings matching a filter, newest first
func (s *BookingService) List(ctx context.Context, filter repositories.BookingFilter, offset, limit int) ([]*models.Booking, int64, error) {
	return s.bookingRepo.List(ctx, filter, offset, limit)
}

// SetStatus transitions a booking's status, stamping the acting identity.
// When assignee is non-nil the booking must currently be assigned to that
// email (agent dashboards may only touch their own bookings).
func (s *BookingService) SetStatus(ctx context.Context, id uint, status, updatedBy string, assignee *string) (*models.Booking, error) {
	if status != models.StatusPending && status != models.StatusCompleted {
		return nil, ErrInvalidStatus
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if assignee != nil {
		if booking.AssignedAgent == nil || *booking.AssignedAgent != *assignee {
			return nil, ErrNotAssignee
		}
	}

	fields := map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
		"updated_at": time.Now(),
	}
	if err := s.bookingRepo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	booking, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("🔄 Booking %s status → %s (by %s)", booking.Ref, status, updatedBy)
	s.publishBookings(booking)
	return booking, nil
}

// SetNote buffers an admin note edit; the write is debounced per booking
func (s *BookingService) SetNote(bookingID uint, note, updatedBy string) {
	s.noteWriter.Set(bookingID, note, updatedBy)
}

// writeNote is the note writer's flush target
func (s *BookingService) writeNote(bookingID uint, note, updatedBy string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fields := map[string]interface{}{
		"admin_note": note,
		"updated_by": updatedBy,
		"updated_at": time.Now(),
	}
	if err := s.bookingRepo.UpdateFields(ctx, bookingID, fields); err != nil {
		// The optimistic local edit is not rolled back; the next flush
		// or a reload resolves the divergence.
		log.Printf("❌ Note write failed for booking %d: %v", bookingID, err)
		return
	}
	s.hub.Publish(FeedEvent{Collection: FeedBookings})
}

// ============================================================
// Assignment
// ============================================================

// AssignResult represents the outcome of an assignment change
type AssignResult struct {
	Booking          *models.Booking `json:"booking"`
	Unassigned       bool            `json:"unassigned"`
	AgentName        string          `json:"agent_name,omitempty"`
	NotificationLink string          `json:"notification_link,omitempty"`
}

// Assign sets or clears a booking's assignee. An empty agent email clears
// the assignment (and its timestamp) and composes no notification; a
// non-empty email must belong to an existing agent, and the result carries a
// WhatsApp deep link to that agent's phone summarising the booking. The
// booking write always precedes link composition.
func (s *BookingService) Assign(ctx context.Context, id uint, agentEmail, updatedBy string) (*AssignResult, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := ""
	if booking.AssignedAgent != nil {
		previous = *booking.AssignedAgent
	}

	agentEmail = validate.NormalizeEmail(agentEmail)
	if agentEmail == "" {
		fields := map[string]interface{}{
			"assigned_agent": nil,
			"assigned_at":    nil,
			"updated_by":     updatedBy,
			"updated_at":     time.Now(),
		}
		if err := s.bookingRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}

		booking, err = s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		log.Printf("👤 Booking %s unassigned (by %s)", booking.Ref, updatedBy)
		s.publishBookingsTouching(booking, previous)
		return &AssignResult{Booking: booking, Unassigned: true}, nil
	}

	agent, err := s.agentRepo.GetByEmail(ctx, agentEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{
		"assigned_agent": agent.Email,
		"assigned_at":    time.Now(),
		"updated_by":     updatedBy,
		"updated_at":     time.Now(),
	}
	if err := s.bookingRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	booking, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("👤 Booking %s assigned to %s (by %s)", booking.Ref, agent.Email, updatedBy)
	s.publishBookingsTouching(booking, previous)

	return &AssignResult{
		Booking:          booking,
		AgentName:        agent.Name,
		NotificationLink: s.notifyService.AssignmentLink(agent.Phone, booking),
	}, nil
}

// ============================================================
// Bulk delete
// ============================================================

// BulkDeleteResult reports per-record outcomes of a batch delete
type BulkDeleteResult struct {
	Deleted []uint          `json:"deleted"`
	Failed  map[uint]string `json:"failed,omitempty"`
}

// AnyFailed reports whether the batch settled with at least one rejection
func (r *BulkDeleteResult) AnyFailed() bool {
	return len(r.Failed) > 0
}

// BulkDelete deletes a set of bookings as independent per-record deletes; a
// failure in one neither blocks nor rolls back the others.
func (s *BookingService) BulkDelete(ctx context.Context, ids []uint) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{
		Failed: make(map[uint]string),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := s.bookingRepo.Delete(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[id] = err.Error()
			} else {
				result.Deleted = append(result.Deleted, id)
			}
			// Per-record failures are reported, never propagated, so the
			// group never cancels sibling deletes.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("🗑️ Bulk delete: %d deleted, %d failed", len(result.Deleted), len(result.Failed))
	if len(result.Deleted) > 0 {
		s.hub.Publish(FeedEvent{Collection: FeedBookings})
		s.hub.Publish(FeedEvent{Collection: FeedMessages})
	}
	return result, nil
}

// ============================================================
// Feed helpers
// ============================================================

func (s *BookingService) publishBookings(b *models.Booking) {
	event := FeedEvent{Collection: FeedBookings}
	if b.AssignedAgent != nil && *b.AssignedAgent != "" {
		event.AgentEmails = []string{*b.AssignedAgent}
	}
	s.hub.Publish(event)
}

// publishBookingsTouching also wakes the previous assignee so a reassigned
// booking disappears from their feed immediately
func (s *BookingService) publishBookingsTouching(b *models.Booking, previousAgent string) {
	event := FeedEvent{Collection: FeedBookings}
	if b.AssignedAgent != nil && *b.AssignedAgent != "" {
		event.AgentEmails = append(event.AgentEmails, *b.AssignedAgent)
	}
	if previousAgent != "" && (b.AssignedAgent == nil || previousAgent != *b.AssignedAgent) {
		event.AgentEmails = append(event.AgentEmails, previousAgent)
	}
	s.hub.Publish(event)
}
