package services

import (
	"context"
	"log"
	"time"

	"tripeasy/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// ReminderService runs a daily 08:30 digest of bookings that have sat
// pending for more than a day, so stale submissions surface even when
// nobody has a dashboard open.
type ReminderService struct {
	bookingRepo repositories.BookingRepository
	cron        *cron.Cron
}

// NewReminderService creates a new reminder service
func NewReminderService(bookingRepo repositories.BookingRepository) *ReminderService {
	return &ReminderService{
		bookingRepo: bookingRepo,
		cron:        cron.New(),
	}
}

// Start schedules the daily digest
func (s *ReminderService) Start() {
	s.cron.AddFunc("30 8 * * *", s.runDigest)
	s.cron.Start()
	log.Println("🚀 ReminderService started (daily 08:30 digest)")
}

// Stop stops the scheduler
func (s *ReminderService) Stop() {
	s.cron.Stop()
	log.Println("🛑 ReminderService stopped")
}

func (s *ReminderService) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.bookingRepo.CountPendingOlderThanHours(ctx, 24)
	if err != nil {
		log.Printf("❌ Reminder digest query error: %v", err)
		return
	}
	if count > 0 {
		log.Printf("📅 Digest: %d booking(s) pending for more than 24h", count)
	}
}
