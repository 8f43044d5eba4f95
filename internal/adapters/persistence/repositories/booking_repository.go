package repositories

import (
	"context"
	"time"

	"tripeasy/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookingRepository implements BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID gets a booking by ID
func (r *bookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Preload("Package").Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateFields applies a field-level update (status, assignment, note).
// A map is used so columns can be set to NULL explicitly.
func (r *bookingRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes a booking
func (r *bookingRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Booking{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists bookings matching the filter, created_at descending
func (r *bookingRepository) List(ctx context.Context, filter BookingFilter, offset, limit int) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.ExcludeKind != "" {
		query = query.Where("kind <> ?", filter.ExcludeKind)
	}
	if filter.AssignedAgent != nil {
		query = query.Where("assigned_agent = ?", *filter.AssignedAgent)
	}
	if filter.Status != nil {
		if *filter.Status == models.StatusPending {
			// absence of status is semantically pending
			query = query.Where("status = ? OR status IS NULL OR status = ''", models.StatusPending)
		} else {
			query = query.Where("status = ?", *filter.Status)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// CountPendingOlderThanHours counts still-pending bookings older than the
// given age (daily digest)
func (r *bookingRepository) CountPendingOlderThanHours(ctx context.Context, hours int) (int64, error) {
	var count int64
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("kind <> ?", models.KindContact).
		Where("status = ? OR status IS NULL OR status = ''", models.StatusPending).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	return count, err
}
