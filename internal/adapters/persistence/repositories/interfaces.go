package repositories

import (
	"context"

	"tripeasy/internal/adapters/persistence/models"
)

// IdentityRepository defines login-account repository interface
type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByID(ctx context.Context, id uint) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, identity *models.Identity) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByIdentityID(ctx context.Context, identityID uint) error
	DeleteExpired(ctx context.Context) error
}

// AgentRepository defines agent repository interface
type AgentRepository interface {
	Create(ctx context.Context, agent *models.Agent) error
	GetByID(ctx context.Context, id uint) (*models.Agent, error)
	GetByEmail(ctx context.Context, email string) (*models.Agent, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, agent *models.Agent) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.Agent, int64, error)
	ListAll(ctx context.Context) ([]*models.Agent, error)
	ListNeedingAccounts(ctx context.Context) ([]*models.Agent, error)
}

// BookingFilter narrows booking queries
type BookingFilter struct {
	Kind          string  // empty = all kinds
	ExcludeKind   string  // empty = exclude nothing
	AssignedAgent *string // nil = any assignee
	Status        *string // nil = any status
}

// BookingRepository defines booking repository interface
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter BookingFilter, offset, limit int) ([]*models.Booking, int64, error)
	CountPendingOlderThanHours(ctx context.Context, hours int) (int64, error)
}

// PackageRepository defines tour package repository interface
type PackageRepository interface {
	GetByID(ctx context.Context, id uint) (*models.TourPackage, error)
	ListActive(ctx context.Context) ([]*models.TourPackage, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, pkg *models.TourPackage) error
}
