package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth tables
// ============================================================

// Roles resolved for an authenticated identity
const (
	RoleAdmin    = "admin"
	RoleAgent    = "agent"
	RoleCustomer = "customer"
)

// Identity represents a login account (the admin or a provisioned agent)
type Identity struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'agent'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Identity) TableName() string {
	return "identities"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	IdentityID uint       `gorm:"index;not null" json:"identity_id"`
	TokenHash  string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at"`
	Identity   Identity   `gorm:"foreignKey:IdentityID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Agents
// ============================================================

// Agent represents a staff member able to receive booking assignments.
// Email is stored lowercased; the unique index is the authoritative
// uniqueness guarantee (the service pre-check only exists for a clean 409).
type Agent struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:100;not null" json:"name"`
	Email            string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone            string         `gorm:"size:20" json:"phone"`
	Age              int            `json:"age"`
	Gender           string         `gorm:"size:20" json:"gender"`
	Address          string         `gorm:"type:text" json:"address"`
	NeedsAuthAccount bool           `gorm:"default:false;index" json:"needs_auth_account"`
	StagedPassword   *string        `gorm:"size:255" json:"-"`
	AuthAccountID    *uint          `json:"auth_account_id"`
	ProvisionError   *string        `gorm:"size:255" json:"provision_error"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Agent) TableName() string {
	return "agents"
}

// ============================================================
// Bookings
// ============================================================

// Booking kinds
const (
	KindTravel  = "travel"
	KindContact = "contact"
	KindPackage = "package"
)

// Booking statuses. StatusPending is the default everywhere the field is
// absent; readers must go through StatusOrDefault.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Passenger is one traveller on a booking
type Passenger struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// PassengerList is stored as a JSON column
type PassengerList []Passenger

// Value implements driver.Valuer
func (p PassengerList) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PassengerList) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("passenger list: unsupported column type")
	}
	return json.Unmarshal(raw, p)
}

// Booking covers travel bookings, contact messages and package bookings,
// modeled uniformly and discriminated by Kind.
type Booking struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Ref           string         `gorm:"uniqueIndex;size:40;not null" json:"ref"`
	Kind          string         `gorm:"size:20;not null;index" json:"kind"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Email         string         `gorm:"size:100;not null" json:"email"`
	Phone         string         `gorm:"size:20;not null" json:"phone"`
	Origin        string         `gorm:"size:100" json:"origin,omitempty"`
	Destination   string         `gorm:"size:100" json:"destination,omitempty"`
	TravelDate    string         `gorm:"size:20" json:"travel_date,omitempty"`
	Category      string         `gorm:"size:30" json:"category,omitempty"`
	PackageID     *uint          `gorm:"index" json:"package_id,omitempty"`
	Passengers    PassengerList  `gorm:"type:json" json:"passengers,omitempty"`
	Requirements  string         `gorm:"type:text" json:"requirements,omitempty"`
	Message       string         `gorm:"type:text" json:"message,omitempty"`
	Status        *string        `gorm:"size:20" json:"-"`
	AssignedAgent *string        `gorm:"size:100;index" json:"assigned_agent"`
	AssignedAt    *time.Time     `json:"assigned_at"`
	AdminNote     string         `gorm:"type:text" json:"admin_note,omitempty"`
	UpdatedBy     *string        `gorm:"size:100" json:"updated_by,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Package *TourPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// StatusOrDefault resolves the stored status, treating absence as pending
func (b *Booking) StatusOrDefault() string {
	if b.Status == nil || *b.Status == "" {
		return StatusPending
	}
	return *b.Status
}

// IsAssigned reports whether the booking has a non-empty assignee
func (b *Booking) IsAssigned() bool {
	return b.AssignedAgent != nil && *b.AssignedAgent != ""
}

// MarshalJSON injects the resolved status so API clients never see the
// nullable raw column
func (b *Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		*alias
		Status string `json:"status"`
	}{
		alias:  (*alias)(b),
		Status: b.StatusOrDefault(),
	})
}

// ============================================================
// Catalog master data
// ============================================================

// TourPackage is seeded catalog master data
type TourPackage struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Destination string         `gorm:"size:100;not null" json:"destination"`
	Days        int            `gorm:"not null" json:"days"`
	Price       float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TourPackage) TableName() string {
	return "tour_packages"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Identity{},
		&RefreshToken{},
		&Agent{},
		&Booking{},
		&TourPackage{},
	)
}
