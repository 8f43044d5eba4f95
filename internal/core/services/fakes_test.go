package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// ============================================================
// Identity repository fake
// ============================================================

type fakeIdentityRepo struct {
	mu         sync.Mutex
	nextID     uint
	identities map[uint]*models.Identity
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[uint]*models.Identity)}
}

func (r *fakeIdentityRepo) Create(_ context.Context, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.Email == identity.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	identity.ID = r.nextID
	r.identities[identity.ID] = identity
	return nil
}

func (r *fakeIdentityRepo) GetByID(_ context.Context, id uint) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return identity, nil
}

func (r *fakeIdentityRepo) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.identities {
		if identity.Email == email {
			return identity, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeIdentityRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeIdentityRepo) Update(_ context.Context, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.identities[identity.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.identities[identity.ID] = identity
	return nil
}

// ============================================================
// Refresh token repository fake
// ============================================================

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[uint]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	r.tokens[token.ID] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			return token, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	token, err := r.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	return r.Revoke(ctx, token.ID)
}

func (r *fakeRefreshTokenRepo) RevokeAllByIdentityID(_ context.Context, identityID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, token := range r.tokens {
		if token.IdentityID == identityID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, token := range r.tokens {
		if token.IsExpired() {
			delete(r.tokens, id)
		}
	}
	return nil
}

// ============================================================
// Agent repository fake
// ============================================================

type fakeAgentRepo struct {
	mu     sync.Mutex
	nextID uint
	agents map[uint]*models.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[uint]*models.Agent)}
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *models.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.agents {
		if existing.Email == agent.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	agent.ID = r.nextID
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now()
	}
	r.agents[agent.ID] = agent
	return nil
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id uint) (*models.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return agent, nil
}

func (r *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*models.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agent := range r.agents {
		if agent.Email == email {
			return agent, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAgentRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeAgentRepo) Update(_ context.Context, agent *models.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[agent.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.agents[agent.ID] = agent
	return nil
}

func (r *fakeAgentRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "needs_auth_account":
			agent.NeedsAuthAccount = value.(bool)
		case "staged_password":
			if value == nil {
				agent.StagedPassword = nil
			} else {
				s := value.(string)
				agent.StagedPassword = &s
			}
		case "auth_account_id":
			if value == nil {
				agent.AuthAccountID = nil
			} else {
				v := value.(uint)
				agent.AuthAccountID = &v
			}
		case "provision_error":
			if value == nil {
				agent.ProvisionError = nil
			} else {
				s := value.(string)
				agent.ProvisionError = &s
			}
		}
	}
	return nil
}

func (r *fakeAgentRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.agents, id)
	return nil
}

func (r *fakeAgentRepo) sorted() []*models.Agent {
	out := make([]*models.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeAgentRepo) List(_ context.Context, offset, limit int) ([]*models.Agent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeAgentRepo) ListAll(_ context.Context) ([]*models.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(), nil
}

func (r *fakeAgentRepo) ListNeedingAccounts(_ context.Context) ([]*models.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Agent
	for _, agent := range r.sorted() {
		if agent.NeedsAuthAccount {
			out = append(out, agent)
		}
	}
	return out, nil
}

// ============================================================
// Booking repository fake
// ============================================================

type fakeBookingRepo struct {
	mu       sync.Mutex
	nextID   uint
	bookings map[uint]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uint]*models.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	booking.ID = r.nextID
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

func (r *fakeBookingRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "status":
			s := value.(string)
			booking.Status = &s
		case "updated_by":
			s := value.(string)
			booking.UpdatedBy = &s
		case "updated_at":
			booking.UpdatedAt = value.(time.Time)
		case "assigned_agent":
			if value == nil {
				booking.AssignedAgent = nil
			} else {
				s := value.(string)
				booking.AssignedAgent = &s
			}
		case "assigned_at":
			if value == nil {
				booking.AssignedAt = nil
			} else {
				t := value.(time.Time)
				booking.AssignedAt = &t
			}
		case "admin_note":
			booking.AdminNote = value.(string)
		}
	}
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.bookings, id)
	return nil
}

func matchesFilter(b *models.Booking, filter repositories.BookingFilter) bool {
	if filter.Kind != "" && b.Kind != filter.Kind {
		return false
	}
	if filter.ExcludeKind != "" && b.Kind == filter.ExcludeKind {
		return false
	}
	if filter.AssignedAgent != nil {
		if b.AssignedAgent == nil || *b.AssignedAgent != *filter.AssignedAgent {
			return false
		}
	}
	if filter.Status != nil {
		if *filter.Status == models.StatusPending {
			if b.StatusOrDefault() != models.StatusPending {
				return false
			}
		} else if b.Status == nil || *b.Status != *filter.Status {
			return false
		}
	}
	return true
}

func (r *fakeBookingRepo) List(_ context.Context, filter repositories.BookingFilter, offset, limit int) ([]*models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Booking
	for _, booking := range r.bookings {
		if matchesFilter(booking, filter) {
			matched = append(matched, booking)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeBookingRepo) CountPendingOlderThanHours(_ context.Context, hours int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var count int64
	for _, booking := range r.bookings {
		if booking.Kind == models.KindContact {
			continue
		}
		if booking.StatusOrDefault() == models.StatusPending && booking.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

// ============================================================
// Package repository fake
// ============================================================

type fakePackageRepo struct {
	mu       sync.Mutex
	nextID   uint
	packages map[uint]*models.TourPackage
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{packages: make(map[uint]*models.TourPackage)}
}

func (r *fakePackageRepo) Create(_ context.Context, pkg *models.TourPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	pkg.ID = r.nextID
	r.packages[pkg.ID] = pkg
	return nil
}

func (r *fakePackageRepo) GetByID(_ context.Context, id uint) (*models.TourPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pkg, ok := r.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pkg, nil
}

func (r *fakePackageRepo) ListActive(_ context.Context) ([]*models.TourPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TourPackage
	for _, pkg := range r.packages {
		if pkg.IsActive {
			out = append(out, pkg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePackageRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.packages)), nil
}
