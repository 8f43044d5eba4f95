package repositories

import (
	"context"

	"tripeasy/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// agentRepository implements AgentRepository interface
type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

// Create creates a new agent. The unique index on email is the authoritative
// uniqueness check; callers map the duplicate-key error to a conflict.
func (r *agentRepository) Create(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

// GetByID gets an agent by ID
func (r *agentRepository) GetByID(ctx context.Context, id uint) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetByEmail gets an agent by email (stored lowercased)
func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// ExistsByEmail checks if an agent email exists
func (r *agentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Agent{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Update saves a full agent record
func (r *agentRepository) Update(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Save(agent).Error
}

// UpdateFields applies a field-level update (used by provisioning so the
// staged password can be nulled explicitly)
func (r *agentRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Agent{}).Where("id = ?", id).Updates(fields).Error
}

// Delete soft deletes an agent
func (r *agentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Agent{}, id).Error
}

// List lists agents newest first with pagination
func (r *agentRepository) List(ctx context.Context, offset, limit int) ([]*models.Agent, int64, error) {
	var agents []*models.Agent
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Agent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&agents).Error
	if err != nil {
		return nil, 0, err
	}

	return agents, total, nil
}

// ListAll lists all agents newest first (dashboard live feed)
func (r *agentRepository) ListAll(ctx context.Context) ([]*models.Agent, error) {
	var agents []*models.Agent
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&agents).Error
	return agents, err
}

// ListNeedingAccounts lists agents awaiting login provisioning, oldest first
// so the loop works through the backlog in creation order
func (r *agentRepository) ListNeedingAccounts(ctx context.Context) ([]*models.Agent, error) {
	var agents []*models.Agent
	err := r.db.WithContext(ctx).
		Where("needs_auth_account = ?", true).
		Order("created_at ASC").
		Find(&agents).Error
	return agents, err
}
