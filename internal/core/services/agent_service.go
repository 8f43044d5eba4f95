package services

import (
	"context"
	"errors"
	"log"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/pkg/password"
	"tripeasy/internal/pkg/validate"

	"gorm.io/gorm"
)

// Agent service errors
var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAgentExists   = errors.New("agent with this email already exists")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
)

// AgentService handles agent CRUD for the admin dashboard
type AgentService struct {
	agentRepo    repositories.AgentRepository
	identityRepo repositories.IdentityRepository
	hub          *FeedHub
}

// NewAgentService creates a new agent service
func NewAgentService(
	agentRepo repositories.AgentRepository,
	identityRepo repositories.IdentityRepository,
	hub *FeedHub,
) *AgentService {
	return &AgentService{
		agentRepo:    agentRepo,
		identityRepo: identityRepo,
		hub:          hub,
	}
}

// CreateAgentInput represents agent creation input
type CreateAgentInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Validate checks agent creation input
func (in *CreateAgentInput) Validate() validate.FieldErrors {
	fields := validate.FieldErrors{}
	if !validate.Required(in.Name) {
		fields["name"] = "name is required"
	}
	if !validate.Required(in.Email) {
		fields["email"] = "email is required"
	} else if !validate.Email(in.Email) {
		fields["email"] = "email is not a valid address"
	}
	if !validate.Required(in.Phone) {
		fields["phone"] = "phone is required"
	} else if !validate.Phone(in.Phone) {
		fields["phone"] = "phone must be exactly 10 digits"
	}
	if !password.ValidatePassword(in.Password) {
		fields["password"] = "password must be at least 8 characters"
	}
	return fields
}

// UpdateAgentInput represents agent profile edit input. The provisioning
// flag and staged password are never editable.
type UpdateAgentInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Age     *int    `json:"age"`
	Gender  *string `json:"gender"`
	Address *string `json:"address"`
}

// Create creates an agent pending login provisioning. Email uniqueness is
// pre-checked (case-insensitive, via normalization) for a clean conflict
// error; the unique index backstops concurrent creations.
func (s *AgentService) Create(ctx context.Context, input *CreateAgentInput) (*models.Agent, error) {
	email := validate.NormalizeEmail(input.Email)

	exists, err := s.agentRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAgentExists
	}

	// A login with this email (the admin's, or a leftover identity) would
	// make provisioning fail later; reject up front.
	exists, err = s.identityRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAgentExists
	}

	staged := input.Password
	agent := &models.Agent{
		Name:             input.Name,
		Email:            email,
		Phone:            input.Phone,
		Age:              input.Age,
		Gender:           input.Gender,
		Address:          input.Address,
		NeedsAuthAccount: true,
		StagedPassword:   &staged,
	}

	if err := s.agentRepo.Create(ctx, agent); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAgentExists
		}
		return nil, err
	}

	log.Printf("🧑‍💼 Agent created: %s (awaiting login provisioning)", agent.Email)
	s.hub.Publish(FeedEvent{Collection: FeedAgents})
	return agent, nil
}

// Update edits agent profile fields only
func (s *AgentService) Update(ctx context.Context, id uint, input *UpdateAgentInput) (*models.Agent, error) {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := validate.NormalizeEmail(*input.Email)
		if !validate.Email(email) {
			return nil, errors.New("email is not a valid address")
		}
		if email != agent.Email {
			exists, err := s.agentRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrAgentExists
			}
			agent.Email = email
		}
	}
	if input.Name != nil {
		agent.Name = *input.Name
	}
	if input.Phone != nil {
		if !validate.Phone(*input.Phone) {
			return nil, errors.New("phone must be exactly 10 digits")
		}
		agent.Phone = *input.Phone
	}
	if input.Age != nil {
		agent.Age = *input.Age
	}
	if input.Gender != nil {
		agent.Gender = *input.Gender
	}
	if input.Address != nil {
		agent.Address = *input.Address
	}

	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, err
	}

	s.hub.Publish(FeedEvent{Collection: FeedAgents})
	return agent, nil
}

// Delete removes an agent unconditionally. Bookings assigned to the agent
// keep their assignment reference as history (tombstone-and-preserve), but
// a provisioned login is deactivated so it cannot sign in anymore.
func (s *AgentService) Delete(ctx context.Context, id uint) error {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.agentRepo.Delete(ctx, id); err != nil {
		return err
	}

	if agent.AuthAccountID != nil {
		identity, err := s.identityRepo.GetByID(ctx, *agent.AuthAccountID)
		if err == nil && identity.IsActive {
			identity.IsActive = false
			if err := s.identityRepo.Update(ctx, identity); err != nil {
				log.Printf("⚠️ Failed to deactivate login for deleted agent %d: %v", id, err)
			}
		}
	}

	log.Printf("🗑️ Agent %d deleted (assigned bookings untouched)", id)
	s.hub.Publish(FeedEvent{Collection: FeedAgents})
	return nil
}

// GetByID gets an agent
func (s *AgentService) GetByID(ctx context.Context, id uint) (*models.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return agent, nil
}

// List lists agents newest first with pagination
func (s *AgentService) List(ctx context.Context, offset, limit int) ([]*models.Agent, int64, error) {
	return s.agentRepo.List(ctx, offset, limit)
}

// ListAll lists all agents for the live dashboard feed
func (s *AgentService) ListAll(ctx context.Context) ([]*models.Agent, error) {
	return s.agentRepo.ListAll(ctx)
}
