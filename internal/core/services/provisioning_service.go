package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/pkg/password"

	"gorm.io/gorm"
)

// DefaultProvisionInterval is how often the loop scans for unprovisioned agents
const DefaultProvisionInterval = 5 * time.Second

var errLoginEmailTaken = errors.New("a login with this email already exists")

// ProvisioningService turns admin-created agent records that lack a login
// into agents with a usable password-based identity. It runs for the
// lifetime of the process, independent of any request, and creates
// identities directly in the store. No caller session is ever switched or
// replayed.
//
// Each agent reaches a terminal state in one pass: either provisioned (flag
// cleared, identity attached) or failed (flag cleared, error recorded). The
// staged password is cleared on both outcomes. No transition leads back to
// the needs-account state automatically.
type ProvisioningService struct {
	agentRepo    repositories.AgentRepository
	identityRepo repositories.IdentityRepository
	hub          *FeedHub
	interval     time.Duration
	stopChan     chan struct{}

	// guards against overlapping passes; a tick that finds a pass still
	// running is skipped, not queued
	running sync.Mutex
}

// NewProvisioningService creates a new provisioning service
func NewProvisioningService(
	agentRepo repositories.AgentRepository,
	identityRepo repositories.IdentityRepository,
	hub *FeedHub,
	interval time.Duration,
) *ProvisioningService {
	if interval <= 0 {
		interval = DefaultProvisionInterval
	}
	return &ProvisioningService{
		agentRepo:    agentRepo,
		identityRepo: identityRepo,
		hub:          hub,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the background loop
func (s *ProvisioningService) Start() {
	log.Printf("🚀 ProvisioningService started (every %s)", s.interval)
	go s.runLoop()
}

// Stop gracefully stops the loop
func (s *ProvisioningService) Stop() {
	close(s.stopChan)
	log.Println("🛑 ProvisioningService stopped")
}

func (s *ProvisioningService) runLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce executes a single provisioning pass. Returns the number of agents
// processed; zero with no error when another pass is still running.
func (s *ProvisioningService) RunOnce(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		return 0, nil
	}
	defer s.running.Unlock()

	agents, err := s.agentRepo.ListNeedingAccounts(ctx)
	if err != nil {
		log.Printf("❌ Provisioning scan error: %v", err)
		return 0, err
	}

	// Sequential on purpose: identity creation must not interleave
	for _, agent := range agents {
		s.provision(ctx, agent)
	}

	if len(agents) > 0 {
		s.hub.Publish(FeedEvent{Collection: FeedAgents})
	}
	return len(agents), nil
}

// provision drives one agent to a terminal state
func (s *ProvisioningService) provision(ctx context.Context, agent *models.Agent) {
	identityID, err := s.createIdentity(ctx, agent)
	if err != nil {
		// Terminal failure: clear the flag so the record is not retried
		// forever, record why, and clear the staged secret.
		reason := err.Error()
		fields := map[string]interface{}{
			"needs_auth_account": false,
			"staged_password":    nil,
			"provision_error":    reason,
		}
		if updateErr := s.agentRepo.UpdateFields(ctx, agent.ID, fields); updateErr != nil {
			log.Printf("❌ Provisioning: failed to record error for %s: %v", agent.Email, updateErr)
			return
		}
		log.Printf("⚠️ Provisioning failed for %s: %v", agent.Email, err)
		return
	}

	fields := map[string]interface{}{
		"needs_auth_account": false,
		"staged_password":    nil,
		"auth_account_id":    identityID,
		"provision_error":    nil,
	}
	if err := s.agentRepo.UpdateFields(ctx, agent.ID, fields); err != nil {
		log.Printf("❌ Provisioning: failed to finalize %s: %v", agent.Email, err)
		return
	}

	log.Printf("✅ Provisioned login for agent: %s", agent.Email)
}

// createIdentity creates the password-based login for an agent
func (s *ProvisioningService) createIdentity(ctx context.Context, agent *models.Agent) (uint, error) {
	if agent.StagedPassword == nil || *agent.StagedPassword == "" {
		return 0, errors.New("no staged password")
	}

	exists, err := s.identityRepo.ExistsByEmail(ctx, agent.Email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errLoginEmailTaken
	}

	hashed, err := password.Hash(*agent.StagedPassword)
	if err != nil {
		return 0, err
	}

	identity := &models.Identity{
		Email:    agent.Email,
		Password: hashed,
		Role:     models.RoleAgent,
		IsActive: true,
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		// Unique index backstop when an identity landed after the pre-check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, errLoginEmailTaken
		}
		return 0, err
	}
	return identity.ID, nil
}
