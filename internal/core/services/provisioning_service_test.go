package services

import (
	"context"
	"testing"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/pkg/password"
)

func stagedAgent(email, staged string) *models.Agent {
	return &models.Agent{
		Name:             email,
		Email:            email,
		Phone:            "9876512345",
		NeedsAuthAccount: true,
		StagedPassword:   &staged,
	}
}

func TestProvisioningService_SuccessIsTerminal(t *testing.T) {
	agentRepo := newFakeAgentRepo()
	identityRepo := newFakeIdentityRepo()
	svc := NewProvisioningService(agentRepo, identityRepo, NewFeedHub(), DefaultProvisionInterval)

	ctx := context.Background()
	agent := stagedAgent("priya@tripeasy.in", "agent-password")
	if err := agentRepo.Create(ctx, agent); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	processed, err := svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed, got %d", processed)
	}

	got, err := agentRepo.GetByID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("reload agent: %v", err)
	}
	if got.NeedsAuthAccount {
		t.Fatal("flag must be cleared after provisioning")
	}
	if got.StagedPassword != nil {
		t.Fatal("staged password must be cleared after provisioning")
	}
	if got.AuthAccountID == nil {
		t.Fatal("provisioned agent must reference its identity")
	}
	if got.ProvisionError != nil {
		t.Fatalf("unexpected provision error: %s", *got.ProvisionError)
	}

	identity, err := identityRepo.GetByEmail(ctx, "priya@tripeasy.in")
	if err != nil {
		t.Fatalf("identity must exist: %v", err)
	}
	if identity.Role != models.RoleAgent {
		t.Fatalf("expected role %s, got %s", models.RoleAgent, identity.Role)
	}
	if !password.Verify("agent-password", identity.Password) {
		t.Fatal("identity must hold the staged password, hashed")
	}

	// A second pass finds nothing to do
	processed, err = svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected 0 processed on second pass, got %d", processed)
	}
}

func TestProvisioningService_FailureIsTerminal(t *testing.T) {
	agentRepo := newFakeAgentRepo()
	identityRepo := newFakeIdentityRepo()
	svc := NewProvisioningService(agentRepo, identityRepo, NewFeedHub(), DefaultProvisionInterval)

	ctx := context.Background()

	// A conflicting identity already holds the email
	if err := identityRepo.Create(ctx, &models.Identity{
		Email: "taken@tripeasy.in", Password: "x", Role: models.RoleAgent, IsActive: true,
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	agent := stagedAgent("taken@tripeasy.in", "agent-password")
	if err := agentRepo.Create(ctx, agent); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	if _, err := svc.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := agentRepo.GetByID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("reload agent: %v", err)
	}
	if got.NeedsAuthAccount {
		t.Fatal("failure must still clear the flag (terminal state)")
	}
	if got.StagedPassword != nil {
		t.Fatal("failure must clear the staged password too")
	}
	if got.ProvisionError == nil {
		t.Fatal("failure must record why")
	}
	if got.AuthAccountID != nil {
		t.Fatal("failed agent must not reference an identity")
	}

	// The agent never returns to the queue automatically
	pending, err := agentRepo.ListNeedingAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}
}

// identityRepoWithStaleCheck hides existing logins from the pre-check,
// standing in for an identity created between the check and insert.
type identityRepoWithStaleCheck struct {
	*fakeIdentityRepo
}

func (r *identityRepoWithStaleCheck) ExistsByEmail(context.Context, string) (bool, error) {
	return false, nil
}

func TestProvisioningService_CreateRaceFailsCleanly(t *testing.T) {
	agentRepo := newFakeAgentRepo()
	identityRepo := &identityRepoWithStaleCheck{fakeIdentityRepo: newFakeIdentityRepo()}
	svc := NewProvisioningService(agentRepo, identityRepo, NewFeedHub(), DefaultProvisionInterval)

	ctx := context.Background()
	if err := identityRepo.Create(ctx, &models.Identity{
		Email: "taken@tripeasy.in", Password: "x", Role: models.RoleAgent, IsActive: true,
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	agent := stagedAgent("taken@tripeasy.in", "agent-password")
	if err := agentRepo.Create(ctx, agent); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	if _, err := svc.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := agentRepo.GetByID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("reload agent: %v", err)
	}
	if got.NeedsAuthAccount {
		t.Fatal("a create collision must still be terminal")
	}
	// The duplicate-key error is recorded as the same readable reason the
	// pre-check produces, not a raw storage error
	if got.ProvisionError == nil || *got.ProvisionError != errLoginEmailTaken.Error() {
		t.Fatalf("expected %q recorded, got %v", errLoginEmailTaken, got.ProvisionError)
	}
}

func TestProvisioningService_MissingStagedPassword(t *testing.T) {
	agentRepo := newFakeAgentRepo()
	identityRepo := newFakeIdentityRepo()
	svc := NewProvisioningService(agentRepo, identityRepo, NewFeedHub(), DefaultProvisionInterval)

	ctx := context.Background()
	agent := &models.Agent{
		Name: "Priya", Email: "priya@tripeasy.in", Phone: "9876512345",
		NeedsAuthAccount: true,
	}
	if err := agentRepo.Create(ctx, agent); err != nil {
		t.Fatalf("seed agent: %v", err)
	}

	if _, err := svc.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, _ := agentRepo.GetByID(ctx, agent.ID)
	if got.NeedsAuthAccount || got.ProvisionError == nil {
		t.Fatal("an agent without a staged password must fail terminally")
	}
	if _, err := identityRepo.GetByEmail(ctx, "priya@tripeasy.in"); err == nil {
		t.Fatal("no identity must be created without a staged password")
	}
}

func TestProvisioningService_ProcessesOldestFirst(t *testing.T) {
	agentRepo := newFakeAgentRepo()
	identityRepo := newFakeIdentityRepo()
	svc := NewProvisioningService(agentRepo, identityRepo, NewFeedHub(), DefaultProvisionInterval)

	ctx := context.Background()
	for _, email := range []string{"a@tripeasy.in", "b@tripeasy.in", "c@tripeasy.in"} {
		if err := agentRepo.Create(ctx, stagedAgent(email, "agent-password")); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
	}

	processed, err := svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if processed != 3 {
		t.Fatalf("expected all 3 processed in one pass, got %d", processed)
	}

	for _, email := range []string{"a@tripeasy.in", "b@tripeasy.in", "c@tripeasy.in"} {
		if _, err := identityRepo.GetByEmail(ctx, email); err != nil {
			t.Fatalf("identity for %s must exist: %v", email, err)
		}
	}
}
