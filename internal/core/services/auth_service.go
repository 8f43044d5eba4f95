package services

import (
	"context"
	"errors"
	"log"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/config"
	"tripeasy/internal/pkg/jwt"
	"tripeasy/internal/pkg/password"
	"tripeasy/internal/pkg/validate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorizedRole   = errors.New("identity is not authorized for the requested role")
	ErrIdentityInactive   = errors.New("identity is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// AuthService handles sign-in, sign-out and role resolution.
// The administrator email is fixed configuration, never a stored role claim:
// role is re-derived from it (and from the agents table) on every check.
type AuthService struct {
	identityRepo     repositories.IdentityRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	agentRepo        repositories.AgentRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	identityRepo repositories.IdentityRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	agentRepo repositories.AgentRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		identityRepo:     identityRepo,
		refreshTokenRepo: refreshTokenRepo,
		agentRepo:        agentRepo,
		cfg:              cfg,
	}
}

// SignInInput represents sign-in input
type SignInInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	IntendedRole string `json:"intended_role"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Email        string        `json:"email"`
	Role         string        `json:"role"`
	Agent        *models.Agent `json:"agent,omitempty"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
}

// ResolveRole derives the role for an email address: admin iff it equals the
// configured administrator address, agent iff an agent record matches, else
// customer. Never persisted; recomputed on every call.
func (s *AuthService) ResolveRole(ctx context.Context, email string) (string, error) {
	email = validate.NormalizeEmail(email)
	if email == "" {
		return models.RoleCustomer, nil
	}
	if email == s.cfg.Admin.Email {
		return models.RoleAdmin, nil
	}

	exists, err := s.agentRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return models.RoleAgent, nil
	}
	return models.RoleCustomer, nil
}

// SignIn authenticates an identity for a specific intended role.
//
// Admin intent: credentials are verified first; a valid sign-in whose email
// is not the fixed administrator address still fails with ErrUnauthorizedRole
// and no tokens are issued.
//
// Agent intent: the agent record is looked up before any credential check; a
// missing agent fails with the same generic ErrInvalidCredentials as a bad
// password, so callers cannot probe which emails are privileged.
func (s *AuthService) SignIn(ctx context.Context, input *SignInInput) (*AuthResponse, error) {
	email := validate.NormalizeEmail(input.Email)

	var agent *models.Agent
	if input.IntendedRole == models.RoleAgent {
		found, err := s.agentRepo.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
		agent = found
	}

	identity, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !identity.IsActive {
		return nil, ErrIdentityInactive
	}

	if !password.Verify(input.Password, identity.Password) {
		return nil, ErrInvalidCredentials
	}

	role, err := s.ResolveRole(ctx, email)
	if err != nil {
		return nil, err
	}

	// The credential pair was valid but the identity does not hold the
	// requested role: reject without issuing any session.
	if input.IntendedRole == models.RoleAdmin && role != models.RoleAdmin {
		return nil, ErrUnauthorizedRole
	}
	if input.IntendedRole == models.RoleAgent && role != models.RoleAgent {
		return nil, ErrUnauthorizedRole
	}

	tokens, err := s.generateTokens(identity, role)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, identity.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Signed in: %s [%s]", identity.Email, role)

	return &AuthResponse{
		Email:        identity.Email,
		Role:         role,
		Agent:        agent,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	tokenHash := password.HashToken(refreshToken)

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	identity, err := s.identityRepo.GetByID(ctx, claims.IdentityID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !identity.IsActive {
		return nil, ErrIdentityInactive
	}

	// Token rotation: revoke the old one before issuing a replacement
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	role, err := s.ResolveRole(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(identity, role)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, identity.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for: %s", identity.Email)

	return &AuthResponse{
		Email:        identity.Email,
		Role:         role,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// SignOut revokes the refresh token
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return err
	}
	log.Printf("✅ Signed out")
	return nil
}

// SignOutAll revokes all refresh tokens for an identity
func (s *AuthService) SignOutAll(ctx context.Context, identityID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByIdentityID(ctx, identityID); err != nil {
		return err
	}
	log.Printf("✅ All sessions revoked for identity ID: %d", identityID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// AgentProfile loads the agent record attached to a signed-in agent session
func (s *AuthService) AgentProfile(ctx context.Context, email string) (*models.Agent, error) {
	return s.agentRepo.GetByEmail(ctx, validate.NormalizeEmail(email))
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(identity *models.Identity, role string) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		identity.ID,
		identity.Email,
		role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		identity.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token hash in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, identityID uint, refreshToken string) error {
	token := &models.RefreshToken{
		IdentityID: identityID,
		TokenHash:  password.HashToken(refreshToken),
		ExpiresAt:  jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}
