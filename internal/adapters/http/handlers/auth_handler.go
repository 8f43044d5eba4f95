package handlers

import (
	"errors"
	"strings"
	"time"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/config"
	"tripeasy/internal/core/services"
	"tripeasy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// SignInRequest represents sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminSignIn handles admin dashboard sign-in
// @Summary Admin sign-in
// @Description Authenticate with the fixed administrator credential pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Sign-in credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/admin/signin [post]
func (h *AuthHandler) AdminSignIn(c *fiber.Ctx) error {
	return h.signIn(c, models.RoleAdmin)
}

// AgentSignIn handles agent dashboard sign-in
// @Summary Agent sign-in
// @Description Authenticate an agent against their provisioned login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Sign-in credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/agent/signin [post]
func (h *AuthHandler) AgentSignIn(c *fiber.Ctx) error {
	return h.signIn(c, models.RoleAgent)
}

// signIn runs the shared sign-in flow for a declared dashboard role
func (h *AuthHandler) signIn(c *fiber.Ctx, intendedRole string) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	input := &services.SignInInput{
		Email:        strings.TrimSpace(req.Email),
		Password:     req.Password,
		IntendedRole: intendedRole,
	}

	result, err := h.authService.SignIn(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, services.ErrUnauthorizedRole):
			return response.Forbidden(c, "This account is not authorized for this dashboard")
		case errors.Is(err, services.ErrIdentityInactive):
			return response.Forbidden(c, "Account is inactive")
		default:
			return response.InternalServerError(c, "Failed to sign in")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Signed in successfully", fiber.Map{
		"access_token": result.AccessToken,
		"email":        result.Email,
		"role":         result.Role,
		"agent":        result.Agent,
	})
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token and issue a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please sign in again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please sign in again")
		case errors.Is(err, services.ErrInvalidToken):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrIdentityInactive):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "Account is inactive")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"access_token": result.AccessToken,
		"email":        result.Email,
		"role":         result.Role,
	})
}

// SignOut handles sign-out
// @Summary Sign out
// @Description Revoke the refresh token and clear auth cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken != "" {
		_ = h.authService.SignOut(c.Context(), refreshToken)
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Signed out successfully", nil)
}

// SignOutAll handles sign-out from all devices
// @Summary Sign out everywhere
// @Description Revoke all refresh tokens for the identity
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/signout-all [post]
func (h *AuthHandler) SignOutAll(c *fiber.Ctx) error {
	identityID, ok := c.Locals("identityID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.SignOutAll(c.Context(), identityID); err != nil {
		return response.InternalServerError(c, "Failed to sign out from all devices")
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Signed out from all devices", nil)
}

// Me returns the current identity info with a freshly derived role
// @Summary Get current identity
// @Description Get the authenticated identity's email and current role
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	// Re-derive rather than trust the token: the agent record may have
	// been removed since the token was issued
	role, err := h.authService.ResolveRole(c.Context(), email)
	if err != nil {
		return response.InternalServerError(c, "Failed to resolve role")
	}

	data := fiber.Map{
		"email": email,
		"role":  role,
	}
	if role == models.RoleAgent {
		if agent, err := h.authService.AgentProfile(c.Context(), email); err == nil {
			data["agent"] = agent
		}
	}

	return response.Success(c, "Identity retrieved successfully", data)
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
