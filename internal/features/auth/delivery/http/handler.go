package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/features/auth/models"
	"dmt-presale-backend/internal/features/auth/service"
	sessionservice "dmt-presale-backend/internal/features/session/service"
)

// Verifier cookie lives long enough to complete one round trip to the
// identity provider.
const pkceCookieMaxAge = 600

type AuthHandler struct {
	service         service.AuthService
	sessions        sessionservice.SessionService
	frontendBaseURL string
	logger          zerolog.Logger
}

func NewAuthHandler(svc service.AuthService, sessions sessionservice.SessionService, frontendBaseURL string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:         svc,
		sessions:        sessions,
		frontendBaseURL: frontendBaseURL,
		logger:          logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/auth/login", h.login)

	api := router.Group("/api/auth")
	{
		api.GET("/callback", h.callback)
		api.POST("/session", h.createSession)
		api.POST("/refresh", h.refresh)
		api.POST("/logout", h.logout)
	}
}

// @Summary Start SSO login
// @Description Generates PKCE material, stores the verifier in a cookie and redirects to the identity provider.
// @Tags auth
// @Success 302
// @Router /auth/login [get]
func (h *AuthHandler) login(c *gin.Context) {
	authURL, verifier, state := h.service.LoginURL()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(models.PKCECookieName, verifier, pkceCookieMaxAge, "/", "", false, true)

	h.logger.Debug().Str("state", state).Msg("Redirecting to identity provider")
	c.Redirect(http.StatusFound, authURL)
}

// @Summary OIDC callback
// @Description Exchanges the authorization code via the Django backend and redirects back to the frontend. Every outcome is a redirect; nothing escapes unredirected.
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "State nonce"
// @Param error query string false "Provider error"
// @Success 302
// @Router /api/auth/callback [get]
func (h *AuthHandler) callback(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Msg("Panic in OIDC callback")
			h.redirectLogin(c, models.ErrServerError, "")
		}
	}()

	if errParam := c.Query("error"); errParam != "" {
		h.redirectLogin(c, errParam, c.Query("error_description"))
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectLogin(c, models.ErrNoCode, "")
		return
	}

	verifier, err := c.Cookie(models.PKCECookieName)
	if err != nil || verifier == "" {
		// No verifier means the login was never initiated here. Fatal from
		// the client's perspective: retrying the callback cannot help.
		h.redirectLogin(c, models.ErrNoCodeVerifier, "")
		return
	}

	token, err := h.service.ExchangeCode(c.Request.Context(), code, c.Query("state"), verifier)
	if err != nil {
		var exErr *service.ExchangeError
		if errors.As(err, &exErr) {
			h.redirectLogin(c, exErr.Code, exErr.Description)
			return
		}
		h.redirectLogin(c, models.ErrServerError, "")
		return
	}

	// The verifier is single-use.
	c.SetCookie(models.PKCECookieName, "", -1, "/", "", false, true)

	params := url.Values{}
	params.Set("token", token)
	c.Redirect(http.StatusFound, h.frontendBaseURL+"/auth/callback?"+params.Encode())
}

// @Summary Create session
// @Description Persists an SSO session for a freshly issued token so the token monitor can keep it alive.
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.Session
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/session [post]
func (h *AuthHandler) createSession(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), input.Token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// @Summary Refresh session token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} models.Session
// @Failure 404 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/refresh [post]
func (h *AuthHandler) refresh(c *gin.Context) {
	var input struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Refresh(c.Request.Context(), input.SessionID)
	if err != nil {
		if err == sessionservice.ErrSessionNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Refresh failed, logged out"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary Log out
// @Tags auth
// @Accept json
// @Success 204
// @Router /api/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	var input struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), input.SessionID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) redirectLogin(c *gin.Context, errCode, description string) {
	params := url.Values{}
	params.Set("error", errCode)
	if description != "" {
		params.Set("error_description", description)
	}
	c.Redirect(http.StatusFound, h.frontendBaseURL+"/auth/login?"+params.Encode())
}
