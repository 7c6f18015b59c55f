package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/common/cache"
	"dmt-presale-backend/internal/common/middleware"
	"dmt-presale-backend/internal/features/payment/models"
	"dmt-presale-backend/internal/features/payment/service"
)

const (
	localeCookieName    = "NEXT_LOCALE"
	authTokenCookieName = "auth_token"
	assetPricesCacheKey = "payment:asset_prices"
	assetPricesCacheTTL = 30 * time.Second
)

type PaymentHandler struct {
	service         service.PaymentService
	api             service.PlatformAPI
	cache           *cache.CacheService
	frontendBaseURL string
	jwtSecret       string
	logger          zerolog.Logger
}

func NewPaymentHandler(svc service.PaymentService, api service.PlatformAPI, cacheService *cache.CacheService, frontendBaseURL, jwtSecret string, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:         svc,
		api:             api,
		cache:           cacheService,
		frontendBaseURL: frontendBaseURL,
		jwtSecret:       jwtSecret,
		logger:          logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/payment")
	{
		api.GET("/callback", h.callback)
		api.GET("/asset-prices", h.assetPrices)
	}

	authed := router.Group("/api/payment")
	authed.Use(middleware.RequireAuth(h.jwtSecret))
	{
		authed.POST("/initiate", h.initiate)
		authed.POST("/charge-wallet", h.chargeWallet)
		authed.POST("/calculate-tax", h.calculateTax)
		authed.POST("/calculate-tokens", h.calculateTokens)
		authed.GET("/user-balance", h.userBalance)
	}
}

// @Summary Payment gateway callback
// @Description Terminates the gateway redirect: optionally auto-purchases tokens, updates the intent best-effort and always redirects the browser to a result page.
// @Tags payment
// @Param success query string false "Gateway success flag (1/0)"
// @Param track_id query string false "Gateway tracking ID"
// @Success 302
// @Router /api/payment/callback [get]
func (h *PaymentHandler) callback(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Msg("Panic in payment callback")
			locale, _ := c.Cookie(localeCookieName)
			c.Redirect(http.StatusFound, h.pageURL(locale, models.PageError, nil))
		}
	}()

	locale, _ := c.Cookie(localeCookieName)
	cookieToken, _ := c.Cookie(authTokenCookieName)

	redirect := h.service.HandleGatewayCallback(
		c.Request.Context(),
		c.Query("success"),
		c.Query("track_id"),
		c.Query("auth_token"),
		cookieToken,
	)

	c.Redirect(http.StatusFound, h.pageURL(locale, redirect.Page, redirect.Params))
}

// @Summary Initiate a gateway payment
// @Description Creates a purchase intent in the platform API and returns the gateway URL to send the browser to.
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.InitiateResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/payment/initiate [post]
func (h *PaymentHandler) initiate(c *gin.Context) {
	var input models.InitiateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), middleware.AuthToken(c), &input)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to create payment intent"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Charge fiat wallet
// @Tags payment
// @Security BearerAuth
// @Router /api/payment/charge-wallet [post]
func (h *PaymentHandler) chargeWallet(c *gin.Context) {
	h.proxyPost(c, h.api.ChargeWallet)
}

// @Summary Calculate purchase tax
// @Tags payment
// @Security BearerAuth
// @Router /api/payment/calculate-tax [post]
func (h *PaymentHandler) calculateTax(c *gin.Context) {
	h.proxyPost(c, h.api.CalculateTax)
}

// @Summary Convert fiat amount to token quote
// @Tags payment
// @Security BearerAuth
// @Router /api/payment/calculate-tokens [post]
func (h *PaymentHandler) calculateTokens(c *gin.Context) {
	h.proxyPost(c, h.api.CalculateTokens)
}

// @Summary Current asset prices
// @Tags payment
// @Router /api/payment/asset-prices [get]
func (h *PaymentHandler) assetPrices(c *gin.Context) {
	var prices json.RawMessage
	err := h.cache.GetOrSet(c.Request.Context(), assetPricesCacheKey, &prices, assetPricesCacheTTL, func() (interface{}, error) {
		return h.api.AssetPrices(c.Request.Context())
	})
	if err != nil && err != redis.Nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to fetch asset prices"})
		return
	}

	c.Data(http.StatusOK, "application/json", prices)
}

// @Summary Fiat wallet balance
// @Tags payment
// @Security BearerAuth
// @Router /api/payment/user-balance [get]
func (h *PaymentHandler) userBalance(c *gin.Context) {
	balance, err := h.api.UserBalance(c.Request.Context(), middleware.AuthToken(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to fetch balance"})
		return
	}

	c.Data(http.StatusOK, "application/json", balance)
}

type proxyCall func(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error)

func (h *PaymentHandler) proxyPost(c *gin.Context, call proxyCall) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	resp, err := call(c.Request.Context(), middleware.AuthToken(c), body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream call failed"})
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

// pageURL builds the frontend redirect target, honoring the locale prefix
// the frontend router expects.
func (h *PaymentHandler) pageURL(locale, page string, params map[string]string) string {
	base := h.frontendBaseURL
	if locale != "" {
		base += "/" + strings.Trim(locale, "/")
	}

	var path string
	switch page {
	case models.PageHome:
		path = "/"
	default:
		path = "/payment/" + page
	}

	target := base + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}
	return target
}
