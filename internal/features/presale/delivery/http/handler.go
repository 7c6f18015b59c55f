package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/common/cache"
	"dmt-presale-backend/internal/common/middleware"
	"dmt-presale-backend/internal/features/presale/models"
	"dmt-presale-backend/internal/features/presale/service"
	"dmt-presale-backend/internal/platform/django"
)

const (
	presaleListCacheKey = "presale:list"
	presaleListCacheTTL = 30 * time.Second
)

type PresaleHandler struct {
	service   service.PresaleService
	cache     *cache.CacheService
	jwtSecret string
	logger    zerolog.Logger
}

func NewPresaleHandler(svc service.PresaleService, cacheService *cache.CacheService, jwtSecret string, logger zerolog.Logger) *PresaleHandler {
	return &PresaleHandler{
		service:   svc,
		cache:     cacheService,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func (h *PresaleHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/presales")
	{
		api.GET("", h.list)
		api.GET("/statistics", h.statistics)
		api.GET("/:id", h.get)
		api.GET("/:id/balance/:address", h.balance)
	}

	authed := router.Group("/api/presales")
	authed.Use(middleware.RequireAuth(h.jwtSecret))
	{
		authed.POST("/:id/purchase", h.purchase)
	}

	admin := router.Group("/api/presales")
	admin.Use(middleware.RequireAuth(h.jwtSecret), middleware.RequireAdmin())
	{
		admin.POST("", h.create)
	}
}

// @Summary List presales
// @Tags presale
// @Produce json
// @Success 200 {array} models.Presale
// @Failure 502 {object} map[string]string
// @Router /api/presales [get]
func (h *PresaleHandler) list(c *gin.Context) {
	var presales []models.Presale
	err := h.cache.GetOrSet(c.Request.Context(), presaleListCacheKey, &presales, presaleListCacheTTL, func() (interface{}, error) {
		return h.service.List(c.Request.Context())
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to fetch presales"})
		return
	}

	c.JSON(http.StatusOK, presales)
}

// @Summary Get a presale
// @Tags presale
// @Produce json
// @Param id path int true "Presale ID"
// @Success 200 {object} models.Presale
// @Failure 404 {object} map[string]string
// @Router /api/presales/{id} [get]
func (h *PresaleHandler) get(c *gin.Context) {
	id, ok := h.presaleID(c)
	if !ok {
		return
	}

	presale, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		var apiErr *django.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "presale not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to fetch presale"})
		return
	}

	c.JSON(http.StatusOK, presale)
}

// @Summary Dashboard statistics
// @Tags presale
// @Produce json
// @Router /api/presales/statistics [get]
func (h *PresaleHandler) statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to fetch statistics"})
		return
	}

	c.Data(http.StatusOK, "application/json", stats)
}

// @Summary Purchase presale tokens on-chain
// @Description Simulates the purchase from the buyer's address first; the transaction is only submitted when the simulation passes.
// @Tags presale
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Presale ID"
// @Param input body models.PurchaseInput true "Purchase amount and buyer address"
// @Success 200 {object} models.PurchaseReceipt
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} models.SimulationResult
// @Router /api/presales/{id}/purchase [post]
func (h *PresaleHandler) purchase(c *gin.Context) {
	id, ok := h.presaleID(c)
	if !ok {
		return
	}

	var input models.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, sim, err := h.service.Purchase(c.Request.Context(), id, &input)
	switch {
	case errors.Is(err, service.ErrPurchaseInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidAddress):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "purchase failed"})
		return
	}

	if !sim.Success {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, sim)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// @Summary Create a presale contract
// @Description Deploys a new presale through the factory and returns the address parsed from the creation event.
// @Tags presale
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.CreatePresaleResult
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/presales [post]
func (h *PresaleHandler) create(c *gin.Context) {
	var input models.CreatePresaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Create(c.Request.Context(), &input)
	switch {
	case errors.Is(err, models.ErrEndBeforeStart),
		errors.Is(err, models.ErrZeroPrice),
		errors.Is(err, service.ErrInvalidAddress):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("Presale creation failed")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "presale creation failed"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// @Summary Payment-token balance for a presale
// @Tags presale
// @Produce json
// @Param id path int true "Presale ID"
// @Param address path string true "Wallet address"
// @Success 200 {object} map[string]string
// @Router /api/presales/{id}/balance/{address} [get]
func (h *PresaleHandler) balance(c *gin.Context) {
	id, ok := h.presaleID(c)
	if !ok {
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), id, c.Param("address"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidAddress) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to fetch balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *PresaleHandler) presaleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid presale id"})
		return 0, false
	}
	return id, true
}
