package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"dmt-presale-backend/internal/common/cache"
	"dmt-presale-backend/internal/common/config"
	"dmt-presale-backend/internal/common/logger"
	"dmt-presale-backend/internal/common/middleware"
	authhttp "dmt-presale-backend/internal/features/auth/delivery/http"
	authservice "dmt-presale-backend/internal/features/auth/service"
	paymenthttp "dmt-presale-backend/internal/features/payment/delivery/http"
	paymentredis "dmt-presale-backend/internal/features/payment/repository/redis"
	paymentservice "dmt-presale-backend/internal/features/payment/service"
	presalehttp "dmt-presale-backend/internal/features/presale/delivery/http"
	presaleservice "dmt-presale-backend/internal/features/presale/service"
	sessionredis "dmt-presale-backend/internal/features/session/repository/redis"
	sessionservice "dmt-presale-backend/internal/features/session/service"
	"dmt-presale-backend/internal/platform/django"
	"dmt-presale-backend/internal/platform/evm"
	"dmt-presale-backend/internal/platform/redis"
)

// @title           DMT Presale API
// @version         1.0
// @description     Gateway service for the DMT token presale: SSO sessions, fiat payment flows and on-chain purchases.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg := config.Load()

	logger.Init("dmt-presale-backend", cfg.Debug)
	log.Info().Bool("debug", cfg.Debug).Msg("Starting DMT presale backend")

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)

	djangoClient := django.NewClient(
		cfg.Django.BaseURL,
		time.Duration(cfg.Django.TimeoutSec)*time.Second,
		logger.With("django"),
	)

	chainClient, err := evm.NewClient(cfg, logger.With("evm"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to chain RPC")
	}

	sessionRepo := sessionredis.NewSessionRepository(redisClient)
	sessionSvc := sessionservice.NewSessionService(sessionRepo, djangoClient, cfg.Session.JWTSecret, logger.With("session"))
	authSvc := authservice.NewAuthService(cfg, djangoClient, logger.With("auth"))
	intentMirror := paymentredis.NewIntentMirror(redisClient)
	paymentSvc := paymentservice.NewPaymentService(djangoClient, intentMirror, logger.With("payment"))
	presaleSvc := presaleservice.NewPresaleService(djangoClient, chainClient, logger.With("presale"))

	monitor := sessionservice.NewTokenMonitor(
		sessionRepo,
		sessionSvc,
		time.Duration(cfg.Session.RefreshBufferSec)*time.Second,
		time.Duration(cfg.Session.MonitorIntervalSec)*time.Second,
		logger.With("token-monitor"),
	)
	monitor.Start()
	defer monitor.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger.With("http")))
	router.Use(middleware.ErrorHandler(logger.With("http")))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	authhttp.NewAuthHandler(authSvc, sessionSvc, cfg.FrontendBaseURL, logger.With("auth-http")).RegisterRoutes(router)
	paymenthttp.NewPaymentHandler(paymentSvc, djangoClient, cacheService, cfg.FrontendBaseURL, cfg.Session.JWTSecret, logger.With("payment-http")).RegisterRoutes(router)
	presalehttp.NewPresaleHandler(presaleSvc, cacheService, cfg.Session.JWTSecret, logger.With("presale-http")).RegisterRoutes(router)

	registerProbes(router, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func registerProbes(router *gin.Engine, redisClient *goredis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "dmt-presale-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "dmt-presale-backend",
		})
	})
}
