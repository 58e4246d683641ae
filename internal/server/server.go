package server

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/client/daraja"
	"github.com/dukahub/duka-api/internal/client/salesapi"
	"github.com/dukahub/duka-api/internal/handlers"
	"github.com/dukahub/duka-api/internal/helpers"
	"github.com/dukahub/duka-api/internal/logger"
	"github.com/dukahub/duka-api/internal/services"
)

// Handler Definitions
var (
	healthHandler   *handlers.HealthHandler
	checkoutHandler *handlers.CheckoutHandler

	// Services
	commonServices *handlers.CommonServices
)

func InitializeHandlers() {
	// Load environment variables from .env file for local development
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err) // Use basic log before logger init
	}

	// --- Determine and Validate Stage ---
	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = helpers.StageLocal
		log.Printf("Warning: STAGE environment variable not set, defaulting to '%s'", stage)
	}
	if !helpers.IsValidStage(stage) {
		log.Fatalf("Invalid STAGE environment variable: '%s'. Must be one of: %s, %s, %s",
			stage, helpers.StageProd, helpers.StageDev, helpers.StageLocal)
	}

	// --- Initialize Logger (AFTER stage validation) ---
	logger.InitLogger(stage)
	logger.Info("Initializing handlers for stage", zap.String("stage", stage))

	// --- Payment Gateway Client ---
	gatewayBaseURL := os.Getenv("DARAJA_BASE_URL")
	if gatewayBaseURL == "" {
		logger.Fatal("Missing required environment variable DARAJA_BASE_URL")
	}
	gatewayClient := daraja.NewDarajaClient(gatewayBaseURL, os.Getenv("DARAJA_API_KEY"))

	// --- Sales Backend Client ---
	salesBaseURL := os.Getenv("SALES_API_BASE_URL")
	if salesBaseURL == "" {
		logger.Fatal("Missing required environment variable SALES_API_BASE_URL")
	}
	salesClient := salesapi.NewSalesClient(salesBaseURL, os.Getenv("SALES_API_KEY"))

	// --- Checkout Service Wiring ---
	storeName := os.Getenv("STORE_NAME")
	if storeName == "" {
		storeName = "DukaHub POS"
	}

	ledger := services.NewPriceLedger()
	receipts := services.NewReceiptService(os.Stdout, storeName)
	checkoutService := services.NewCheckoutService(
		ledger,
		gatewayClient,
		salesClient,
		receipts,
		pollerConfigFromEnv(),
	)

	commonServices = handlers.NewCommonServices(checkoutService, logger.Log)

	healthHandler = handlers.NewHealthHandler()
	checkoutHandler = handlers.NewCheckoutHandler(commonServices, logger.Log)

	logger.Info("Handlers initialized successfully")
}

// pollerConfigFromEnv builds the payment polling configuration, falling back
// to the service defaults when the overrides are unset or malformed.
func pollerConfigFromEnv() services.PollerConfig {
	config := services.PollerConfig{
		PollInterval:   services.DefaultPollInterval,
		ConfirmTimeout: services.DefaultConfirmTimeout,
	}

	if raw := os.Getenv("PAYMENT_POLL_INTERVAL_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			config.PollInterval = time.Duration(seconds) * time.Second
		} else {
			logger.Warn("Ignoring invalid PAYMENT_POLL_INTERVAL_SECONDS", zap.String("value", raw))
		}
	}
	if raw := os.Getenv("PAYMENT_CONFIRM_TIMEOUT_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			config.ConfirmTimeout = time.Duration(seconds) * time.Second
		} else {
			logger.Warn("Ignoring invalid PAYMENT_CONFIRM_TIMEOUT_SECONDS", zap.String("value", raw))
		}
	}
	return config
}

func InitializeRoutes(router *gin.Engine) {
	router.Use(configureCORS())

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/v1")
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", checkoutHandler.GetCart)
			cart.POST("/items", checkoutHandler.AddItem)
			cart.PUT("/items/:productId", checkoutHandler.SetQuantity)
			cart.DELETE("/items/:productId", checkoutHandler.RemoveItem)
			cart.PUT("/discount", checkoutHandler.ApplyDiscount)
			cart.DELETE("", checkoutHandler.ClearCart)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.POST("/complete", checkoutHandler.CompleteSale)
			checkout.GET("/payment", checkoutHandler.GetPaymentAttempt)
			checkout.DELETE("/payment", checkoutHandler.CancelPayment)
		}
	}
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"}
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
