package api

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gw2tools/gw2-session-tracker/internal/api/handlers"
	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

// Deps carries everything the router hands to the handlers.
type Deps struct {
	AppCtx     context.Context
	Tracker    *services.SessionTracker
	Refresher  *services.PriceRefresher
	Catalog    *services.ItemCatalog
	Prices     *services.PriceService
	Valuer     *services.Valuer
	Snapshots  *services.SnapshotStore
	GW2        *services.GW2Service
	Currencies *services.CurrencyCatalog
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	sessionHandler := handlers.NewSessionHandler(deps.AppCtx, deps.Tracker)
	valuesHandler := handlers.NewValuesHandler(deps.Tracker, deps.Snapshots)
	itemHandler := handlers.NewItemHandler(deps.Catalog, deps.Prices, deps.Valuer, deps.GW2, deps.Currencies)
	priceHandler := handlers.NewPriceHandler(deps.AppCtx, deps.Refresher)

	api := router.Group("/api")
	{
		session := api.Group("/session")
		{
			session.GET("", sessionHandler.GetSession)
			session.POST("/start", sessionHandler.StartSession)
			session.POST("/reset", sessionHandler.ResetSession)
		}

		api.GET("/values", valuesHandler.GetValues)
		api.GET("/snapshots/:name", valuesHandler.GetSnapshot)

		api.GET("/items/:id", itemHandler.GetItem)
		api.GET("/inventory/expensive", itemHandler.GetExpensiveInventory)
		api.GET("/wallet", itemHandler.GetWallet)

		prices := api.Group("/prices")
		{
			prices.GET("/status", priceHandler.GetRefreshStatus)
			prices.POST("/refresh", priceHandler.ForceRefresh)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
