package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface. Scraper processes POST batches to the
// internal ingest route; everything else serves the map frontend.
func SetupRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/cities", handler.GetCities)
		api.GET("/districts/stats", handler.GetDistrictStats)
		api.GET("/districts/history", handler.GetDistrictHistory)
		api.GET("/districts/viewport", handler.GetDistrictsInViewport)
		api.GET("/listings", handler.GetListings)
		api.GET("/summary", handler.GetCitySummary)

		internal := api.Group("/internal")
		{
			internal.POST("/listings", handler.IngestListings)
		}
	}

	return router
}
