package handler

import (
	"net/http"

	"catalogadmin/pkg/logger"
	"catalogadmin/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "catalog-service"

// SetupRoutes настраивает все маршруты Catalog Service с использованием Gin
func SetupRoutes(catalogHandler *CatalogHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	// CORS для админки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	products := router.Group("/products")
	products.Use(authMiddleware.Authenticate())
	{
		products.GET("", catalogHandler.ListProducts)
		products.GET("/create", catalogHandler.CreateForm) // статический сегмент важнее /:id
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/edit", catalogHandler.EditForm)

		// Изменения только для manager и admin
		writers := authMiddleware.RequireRole("manager", "admin")
		products.POST("", writers, catalogHandler.CreateProduct)
		products.PUT("/:id", writers, catalogHandler.UpdateProduct)
		products.PATCH("/:id", writers, catalogHandler.UpdateProduct)
		products.DELETE("/:id", authMiddleware.RequireRole("admin"), catalogHandler.DeleteProduct)
	}

	return router
}
