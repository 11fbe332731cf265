package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-manager/internal/api/handlers"
	"recipe-manager/internal/api/middleware"
	"recipe-manager/internal/core/ingredient"
	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"
)

// SetupRouter wires middleware, handlers, and routes.
func SetupRouter(cfg *config.Config, ingredientSvc *ingredient.Service, recipeSvc *recipe.Service) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	router.GET("/health", handlers.HealthCheck(cfg))
	router.GET("/ready", handlers.ReadinessCheck)
	router.GET("/live", handlers.LivenessCheck)

	ingredientHandler := handlers.NewIngredientHandler(ingredientSvc)
	recipeHandler := handlers.NewRecipeHandler(recipeSvc)

	api := router.Group("/api/v1")
	{
		ingredients := api.Group("/ingredients")
		{
			ingredients.POST("", ingredientHandler.Create)
			ingredients.GET("", ingredientHandler.GetAll)
			ingredients.GET("/:id", ingredientHandler.GetByID)
			ingredients.PUT("/:id", ingredientHandler.Update)
			ingredients.DELETE("/:id", ingredientHandler.Delete)
		}

		recipes := api.Group("/recipes")
		{
			recipes.POST("", recipeHandler.Create)
			recipes.GET("", recipeHandler.GetAll)
			recipes.GET("/:id", recipeHandler.GetByID)
			recipes.PUT("/:id", recipeHandler.Update)
			recipes.DELETE("/:id", recipeHandler.Delete)

			recipes.POST("/:id/ingredients", recipeHandler.AddIngredient)
			recipes.PUT("/:id/ingredients/:ingredient_id", recipeHandler.UpdateIngredientAmount)
			recipes.DELETE("/:id/ingredients/:ingredient_id", recipeHandler.RemoveIngredient)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
