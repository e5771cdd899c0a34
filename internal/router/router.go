package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/service"
)

// Services bundles everything the routes need.
type Services struct {
	Auth    service.IAuthService
	Users   service.IUserService
	Recipes service.IRecipeService
	Catalog service.ICatalogService
}

// Setup configures the application routes.
func Setup(cfg *config.Config, logger *zap.Logger, svcs Services) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	api.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Media.Backend == "local" {
		router.Static(cfg.Media.BaseURL, cfg.Media.LocalDir)
	}

	v1 := router.Group("/api/v1")
	{
		api.NewAuthHandler(svcs.Auth).RegisterRoutes(v1)
		api.NewUserHandler(svcs.Users, svcs.Auth).RegisterRoutes(v1)
		api.NewTagHandler(svcs.Catalog, svcs.Auth).RegisterRoutes(v1)
		api.NewIngredientHandler(svcs.Catalog).RegisterRoutes(v1)
		api.NewRecipeHandler(svcs.Recipes, svcs.Users, svcs.Auth).RegisterRoutes(v1)
	}

	return router
}
