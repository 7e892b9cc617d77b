package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/config"
	"github.com/ignatzorin/proposal-workspace/internal/http/middleware"
	"github.com/ignatzorin/proposal-workspace/internal/interface/http/handler"
	"github.com/ignatzorin/proposal-workspace/internal/service"
)

type Deps struct {
	Config          *config.Config
	Log             logrus.FieldLogger
	Tokens          *service.TokenManager
	Registry        *prometheus.Registry
	ProposalHandler *handler.ProposalHandler
	HealthHandler   *handler.HealthHandler
}

func SetupRouter(deps Deps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.ErrorHandler(deps.Log))
	r.Use(middleware.CORSMiddleware(deps.Config.AllowedOrigins))

	r.GET("/health", deps.HealthHandler.Health)
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Tokens))
	api.Use(middleware.RateLimitMiddleware(deps.Config.RateLimitLimit, deps.Config.RateLimitPeriod))

	proposals := api.Group("/proposals/:kind")
	proposals.Use(middleware.KindValidator("kind"))
	{
		h := deps.ProposalHandler
		proposals.POST("/delete", h.SoftDelete)
		proposals.GET("/deleted", h.ListDeleted)
		proposals.GET("/:id", middleware.UUIDValidator("id"), h.Get)
		proposals.PATCH("/:id", middleware.UUIDValidator("id"), h.Update)
		proposals.DELETE("/:id", middleware.UUIDValidator("id"), h.Purge)
		proposals.POST("/:id/restore", middleware.UUIDValidator("id"), h.Restore)
		proposals.PUT("/:id/collaborators", middleware.UUIDValidator("id"), h.SetCollaborators)
	}

	return r
}
