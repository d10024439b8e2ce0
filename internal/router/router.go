package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/TomaX04/Voz-del-Caser-o/internal/handler"
	"github.com/TomaX04/Voz-del-Caser-o/internal/middleware"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/internal/service"
)

// Dependencies carries everything the routes need.
type Dependencies struct {
	APIPrefix  string
	EnableDocs bool
	Logger     *zap.Logger

	Reports  *service.ReportService
	Exports  *service.ExportService
	Sessions *service.SessionService
	Metrics  *service.MetricsService
}

// RegisterRoutes mounts the API and observability endpoints on r.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	reportHandler := handler.NewReportHandler(deps.Reports, deps.Exports)
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Reports)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.Use(middleware.OptionalJWT(deps.Sessions))
	{
		api.POST("/session", sessionHandler.Start)
		api.GET("/session", sessionHandler.Current)

		api.GET("/reports", reportHandler.List)
		api.GET("/reports/counts", reportHandler.Counts)
		api.GET("/reports/export", reportHandler.Export)
		api.GET("/reports/:id", reportHandler.Get)
		api.POST("/reports", middleware.Audit(deps.Logger, "create", "report"), reportHandler.Create)
		api.POST("/reports/:id/comments", middleware.Audit(deps.Logger, "comment", "report"), reportHandler.AddComment)
		api.POST("/reports/:id/votes", middleware.Audit(deps.Logger, "vote", "report"), reportHandler.Vote)
	}

	moderation := api.Group("")
	moderation.Use(middleware.JWT(deps.Sessions), middleware.RequireRoles(models.RoleModerator, models.RoleAdmin))
	{
		moderation.POST("/reports/:id/status", middleware.Audit(deps.Logger, "status", "report"), reportHandler.ChangeStatus)
	}
}
