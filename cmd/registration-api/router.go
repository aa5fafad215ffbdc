package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-registration-api/api/swagger"
	"github.com/noah-isme/course-registration-api/internal/handler"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/requestid"
)

type routerDeps struct {
	tokens      middleware.TokenValidator
	identity    middleware.ActorResolver
	metrics     *service.MetricsService
	cart        *handler.CartHandler
	enrollments *handler.EnrollmentHandler
	records     *handler.AcademicRecordHandler
	settings    *handler.SettingsHandler
	probes      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.probes.Health)
	r.GET("/ready", deps.probes.Ready)
	r.GET("/metrics", deps.probes.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens, deps.identity))

	cart := api.Group("/cart", middleware.RequireStudent())
	cart.GET("", deps.cart.View)
	cart.POST("/items", deps.cart.AddItem)
	cart.DELETE("/items/:id", deps.cart.RemoveItem)
	cart.GET("/checkout/validate", deps.cart.ValidateCheckout)
	cart.POST("/checkout", deps.cart.Checkout)

	api.GET("/enrollments/me", middleware.RequireStudent(), deps.enrollments.ListMine)
	api.POST("/enrollments/:id/drop", deps.enrollments.Drop)
	api.PUT("/enrollments/:id/grade", middleware.RequireRoles(append(admin, models.RoleInstructor)...), deps.enrollments.UpdateGrade)

	me := api.Group("/students/me", middleware.RequireStudent())
	me.GET("/transcript", deps.records.MyTranscript)
	me.GET("/transcript/export", deps.records.ExportMyTranscript)
	me.POST("/gpa/simulate", deps.records.SimulateGPA)
	api.GET("/students/:id/transcript", middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), middleware.RoleSelf), deps.records.StudentTranscript)

	adminGroup := api.Group("/admin", middleware.RequireRoles(admin...))
	adminGroup.GET("/enrollments", deps.enrollments.List)
	adminGroup.POST("/enrollments", deps.enrollments.ForceEnroll)
	adminGroup.POST("/enrollments/:id/approve", deps.enrollments.Approve)
	adminGroup.POST("/enrollments/:id/decline", deps.enrollments.Decline)
	adminGroup.DELETE("/enrollments/:id", deps.enrollments.Delete)
	adminGroup.POST("/students/:id/gpa/recalculate", deps.records.RecalculateGPA)
	adminGroup.GET("/registration-settings", deps.settings.Get)
	adminGroup.PUT("/registration-settings", deps.settings.Update)

	return r
}
