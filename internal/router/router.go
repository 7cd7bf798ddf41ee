package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "docstore/internal/docs" // registers the OpenAPI description
	"docstore/internal/domain"
	"docstore/internal/handler"
	"docstore/internal/middleware"
)

// Deps holds everything the HTTP surface is built from.
type Deps struct {
	Logger         *slog.Logger
	Validator      middleware.TokenValidator
	Metrics        prometheus.Gatherer
	AllowedOrigins []string
	EnableSwagger  bool

	Health    *handler.HealthHandler
	Documents *handler.DocumentHandler
	Security  *handler.SecurityHandler
	Audits    *handler.AuditHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(d Deps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.AllowedOrigins))

	// Health checks
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}
	if d.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Protected routes - require valid JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(d.Validator))

	docs := v1.Group("/documents")
	docs.POST("", d.Documents.Create)
	docs.GET("", d.Documents.List)
	docs.GET("/:id", d.Documents.GetByID)
	docs.PATCH("/:id", d.Documents.Rename)
	docs.DELETE("/:id", d.Documents.Delete)
	docs.GET("/:id/download", d.Documents.Download)
	docs.GET("/:id/versions", d.Documents.ListVersions)
	docs.POST("/:id/versions", d.Documents.AddVersion)
	docs.POST("/:id/lock", d.Documents.Lock)
	docs.DELETE("/:id/lock", d.Documents.Unlock)
	docs.POST("/:id/archive", d.Documents.Archive)
	docs.DELETE("/:id/archive", d.Documents.Unarchive)
	docs.GET("/:id/metadata", d.Documents.ListMetadata)
	docs.PUT("/:id/metadata/:key", d.Documents.SetMetadata)
	docs.DELETE("/:id/metadata/:key", d.Documents.RemoveMetadata)
	docs.GET("/:id/access-logs", d.Documents.ListAccessLogs)
	docs.GET("/:id/audits", middleware.RequireRole(domain.RoleAdmin, domain.RoleAuditor), d.Audits.ListForDocument)

	audits := v1.Group("/audits")
	audits.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleAuditor))
	audits.GET("", d.Audits.List)
	audits.GET("/export", d.Audits.Export)

	// Business areas are readable by everyone; the caller needs them to upload.
	v1.GET("/business-areas", d.Security.ListBusinessAreas)
	v1.GET("/business-areas/:id/access", d.Security.CheckAccess)

	admin := v1.Group("")
	admin.Use(middleware.RequireRole(domain.RoleAdmin))
	admin.POST("/business-areas", d.Security.CreateBusinessArea)
	admin.PUT("/business-areas/:id", d.Security.UpdateBusinessArea)
	admin.GET("/groups", d.Security.ListGroups)
	admin.POST("/groups", d.Security.CreateGroup)
	admin.DELETE("/groups/:id", d.Security.DeleteGroup)
	admin.GET("/access-controls", d.Security.ListAccessControls)
	admin.PUT("/access-controls", d.Security.GrantAccess)
	admin.DELETE("/access-controls/:id", d.Security.RevokeAccess)

	r.NoRoute(func(c *gin.Context) {
		handler.RespondError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	return r
}
