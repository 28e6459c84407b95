package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/migration"
	"partner-portal-backend/internal/notes"
	"partner-portal-backend/internal/reviews"
	"partner-portal-backend/internal/shared/config"
	"partner-portal-backend/internal/shared/metrics"
	"partner-portal-backend/internal/shared/server/middleware"
	"partner-portal-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts. Construction happens in
// bootstrap; the router only declares the route table.
type RouterDeps struct {
	Config            config.Config
	DraftHandler      *drafts.Handler
	SubmissionHandler *applications.Handler
	MigrationHandler  *migration.Handler
	ReviewHandler     *reviews.Handler
	NoteHandler       *notes.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	// Partner-facing surface, gated per-request by invitation code.
	deps.DraftHandler.RegisterRoutes(api)
	deps.SubmissionHandler.RegisterRoutes(api)
	deps.MigrationHandler.RegisterRoutes(api)

	// Back-office surface.
	admin := api.Group("")
	admin.Use(middleware.AdminKey(deps.Config.AdminAPIKey, deps.Config.Env))
	deps.ReviewHandler.RegisterRoutes(admin)
	deps.NoteHandler.RegisterRoutes(admin)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
