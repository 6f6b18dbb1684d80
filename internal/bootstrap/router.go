package bootstrap

import (
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpapi "github.com/atlas-collective/portal-backend/internal/api/http"
	"github.com/atlas-collective/portal-backend/internal/api/http/middleware"
	"github.com/atlas-collective/portal-backend/internal/attention"
	"github.com/atlas-collective/portal-backend/internal/audit"
	"github.com/atlas-collective/portal-backend/internal/auth"
	"github.com/atlas-collective/portal-backend/internal/notifications"
	projecthttp "github.com/atlas-collective/portal-backend/internal/projects/http"
	"github.com/atlas-collective/portal-backend/internal/projects/repository"
	"github.com/atlas-collective/portal-backend/internal/projects/service"
	"github.com/atlas-collective/portal-backend/internal/promotion"
	"github.com/atlas-collective/portal-backend/internal/sweep"
	"github.com/atlas-collective/portal-backend/internal/trends"
	"github.com/atlas-collective/portal-backend/internal/users"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

type RouterDeps struct {
	ServiceName string
	Version     string

	DB    *pgxpool.Pool
	Redis *redis.Client

	// Nil in development; requests then authenticate via X-User-Id.
	FirebaseAuth *fbauth.Client

	// Shared with the cron scheduler; drives the on-demand trigger.
	Sweeper *sweep.Reconciler

	AllowedOrigins         []string
	AttentionSourceTimeout time.Duration
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.AllowedOrigins) == 1 && dep.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = dep.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-User-Id", "X-Request-Id")
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	wfCfg := workflow.DefaultConfig()

	userRepo := users.NewRepo(dep.DB)
	projectRepo := repository.NewProjectRepository(dep.DB, wfCfg)
	collabRepo := repository.NewCollaboratorRepository(dep.DB)
	notifRepo := notifications.NewRepo(dep.DB)
	auditRepo := audit.NewRepo(dep.DB)
	refRepo := promotion.NewRefRepository(dep.DB)
	trendRepo := trends.NewRepo(dep.Redis)

	dispatcher := notifications.NewDispatcher(notifRepo)
	projectSvc := service.NewProjectService(projectRepo, collabRepo, userRepo, dispatcher, auditRepo, wfCfg)
	promoter := promotion.NewCoordinator(projectRepo, collabRepo, refRepo, userRepo, dispatcher, auditRepo, wfCfg)
	trendSvc := trends.NewService(trendRepo, projectRepo, refRepo, wfCfg)
	aggregator := attention.NewAggregator(trendRepo, projectRepo, refRepo, dep.AttentionSourceTimeout)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())
	api.Use(middleware.RateLimitMiddleware(rate.Limit(50), 100))

	if dep.FirebaseAuth != nil {
		api.Use(auth.WithFirebaseUser(dep.FirebaseAuth, userRepo))
	} else {
		api.Use(auth.WithDevUser(userRepo))
	}

	projecthttp.Register(api.Group("/projects"), projectSvc, promoter)
	attention.Register(api.Group("/attention"), aggregator)
	notifications.Register(api.Group("/notifications"), notifRepo)
	trends.Register(api.Group("/trends"), trendRepo, trendSvc)
	if dep.Sweeper != nil {
		sweep.Register(api.Group("/sweep"), dep.Sweeper)
	}

	return r
}
