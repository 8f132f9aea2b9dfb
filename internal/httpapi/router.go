// Package httpapi exposes the lifecycle operations over JSON HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"
	"workcore/internal/core"
	"workcore/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps wires the router to the service and its collaborators.
type Deps struct {
	Service *core.Service
	Tokens  *identity.Tokens
	Logger  *zap.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// RateLimit is requests per second per principal; zero disables limiting.
	RateLimit float64
	RateBurst int
	// Ready reports dependency health for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// NewRouter builds the gin engine serving the v1 API.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Service == nil {
		return nil, errors.New("httpapi: service is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("httpapi: tokens are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handler{svc: deps.Service, logger: logger}
	api := r.Group("/api/v1")
	api.Use(authenticate(deps.Tokens))
	if deps.RateLimit > 0 {
		api.Use(newRateLimiter(deps.RateLimit, deps.RateBurst).middleware())
	}

	projects := api.Group("/projects")
	projects.GET("", h.listProjects)
	projects.POST("", h.createProject)
	projects.POST("/bulk/update", h.bulkUpdateProjects)
	projects.POST("/bulk/delete", h.bulkDeleteProjects)
	projects.GET("/:id", h.getProject)
	projects.PATCH("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.PUT("/:id/status", h.updateProjectStatus)
	projects.POST("/:id/restore", h.restoreProject)
	projects.PUT("/:id/progress", h.updateProjectProgress)
	projects.POST("/:id/progress/sync", h.syncProjectProgress)
	projects.GET("/:id/members", h.listMembers)
	projects.POST("/:id/members", h.addMember)
	projects.PUT("/:id/members/:userId", h.updateMemberRole)
	projects.DELETE("/:id/members/:userId", h.removeMember)
	projects.GET("/:id/milestones", h.listMilestones)
	projects.POST("/:id/milestones", h.createMilestone)
	projects.GET("/:id/tasks", h.listTasks)
	projects.POST("/:id/tasks", h.createTask)
	projects.GET("/:id/audit", h.listAuditLog)

	milestones := api.Group("/milestones")
	milestones.POST("/bulk/delete", h.bulkDeleteMilestones)
	milestones.GET("/:id", h.getMilestone)
	milestones.PATCH("/:id", h.updateMilestone)
	milestones.DELETE("/:id", h.deleteMilestone)
	milestones.PUT("/:id/status", h.updateMilestoneStatus)
	milestones.POST("/:id/restore", h.restoreMilestone)
	milestones.PUT("/:id/deliverables/:index", h.setDeliverable)

	tasks := api.Group("/tasks")
	tasks.POST("/bulk/update", h.bulkUpdateTasks)
	tasks.POST("/bulk/delete", h.bulkDeleteTasks)
	tasks.GET("/:id", h.getTask)
	tasks.PATCH("/:id", h.updateTask)
	tasks.DELETE("/:id", h.deleteTask)
	tasks.PUT("/:id/status", h.updateTaskStatus)
	tasks.POST("/:id/restore", h.restoreTask)

	api.GET("/me/tasks", h.listMyTasks)
	return r, nil
}

type handler struct {
	svc    *core.Service
	logger *zap.Logger
}
