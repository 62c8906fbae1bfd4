package main

import (
	"leadsync/internal/auth"
	"leadsync/internal/opsapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h opsapi.Handlers, m *auth.Manager) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	v1.POST("/auth/login", h.Login)

	// Read endpoints: any authenticated role.
	read := v1.Group("/")
	read.Use(auth.RequireAccessToken(m))
	read.Use(auth.RequireRole(auth.RoleViewer, auth.RoleOperator))
	{
		// Identity echo, useful when debugging token scopes.
		read.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})
		read.GET("/runs", h.LatestRuns)
		read.GET("/calls/:call_id", h.GetCall)
	}

	// Mutating endpoints: operator only.
	ops := v1.Group("/")
	ops.Use(auth.RequireAccessToken(m))
	ops.Use(auth.RequireRole(auth.RoleOperator))
	{
		ops.POST("/runs/ingestion", h.TriggerIngestion)
		ops.POST("/runs/enrichment", h.TriggerEnrichment)
		ops.POST("/runs/booking-sync", h.TriggerBookingSync)
		ops.POST("/sync-requests", h.EnqueueSync)
	}
}
