// Package opsapi exposes the worker's operational HTTP surface: health,
// manual triggers, queue re-enqueue and record lookup. The pipelines never
// depend on it.
package opsapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadsync/internal/auth"
	"leadsync/internal/calls"
	"leadsync/internal/config"
	"leadsync/internal/runner"
	"leadsync/pkg/logger"
)

// Enqueuer re-arms a manual sync request as pending.
type Enqueuer interface {
	Enqueue(ctx context.Context, callID string) error
}

type Handlers struct {
	Auth    *auth.Manager
	Ops     config.OpsConfig
	Runner  *runner.Runner
	Records calls.Repository
	Queue   Enqueuer
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues a token pair for the configured ops user.
func (h Handlers) Login(c *gin.Context) {
	if h.Ops.Username == "" || h.Ops.Password == "" {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "ops login not configured"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Ops.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.Ops.Password)) == 1
	if !userOK || !passOK {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), req.Username, auth.RoleOperator)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// TriggerIngestion runs one ingestion pass and returns its summary.
func (h Handlers) TriggerIngestion(c *gin.Context) {
	sum, err := h.Runner.RunIngestion(c.Request.Context())
	if err != nil {
		abortRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) TriggerEnrichment(c *gin.Context) {
	sum, err := h.Runner.RunEnrichment(c.Request.Context())
	if err != nil {
		abortRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) TriggerBookingSync(c *gin.Context) {
	sum, err := h.Runner.RunBookingSync(c.Request.Context())
	if err != nil {
		abortRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// LatestRuns reports the most recent summary per job.
func (h Handlers) LatestRuns(c *gin.Context) {
	ingest, enrich, syncRun := h.Runner.Latest()
	c.JSON(http.StatusOK, gin.H{
		"ingestion":    ingest,
		"enrichment":   enrich,
		"booking_sync": syncRun,
	})
}

// GetCall returns one stored call record.
func (h Handlers) GetCall(c *gin.Context) {
	rec, err := h.Records.Get(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type enqueueRequest struct {
	CallID string `json:"call_id" binding:"required"`
}

// EnqueueSync creates or re-arms a manual sync request. The record must
// exist and be ended; the engine would reject anything else anyway.
func (h Handlers) EnqueueSync(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id is required"})
		return
	}

	rec, err := h.Records.Get(c.Request.Context(), req.CallID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if rec.CallStatus != calls.CallStatusEnded {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call is not ended"})
		return
	}

	if err := h.Queue.Enqueue(c.Request.Context(), req.CallID); err != nil {
		logger.FromGin(c).Error("sync enqueue failed", "call_id", req.CallID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}

	actor, _ := auth.UserID(c.Request.Context())
	logger.FromGin(c).Info("sync request enqueued", "call_id", req.CallID, "actor", actor)
	c.JSON(http.StatusAccepted, gin.H{"call_id": req.CallID, "status": "pending"})
}

func abortRunError(c *gin.Context, err error) {
	if errors.Is(err, runner.ErrAlreadyRunning) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "run already in progress"})
		return
	}
	logger.FromGin(c).Error("triggered run failed", "err", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
