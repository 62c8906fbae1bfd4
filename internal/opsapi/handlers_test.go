package opsapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"leadsync/internal/auth"
	"leadsync/internal/booking"
	"leadsync/internal/calls"
	"leadsync/internal/config"
)

func newTestManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func newTestRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/auth/login", h.Login)
	r.GET("/v1/calls/:call_id", h.GetCall)
	r.POST("/v1/sync-requests", h.EnqueueSync)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesPair(t *testing.T) {
	h := Handlers{
		Auth: newTestManager(t),
		Ops:  config.OpsConfig{Username: "ops", Password: "hunter2"},
	}
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", `{"username":"ops","password":"hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["access_token"] == "" || out["refresh_token"] == "" {
		t.Fatalf("missing tokens in response: %v", out)
	}

	claims, err := h.Auth.Verify(out["access_token"], auth.TokenTypeAccess, time.Now())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Role != auth.RoleOperator {
		t.Fatalf("role = %q, want operator", claims.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := Handlers{
		Auth: newTestManager(t),
		Ops:  config.OpsConfig{Username: "ops", Password: "hunter2"},
	}
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", `{"username":"ops","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginDisabledWhenUnconfigured(t *testing.T) {
	h := Handlers{Auth: newTestManager(t)}
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", `{"username":"ops","password":"x"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestGetCall(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["call_1"] = calls.CallRecord{CallID: "call_1", CallStatus: calls.CallStatusEnded}

	h := Handlers{Records: repo}
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodGet, "/v1/calls/call_1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/v1/calls/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestEnqueueSync(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Records["ended"] = calls.CallRecord{CallID: "ended", CallStatus: calls.CallStatusEnded}
	repo.Records["live"] = calls.CallRecord{CallID: "live", CallStatus: calls.CallStatusOngoing}
	queue := booking.NewMemoryQueueRepo()

	h := Handlers{Records: repo, Queue: queue}
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/v1/sync-requests", `{"call_id":"ended"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body %s", w.Code, w.Body.String())
	}

	// Non-ended calls are rejected before touching the queue.
	w = doJSON(t, r, http.MethodPost, "/v1/sync-requests", `{"call_id":"live"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/v1/sync-requests", `{"call_id":"missing"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
