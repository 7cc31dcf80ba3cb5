package http

import (
	"context"
	"net/http"
	"time"

	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// handleLivez reports process liveness. It touches nothing.
func (router *Router) handleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: router.Version})
}

// handleReadyz reports readiness to serve, which for this service
// means the store answers a ping.
func (router *Router) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := router.Store.Ping(ctx); err != nil {
		slogx.FromContext(r.Context()).Warn("readiness check failed", "error", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: router.Version})
}
