package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/utils"

	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes
type HealthController struct {
	DB Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{DB: db}
}

// Root confirms the API is up
func (hc *HealthController) Root(w http.ResponseWriter, r *http.Request) {
	utils.RespondMessage(w, http.StatusOK, "E-commerce API is running")
}

// Health pings the database
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := hc.DB.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("Health check failed")
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
