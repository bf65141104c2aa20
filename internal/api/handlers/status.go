package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/seasonarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports on the most recent notification run
type StatusHandler struct {
	runner Runner
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(runner Runner, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		runner: runner,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Running bool               `json:"running"`
	LastRun *models.RunSummary `json:"last_run"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StatusResponse{
		Running: h.runner.Running(),
		LastRun: h.runner.LastRun(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
