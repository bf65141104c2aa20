package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/seasonarr/internal/controllers"
	"github.com/amaumene/seasonarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Runner triggers notification runs and reports on them
type Runner interface {
	RunOnce(ctx context.Context) error
	Running() bool
	LastRun() *models.RunSummary
}

// TriggerHandler starts a notification run on demand
type TriggerHandler struct {
	runner Runner
	logger *logrus.Logger
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(runner Runner, logger *logrus.Logger) *TriggerHandler {
	return &TriggerHandler{
		runner: runner,
		logger: logger,
	}
}

// ServeHTTP handles the manual run endpoint. The run executes in the
// background; the response only acknowledges that it started.
func (h *TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.runner.Running() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "a run is already in progress"})
		return
	}

	h.logger.Info("Notification run triggered over HTTP")

	go func() {
		err := h.runner.RunOnce(context.Background())
		if err != nil && !errors.Is(err, controllers.ErrRunInProgress) {
			h.logger.WithError(err).Error("Triggered notification run failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
