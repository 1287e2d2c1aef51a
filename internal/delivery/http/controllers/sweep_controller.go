package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"stagholme/internal/delivery/http/helpers"
	"stagholme/internal/domain"
)

// SweepSuccessResponse is the success envelope for POST /sweeps.
type SweepSuccessResponse struct {
	Data  *domain.SweepReport `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type SweepController struct {
	Logger  *slog.Logger
	Trigger domain.SweepTrigger
}

func NewSweepController(logger *slog.Logger, trigger domain.SweepTrigger) *SweepController {
	return &SweepController{Logger: logger, Trigger: trigger}
}

// RunSweep godoc
// @Summary Run the invitation sweep now
// @Description Runs one sweep synchronously and returns its report. Responds 409 when a sweep is already running.
// @Tags sweeps
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SweepSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /sweeps [post]
func (c *SweepController) RunSweep(w http.ResponseWriter, r *http.Request) {
	report, ran, err := c.Trigger.Trigger(r.Context())
	if !ran {
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "a sweep is already running")
		return
	}
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "manual sweep failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the data payload for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type HealthController struct {
	DB Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{DB: db}
}

// Health godoc
// @Summary Liveness and database reachability
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Failure 503 {object} helpers.APIResponse "error.code: internal_error"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if err := c.DB.PingContext(r.Context()); err != nil {
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "database unreachable")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
