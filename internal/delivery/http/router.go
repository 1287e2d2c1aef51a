package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"stagholme/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// requireAuth guards every admin route; /health and /swagger/ are public.
func NewRouter(
	eventController *controllers.ScheduledEventController,
	sweepController *controllers.SweepController,
	healthController *controllers.HealthController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Scheduled events
	mux.HandleFunc("POST /scheduled-events", requireAuth(eventController.ScheduleEvent))
	mux.HandleFunc("GET /scheduled-events", requireAuth(eventController.List))
	mux.HandleFunc("POST /scheduled-events/dispatch", requireAuth(eventController.SendNow))
	mux.HandleFunc("GET /scheduled-events/{eventID}", requireAuth(eventController.GetByID))
	mux.HandleFunc("GET /scheduled-events/{eventID}/tracking", requireAuth(eventController.GetTracking))
	mux.HandleFunc("POST /scheduled-events/{eventID}/dispatch", requireAuth(eventController.Dispatch))

	// Sweeps
	mux.HandleFunc("POST /sweeps", requireAuth(sweepController.RunSweep))

	mux.HandleFunc("GET /health", healthController.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
