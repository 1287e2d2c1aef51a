package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"stagholme/internal/delivery/http/helpers"
	"stagholme/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// OrganizerRequest is the organizer of an event in request bodies.
type OrganizerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InviteeRequest is one explicitly selected recipient.
type InviteeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EventDetailsRequest holds the calendar fields of an event.
type EventDetailsRequest struct {
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Organizer   OrganizerRequest `json:"organizer"`
}

func (d EventDetailsRequest) validate() []string {
	var errs []string
	if strings.TrimSpace(d.Summary) == "" {
		errs = append(errs, "event_details.summary is required")
	}
	if d.StartTime.IsZero() {
		errs = append(errs, "event_details.start_time is required")
	}
	if d.EndTime.IsZero() {
		errs = append(errs, "event_details.end_time is required")
	}
	if !d.StartTime.IsZero() && !d.EndTime.IsZero() && d.EndTime.Before(d.StartTime) {
		errs = append(errs, "event_details.end_time must not be before start_time")
	}
	if e := strings.TrimSpace(d.Organizer.Email); e != "" && !emailRegex.MatchString(e) {
		errs = append(errs, "event_details.organizer.email is invalid")
	}
	return errs
}

func (d EventDetailsRequest) toDomain() domain.EventDetails {
	return domain.EventDetails{
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Summary:     strings.TrimSpace(d.Summary),
		Description: d.Description,
		Location:    d.Location,
		Organizer:   domain.Organizer{Name: strings.TrimSpace(d.Organizer.Name), Email: strings.TrimSpace(d.Organizer.Email)},
	}
}

func validateInvitees(list []InviteeRequest) []string {
	var errs []string
	for i, inv := range list {
		if !emailRegex.MatchString(strings.TrimSpace(inv.Email)) {
			errs = append(errs, fmt.Sprintf("selected_recipients[%d].email is invalid", i))
		}
	}
	return errs
}

func toInvitees(list []InviteeRequest) []domain.Invitee {
	out := make([]domain.Invitee, 0, len(list))
	for _, inv := range list {
		out = append(out, domain.Invitee{Email: inv.Email, Name: inv.Name})
	}
	return out
}

// ScheduleEventRequest is the request body for POST /scheduled-events.
// An empty selected_recipients list invites every active user; scheduled_time defaults to now.
type ScheduleEventRequest struct {
	EventDetails       EventDetailsRequest `json:"event_details"`
	SelectedRecipients []InviteeRequest    `json:"selected_recipients"`
	ScheduledTime      *time.Time          `json:"scheduled_time"`
}

// Validate implements Validator.
func (s ScheduleEventRequest) Validate() []string {
	return append(s.EventDetails.validate(), validateInvitees(s.SelectedRecipients)...)
}

// SendNowRequest is the request body for POST /scheduled-events/dispatch.
type SendNowRequest struct {
	EventDetails       EventDetailsRequest `json:"event_details"`
	SelectedRecipients []InviteeRequest    `json:"selected_recipients"`
}

// Validate implements Validator.
func (s SendNowRequest) Validate() []string {
	return append(s.EventDetails.validate(), validateInvitees(s.SelectedRecipients)...)
}

// ScheduledEventSuccessResponse is the success envelope carrying one scheduled event.
type ScheduledEventSuccessResponse struct {
	Data  *domain.ScheduledEvent `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// DispatchSuccessResponse is the success envelope for immediate dispatch.
type DispatchSuccessResponse struct {
	Data  *domain.DispatchReport `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ListScheduledEventsResponse is the data payload for GET /scheduled-events.
type ListScheduledEventsResponse struct {
	Items      []*domain.ScheduledEvent `json:"items"`
	Pagination helpers.PaginationMeta   `json:"pagination"`
}

// ListScheduledEventsSuccessResponse is the success envelope for GET /scheduled-events.
type ListScheduledEventsSuccessResponse struct {
	Data  ListScheduledEventsResponse `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// TrackingSuccessResponse is the success envelope for GET /scheduled-events/{eventID}/tracking.
type TrackingSuccessResponse struct {
	Data  *domain.InvitationTracking `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

type ScheduledEventController struct {
	Logger  *slog.Logger
	Service domain.ScheduledEventService
}

func NewScheduledEventController(logger *slog.Logger, svc domain.ScheduledEventService) *ScheduledEventController {
	return &ScheduledEventController{
		Logger:  logger,
		Service: svc,
	}
}

// ScheduleEvent godoc
// @Summary Schedule an event for the invitation sweep
// @Description Stores a pending event. The recurring sweep sends invitations to the selected recipients, or to users who join after the first sweep when no recipients are selected.
// @Tags scheduled-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body ScheduleEventRequest true "Event details and recipients"
// @Success 201 {object} controllers.ScheduledEventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /scheduled-events [post]
func (c *ScheduledEventController) ScheduleEvent(w http.ResponseWriter, r *http.Request) {
	var req ScheduleEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := &domain.ScheduledEvent{
		Details:            req.EventDetails.toDomain(),
		SelectedRecipients: toInvitees(req.SelectedRecipients),
		DispatchMode:       domain.DispatchModeSweep,
	}
	if req.ScheduledTime != nil {
		event.ScheduledTime = *req.ScheduledTime
	}
	if err := c.Service.ScheduleEvent(r.Context(), event); err != nil {
		c.writeServiceError(w, r, err, "scheduled event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// SendNow godoc
// @Summary Create an event and send its invitations now
// @Description Stores an immediate-mode event and synchronously invites the selected recipients, or every active user when none are selected. The event ends completed when every send succeeded and failed otherwise. Immediate events are never swept.
// @Tags scheduled-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body SendNowRequest true "Event details and recipients"
// @Success 200 {object} controllers.DispatchSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /scheduled-events/dispatch [post]
func (c *ScheduledEventController) SendNow(w http.ResponseWriter, r *http.Request) {
	var req SendNowRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := &domain.ScheduledEvent{
		Details:            req.EventDetails.toDomain(),
		SelectedRecipients: toInvitees(req.SelectedRecipients),
	}
	report, err := c.Service.SendNow(r.Context(), event)
	if err != nil {
		c.writeServiceError(w, r, err, "scheduled event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}

// Dispatch godoc
// @Summary Send a stored immediate-mode event now
// @Tags scheduled-events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Scheduled event ID"
// @Success 200 {object} controllers.DispatchSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (sweep-mode or already dispatched)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /scheduled-events/{eventID}/dispatch [post]
func (c *ScheduledEventController) Dispatch(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	report, err := c.Service.DispatchNow(r.Context(), eventID)
	if err != nil {
		c.writeServiceError(w, r, err, "scheduled event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}

// List godoc
// @Summary List scheduled events
// @Description Newest first. Use page and page_size query params.
// @Tags scheduled-events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListScheduledEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /scheduled-events [get]
func (c *ScheduledEventController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		c.writeServiceError(w, r, err, "")
		return
	}
	if list == nil {
		list = []*domain.ScheduledEvent{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListScheduledEventsResponse{Items: list, Pagination: meta})
}

// GetByID godoc
// @Summary Get a scheduled event
// @Tags scheduled-events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Scheduled event ID"
// @Success 200 {object} controllers.ScheduledEventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /scheduled-events/{eventID} [get]
func (c *ScheduledEventController) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetByID(r.Context(), eventID)
	if err != nil {
		c.writeServiceError(w, r, err, "scheduled event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetTracking godoc
// @Summary Get the invitation tracking record of an event
// @Description Returns the sweep's last-sweep watermark and the recipients already invited.
// @Tags scheduled-events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Scheduled event ID"
// @Success 200 {object} controllers.TrackingSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /scheduled-events/{eventID}/tracking [get]
func (c *ScheduledEventController) GetTracking(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	tracking, err := c.Service.GetTracking(r.Context(), eventID)
	if err != nil {
		c.writeServiceError(w, r, err, "tracking not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tracking)
}

func (c *ScheduledEventController) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrInvalidEvent):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotDispatchable), errors.Is(err, domain.ErrInvalidTransition):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
