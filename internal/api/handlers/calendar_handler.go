package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planwise/backend/internal/api/dto"
	"github.com/planwise/backend/internal/api/middleware"
	"github.com/planwise/backend/internal/domain/calendar"
)

// CalendarHandler handles HTTP requests for calendar events
type CalendarHandler struct {
	service calendar.Service
}

// NewCalendarHandler creates a new calendar handler instance
func NewCalendarHandler(service calendar.Service) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var validationErr *calendar.ValidationError
	var parseErr *calendar.ParseError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
	case errors.Is(err, calendar.ErrNotFound), errors.Is(err, calendar.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// ListEvents godoc
// @Summary List calendar events
// @Description List events visible to the user, optionally filtered by window, project or visibility
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param start query string false "Window start (RFC3339)" format(date-time)
// @Param end query string false "Window end (RFC3339)" format(date-time)
// @Param project_id query string false "Project filter"
// @Param visibility query string false "Visibility filter"
// @Param include_insights query bool false "Attach workload insights"
// @Param tz query string false "Timezone for insight day grouping"
// @Success 200 {object} dto.EventListResponse "List of events"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/calendar/events [get]
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	var params dto.ListEventsQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var loc *time.Location
	if params.Timezone != "" {
		parsed, err := time.LoadLocation(params.Timezone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
			return
		}
		loc = parsed
	}

	projectID, visibility, err := params.Filters()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	result, err := h.service.ListEvents(c.Request.Context(), userID, calendar.ListQuery{
		Start:           params.Start,
		End:             params.End,
		ProjectID:       projectID,
		Visibility:      visibility,
		IncludeInsights: params.IncludeInsights,
		Location:        loc,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EventListResponse{
		Events:   result.Events,
		Insights: result.Insights,
	})
}

// CreateEvent godoc
// @Summary Create a new calendar event
// @Description Create an event; a recurrence rule expands into a series created atomically
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body dto.CreateEventRequest true "Event creation information"
// @Success 201 {object} dto.EventsWithConflictsResponse "Created events with detected conflicts"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /api/calendar/events [post]
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	created, err := h.service.CreateEvent(c.Request.Context(), userID, req.ToServiceRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.EventsWithConflictsResponse{Events: created})
}

// GetEvent godoc
// @Summary Get a calendar event
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/calendar/events/{id} [get]
func (h *CalendarHandler) GetEvent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EventResponse{Event: *event})
}

// UpdateEvent godoc
// @Summary Update a calendar event
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param event body dto.UpdateEventRequest true "Fields to update"
// @Success 200 {object} dto.EventWithConflictsResponse
// @Failure 404 {object} map[string]string "Not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /api/calendar/events/{id} [put]
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	updated, err := h.service.UpdateEvent(c.Request.Context(), userID, id, req.ToServiceRequest())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EventWithConflictsResponse{
		Event:     updated.Event,
		Conflicts: updated.Conflicts,
	})
}

// RescheduleEvent godoc
// @Summary Reschedule a calendar event
// @Description Move an event to a new window; pending reminders are cancelled
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param window body dto.RescheduleEventRequest true "New window (RFC3339 timestamps)"
// @Success 200 {object} dto.EventWithConflictsResponse
// @Failure 400 {object} map[string]string "Invalid datetime"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/calendar/events/{id}/reschedule [post]
func (h *CalendarHandler) RescheduleEvent(c *gin.Context) {
	var req dto.RescheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	updated, err := h.service.RescheduleEvent(c.Request.Context(), userID, id, req.StartAt, req.EndAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EventWithConflictsResponse{
		Event:     updated.Event,
		Conflicts: updated.Conflicts,
	})
}

// DeleteEvent godoc
// @Summary Delete a calendar event
// @Description Delete an event; delete_series=true on a recurrence root removes the whole series
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param delete_series query bool false "Delete the whole series"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/calendar/events/{id} [delete]
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	deleteSeries := c.Query("delete_series") == "true"

	if err := h.service.DestroyEvent(c.Request.Context(), userID, id, deleteSeries); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportICS godoc
// @Summary Export events as ICS
// @Tags calendar
// @Produce text/calendar
// @Security BearerAuth
// @Param start query string false "Window start (RFC3339)" format(date-time)
// @Param end query string false "Window end (RFC3339)" format(date-time)
// @Success 200 {string} string "ICS document"
// @Router /api/calendar/export [get]
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	var params dto.ListEventsQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	projectID, visibility, err := params.Filters()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	filter := calendar.EventFilter{ProjectID: projectID, Visibility: visibility}
	if params.Start != "" {
		start, err := time.Parse(time.RFC3339, params.Start)
		if err != nil {
			respondError(c, calendar.NewParseError("start", params.Start))
			return
		}
		startUTC := start.UTC()
		filter.Start = &startUTC
	}
	if params.End != "" {
		end, err := time.Parse(time.RFC3339, params.End)
		if err != nil {
			respondError(c, calendar.NewParseError("end", params.End))
			return
		}
		endUTC := end.UTC()
		filter.End = &endUTC
	}

	document, err := h.service.ExportICS(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(document))
}

// ImportICS godoc
// @Summary Import events from an ICS document
// @Description Accepts raw ICS in the request body; unparseable blocks are skipped
// @Tags calendar
// @Accept text/calendar
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.ImportResultResponse "Import summary"
// @Failure 422 {object} map[string]interface{} "No events found"
// @Router /api/calendar/import [post]
func (h *CalendarHandler) ImportICS(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	result, err := h.service.ImportICS(c.Request.Context(), userID, string(raw))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ImportResultResponse{
		Imported: result.Imported,
		Events:   result.Events,
	})
}

// AddReminder godoc
// @Summary Add a reminder to an event
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param reminder body dto.CreateReminderRequest true "Reminder information"
// @Success 201 {object} dto.ReminderResponse
// @Failure 404 {object} map[string]string "Not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /api/calendar/events/{id}/reminders [post]
func (h *CalendarHandler) AddReminder(c *gin.Context) {
	var req dto.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reminder, err := h.service.AddReminder(c.Request.Context(), userID, eventID, calendar.CreateReminderRequest{
		Channel:       req.Channel,
		MinutesBefore: req.MinutesBefore,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ReminderResponse{Reminder: *reminder})
}

// UpdateReminder godoc
// @Summary Update a reminder
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Param reminder body dto.UpdateReminderRequest true "Fields to update"
// @Success 200 {object} dto.ReminderResponse
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/calendar/reminders/{id} [put]
func (h *CalendarHandler) UpdateReminder(c *gin.Context) {
	var req dto.UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reminderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reminder, err := h.service.UpdateReminder(c.Request.Context(), userID, reminderID, calendar.UpdateReminderRequest{
		Channel:       req.Channel,
		MinutesBefore: req.MinutesBefore,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReminderResponse{Reminder: *reminder})
}

// DeleteReminder godoc
// @Summary Delete a reminder
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/calendar/reminders/{id} [delete]
func (h *CalendarHandler) DeleteReminder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reminderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteReminder(c.Request.Context(), userID, reminderID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
