package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"remo_dashboard/internal/models"
	"remo_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// Accepted layouts for the from/to query parameters. A bare date in 'to'
// covers the whole day.
var eventTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly}

// @Summary      Dashboard activity
// @Description  Recent commands, command failures, poll errors and interval changes, newest first
// @Tags         dashboard
// @Produce      json
// @Param        target  query   string  false  "Appliance or signal id"  example(ac-1)
// @Param        type    query   string  false  "Event type"  Enums(POLL_ERROR,AIRCON_SETTINGS,SIGNAL_SENT,COMMAND_FAILED,INTERVAL_CHANGED)
// @Param        from    query   string  false  "RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'"  example(2025-08-01)
// @Param        to      query   string  false  "Same layouts; a bare date means end of that day"  example(2025-08-31)
// @Param        limit   query   int     false  "Page size, 1-500 (default 50)"
// @Success      200     {object}  map[string]interface{}  "count, events"
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /dashboard/events [get]
func (h *Handler) getEvents(c *gin.Context) {
	q := models.EventQuery{
		Type:   c.Query("type"),
		Target: c.Query("target"),
	}
	var err error
	if q.From, err = parseEventTime(c.Query("from"), false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from': " + err.Error()})
		return
	}
	if q.To, err = parseEventTime(c.Query("to"), true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to': " + err.Error()})
		return
	}
	if s := c.Query("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidLimit.Error()})
			return
		}
	}

	events, err := h.services.EventLog.List(c.Request.Context(), q)
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrUnknownEventType),
		errors.Is(err, service.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load events", "events_list_failed", err,
			"target", q.Target, "type", q.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseEventTime returns the zero time for an empty s. With endOfDay set, a
// bare date is moved to the last instant of that day.
func parseEventTime(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range eventTimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if endOfDay && layout == time.DateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("use RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'")
}
