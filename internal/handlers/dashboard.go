package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"remo_dashboard"
	"remo_dashboard/internal/dashboard"

	"github.com/gin-gonic/gin"
)

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// ChangeModeRequest is an exported model for Swagger docs of the mode payload.
type ChangeModeRequest struct {
	// Operation mode, one of the appliance's supported modes
	Mode string `json:"mode" example:"cool"`
}

// IntervalRequest is the polling interval payload. seconds may be a number
// or a numeric string.
type IntervalRequest struct {
	Seconds json.Number `json:"seconds" swaggertype:"number" example:"60"`
	// Required for intervals under 30 seconds
	Confirm bool `json:"confirm" example:"false"`
}

// dashboardStatus maps dashboard errors to HTTP statuses. Anything
// unrecognised is a backend failure.
func dashboardStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInvalidInterval),
		errors.Is(err, dashboard.ErrUnknownMode),
		errors.Is(err, dashboard.ErrNotAircon):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrApplianceNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrPollerStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) writeDashboardError(c *gin.Context, err error, backendMsg, logKey string, kv ...interface{}) {
	status := dashboardStatus(err)
	if status == http.StatusBadGateway {
		h.logAndJSONError(c, status, backendMsg, logKey, err, kv...)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func partialSettings(r remo_dashboard.AirconSettingsRequest) dashboard.PartialSettings {
	opt := func(p *string) dashboard.Optional[string] {
		if p == nil {
			return dashboard.Optional[string]{}
		}
		return dashboard.Some(*p)
	}
	return dashboard.PartialSettings{
		Mode:   opt(r.Mode),
		Temp:   opt(r.Temp),
		Vol:    opt(r.Vol),
		Dir:    opt(r.Dir),
		Button: opt(r.Button),
	}
}

// @Summary      Dashboard state
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboard.Snapshot
// @Router       /dashboard/state [get]
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Dashboard.Snapshot())
}

// @Summary      Refresh now
// @Description  Fetches appliances and devices immediately without moving the polling schedule
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboard.Snapshot
// @Failure      502  {object}  map[string]interface{}  "error, state"
// @Router       /dashboard/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	if err := h.services.Dashboard.RefreshNow(c.Request.Context()); err != nil {
		if h.log != nil {
			h.log.Errorw("dashboard_refresh_failed", "err", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error": dashboard.MsgFetchFailed,
			"state": h.services.Dashboard.Snapshot(),
		})
		return
	}
	c.JSON(http.StatusOK, h.services.Dashboard.Snapshot())
}

// @Summary      Polling interval
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]number
// @Router       /dashboard/interval [get]
func (h *Handler) getInterval(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seconds": h.services.Dashboard.Interval().Seconds()})
}

// @Summary      Set polling interval
// @Description  Intervals under 30 seconds need confirm=true, otherwise 409 with a warning
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body  IntervalRequest  true  "Interval payload"
// @Success      200  {object}  map[string]number
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "error, seconds"
// @Router       /dashboard/interval [put]
func (h *Handler) setInterval(c *gin.Context) {
	var req IntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.ErrInvalidInterval.Error()})
		return
	}
	value, err := req.Seconds.Float64()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.ErrInvalidInterval.Error()})
		return
	}
	interval, err := h.services.Dashboard.SetPollingInterval(c.Request.Context(), value, req.Confirm)
	if err != nil {
		status := dashboardStatus(err)
		if status == http.StatusBadGateway {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error":   err.Error(),
			"seconds": h.services.Dashboard.Interval().Seconds(),
		})
		return
	}
	if h.log != nil {
		h.log.Infow("dashboard_interval_changed", "seconds", interval.Seconds())
	}
	c.JSON(http.StatusOK, gin.H{"seconds": interval.Seconds()})
}

// @Summary      Change aircon settings
// @Description  Missing fields keep their current value; button defaults to empty
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        applianceId  path  string  true  "Appliance id"
// @Param        body         body  remo_dashboard.AirconSettingsRequest  true  "Partial settings"
// @Success      200  {object}  map[string]interface{}  "settings, state"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /dashboard/appliances/{applianceId}/settings [post]
func (h *Handler) applySettings(c *gin.Context) {
	id := c.Param("applianceId")
	var req remo_dashboard.AirconSettingsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	merged, err := h.services.Dashboard.ApplySettings(c.Request.Context(), id, partialSettings(req))
	if err != nil {
		h.writeDashboardError(c, err, dashboard.MsgAirconFailed, "dashboard_apply_settings_failed", "appliance_id", id, "patch", req.String())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings": merged,
		"state":    h.services.Dashboard.Snapshot(),
	})
}

// @Summary      Change aircon mode
// @Description  Uses the first temp, vol and dir the mode allows
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        applianceId  path  string  true  "Appliance id"
// @Param        body         body  ChangeModeRequest  true  "Mode payload"
// @Success      200  {object}  map[string]interface{}  "settings, state"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /dashboard/appliances/{applianceId}/mode [post]
func (h *Handler) changeMode(c *gin.Context) {
	id := c.Param("applianceId")
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	merged, err := h.services.Dashboard.ChangeMode(c.Request.Context(), id, req.Mode)
	if err != nil {
		h.writeDashboardError(c, err, dashboard.MsgAirconFailed, "dashboard_change_mode_failed", "appliance_id", id, "mode", req.Mode)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings": merged,
		"state":    h.services.Dashboard.Snapshot(),
	})
}

// @Summary      Fire light signal
// @Tags         dashboard
// @Produce      json
// @Param        signalId  path  string  true  "Signal id"
// @Success      200  {object}  map[string]interface{}  "success, state"
// @Failure      502  {object}  map[string]string
// @Router       /dashboard/signals/{signalId}/send [post]
func (h *Handler) fireSignal(c *gin.Context) {
	id := c.Param("signalId")
	if err := h.services.Dashboard.FireSignal(c.Request.Context(), id); err != nil {
		h.writeDashboardError(c, err, dashboard.MsgSignalFailed, "dashboard_fire_signal_failed", "signal_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   h.services.Dashboard.Snapshot(),
	})
}

// @Summary      Sensor history
// @Description  Last 10 complete samples, oldest first
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, history"
// @Router       /dashboard/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	history := h.services.Dashboard.History()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(history),
		"history": history,
	})
}

// @Summary      Notifications
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, notifications"
// @Router       /dashboard/notifications [get]
func (h *Handler) getNotifications(c *gin.Context) {
	ns := h.services.Dashboard.Notifications()
	c.JSON(http.StatusOK, gin.H{
		"count":         len(ns),
		"notifications": ns,
	})
}
