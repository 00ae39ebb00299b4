package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"remo_dashboard"
	"remo_dashboard/internal/remo"
	"remo_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errNoToken          = "No REMO_TOKEN"
	errInternal         = "Internal Server Error"
	errMethodNotAllowed = "Method Not Allowed"
	errInvalidBody      = "Invalid request body"

	errFetchDevices    = "Failed to fetch devices"
	errFetchAppliances = "Failed to fetch appliances"
	errSetAircon       = "Failed to set aircon settings"
	errSendSignal      = "Failed to send signal"

	contentTypeJSON = "application/json; charset=utf-8"
)

// writeProxyError maps proxy failures onto the responses the browser client
// expects: vendor statuses pass through with a generic message.
func (h *Handler) writeProxyError(c *gin.Context, err error, upstreamMsg, logKey string, kv ...interface{}) {
	var (
		verr *service.ValidationError
		uerr *remo.UpstreamError
	)
	switch {
	case errors.Is(err, service.ErrMissingToken):
		h.logAndJSONError(c, http.StatusInternalServerError, errNoToken, logKey, err, kv...)
	case errors.As(err, &verr):
		c.JSON(verr.Status, gin.H{"error": verr.Message})
	case errors.As(err, &uerr):
		h.logAndJSONError(c, uerr.Status, upstreamMsg, logKey, err, append(kv, "status", uerr.Status)...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

// @Summary      List devices
// @Description  Vendor device list, passed through unchanged
// @Tags         proxy
// @Produce      json
// @Success      200  {array}   remo_dashboard.Device
// @Failure      500  {object}  map[string]string
// @Router       /api/devices [get]
func (h *Handler) getDevices(c *gin.Context) {
	body, err := h.services.Proxy.Devices(c.Request.Context())
	if err != nil {
		h.writeProxyError(c, err, errFetchDevices, "proxy_devices_failed")
		return
	}
	c.Data(http.StatusOK, contentTypeJSON, body)
}

// @Summary      List appliances
// @Description  Vendor appliance list, passed through unchanged
// @Tags         proxy
// @Produce      json
// @Success      200  {array}   remo_dashboard.Appliance
// @Failure      500  {object}  map[string]string
// @Router       /api/appliances [get]
func (h *Handler) getAppliances(c *gin.Context) {
	body, err := h.services.Proxy.Appliances(c.Request.Context())
	if err != nil {
		h.writeProxyError(c, err, errFetchAppliances, "proxy_appliances_failed")
		return
	}
	c.Data(http.StatusOK, contentTypeJSON, body)
}

// @Summary      Update aircon settings
// @Description  Only the fields present in the body are forwarded. temp may be a number or a string.
// @Tags         proxy
// @Accept       json
// @Produce      json
// @Param        applianceId  path  string  true  "Appliance id"
// @Param        body         body  remo_dashboard.AirconSettingsRequest  false  "Settings"
// @Success      200  {object}  remo_dashboard.AirconSettings
// @Failure      400  {object}  map[string]string
// @Failure      405  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/aircon/{applianceId}/settings [post]
func (h *Handler) setAirconSettings(c *gin.Context) {
	id := c.Param("applianceId")
	if err := h.services.Proxy.CheckApplianceID(id); err != nil {
		h.writeProxyError(c, err, errSetAircon, "proxy_aircon_failed")
		return
	}
	if c.Request.Method != http.MethodPost {
		h.writeProxyError(c, service.MethodNotAllowed(), errSetAircon, "proxy_aircon_failed")
		return
	}
	var req remo_dashboard.AirconSettingsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	body, err := h.services.Proxy.SetAirconSettings(c.Request.Context(), id, req)
	if err != nil {
		h.writeProxyError(c, err, errSetAircon, "proxy_aircon_failed", "appliance_id", id)
		return
	}
	c.Data(http.StatusOK, contentTypeJSON, body)
}

// @Summary      Send signal
// @Tags         proxy
// @Produce      json
// @Param        signalId  path  string  true  "Signal id"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/signals/{signalId}/send [post]
func (h *Handler) sendSignal(c *gin.Context) {
	id := c.Param("signalId")
	if err := h.services.Proxy.SendSignal(c.Request.Context(), id); err != nil {
		h.writeProxyError(c, err, errSendSignal, "proxy_signal_failed", "signal_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// bindOptionalJSON decodes the body into dst; an empty body leaves dst as is.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
