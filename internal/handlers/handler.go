package handlers

import (
	"net/http"

	"remo_dashboard/internal/logger"
	"remo_dashboard/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be
// nil, in which case /metrics is not registered.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), h.requestLogger)
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": errMethodNotAllowed})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerProxyRoutes(router)
	h.registerDashboardRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerProxyRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/devices", h.getDevices)
		api.GET("/appliances", h.getAppliances)
		// Any: the method is checked after the token and the id.
		api.Any("/aircon/:applianceId/settings", h.setAirconSettings)
		api.POST("/signals/:signalId/send", h.sendSignal)
	}
}

func (h *Handler) registerDashboardRoutes(r *gin.Engine) {
	dash := r.Group("/dashboard")
	{
		dash.GET("/state", h.getState)
		dash.POST("/refresh", h.refresh)
		dash.GET("/interval", h.getInterval)
		dash.PUT("/interval", h.setInterval)
		// Body example: {"temp":26,"vol":"auto"}
		dash.POST("/appliances/:applianceId/settings", h.applySettings)
		dash.POST("/appliances/:applianceId/mode", h.changeMode)
		dash.POST("/signals/:signalId/send", h.fireSignal)
		dash.GET("/history", h.getHistory)
		dash.GET("/notifications", h.getNotifications)
		dash.GET("/events", h.getEvents)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": statusOK}
	if h.services.Proxy != nil {
		if state := h.services.Proxy.BreakerState(); state != "" {
			resp["vendor_circuit"] = state
		}
	}
	c.JSON(http.StatusOK, resp)
}
