package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"advent/internal/metrics"
	"advent/internal/models"
	"advent/internal/services"
	"advent/internal/storage"
)

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service *services.AdventService
	metrics *metrics.Metrics
	limiter *RateLimiter
}

// NewHTTPHandler creates a new HTTPHandler. m may be nil. A spinRate of zero
// or less disables rate limiting.
func NewHTTPHandler(service *services.AdventService, m *metrics.Metrics, spinRate float64) *HTTPHandler {
	h := &HTTPHandler{service: service, metrics: m}
	if spinRate > 0 {
		h.limiter = NewRateLimiter(spinRate, burstFor(spinRate))
	}
	return h
}

func burstFor(r float64) int {
	if b := int(r * 2); b > 1 {
		return b
	}
	return 1
}

// NewRouter builds a gin engine with the middleware chain and all routes.
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger())
	if h.metrics != nil {
		r.Use(Metrics(h.metrics))
	}
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Healthz)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	api.GET("/spin", h.CheckDay)
	api.GET("/days", h.ListDays)
	api.GET("/history", h.ListHistory)
	api.GET("/history/export", h.ExportHistoryCSV)
	api.GET("/prizes", h.ListPrizes)

	mutating := api.Group("")
	if h.limiter != nil {
		mutating.Use(h.limiter.Middleware())
	}
	mutating.POST("/spin", h.Spin)
	mutating.POST("/prizes", h.AddPrize)
	mutating.POST("/prizes/import", h.UploadPrizesCSV)
	mutating.DELETE("/prizes", h.RemovePrize)
	mutating.DELETE("/prizes/:id", h.RemovePrize)
}

// Healthz reports liveness.
func (h *HTTPHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CheckDay handles GET /api/spin?day=N.
func (h *HTTPHandler) CheckDay(c *gin.Context) {
	raw := c.Query("day")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Day parameter required"})
		return
	}
	day, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, services.ErrInvalidDay)
		return
	}

	a, err := h.service.CheckAvailability(c.Request.Context(), day, h.service.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type spinRequest struct {
	Day  int  `json:"day"`
	Demo bool `json:"demo"`
}

// Spin handles POST /api/spin.
func (h *HTTPHandler) Spin(c *gin.Context) {
	var req spinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, services.ErrInvalidDay)
		return
	}

	res, err := h.service.Spin(c.Request.Context(), req.Day, h.service.Now(), req.Demo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListDays handles GET /api/days.
func (h *HTTPHandler) ListDays(c *gin.Context) {
	days, err := h.service.Days(c.Request.Context(), h.service.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// ListHistory handles GET /api/history.
func (h *HTTPHandler) ListHistory(c *gin.Context) {
	report, err := h.service.History(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListPrizes handles GET /api/prizes[?available=true].
func (h *HTTPHandler) ListPrizes(c *gin.Context) {
	availableOnly, _ := strconv.ParseBool(c.Query("available"))

	prizes, st, err := h.service.Prizes(c.Request.Context(), availableOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	if availableOnly {
		c.JSON(http.StatusOK, gin.H{"prizes": prizes, "count": len(prizes)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prizes": prizes, "stats": st})
}

// AddPrize handles POST /api/prizes.
func (h *HTTPHandler) AddPrize(c *gin.Context) {
	var spec models.PrizeSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	p, err := h.service.AddPrize(c.Request.Context(), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"prize": p})
}

// RemovePrize handles DELETE /api/prizes?id=N and DELETE /api/prizes/:id.
func (h *HTTPHandler) RemovePrize(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prize ID required"})
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize ID"})
		return
	}

	if err := h.service.RemovePrize(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	logger.Infof("Removed prize %d", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// writeError maps service and storage errors onto status codes. Anything
// unrecognised is logged and reported as a bare 500.
func writeError(c *gin.Context, err error) {
	var (
		closed *services.GateClosedError
		played *services.AlreadyPlayedError
	)
	switch {
	case errors.Is(err, services.ErrInvalidDay):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid day (must be 1-24)"})
	case errors.As(err, &closed):
		c.JSON(http.StatusForbidden, gin.H{
			"error":      closed.Error(),
			"reason":     closed.Error(),
			"reasonCode": string(closed.Decision.Reason),
		})
	case errors.As(err, &played):
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Day already played",
			"alreadyPlayed": true,
			"prize":         played.Entry.Prize,
			"wonAt":         played.Entry.AwardedAt,
		})
	case errors.Is(err, services.ErrEmptyPool):
		c.JSON(http.StatusGone, gin.H{"error": "No prizes available"})
	case errors.Is(err, storage.ErrInvalidPrize):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Prize already won"})
	case errors.Is(err, storage.ErrAlreadyWon):
		c.JSON(http.StatusConflict, gin.H{"error": "Prize was taken by another spin, please try again"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
