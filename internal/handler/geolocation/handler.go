package geolocation

import (
	"log/slog"

	"github.com/TomasB/geolocation/internal/geo"
	"github.com/gin-gonic/gin"
)

// BatchRequest represents the JSON body of a batch lookup.
type BatchRequest struct {
	IPAddresses []string `json:"ipAddresses"`
}

// Handler manages the geolocation endpoints.
type Handler struct {
	service      *geo.Service
	orchestrator *geo.Orchestrator
}

// NewHandler creates a geolocation handler.
func NewHandler(service *geo.Service, orchestrator *geo.Orchestrator) *Handler {
	return &Handler{service: service, orchestrator: orchestrator}
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/Geolocation", h.Get)
	r.POST("/Geolocation", h.Post)
}

// Get handles GET /Geolocation
func (h *Handler) Get(c *gin.Context) {
	instance := instanceOf(c)

	addr, ok := geo.Resolve(geo.SignalsFromRequest(c.Request))
	if !ok {
		slog.Info("unable to determine the remote IP address", "remote_addr", c.Request.RemoteAddr)
		write(c, geo.ClassifyNoAddress(instance))
		return
	}

	slog.Debug("geolocation request received", "ip", addr.String())
	write(c, geo.ClassifySingle(addr.String(), h.service.LookupCountry(addr), instance))
}

// Post handles POST /Geolocation
func (h *Handler) Post(c *gin.Context) {
	instance := instanceOf(c)

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Info("invalid batch request", "error", err)
		write(c, geo.ClassifyNoAddress(instance))
		return
	}
	if len(req.IPAddresses) == 0 {
		slog.Info("no IP addresses provided")
		write(c, geo.ClassifyNoAddress(instance))
		return
	}

	slog.Debug("batch request received", "count", len(req.IPAddresses))
	write(c, geo.ClassifyBatch(h.orchestrator.RunBatch(req.IPAddresses), instance))
}

func instanceOf(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}

func write(c *gin.Context, resp geo.Response) {
	if resp.IsProblem() {
		c.Header("Content-Type", geo.ProblemContentType)
	}
	c.JSON(resp.Status, resp.Body)
}
