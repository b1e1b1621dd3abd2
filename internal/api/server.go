// Package api exposes an optional HTTP status/control surface over
// pkg/service's registry: service status, start/stop, and the pipeline's
// diagnostic string, grounded on the ssungk-SOL internal/api server/handler
// shape.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lmshao/remote-desk/pkg/media"
	"github.com/lmshao/remote-desk/pkg/service"
)

// Server is the gin-backed control/status HTTP surface.
type Server struct {
	router   *gin.Engine
	port     int
	manager  *service.Manager
	pipeline *media.Pipeline
	log      *zap.Logger
	sessionID string
}

// NewServer wires a Server DI'd with the service manager it reports on and
// the pipeline it exposes diagnostics for.
func NewServer(port int, manager *service.Manager, pipeline *media.Pipeline, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:    router,
		port:      port,
		manager:   manager,
		pipeline:  pipeline,
		log:       log,
		sessionID: uuid.NewString(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.statusHandler)
		v1.GET("/services", s.servicesHandler)
		v1.GET("/services/:name", s.serviceStatusHandler)
		v1.POST("/services/:name/start", s.startServiceHandler)
		v1.POST("/services/:name/stop", s.stopServiceHandler)
	}
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start launches the HTTP listener in the background. Non-blocking, mirrors
// the teacher's Server.Start.
func (s *Server) Start() error {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		if err := s.router.Run(addr); err != nil {
			s.log.Error("api server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop is a no-op: gin's default engine has no graceful listener handle in
// this wiring. Present to satisfy service.Service; shutdown happens with the
// process.
func (s *Server) Stop() {}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

type statusResponse struct {
	SessionID string `json:"session_id"`
	Pipeline  string `json:"pipeline"`
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		SessionID: s.sessionID,
		Pipeline:  s.pipeline.PipelineInfo(),
	})
}

type servicesResponse struct {
	Services []string `json:"services"`
	Count    int      `json:"count"`
}

// servicesHandler implements get_all_services/get_service_count as one
// listing call.
func (s *Server) servicesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, servicesResponse{
		Services: s.manager.GetAllServices(),
		Count:    s.manager.GetServiceCount(),
	})
}

type serviceStatusResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) serviceStatusHandler(c *gin.Context) {
	name := c.Param("name")
	status, found := s.manager.Status(name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown service"})
		return
	}
	c.JSON(http.StatusOK, serviceStatusResponse{Name: name, Status: status.String()})
}

func (s *Server) startServiceHandler(c *gin.Context) {
	name := c.Param("name")
	if err := s.manager.StartService(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) stopServiceHandler(c *gin.Context) {
	name := c.Param("name")
	if err := s.manager.StopService(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
