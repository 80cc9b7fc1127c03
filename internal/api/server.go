package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/heatmap/internal/heatmap"
	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/scheduler"
	"github.com/AI2HU/heatmap/internal/shared"
)

// Refresher reloads the snapshot from the record source
type Refresher interface {
	Refresh(ctx context.Context) (models.LoadReport, error)
	Filter() shared.RecordFilter
	SetFilter(ctx context.Context, filter shared.RecordFilter) (models.LoadReport, error)
}

// Pinger checks the record source
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusProvider reports the refresh schedule
type StatusProvider interface {
	Status() scheduler.Status
}

// Server serves the heat map reports over HTTP
type Server struct {
	engine     *heatmap.Engine
	refresher  Refresher
	source     Pinger
	schedule   StatusProvider
	router     *gin.Engine
	httpServer *http.Server
	corsOrigin string
	log        *logger.Logger
}

// Options wires the optional collaborators of a Server
type Options struct {
	Refresher  Refresher      // nil disables POST /reload
	Source     Pinger         // nil skips the source check in /health
	Schedule   StatusProvider // nil omits schedule status
	CORSOrigin string
}

// NewServer creates a new API server
func NewServer(engine *heatmap.Engine, opts Options) *Server {
	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	s := &Server{
		engine:     engine,
		refresher:  opts.Refresher,
		source:     opts.Source,
		schedule:   opts.Schedule,
		router:     gin.New(),
		corsOrigin: corsOrigin,
		log:        logger.Component("api"),
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(s.corsMiddleware())

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.healthCheck)
		v1.POST("/reload", s.reload)
		v1.GET("/schema", s.getSchema)

		hm := v1.Group("/heatmap")
		{
			hm.GET("/weeks", s.getWeeks)
			hm.GET("/stats", s.getWeeklyStats)
			hm.GET("/trends", s.getCategoryTrends)
			hm.GET("/matrix", s.getMatrix)
			hm.GET("/series", s.getSeries)
		}
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Run(ctx context.Context, address string) error {
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
	})
}
