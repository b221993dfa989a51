// Package server exposes the snapshot store to renderers over HTTP and
// WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"MarketDash/internal/calculator"
	"MarketDash/internal/model"
	"MarketDash/internal/scheduler"
	"MarketDash/internal/store"
)

const apiBasePath = "/api"

// Refresher is the part of the scheduler the API drives.
type Refresher interface {
	RefreshNow(kind model.Kind) error
	Running() bool
	SessionID() string
}

type Server struct {
	router *gin.Engine
	store  *store.Store
	sched  Refresher
	stream *Stream
	logger *logrus.Entry
}

func NewServer(st *store.Store, sched Refresher, logger logrus.FieldLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	entry := logger.WithField("component", "server")
	s := &Server{
		router: router,
		store:  st,
		sched:  sched,
		stream: NewStream(st, entry),
		logger: entry,
	}
	s.router.Use(s.requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stream returns the WebSocket fan-out.
func (s *Server) Stream() *Stream { return s.stream }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.stream.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.healthCheck)
	s.router.GET("/ws", s.stream.Handle)

	api := s.router.Group(apiBasePath)
	{
		api.GET("/snapshot", s.getSnapshot)
		api.GET("/ready", s.getReady)
		api.GET("/stats", s.getStats)
		for _, k := range model.Kinds {
			api.GET("/"+k.String(), s.getKind(k))
		}
		api.POST("/refresh/:kind", s.refresh)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": s.sched.Running(),
		"session": s.sched.SessionID(),
		"clients": s.stream.Clients(),
		"updates": s.store.Stats(),
	})
}

func (s *Server) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) getReady(c *gin.Context) {
	received := make(map[string]bool, model.NumKinds)
	for _, k := range model.Kinds {
		received[k.String()] = s.store.HasValue(k)
	}
	c.JSON(http.StatusOK, gin.H{
		"ready":    s.store.IsReady(),
		"received": received,
	})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, calculator.Compute(s.store.Snapshot()))
}

func (s *Server) getKind(k model.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.store.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"symbol":     snap.Symbol,
			"kind":       k.String(),
			"received":   s.store.HasValue(k),
			"value":      snap.Value(k),
			"updated_at": snap.UpdatedAt,
		})
	}
}

func (s *Server) refresh(c *gin.Context) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.sched.RefreshNow(kind); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrNotRunning) {
			status = http.StatusConflict
		}
		writeError(c, status, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"kind": kind.String(), "status": "refreshing"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
			"took":   time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	}
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
