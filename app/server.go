package app

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/services"
	"github.com/brendontj/lol-staging/pkg/staging/sources"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type Server struct {
	worker   DataWorker
	metrics  *metrics.Recorder
	log      *logger.Logger
	router   *gin.Engine
	inputDir string
}

func NewServer(worker DataWorker, recorder *metrics.Recorder, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{worker: worker, metrics: recorder, log: log, router: gin.New()}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.initRoutes()
	return s
}

// WithInputDir lets /transform_data read local files under dir. Without it only gs:// inputs
// are accepted over HTTP.
func (s *Server) WithInputDir(dir string) *Server {
	s.inputDir = dir
	return s
}

func (s *Server) initRoutes() {
	s.router.GET("/ping", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html", []byte("pong"))
	})

	s.router.POST("/transform_data", s.transformData)
	s.router.GET("/models", s.listModels)
	s.router.GET("/export/:model", s.exportModel)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) transformData(c *gin.Context) {
	selection := selectionFromQuery(c)
	if _, err := selection.Resolve(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dry_run must be a boolean"})
			return
		}
		dryRun = v
	}

	inputs, err := sources.ConfineInputs(c.QueryArray("input"), s.inputDir)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.worker.TransformData(c.Request.Context(), services.RunRequest{
		Selection: selection,
		Inputs:    inputs,
		Metadata:  staging.RunMetadata{Source: c.Query("source")},
		DryRun:    dryRun,
	})
	if err != nil {
		s.log.Error("transform failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": staging.Models()})
}

func (s *Server) exportModel(c *gin.Context) {
	model, err := staging.ParseModel(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+string(model)+`.csv"`)
	c.Status(http.StatusOK)
	if err := s.worker.ExportModel(c.Request.Context(), model, c.Writer); err != nil {
		s.log.Error("export failed", "model", string(model), "error", err)
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
	}
}

// selectionFromQuery accepts repeated and comma separated values: ?select=a,b&select=c.
func selectionFromQuery(c *gin.Context) staging.Selection {
	return staging.Selection{
		Include: splitValues(c.QueryArray("select")),
		Exclude: splitValues(c.QueryArray("exclude")),
	}
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
