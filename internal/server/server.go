// Package server is a development implementation of the remote todo
// collection, with optional latency and fault injection.
package server

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

const maxTitleLen = 1 << 10

type Options struct {
	// Latency delays every API response.
	Latency time.Duration
	// FailRate is the probability (0..1) that an API request fails with 500.
	FailRate float64
	// SpareReads exempts GET from injected failures so the list still loads.
	SpareReads bool
	Logger     *slog.Logger

	rand func() float64
}

// Server serves the collection endpoints over a store.
type Server struct {
	store  store.Store
	opts   Options
	router *gin.Engine
}

func New(st store.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.rand == nil {
		opts.rand = rand.Float64
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{store: st, opts: opts, router: router}
	router.Use(s.requestLog)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/todos", s.faults)
	{
		api.GET("", s.handleList)
		api.POST("", s.handleCreate)
		api.PATCH("/:id", s.handlePatch)
		api.DELETE("/:id", s.handleDelete)
	}
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	s.opts.Logger.Info("dev server listening", "addr", addr, "latency", s.opts.Latency, "fail_rate", s.opts.FailRate)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.opts.Logger.Info("dev server stopped")
	return nil
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	reqID := c.GetHeader("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	c.Header("X-Request-Id", reqID)
	c.Next()
	s.opts.Logger.Info("request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"request_id", reqID,
		"elapsed", time.Since(start))
}

func (s *Server) faults(c *gin.Context) {
	if s.opts.Latency > 0 {
		select {
		case <-time.After(s.opts.Latency):
		case <-c.Request.Context().Done():
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
	}
	spared := s.opts.SpareReads && c.Request.Method == http.MethodGet
	if !spared && s.opts.FailRate > 0 && s.opts.rand() < s.opts.FailRate {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) handleList(c *gin.Context) {
	uid, err := strconv.Atoi(c.Query("userId"))
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter is required"})
		return
	}
	items, err := s.store.List(c.Request.Context(), uid)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreate(c *gin.Context) {
	var in model.NewItem
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if msg := validateTitle(in.Title); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if in.UserID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	it, err := s.store.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (s *Server) handlePatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p model.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if msg := validateTitle(t); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		p.Title = &t
	}
	it, err := s.store.Patch(c.Request.Context(), id, p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.opts.Logger.Error("store failure", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func validateTitle(t string) string {
	switch {
	case t == "":
		return "title must not be empty"
	case len(t) > maxTitleLen:
		return "title is too long"
	}
	return ""
}
