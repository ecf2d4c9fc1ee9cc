package httpserver

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// Server exposes the local query history over HTTP.
type Server struct {
	addr      string
	history   model.HistoryAPI
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a history API server. An empty addr binds 127.0.0.1:3077.
func NewServer(addr string, history model.HistoryAPI) *Server {
	if addr == "" {
		addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(model.DefaultAPIPort))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		history: history,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/history", s.handleList)
	r.DELETE("/api/history", s.handleClear)
	r.DELETE("/api/history/:id", s.handleRemove)
	r.POST("/api/history/:id/favorite", s.handleToggleFavorite)
	return r
}

// Listen binds the listener without serving.
func (s *Server) Listen() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()
	return nil
}

// Serve handles requests on the bound listener until Stop. It returns nil
// after a graceful stop.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("httpserver: Serve called before Listen")
	}
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start binds and serves in the background.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	go func() {
		if err := s.Serve(); err != nil {
			log.Printf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptime":        time.Since(s.startTime).String(),
		"history_count": len(s.history.List()),
	})
}

func (s *Server) handleList(c *gin.Context) {
	entries := s.history.List()
	if fav, _ := strconv.ParseBool(c.Query("favorites")); fav {
		entries = s.history.Favorites()
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"history": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleRemove(c *gin.Context) {
	id, ok := s.entryID(c)
	if !ok {
		return
	}
	if err := s.history.Remove(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove history entry"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleToggleFavorite(c *gin.Context) {
	id, ok := s.entryID(c)
	if !ok {
		return
	}
	if err := s.history.ToggleFavorite(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update history entry"})
		return
	}
	entry, _ := s.history.Get(id)
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleClear(c *gin.Context) {
	if confirm, _ := strconv.ParseBool(c.Query("confirm")); !confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clearing history requires confirm=true"})
		return
	}
	if err := s.history.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}
	c.Status(http.StatusNoContent)
}

// entryID parses :id and checks that it exists, writing the error response
// itself when it does not.
func (s *Server) entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid history id"})
		return 0, false
	}
	if _, ok := s.history.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "history entry not found"})
		return 0, false
	}
	return id, true
}
