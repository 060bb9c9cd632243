// Package admin serves health, readiness, metrics and the item catalogue
// over HTTP next to the message server.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/netmsg/internal/auth"
	"github.com/danmuck/netmsg/internal/game"
	"github.com/danmuck/netmsg/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

// Status is the view of the message server the probes report on.
type Status interface {
	Ready() bool
	ConnCount() int
}

type Catalogue interface {
	Lookup(id uint16) (game.ItemType, bool)
	All() []game.ItemType
}

type Server struct {
	ID      string
	Started time.Time

	status Status
	items  Catalogue
	guard  auth.Validator
	router *gin.Engine
}

type itemView struct {
	ID        uint16 `json:"id"`
	ClientID  uint16 `json:"client_id"`
	Name      string `json:"name"`
	Stackable bool   `json:"stackable"`
	Group     string `json:"group"`
}

// New builds the admin router. A non-nil guard protects the item routes.
func New(id string, corsOrigins []string, status Status, items Catalogue, guard auth.Validator) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(id, log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:      id,
		Started: time.Now(),
		status:  status,
		items:   items,
		guard:   guard,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"node":    s.ID,
			"version": Version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.status != nil && s.status.Ready()
		conns := 0
		if s.status != nil {
			conns = s.status.ConnCount()
		}
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":       ready,
			"connections": conns,
			"node":        s.ID,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	catalogue := s.router.Group("/items")
	if s.guard != nil {
		catalogue.Use(auth.Middleware(s.guard))
	}
	catalogue.GET("", func(c *gin.Context) {
		if s.items == nil {
			c.JSON(http.StatusOK, gin.H{"items": []itemView{}})
			return
		}
		all := s.items.All()
		views := make([]itemView, 0, len(all))
		for _, it := range all {
			views = append(views, toView(it))
		}
		c.JSON(http.StatusOK, gin.H{"items": views})
	})

	catalogue.GET("/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 16)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item id must be a uint16"})
			return
		}
		if s.items == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		it, ok := s.items.Lookup(uint16(id))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusOK, toView(it))
	})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("admin.Run listening")
		errCh <- srv.ListenAndServe()
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
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func toView(it game.ItemType) itemView {
	return itemView{
		ID:        it.ID,
		ClientID:  it.ClientID,
		Name:      it.Name,
		Stackable: it.Stackable,
		Group:     it.Group.String(),
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
