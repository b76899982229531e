// Package statusapi serves health, readiness and session state for a running
// client over HTTP.
package statusapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/client"
	"github.com/danmuck/worldlink/internal/observability"
)

const nodeName = "worldlink"

// StatusSource reports the live session.
type StatusSource interface {
	Status() client.Status
}

type Server struct {
	Addr    string
	Started time.Time

	source StatusSource
	router *gin.Engine
	http   *http.Server
}

func New(addr string, source StatusSource, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(nodeName))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:    addr,
		Started: time.Now(),
		source:  source,
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
			"status": "ok",
			"uptime": time.Since(s.Started).String(),
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		st := s.source.Status()
		ready := st.State == client.StateConnected
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready": ready,
			"state": st.State.String(),
		})
	})

	s.router.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, sessionView(s.source.Status()))
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SessionView is the JSON shape of GET /session.
type SessionView struct {
	State       string `json:"state"`
	LocalID     string `json:"localId"`
	IDConfirmed bool   `json:"idConfirmed"`
	Players     int    `json:"players"`
	NPCs        int    `json:"npcs"`
	Error       string `json:"error,omitempty"`
}

func sessionView(st client.Status) SessionView {
	v := SessionView{
		State:       st.State.String(),
		LocalID:     st.LocalID,
		IDConfirmed: st.IDConfirmed,
		Players:     st.Players,
		NPCs:        st.NPCs,
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	return v
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("status api listening")
		errCh <- s.http.ListenAndServe()
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
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
