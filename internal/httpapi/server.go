// SPDX-License-Identifier: EPL-2.0

// Package httpapi is the HTTP control surface of a running audmgr engine.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ik5/audmgr/dispatch"
	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/mixer"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Controller is the dispatcher as seen through its event loop.
// *dispatch.Loop implements it.
type Controller interface {
	Play(ctx context.Context, id profile.ID, anchor pool.Anchor) error
	StopAll(ctx context.Context) (int, error)
	StopProfile(ctx context.Context, id profile.ID) (int, error)
	StopAnchor(ctx context.Context, anchor pool.Anchor) (int, error)
	StopProfileOn(ctx context.Context, id profile.ID, anchor pool.Anchor) (int, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Status(ctx context.Context) (dispatch.Status, error)
}

// Profiles lists and resolves catalog entries. *catalog.Catalog
// implements it.
type Profiles interface {
	IDs() []profile.ID
	Resolve(profile.ID) (*profile.Profile, error)
}

// AnchorFunc maps an anchor name from a request to the anchor it stands
// for. Returning nil rejects the name.
type AnchorFunc func(name string) pool.Anchor

// EmitterFunc returns the positioned emitter called name, creating it if
// needed. Only PUT /anchors/:name calls it.
type EmitterFunc func(name string) *mixer.Emitter

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = logging.Module(l, "http") }
}

// WithAnchors sets the lookup for anchor names. It must not create
// anchors.
func WithAnchors(fn AnchorFunc) Option {
	return func(s *Server) { s.anchors = fn }
}

// WithEmitters lets PUT /anchors/:name place emitters that do not exist
// yet.
func WithEmitters(fn EmitterFunc) Option {
	return func(s *Server) { s.emitters = fn }
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

type Server struct {
	echo     *echo.Echo
	ctl      Controller
	profiles Profiles
	anchors  AnchorFunc
	emitters EmitterFunc
	gatherer prometheus.Gatherer
	log      *slog.Logger
}

func New(ctl Controller, profiles Profiles, opts ...Option) *Server {
	s := &Server{
		echo:     echo.New(),
		ctl:      ctl,
		profiles: profiles,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/profiles", s.listProfiles)
	s.echo.GET("/profiles/:id", s.getProfile)
	s.echo.POST("/play/:id", s.play)
	s.echo.POST("/stop", s.stop)
	s.echo.POST("/pause", s.pause)
	s.echo.POST("/resume", s.resume)
	s.echo.GET("/status", s.status)
	s.echo.PUT("/anchors/:name", s.moveAnchor)

	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			s.log.LogAttrs(c.Request().Context(), slog.LevelDebug, "request", attrs...)
			return nil
		},
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- s.echo.Start(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
