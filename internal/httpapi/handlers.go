// SPDX-License-Identifier: EPL-2.0

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/ik5/audmgr/dispatch"
	"github.com/ik5/audmgr/mixer"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/profile"
	"github.com/labstack/echo/v4"
)

type ProfileSummary struct {
	ID      profile.ID       `json:"id"`
	Group   profile.Group    `json:"group"`
	Configs int              `json:"configs"`
	Clips   []profile.ClipID `json:"clips"`
	Spatial bool             `json:"spatial"`
}

func summarize(p *profile.Profile) ProfileSummary {
	return ProfileSummary{
		ID:      p.ID,
		Group:   p.Group,
		Configs: len(p.Configs),
		Clips:   p.Clips(),
		Spatial: p.Spatial != nil,
	}
}

type StopResult struct {
	Stopped int `json:"stopped"`
}

type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// httpError maps dispatcher errors onto status codes.
func httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, dispatch.ErrProfileNotFound):
		code = http.StatusNotFound
	case errors.Is(err, dispatch.ErrPoolExhausted), errors.Is(err, dispatch.ErrLoopStopped):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = http.StatusGatewayTimeout
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

func (s *Server) listProfiles(c echo.Context) error {
	ids := s.profiles.IDs()
	out := make([]ProfileSummary, 0, len(ids))
	for _, id := range ids {
		p, err := s.profiles.Resolve(id)
		if err != nil {
			// removed by a reload since IDs was taken
			continue
		}
		out = append(out, summarize(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getProfile(c echo.Context) error {
	p, err := s.profiles.Resolve(profile.ID(c.Param("id")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summarize(p))
}

// anchor resolves the "anchor" query parameter. An absent parameter is the
// ambient owner.
func (s *Server) anchor(c echo.Context) (pool.Anchor, error) {
	name := c.QueryParam("anchor")
	if name == "" {
		return nil, nil
	}
	if s.anchors != nil {
		if a := s.anchors(name); a != nil {
			return a, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusBadRequest, "unknown anchor "+name)
}

func (s *Server) play(c echo.Context) error {
	a, err := s.anchor(c)
	if err != nil {
		return err
	}
	id := profile.ID(c.Param("id"))
	if err := s.ctl.Play(c.Request().Context(), id, a); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

// stop halts by profile, by anchor, by both, or everything when neither
// is given.
func (s *Server) stop(c echo.Context) error {
	a, err := s.anchor(c)
	if err != nil {
		return err
	}
	id := profile.ID(c.QueryParam("profile"))
	ctx := c.Request().Context()

	var n int
	switch {
	case id != "" && a != nil:
		n, err = s.ctl.StopProfileOn(ctx, id, a)
	case id != "":
		n, err = s.ctl.StopProfile(ctx, id)
	case a != nil:
		n, err = s.ctl.StopAnchor(ctx, a)
	default:
		n, err = s.ctl.StopAll(ctx)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, StopResult{Stopped: n})
}

func (s *Server) pause(c echo.Context) error {
	if err := s.ctl.Pause(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return s.status(c)
}

func (s *Server) resume(c echo.Context) error {
	if err := s.ctl.Resume(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return s.status(c)
}

func (s *Server) status(c echo.Context) error {
	st, err := s.ctl.Status(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type movable interface {
	SetPosition(mixer.Vec3)
}

// moveAnchor positions an existing anchor, or places a new emitter when
// an EmitterFunc is configured.
func (s *Server) moveAnchor(c echo.Context) error {
	name := c.Param("name")
	var a pool.Anchor
	if s.anchors != nil {
		a = s.anchors(name)
	}
	m, ok := a.(movable)
	create := a == nil && s.emitters != nil
	if !ok && !create {
		return echo.NewHTTPError(http.StatusNotFound, "no positioned anchor "+name)
	}

	var p Position
	if err := c.Bind(&p); err != nil {
		return err
	}

	status := http.StatusNoContent
	if create {
		m = s.emitters(name)
		status = http.StatusCreated
	}
	m.SetPosition(mixer.Vec3{X: p.X, Y: p.Y, Z: p.Z})
	return c.NoContent(status)
}
