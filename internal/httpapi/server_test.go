// SPDX-License-Identifier: EPL-2.0

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ik5/audmgr/catalog"
	"github.com/ik5/audmgr/dispatch"
	"github.com/ik5/audmgr/metrics"
	"github.com/ik5/audmgr/mixer"
	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/pool/pooltest"
	"github.com/ik5/audmgr/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	srv     *Server
	backend *pooltest.Backend
	pool    *pool.Pool
	torch   *mixer.Emitter
	anchors map[string]pool.Anchor
}

func newStack(t *testing.T, capacity int) *stack {
	t.Helper()

	cat, err := catalog.New(
		&profile.Profile{ID: "door", Group: "sfx", Configs: []profile.PlaybackConfig{
			profile.NewPlaybackConfig("door.wav"),
		}},
		&profile.Profile{ID: "steps", Group: "sfx", Configs: []profile.PlaybackConfig{
			profile.NewPlaybackConfig("step_a.wav"),
			profile.NewPlaybackConfig("step_b.wav"),
		}},
	)
	require.NoError(t, err)

	backend := pooltest.NewBackend()
	p, err := pool.New(backend, pool.Config{Capacity: capacity, Policy: pool.PolicyReject})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry, p)
	require.NoError(t, err)

	loop := dispatch.NewLoop(dispatch.New(cat, p, dispatch.WithRecorder(m)),
		dispatch.WithTickInterval(2*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, loop.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	torch := mixer.NewEmitter("torch", mixer.Vec3{})
	anchors := map[string]pool.Anchor{
		"npc":   pooltest.Anchor("npc"),
		"torch": torch,
	}

	srv := New(loop, cat,
		WithAnchors(func(name string) pool.Anchor { return anchors[name] }),
		WithEmitters(func(name string) *mixer.Emitter {
			em := mixer.NewEmitter(name, mixer.Vec3{})
			anchors[name] = em
			return em
		}),
		WithGatherer(registry))
	return &stack{srv: srv, backend: backend, pool: p, torch: torch, anchors: anchors}
}

func (s *stack) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestProfiles(t *testing.T) {
	s := newStack(t, 4)

	rec := s.do(t, http.MethodGet, "/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ProfileSummary](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, profile.ID("door"), list[0].ID)
	assert.Equal(t, []profile.ClipID{"step_a.wav", "step_b.wav"}, list[1].Clips)

	rec = s.do(t, http.MethodGet, "/profiles/steps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[ProfileSummary](t, rec).Configs)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/profiles/nope", "").Code)
}

func TestPlayAndStatus(t *testing.T) {
	s := newStack(t, 4)

	assert.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/steps?anchor=npc", "").Code)
	assert.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/door", "").Code)

	rec := s.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[dispatch.Status](t, rec)
	assert.Equal(t, 3, st.Active)
	assert.Equal(t, map[string]int{"npc": 2, "ambient": 1}, st.Anchors)
}

func TestPlayErrors(t *testing.T) {
	s := newStack(t, 1)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"missing profile", "/play/nope", http.StatusNotFound},
		{"unknown anchor", "/play/door?anchor=ghost", http.StatusBadRequest},
		{"exhausted", "/play/steps", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.do(t, http.MethodPost, tt.target, "").Code)
		})
	}
	assert.Zero(t, s.pool.Stats().Active, "no handles leaked")
}

func TestStop(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"all", "/stop", 3},
		{"profile", "/stop?profile=steps", 2},
		{"anchor", "/stop?anchor=torch", 1},
		{"profile on anchor", "/stop?profile=steps&anchor=torch", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t, 4)
			require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/steps?anchor=npc", "").Code)
			require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/door?anchor=torch", "").Code)

			rec := s.do(t, http.MethodPost, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode[StopResult](t, rec).Stopped)
		})
	}
}

func TestPauseResume(t *testing.T) {
	s := newStack(t, 4)
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/door", "").Code)

	rec := s.do(t, http.MethodPost, "/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dispatch.Status](t, rec).Paused)
	for _, v := range s.backend.Voices() {
		assert.True(t, v.Paused())
	}

	rec = s.do(t, http.MethodPost, "/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dispatch.Status](t, rec).Paused)
}

func TestMoveAnchor(t *testing.T) {
	s := newStack(t, 4)

	rec := s.do(t, http.MethodPut, "/anchors/torch", `{"x":1,"y":2,"z":3}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, mixer.Vec3{X: 1, Y: 2, Z: 3}, s.torch.Position())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/anchors/npc", `{"x":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/anchors/torch", `{"x":`).Code)
}

func TestAnchorQueryDoesNotCreate(t *testing.T) {
	s := newStack(t, 4)

	for range 3 {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/play/door?anchor=lamp", "").Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/stop?anchor=lamp", "").Code)
	}
	assert.NotContains(t, s.anchors, "lamp")
	assert.Len(t, s.anchors, 2)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/anchors/lamp", `{"x":`).Code)
	assert.NotContains(t, s.anchors, "lamp", "bad body places nothing")

	rec := s.do(t, http.MethodPut, "/anchors/lamp", `{"x":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, s.anchors, "lamp")
	assert.Equal(t, mixer.Vec3{X: 4}, s.anchors["lamp"].(*mixer.Emitter).Position())

	assert.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/door?anchor=lamp", "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPut, "/anchors/lamp", `{"y":1}`).Code)
}

func TestMoveAnchor_WithoutEmitters(t *testing.T) {
	s := newStack(t, 4)
	bare := &stack{srv: New(nil, nil, WithAnchors(func(name string) pool.Anchor { return s.anchors[name] }))}

	assert.Equal(t, http.StatusNotFound, bare.do(t, http.MethodPut, "/anchors/lamp", `{"x":1}`).Code)
	assert.Equal(t, http.StatusNoContent, bare.do(t, http.MethodPut, "/anchors/torch", `{"x":1}`).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newStack(t, 4)
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/play/door", "").Code)

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `audmgr_plays_total{result="started"} 1`)
	assert.Contains(t, rec.Body.String(), `audmgr_pool_handles{state="active"} 1`)
}
