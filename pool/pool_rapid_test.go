// SPDX-License-Identifier: EPL-2.0

package pool_test

import (
	"errors"
	"testing"

	"github.com/ik5/audmgr/pool"
	"github.com/ik5/audmgr/pool/pooltest"
	"pgregory.net/rapid"
)

// poolMachine drives a pool with random acquire/release sequences and
// checks the counters after every step.
type poolMachine struct {
	pool    *pool.Pool
	backend *pooltest.Backend
	policy  pool.Policy
	cap     int
	lent    []*pool.Handle
	spent   []*pool.Handle
}

func (m *poolMachine) Acquire(t *rapid.T) {
	h, err := m.pool.Acquire(nil)
	if err != nil {
		if m.policy != pool.PolicyReject || !errors.Is(err, pool.ErrPoolExhausted) {
			t.Fatalf("Acquire() error = %v", err)
		}
		if len(m.lent) < m.cap {
			t.Fatalf("rejected with %d of %d handles lent", len(m.lent), m.cap)
		}
		return
	}
	for _, other := range m.lent {
		if other == h {
			t.Fatalf("handle %s lent twice", h.ID())
		}
	}
	m.lent = append(m.lent, h)
}

func (m *poolMachine) Release(t *rapid.T) {
	if len(m.lent) == 0 {
		t.Skip("nothing lent")
	}
	i := rapid.IntRange(0, len(m.lent)-1).Draw(t, "i")
	h := m.lent[i]
	m.lent = append(m.lent[:i], m.lent[i+1:]...)
	if err := m.pool.Release(h); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	m.spent = append(m.spent, h)
}

func (m *poolMachine) ReleaseAgain(t *rapid.T) {
	if len(m.spent) == 0 {
		t.Skip("nothing released")
	}
	h := rapid.SampledFrom(m.spent).Draw(t, "h")
	if h.State() != pool.StateIdle {
		t.Skip("handle was lent out again")
	}
	before := m.pool.Stats()
	if err := m.pool.Release(h); !errors.Is(err, pool.ErrDoubleRelease) {
		t.Fatalf("Release() of idle handle error = %v", err)
	}
	after := m.pool.Stats()
	if after.Idle != before.Idle || after.Active != before.Active {
		t.Fatalf("double release changed pool: %+v -> %+v", before, after)
	}
}

func (m *poolMachine) Check(t *rapid.T) {
	s := m.pool.Stats()
	if s.Active != len(m.lent) {
		t.Fatalf("Active = %d, want %d", s.Active, len(m.lent))
	}
	if s.Idle > m.cap {
		t.Fatalf("Idle = %d exceeds capacity %d", s.Idle, m.cap)
	}
	if m.policy == pool.PolicyReject && s.Idle+s.Active > m.cap {
		t.Fatalf("idle %d + active %d exceeds capacity %d", s.Idle, s.Active, m.cap)
	}
	if live := m.backend.Live(); live != s.Idle+s.Active {
		t.Fatalf("backend holds %d voices, pool accounts for %d", live, s.Idle+s.Active)
	}
}

func TestPool_Invariants(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		policy := rapid.SampledFrom([]pool.Policy{pool.PolicyGrow, pool.PolicyReject}).Draw(t, "policy")
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		backend := pooltest.NewBackend()

		p, err := pool.New(backend, pool.Config{
			Capacity: capacity,
			Prewarm:  rapid.IntRange(0, capacity).Draw(t, "prewarm"),
			Policy:   policy,
		})
		if err != nil {
			t.Fatal(err)
		}

		t.Repeat(rapid.StateMachineActions(&poolMachine{
			pool:    p,
			backend: backend,
			policy:  policy,
			cap:     capacity,
		}))
	})
}
