// SPDX-License-Identifier: EPL-2.0

// Package catalog resolves profile ids to immutable sound profiles.
//
// The catalog is filled once at startup, usually by LoadDir. Replace, Put
// and Remove exist for authoring tools; they take the write lock so they
// never interleave with a Resolve from the dispatch loop.
package catalog

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ik5/audmgr/profile"
)

type Catalog struct {
	mu       sync.RWMutex
	profiles map[profile.ID]*profile.Profile
}

// New builds a catalog from profiles. Every profile must validate and ids
// must be unique.
func New(profiles ...*profile.Profile) (*Catalog, error) {
	m, err := index(profiles)
	if err != nil {
		return nil, err
	}
	return &Catalog{profiles: m}, nil
}

func index(profiles []*profile.Profile) (map[profile.ID]*profile.Profile, error) {
	m := make(map[profile.ID]*profile.Profile, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m[p.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
		m[p.ID] = p
	}
	return m, nil
}

// Resolve returns the profile for id or ErrProfileNotFound.
func (c *Catalog) Resolve(id profile.ID) (*profile.Profile, error) {
	c.mu.RLock()
	p, ok := c.profiles[id]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, id)
	}
	return p, nil
}

// IDs lists the profile ids in sorted order.
func (c *Catalog) IDs() []profile.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.profiles))
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}

// Replace swaps the whole content. On error the catalog is unchanged.
func (c *Catalog) Replace(profiles []*profile.Profile) error {
	m, err := index(profiles)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.profiles = m
	c.mu.Unlock()
	return nil
}

// Put adds or overwrites one profile.
func (c *Catalog) Put(p *profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.profiles[p.ID] = p
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Remove(id profile.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.profiles[id]
	delete(c.profiles, id)
	return ok
}
