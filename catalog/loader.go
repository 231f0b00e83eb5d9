// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ik5/audmgr/profile"
	"gopkg.in/yaml.v3"
)

// Decode reads one catalog document. A document is either a single
// profile or a list under "profiles". defaultID names a single profile
// that has no id of its own.
func Decode(r io.Reader, defaultID string) ([]*profile.Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog document: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDocument, err)
	}

	if len(doc.Profiles) > 0 {
		if !doc.profileDoc.isEmpty() {
			return nil, fmt.Errorf("%w: mixes a profile with a profiles list", ErrBadDocument)
		}
		out := make([]*profile.Profile, 0, len(doc.Profiles))
		for i := range doc.Profiles {
			if doc.Profiles[i].ID == "" {
				return nil, fmt.Errorf("%w: profiles[%d] has no id", ErrBadDocument, i)
			}
			p, err := doc.Profiles[i].build("")
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}

	p, err := doc.profileDoc.build(defaultID)
	if err != nil {
		return nil, err
	}
	return []*profile.Profile{p}, nil
}

// IsCatalogFile reports whether name has a YAML extension.
func IsCatalogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadDir decodes every YAML file directly inside dir. Files are read in
// name order and ids must be unique across all of them.
func LoadDir(dir string) ([]*profile.Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir: %w", err)
	}

	var (
		out  []*profile.Profile
		seen = make(map[profile.ID]string)
		errs []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsCatalogFile(e.Name()) {
			continue
		}

		ps, err := loadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		for _, p := range ps {
			if prev, dup := seen[p.ID]; dup {
				errs = append(errs, fmt.Errorf("%s: %w: %q also in %s", e.Name(), ErrDuplicateID, p.ID, prev))
				continue
			}
			seen[p.ID] = e.Name()
			out = append(out, p)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b *profile.Profile) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out, nil
}

func loadFile(path string) ([]*profile.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	return Decode(f, strings.TrimSuffix(base, filepath.Ext(base)))
}

// Load builds a catalog from LoadDir(dir).
func Load(dir string) (*Catalog, error) {
	ps, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return New(ps...)
}
