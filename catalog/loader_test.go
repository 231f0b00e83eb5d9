// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ik5/audmgr/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const footsteps = `
group: sfx
configs:
  - clip: step_a.wav
    volume: [0.8, 1]
    pitch: [0.9, 1.1]
  - clip: step_b.wav
    pan: -0.5
    loop: true
spatial:
  spread: 90
  max_distance: 40
  rolloff: linear
`

const ui = `
profiles:
  - id: click
    group: ui
    configs:
      - clip: click.wav
        volume: {min: 0.5, max: 0.5}
  - id: hover
    group: ui
    configs:
      - clip: hover.wav
        volume: 0.25
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestDecode_SingleProfile(t *testing.T) {
	t.Parallel()

	ps, err := Decode(strings.NewReader(footsteps), "footsteps")
	require.NoError(t, err)
	require.Len(t, ps, 1)

	p := ps[0]
	assert.Equal(t, profile.ID("footsteps"), p.ID)
	assert.Equal(t, profile.Group("sfx"), p.Group)
	require.Len(t, p.Configs, 2)

	assert.Equal(t, profile.Range{Min: 0.8, Max: 1}, p.Configs[0].Volume)
	assert.Equal(t, profile.Range{Min: 0.9, Max: 1.1}, p.Configs[0].Pitch)
	assert.Equal(t, profile.Fixed(1), p.Configs[1].Volume, "defaults apply to omitted ranges")
	assert.Equal(t, profile.Fixed(1), p.Configs[1].Pitch)
	assert.EqualValues(t, -0.5, p.Configs[1].Pan)
	assert.True(t, p.Configs[1].Loop)

	require.NotNil(t, p.Spatial)
	assert.Equal(t, profile.SpreadConstant, p.Spatial.SpreadMode)
	assert.EqualValues(t, 90, p.Spatial.Spread)
	assert.EqualValues(t, 1, p.Spatial.MinDistance)
	assert.EqualValues(t, 40, p.Spatial.MaxDistance)
	assert.Equal(t, profile.RolloffLinear, p.Spatial.Rolloff)
	assert.EqualValues(t, 1, p.Spatial.Doppler)
}

func TestDecode_Curves(t *testing.T) {
	t.Parallel()

	doc := `
id: wind
group: ambience
configs: [{clip: wind.ogg, loop: true}]
spatial:
  rolloff: curve
  rolloff_curve: [[0, 1], [0.5, 0.2], {time: 1, value: 0}]
`
	ps, err := Decode(strings.NewReader(doc), "ignored")
	require.NoError(t, err)
	require.Len(t, ps, 1)

	s := ps[0].Spatial
	assert.Equal(t, profile.ID("wind"), ps[0].ID)
	assert.Equal(t, profile.RolloffCurve, s.Rolloff)
	assert.Equal(t, profile.Curve{{Time: 0, Value: 1}, {Time: 0.5, Value: 0.2}, {Time: 1, Value: 0}}, s.RolloffCurve)
	assert.Equal(t, profile.SpreadCurve, s.SpreadMode, "default spread curve kept")
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown field", "group: sfx\nvolum: 1\n", ErrBadDocument},
		{"bad range", "configs: [{clip: a.wav, volume: [0.1, 0.2, 0.3]}]", ErrBadDocument},
		{"out of range", "configs: [{clip: a.wav, pitch: [1, 4]}]", profile.ErrInvalidRange},
		{"unknown rolloff", "configs: [{clip: a.wav}]\nspatial: {rolloff: cubic}", profile.ErrUnknownMode},
		{"list without ids", "profiles: [{group: sfx}]", ErrBadDocument},
		{"mixed forms", "group: sfx\nprofiles: [{id: a}]", ErrBadDocument},
		{"nan pan", "configs: [{clip: a.wav, pan: .nan}]", profile.ErrInvalidRange},
		{"nan volume", "configs: [{clip: a.wav, volume: [.nan, 1]}]", profile.ErrInvalidRange},
		{"inf pitch", "configs: [{clip: a.wav, pitch: .inf}]", profile.ErrInvalidRange},
		{"nan doppler", "configs: [{clip: a.wav}]\nspatial: {doppler: .nan}", profile.ErrInvalidSpatial},
		{"inf max distance", "configs: [{clip: a.wav}]\nspatial: {max_distance: .inf}", profile.ErrInvalidSpatial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(tt.doc), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"footsteps.yaml": footsteps,
		"ui.yml":         ui,
		"empty.yaml":     "   \n",
		"notes.txt":      "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []profile.ID{"click", "footsteps", "hover"}, c.IDs())

	hover, err := c.Resolve("hover")
	require.NoError(t, err)
	assert.Equal(t, profile.Fixed(0.25), hover.Configs[0].Volume)
}

func TestLoadDir_Duplicates(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"click.yaml": "group: ui\nconfigs: [{clip: c.wav}]",
		"ui.yaml":    ui,
	})

	_, err := LoadDir(dir)
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorContains(t, err, "ui.yaml")
}

func TestLoadDir_ReportsEveryBadFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.yaml": "configs: [{clip: ''}]",
		"b.yaml": "configs: [{clip: b.wav, pan: 3}]",
	})

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "a.yaml")
	assert.ErrorContains(t, err, "b.yaml")

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadFile_MissingKeepsCause(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gone.yaml")
	_, err := loadFile(path)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorContains(t, err, "opening catalog file")
	assert.ErrorContains(t, err, path)
}
