package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "run.toml", `
scene = "scenes/solar.xml"
backend = "trace"
frames = 120
frame_interval = "20ms"
output = "/tmp/out.png"
width = 320
height = 200
shared_loads = true
log_level = "debug"
watch = true
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "scenes", "solar.xml"), c.Scene)
	assert.Equal(t, "trace", c.Backend)
	assert.Equal(t, 120, c.Frames)
	assert.Equal(t, Duration(20*time.Millisecond), c.FrameInterval)
	assert.Equal(t, "/tmp/out.png", c.Output)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 200, c.Height)
	assert.True(t, c.SharedLoads)
	assert.True(t, c.Watch)
	assert.Equal(t, Default().MaxLights, c.MaxLights, "unset fields keep their default")

	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "run.yaml", `
scene: solar.xml
frames: 3
frame_interval: 1s
max_lights: 4
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "solar.xml"), c.Scene)
	assert.Equal(t, 3, c.Frames)
	assert.Equal(t, Duration(time.Second), c.FrameInterval)
	assert.Equal(t, 4, c.MaxLights)
	assert.Equal(t, "raster", c.Backend)
}

func TestLoadEmptyYAML(t *testing.T) {
	c, err := Load(write(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"unknown extension", "run.ini", "frames = 1"},
		{"unknown toml field", "run.toml", "colour = 1"},
		{"unknown yaml field", "run.yaml", "colour: 1"},
		{"bad duration", "run.toml", `frame_interval = "soon"`},
		{"negative frames", "run.toml", "frames = -1"},
		{"bad size", "run.toml", "width = 0"},
		{"bad level", "run.toml", `log_level = "loud"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestHomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	path := write(t, "run.toml", `store = "~/xscene/programs.db"`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "xscene", "programs.db"), c.Store)
}

func TestDurationText(t *testing.T) {
	b, err := Duration(1500 * time.Millisecond).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(b))
}
