package jshost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostkit/internal/host"
)

const tomlProfile = `
name = "kiosk"
userAgent = "Mozilla/5.0 (X11; Linux x86_64) Kiosk/1.0"
platform = "Linux x86_64"
frames = ["mozRequestAnimationFrame"]
globals = ["WebSocket"]

[screen]
width = 1280
height = 720

[media]
audio = ["audio/ogg; codecs=\"vorbis\""]

[lifecycle]
bodyMS = 30
interactiveMS = 10
completeMS = 20
`

func TestBuiltinProfiles(t *testing.T) {
	names := BuiltinNames()
	assert.Equal(t, []string{"cordova-android", "desktop-chrome", "headless", "legacy-webkit", "safari"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p, err := Builtin(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name)
			assert.NotEmpty(t, p.UserAgent)
		})
	}

	_, err := Builtin("netscape")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestBuiltinReturnsCopies(t *testing.T) {
	a, err := Builtin("desktop-chrome")
	require.NoError(t, err)
	a.NoTimers = true

	b, err := Builtin("desktop-chrome")
	require.NoError(t, err)
	assert.False(t, b.NoTimers)
}

func TestParseProfileTOML(t *testing.T) {
	p, err := ParseProfile([]byte(tomlProfile), ".toml")
	require.NoError(t, err)

	assert.Equal(t, "kiosk", p.Name)
	assert.Equal(t, []string{"mozRequestAnimationFrame"}, p.Frames)
	assert.Equal(t, 1280, p.Screen.Width)
	assert.Equal(t, 30, p.Lifecycle.BodyMS)

	// defaults filled in by Validate
	assert.Equal(t, host.ReadyStateLoading, p.Lifecycle.InitialState)
	assert.Equal(t, 1.0, p.Screen.PixelRatio)
	assert.Equal(t, "en-US", p.Language)
}

func TestParseProfileRejects(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		want   error
	}{
		{name: "unknown format", data: "name: x", format: "json", want: ErrUnsupportedFormat},
		{name: "missing name", data: "userAgent: x", format: "yaml", want: ErrInvalidProfile},
		{name: "bad state", data: "name: x\nlifecycle:\n  initialState: sleeping", format: "yaml", want: ErrInvalidProfile},
		{name: "complete first", data: "name: x\nlifecycle:\n  interactiveMS: 10\n  completeMS: 5", format: "yml", want: ErrInvalidProfile},
		{name: "negative delay", data: "name = \"x\"\n[lifecycle]\nbodyMS = -1", format: "toml", want: ErrInvalidProfile},
		{name: "unknown yaml field", data: "name: x\nflavour: mint", format: "yaml"},
		{name: "unknown toml field", data: "name = \"x\"\nflavour = \"mint\"", format: "toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.data), tt.format)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "kiosk.toml"), tomlProfile)
	writeFile(t, filepath.Join(dir, "mobile", "tablet.yml"), "name: tablet\ntouch: true\n")
	writeFile(t, filepath.Join(dir, "README.md"), "not a profile")

	profiles, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.True(t, profiles["tablet"].Touch)
	assert.Equal(t, "Linux x86_64", profiles["kiosk"].Platform)

	p, err := LoadProfile(filepath.Join(dir, "mobile", "tablet.yml"))
	require.NoError(t, err)
	assert.Equal(t, "tablet", p.Name)
}

func TestLoadDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "name: same\n")
	writeFile(t, filepath.Join(dir, "b", "c.yaml"), "name: same\n")

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "safari.yaml"), "name: safari\nuserAgent: custom\n")

	p, err := Resolve("safari", dir)
	require.NoError(t, err)
	assert.Equal(t, "custom", p.UserAgent)

	p, err = Resolve("desktop-chrome", dir)
	require.NoError(t, err)
	assert.Equal(t, "desktop-chrome", p.Name)

	p, err = Resolve("headless", "")
	require.NoError(t, err)
	assert.True(t, p.Headless)
}

func TestCanPlayType(t *testing.T) {
	table := newMediaTable([]string{`audio/ogg; codecs="vorbis"`, "audio/mpeg", `video/webm; codecs="vp8, vorbis"`})

	tests := []struct {
		typ  string
		want string
	}{
		{`audio/ogg; codecs="vorbis"`, "probably"},
		{`AUDIO/OGG;codecs="vorbis"`, "probably"},
		{`audio/ogg; codecs="opus"`, ""},
		{"audio/ogg", "maybe"},
		{"audio/mpeg;", "maybe"},
		{`video/webm; codecs="vp8,vorbis"`, "probably"},
		{"audio/wav", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, table.canPlayType(tt.typ))
		})
	}
}

func TestParseDOM(t *testing.T) {
	dom, err := ParseDOM(`<html><head><title> Demo </title></head><body class="main"><p id="a" class="x y">hi</p></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Demo", dom.Title())
	assert.Equal(t, "BODY", dom.Body().TagName)
	assert.Equal(t, "main", dom.Body().ClassName)

	found := dom.Query("p.y")
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].ID)
	assert.Equal(t, "hi", found[0].TextContent)

	empty, err := ParseDOM("")
	require.NoError(t, err)
	assert.NotNil(t, empty.Body())
}
