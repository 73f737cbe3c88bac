package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/hostkit/internal/host/hosttest"
)

func readyWith(t *testing.T, caps map[string]bool) *Registry {
	t.Helper()

	reg := New(hosttest.Headless(), WithProbes(Probe{Name: "media", Run: func(r *Record) error {
		for name, v := range caps {
			r.SetBool(name, v)
		}
		return nil
	}}))
	reg.WhenReady(func(any, *Registry) {}, nil)
	return reg
}

func TestCanPlayAudio(t *testing.T) {
	reg := readyWith(t, map[string]bool{
		"audio.mp3":  true,
		"audio.ogg":  true,
		"audio.opus": false,
		"audio.flac": true,
	})

	tests := []struct {
		kind string
		want bool
	}{
		{"mp3", true},
		{"MP3", true},
		{"ogg", true},
		{"opus", false},
		{"wav", false},
		{"flac", false}, // recorded but not a recognized kind
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.CanPlayAudio(tt.kind))
		})
	}
}

func TestCanPlayVideo(t *testing.T) {
	tests := []struct {
		name string
		caps map[string]bool
		kind string
		want bool
	}{
		{"webm via vp8", map[string]bool{"video.webm": true}, "webm", true},
		{"webm via vp9", map[string]bool{"video.vp9": true}, "webm", true},
		{"mp4 via h264", map[string]bool{"video.h264": true}, "mp4", true},
		{"m4v via mp4", map[string]bool{"video.mp4": true}, "m4v", true},
		{"h264 alias", map[string]bool{"video.mp4": true}, "h264", true},
		{"ogv alias", map[string]bool{"video.ogg": true}, "ogv", true},
		{"ogg missing", map[string]bool{"video.webm": true}, "ogg", false},
		{"hls", map[string]bool{"video.hls": true}, "hls", true},
		{"unknown kind", map[string]bool{"video.avi": true}, "avi", false},
		{"nothing detected", nil, "mp4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readyWith(t, tt.caps).CanPlayVideo(tt.kind))
		})
	}
}

func TestQueriesBeforeReady(t *testing.T) {
	reg := New(hosttest.New())
	assert.False(t, reg.CanPlayAudio("mp3"))
	assert.False(t, reg.CanPlayVideo("mp4"))
}

func TestReport(t *testing.T) {
	reg := New(parsedHost())
	rep := reg.Report()
	assert.Equal(t, "unarmed", rep.State)
	assert.False(t, rep.Initialized)
	assert.Nil(t, rep.ReadyAt)
	assert.Nil(t, rep.Audio)
	assert.Empty(t, rep.Capabilities)

	reg = readyWith(t, map[string]bool{"audio.ogg": true, "video.vp9": true})
	rep = reg.Report()
	assert.Equal(t, "ready", rep.State)
	assert.True(t, rep.Initialized)
	assert.NotNil(t, rep.ReadyAt)
	assert.Zero(t, rep.Pending)
	assert.Equal(t, true, rep.Capabilities["audio.ogg"])
	assert.True(t, rep.Audio["ogg"])
	assert.False(t, rep.Audio["mp3"])
	assert.True(t, rep.Video["webm"])
	assert.Len(t, rep.Video, len(VideoKinds))
}
