package capability

import (
	"slices"
	"strings"
)

// AudioKinds lists the audio kinds CanPlayAudio recognizes.
var AudioKinds = []string{"mp3", "ogg", "m4a", "wav", "webm", "opus"}

// VideoKinds lists the video kinds CanPlayVideo recognizes.
var VideoKinds = []string{"webm", "mp4", "m4v", "h264", "ogg", "ogv", "hls"}

// CanPlayAudio reports whether audio of the given kind was detected.
// Unknown kinds are false.
func (r *Registry) CanPlayAudio(kind string) bool {
	kind = strings.ToLower(kind)
	if !slices.Contains(AudioKinds, kind) {
		return false
	}
	return r.caps.Bool("audio." + kind)
}

// CanPlayVideo reports whether video of the given kind was detected.
// Unknown kinds are false.
func (r *Registry) CanPlayVideo(kind string) bool {
	switch strings.ToLower(kind) {
	case "webm":
		return r.caps.Bool("video.webm") || r.caps.Bool("video.vp9")
	case "mp4", "m4v", "h264":
		return r.caps.Bool("video.mp4") || r.caps.Bool("video.h264")
	case "ogg", "ogv":
		return r.caps.Bool("video.ogg")
	case "hls":
		return r.caps.Bool("video.hls")
	default:
		return false
	}
}
