package probes

import (
	"fmt"

	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
)

// opusReliableSafari is the first Safari release whose opus support is
// trusted.
const opusReliableSafari = 17

type mediaType struct {
	name  string
	types []string
}

var audioTypes = []mediaType{
	{"audio.mp3", []string{"audio/mpeg;"}},
	{"audio.ogg", []string{`audio/ogg; codecs="vorbis"`}},
	{"audio.m4a", []string{"audio/x-m4a;", "audio/aac;"}},
	{"audio.wav", []string{`audio/wav; codecs="1"`}},
	{"audio.webm", []string{`audio/webm; codecs="vorbis"`}},
	{"audio.opus", []string{`audio/ogg; codecs="opus"`, `audio/webm; codecs="opus"`}},
}

var videoTypes = []mediaType{
	{"video.webm", []string{`video/webm; codecs="vp8, vorbis"`}},
	{"video.vp9", []string{`video/webm; codecs="vp9"`}},
	{"video.h264", []string{`video/mp4; codecs="avc1.42E01E"`}},
	{"video.mp4", []string{"video/mp4"}},
	{"video.ogg", []string{`video/ogg; codecs="theora"`}},
	{"video.hls", []string{"application/x-mpegURL"}},
}

// canPlayScript asks a fresh media element about one MIME type. Hosts
// without a document answer "".
func canPlayScript(tag, mime string) string {
	return fmt.Sprintf(`(function () {
		if (typeof document === 'undefined') { return ''; }
		var el = document.createElement(%q);
		return el && el.canPlayType ? el.canPlayType(%q) : '';
	})()`, tag, mime)
}

func probeMedia(ins Inspector, rec *capability.Record, tag string, table []mediaType) error {
	for _, m := range table {
		supported := false
		for _, mime := range m.types {
			answer, err := evalString(ins, canPlayScript(tag, mime))
			if err != nil {
				return fmt.Errorf("%s: %w", m.name, err)
			}
			if answer != "" && answer != "no" {
				supported = true
				break
			}
		}
		rec.SetBool(m.name, supported)
	}
	return nil
}

// Audio detects the audio element and the playable audio codecs.
func Audio(ins Inspector) capability.Probe {
	return capability.Probe{Name: "audio", Run: func(rec *capability.Record) error {
		err := boolChecks(ins, rec, []check{
			{"audio.webAudio", defined("AudioContext") + " || " + defined("webkitAudioContext")},
			{"audio.audioData", "typeof document !== 'undefined' && typeof document.createElement('audio').canPlayType === 'function'"},
		})
		if err != nil {
			return err
		}
		if err := probeMedia(ins, rec, "audio", audioTypes); err != nil {
			return err
		}

		// Safari before 17 claims opus but cannot decode it reliably
		if rec.Bool("browser.safari") && rec.Number("browser.safariVersion") < opusReliableSafari {
			rec.SetBool("audio.opus", false)
		}
		return nil
	}}
}

// Video detects the playable video codecs.
func Video(ins Inspector) capability.Probe {
	return capability.Probe{Name: "video", Run: func(rec *capability.Record) error {
		return probeMedia(ins, rec, "video", videoTypes)
	}}
}
