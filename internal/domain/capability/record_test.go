package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDefaults(t *testing.T) {
	rec := newRecord()
	rec.SetString("browser.name", "safari")
	rec.SetNumber("device.pixelRatio", 2)

	assert.False(t, rec.Bool("missing"))
	assert.Empty(t, rec.String("missing"))
	assert.Zero(t, rec.Number("missing"))

	// wrong type reads as the default too
	assert.False(t, rec.Bool("browser.name"))
	assert.Zero(t, rec.Number("browser.name"))
	assert.Equal(t, 2.0, rec.Number("device.pixelRatio"))

	_, ok := rec.Get("missing")
	assert.False(t, ok)
}

func TestProbeScopeMerge(t *testing.T) {
	rec := newRecord()
	rec.SetBool("os.desktop", true)

	err := Probe{Name: "ok", Run: func(r *Record) error {
		assert.True(t, r.Bool("os.desktop"))
		r.SetBool("os.desktop", false)
		r.SetString("browser.name", "chrome")
		return nil
	}}.run(rec)
	require.NoError(t, err)

	assert.False(t, rec.Bool("os.desktop"))
	assert.Equal(t, "chrome", rec.String("browser.name"))
	assert.Equal(t, map[string]any{"os.desktop": false, "browser.name": "chrome"}, rec.Snapshot())
}

func TestProbeFailureDiscardsWrites(t *testing.T) {
	rec := newRecord()
	cause := errors.New("no navigator")

	err := Probe{Name: "bad", Run: func(r *Record) error {
		r.SetBool("browser.chrome", true)
		return cause
	}}.run(rec)
	assert.ErrorIs(t, err, cause)

	err = Probe{Name: "worse", Run: func(r *Record) error {
		r.SetBool("browser.firefox", true)
		var m map[string]int
		m["boom"] = 1
		return nil
	}}.run(rec)
	assert.ErrorIs(t, err, ErrProbePanicked)

	assert.Zero(t, rec.Len())
}

func TestProbeWithoutRun(t *testing.T) {
	assert.NoError(t, Probe{Name: "empty"}.run(newRecord()))
}
