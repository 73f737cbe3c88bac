package host

import "time"

// Handle is an opaque cancellation token returned by a scheduling primitive.
// The zero Handle is never issued.
type Handle uint64

// ListenerID identifies a listener attached with AddListener.
type ListenerID uint64

// ReadyState mirrors the document loading states of a browser-like host.
type ReadyState string

const (
	ReadyStateLoading     ReadyState = "loading"
	ReadyStateInteractive ReadyState = "interactive"
	ReadyStateComplete    ReadyState = "complete"
)

// Parsed reports whether the document has at least finished parsing.
func (s ReadyState) Parsed() bool {
	return s == ReadyStateInteractive || s == ReadyStateComplete
}

// Readiness signals delivered by the host.
const (
	SignalContentLoaded = "DOMContentLoaded"
	SignalLoad          = "load"
	SignalDeviceReady   = "deviceready"
)

// Timers is the fallback timer primitive: coarse, delay-based, not tied to
// display refresh.
type Timers interface {
	SetTimeout(fn func(), delay time.Duration) Handle
	ClearTimeout(h Handle)
}

// Frames is the preferred scheduling primitive. The callback receives a
// monotonically increasing high-resolution timestamp in milliseconds.
type Frames interface {
	RequestAnimationFrame(fn func(ts float64)) Handle
	CancelAnimationFrame(h Handle)
}

// FrameLookup resolves a frame primitive by its host-visible name. Hosts
// that expose several vendor-prefixed variants answer for each name they
// actually provide.
type FrameLookup interface {
	LookupFrames(name string) (Frames, bool)
}

// Environment is the readiness surface of a host.
type Environment interface {
	Timers

	// HasDocument reports whether the host has any notion of a document.
	// Hosts without one are treated as ready immediately.
	HasDocument() bool
	ReadyState() ReadyState
	// BodyAvailable is the minimal structural probe used for polling.
	BodyAvailable() bool
	// HybridContainer reports a mobile hybrid container that delivers its
	// own device-ready signal.
	HybridContainer() bool

	AddListener(signal string, fn func()) ListenerID
	RemoveListener(signal string, id ListenerID)
}
