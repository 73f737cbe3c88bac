// Package hosttest provides a manual, virtual-time host for tests.
//
// Nothing runs on its own: timers fire on Advance, frames on Frame and
// signals on Fire, all on the calling goroutine.
package hosttest

import (
	"slices"
	"time"

	"github.com/GriffinCanCode/hostkit/internal/host"
)

type timer struct {
	handle host.Handle
	due    time.Duration
	fn     func()
}

type frame struct {
	handle host.Handle
	fn     func(float64)
}

type listener struct {
	id host.ListenerID
	fn func()
}

// Host implements host.Environment, host.Frames and host.FrameLookup.
type Host struct {
	// Document, State, Body and Hybrid describe the simulated document and
	// may be changed between steps.
	Document bool
	State    host.ReadyState
	Body     bool
	Hybrid   bool

	// FrameNames lists the frame primitive names LookupFrames answers for.
	FrameNames []string

	SetTimeoutCalls     int
	ClearTimeoutCalls   int
	FrameRequests       int
	FrameCancels        int
	AddListenerCalls    int
	RemoveListenerCalls int

	now          time.Duration
	lastHandle   host.Handle
	lastListener host.ListenerID
	timers       []timer
	frames       []frame
	listeners    map[string][]listener
}

// New returns a host whose document is still loading and has no body yet.
func New() *Host {
	return &Host{
		Document:   true,
		State:      host.ReadyStateLoading,
		FrameNames: []string{"requestAnimationFrame"},
		listeners:  make(map[string][]listener),
	}
}

// Headless returns a host with no document concept at all.
func Headless() *Host {
	h := New()
	h.Document = false
	return h
}

// Now returns the virtual time elapsed since creation.
func (h *Host) Now() time.Duration { return h.now }

func (h *Host) HasDocument() bool           { return h.Document }
func (h *Host) ReadyState() host.ReadyState { return h.State }
func (h *Host) BodyAvailable() bool         { return h.Body }
func (h *Host) HybridContainer() bool       { return h.Hybrid }

func (h *Host) nextHandle() host.Handle {
	h.lastHandle++
	return h.lastHandle
}

// SetTimeout queues fn to run once virtual time reaches now+delay.
func (h *Host) SetTimeout(fn func(), delay time.Duration) host.Handle {
	h.SetTimeoutCalls++
	if delay < 0 {
		delay = 0
	}
	t := timer{handle: h.nextHandle(), due: h.now + delay, fn: fn}
	h.timers = append(h.timers, t)
	return t.handle
}

func (h *Host) ClearTimeout(handle host.Handle) {
	h.ClearTimeoutCalls++
	h.timers = slices.DeleteFunc(h.timers, func(t timer) bool { return t.handle == handle })
}

func (h *Host) RequestAnimationFrame(fn func(float64)) host.Handle {
	h.FrameRequests++
	f := frame{handle: h.nextHandle(), fn: fn}
	h.frames = append(h.frames, f)
	return f.handle
}

func (h *Host) CancelAnimationFrame(handle host.Handle) {
	h.FrameCancels++
	h.frames = slices.DeleteFunc(h.frames, func(f frame) bool { return f.handle == handle })
}

func (h *Host) LookupFrames(name string) (host.Frames, bool) {
	if slices.Contains(h.FrameNames, name) {
		return h, true
	}
	return nil, false
}

func (h *Host) AddListener(signal string, fn func()) host.ListenerID {
	h.AddListenerCalls++
	h.lastListener++
	h.listeners[signal] = append(h.listeners[signal], listener{id: h.lastListener, fn: fn})
	return h.lastListener
}

func (h *Host) RemoveListener(signal string, id host.ListenerID) {
	h.RemoveListenerCalls++
	h.listeners[signal] = slices.DeleteFunc(h.listeners[signal], func(l listener) bool { return l.id == id })
}

// Listeners returns how many listeners are attached for signal.
func (h *Host) Listeners(signal string) int {
	return len(h.listeners[signal])
}

// Fire delivers signal to the listeners attached when it was called.
func (h *Host) Fire(signal string) {
	for _, l := range slices.Clone(h.listeners[signal]) {
		l.fn()
	}
}

// PendingTimers returns the number of timers not yet fired or cleared.
func (h *Host) PendingTimers() int { return len(h.timers) }

// PendingFrames returns the number of outstanding frame requests.
func (h *Host) PendingFrames() int { return len(h.frames) }

// Advance moves virtual time forward by d, firing due timers in order.
// Timers scheduled by callbacks fire too if they fall inside the window.
func (h *Host) Advance(d time.Duration) {
	target := h.now + d
	for {
		idx := h.nextDue(target)
		if idx < 0 {
			break
		}
		t := h.timers[idx]
		h.timers = slices.Delete(h.timers, idx, idx+1)
		h.now = t.due
		t.fn()
	}
	h.now = target
}

// Tick fires every timer already due without moving time.
func (h *Host) Tick() { h.Advance(0) }

func (h *Host) nextDue(target time.Duration) int {
	idx := -1
	for i, t := range h.timers {
		if t.due > target {
			continue
		}
		if idx < 0 || t.due < h.timers[idx].due {
			idx = i
		}
	}
	return idx
}

// Frame runs the frame callbacks pending at call time with timestamp ts and
// returns how many ran. Requests made during the pass wait for the next one.
// Callbacks cancelled by an earlier callback of the same pass are skipped.
func (h *Host) Frame(ts float64) int {
	last := h.lastHandle
	ran := 0
	for len(h.frames) > 0 && h.frames[0].handle <= last {
		f := h.frames[0]
		h.frames = h.frames[1:]
		f.fn(ts)
		ran++
	}
	return ran
}
