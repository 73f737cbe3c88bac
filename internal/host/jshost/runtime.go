package jshost

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/host"
	"github.com/GriffinCanCode/hostkit/internal/shared/id"
)

// Loop is the scheduling surface the runtime needs from its event loop.
type Loop interface {
	host.Timers
	host.Frames
}

// Options configures a Runtime.
type Options struct {
	Logger *zap.Logger
	// EvalTimeout interrupts a runaway Eval. Zero disables the guard.
	EvalTimeout time.Duration
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Logger:      zap.NewNop(),
		EvalTimeout: time.Second,
	}
}

// LogEntry is one captured console call.
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

type listener struct {
	id host.ListenerID
	fn func()
	js goja.Value
}

// Runtime is a browser-like host built on a goja VM. It is confined to the
// goroutine of its Loop: every method must be called there.
type Runtime struct {
	id          id.HostID
	vm          *goja.Runtime
	loop        Loop
	profile     *Profile
	dom         *DOM
	log         *zap.Logger
	evalTimeout time.Duration
	audio       mediaTable
	video       mediaTable

	state        host.ReadyState
	bodyAttached bool
	booted       bool
	lastListener host.ListenerID
	listeners    map[string][]listener
	console      []LogEntry
}

// New builds the runtime and its globals. Nothing happens until Boot.
func New(loop Loop, profile *Profile, opts Options) (*Runtime, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	hostID := id.NewHostID()
	r := &Runtime{
		id:          hostID,
		vm:          goja.New(),
		loop:        loop,
		profile:     profile,
		log:         opts.Logger.With(zap.String("host_id", hostID.String()), zap.String("profile", profile.Name)),
		evalTimeout: opts.EvalTimeout,
		audio:       newMediaTable(profile.Media.Audio),
		video:       newMediaTable(profile.Media.Video),
		state:       profile.Lifecycle.InitialState,
		listeners:   make(map[string][]listener),
	}

	if !profile.Headless {
		dom, err := ParseDOM(profile.HTML)
		if err != nil {
			return nil, err
		}
		r.dom = dom
		r.bodyAttached = r.state.Parsed()
	}

	if err := r.setupGlobals(); err != nil {
		return nil, fmt.Errorf("failed to set up globals: %w", err)
	}
	return r, nil
}

// ID returns the host identifier used in logs.
func (r *Runtime) ID() id.HostID { return r.id }

// Profile returns the profile the runtime was built from.
func (r *Runtime) Profile() *Profile { return r.profile }

// DOM returns the parsed document, nil on headless hosts.
func (r *Runtime) DOM() *DOM { return r.dom }

// Console returns the captured console output.
func (r *Runtime) Console() []LogEntry { return slices.Clone(r.console) }

// Boot schedules the document lifecycle on the loop. Later calls do nothing.
func (r *Runtime) Boot() {
	if r.booted || r.profile.Headless {
		return
	}
	r.booted = true

	lc := r.profile.Lifecycle
	if !r.bodyAttached {
		r.loop.SetTimeout(r.attachBody, ms(lc.BodyMS))
	}
	switch r.state {
	case host.ReadyStateLoading:
		r.loop.SetTimeout(func() { r.advance(host.ReadyStateInteractive, host.SignalContentLoaded) }, ms(lc.InteractiveMS))
		r.loop.SetTimeout(func() { r.advance(host.ReadyStateComplete, host.SignalLoad) }, ms(lc.CompleteMS))
	case host.ReadyStateInteractive:
		r.loop.SetTimeout(func() { r.advance(host.ReadyStateComplete, host.SignalLoad) }, ms(lc.CompleteMS))
	}
	if r.profile.Hybrid {
		r.loop.SetTimeout(func() { r.Dispatch(host.SignalDeviceReady) }, ms(lc.DeviceReadyMS))
	}
	r.log.Debug("host booted", zap.String("state", string(r.state)))
}

func (r *Runtime) attachBody() {
	r.bodyAttached = true
	r.log.Debug("document body attached")
}

func (r *Runtime) advance(state host.ReadyState, signal string) {
	r.state = state
	r.log.Debug("document state changed", zap.String("state", string(state)))
	r.Dispatch(signal)
}

// Dispatch delivers signal to the listeners attached when it was called.
// Listeners removed during the dispatch are skipped.
func (r *Runtime) Dispatch(signal string) {
	for _, l := range slices.Clone(r.listeners[signal]) {
		if !r.attached(signal, l.id) {
			continue
		}
		l.fn()
	}
}

func (r *Runtime) attached(signal string, lid host.ListenerID) bool {
	return slices.ContainsFunc(r.listeners[signal], func(l listener) bool { return l.id == lid })
}

// host.Environment

func (r *Runtime) HasDocument() bool           { return !r.profile.Headless }
func (r *Runtime) ReadyState() host.ReadyState { return r.state }
func (r *Runtime) BodyAvailable() bool         { return r.bodyAttached }
func (r *Runtime) HybridContainer() bool       { return r.profile.Hybrid }

func (r *Runtime) SetTimeout(fn func(), delay time.Duration) host.Handle {
	return r.loop.SetTimeout(fn, delay)
}

func (r *Runtime) ClearTimeout(h host.Handle) {
	r.loop.ClearTimeout(h)
}

func (r *Runtime) AddListener(signal string, fn func()) host.ListenerID {
	return r.addListener(signal, fn, nil)
}

func (r *Runtime) RemoveListener(signal string, lid host.ListenerID) {
	r.listeners[signal] = slices.DeleteFunc(r.listeners[signal], func(l listener) bool { return l.id == lid })
}

// Listeners reports how many listeners are attached for signal.
func (r *Runtime) Listeners(signal string) int {
	return len(r.listeners[signal])
}

func (r *Runtime) addListener(signal string, fn func(), js goja.Value) host.ListenerID {
	r.lastListener++
	r.listeners[signal] = append(r.listeners[signal], listener{id: r.lastListener, fn: fn, js: js})
	return r.lastListener
}

// Timers returns the host timer primitive, or nil when the profile has none.
func (r *Runtime) Timers() host.Timers {
	if r.profile.NoTimers {
		return nil
	}
	return r
}

// LookupFrames answers for the frame primitive names the profile exposes.
func (r *Runtime) LookupFrames(name string) (host.Frames, bool) {
	if slices.Contains(r.profile.Frames, name) {
		return r.loop, true
	}
	return nil, false
}

// Eval evaluates a script in the global scope and exports the result.
func (r *Runtime) Eval(script string) (any, error) {
	disarm := func() {}
	if r.evalTimeout > 0 {
		disarm = armInterrupt(r.evalTimeout, func() {
			r.vm.Interrupt("evaluation timeout exceeded")
		})
	}
	val, err := r.vm.RunString(script)
	disarm()
	r.vm.ClearInterrupt()

	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", script, err)
	}
	return exportValue(val), nil
}

// armInterrupt calls interrupt after d unless the returned disarm runs
// first. Once disarm returns, interrupt has either completed or will never
// run, so a late timer cannot reach the next evaluation.
func armInterrupt(d time.Duration, interrupt func()) (disarm func()) {
	var mu sync.Mutex
	done := false
	timer := time.AfterFunc(d, func() {
		mu.Lock()
		defer mu.Unlock()
		if !done {
			interrupt()
		}
	})
	return func() {
		mu.Lock()
		done = true
		mu.Unlock()
		timer.Stop()
	}
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// setupGlobals builds window, navigator, document and the host primitives.
func (r *Runtime) setupGlobals() error {
	vm := r.vm
	global := vm.GlobalObject()

	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	p := r.profile
	values := map[string]any{
		"window":              global,
		"self":                global,
		"console":             r.newConsole(),
		"navigator":           r.newNavigator(),
		"screen":              map[string]any{"width": p.Screen.Width, "height": p.Screen.Height},
		"devicePixelRatio":    p.Screen.PixelRatio,
		"innerWidth":          p.Screen.Width,
		"innerHeight":         p.Screen.Height,
		"addEventListener":    r.jsAddEventListener,
		"removeEventListener": r.jsRemoveEventListener,
	}
	if !p.NoTimers {
		values["setTimeout"] = r.jsSetTimeout
		values["clearTimeout"] = r.jsClearTimeout
	}
	for _, name := range p.Frames {
		values[name] = r.jsRequestFrame
		values[cancelFrameName(name)] = r.jsCancelFrame
	}
	for _, name := range p.Globals {
		values[name] = func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	}
	if p.Touch {
		values["ontouchstart"] = goja.Null()
	}
	if p.Hybrid {
		values["cordova"] = map[string]any{"platformId": cordovaPlatform(p.UserAgent)}
	}
	if !p.Headless {
		doc, err := r.newDocument()
		if err != nil {
			return err
		}
		values["document"] = doc
	}

	for name, value := range values {
		if err := global.Set(name, value); err != nil {
			return fmt.Errorf("global %s: %w", name, err)
		}
	}
	return nil
}

func cordovaPlatform(userAgent string) string {
	if strings.Contains(userAgent, "Android") {
		return "android"
	}
	return "ios"
}

// cancelFrameName maps a frame request name to its cancel counterpart.
func cancelFrameName(name string) string {
	if name == "requestAnimationFrame" {
		return "cancelAnimationFrame"
	}
	return strings.Replace(name, "RequestAnimationFrame", "CancelAnimationFrame", 1)
}

func (r *Runtime) newConsole() *goja.Object {
	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		_ = console.Set(level, r.makeConsoleFunc(level))
	}
	return console
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		entry := LogEntry{Level: level, Message: strings.Join(parts, " "), Time: time.Now()}
		r.console = append(r.console, entry)
		r.log.Debug("console", zap.String("level", level), zap.String("message", entry.Message))
		return goja.Undefined()
	}
}

func (r *Runtime) newNavigator() map[string]any {
	p := r.profile
	return map[string]any{
		"userAgent":           p.UserAgent,
		"platform":            p.Platform,
		"vendor":              p.Vendor,
		"language":            p.Language,
		"hardwareConcurrency": p.HardwareConcurrency,
		"maxTouchPoints":      p.MaxTouchPoints,
	}
}

func (r *Runtime) newDocument() (*goja.Object, error) {
	vm := r.vm
	doc := vm.NewObject()

	readyState := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(string(r.state))
	})
	if err := doc.DefineAccessorProperty("readyState", readyState, nil, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		return nil, err
	}

	body := vm.ToValue(func(goja.FunctionCall) goja.Value {
		if !r.bodyAttached {
			return goja.Null()
		}
		return r.elementValue(r.dom.Body())
	})
	if err := doc.DefineAccessorProperty("body", body, nil, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		return nil, err
	}

	methods := map[string]any{
		"title":               r.dom.Title(),
		"addEventListener":    r.jsAddEventListener,
		"removeEventListener": r.jsRemoveEventListener,
		"createElement":       r.jsCreateElement,
		"querySelector": func(selector string) goja.Value {
			if found := r.dom.Query(selector); len(found) > 0 {
				return r.elementValue(found[0])
			}
			return goja.Null()
		},
		"getElementById": func(elemID string) goja.Value {
			for _, elem := range r.dom.Query("[id]") {
				if elem.ID == elemID {
					return r.elementValue(elem)
				}
			}
			return goja.Null()
		},
	}
	for name, value := range methods {
		if err := doc.Set(name, value); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (r *Runtime) elementValue(elem *Element) goja.Value {
	if elem == nil {
		return goja.Null()
	}
	return r.vm.ToValue(map[string]any{
		"tagName":     elem.TagName,
		"id":          elem.ID,
		"className":   elem.ClassName,
		"textContent": elem.TextContent,
		"getAttribute": func(name string) string {
			return elem.GetAttribute(name)
		},
	})
}

func (r *Runtime) jsCreateElement(tag string) goja.Value {
	elem := map[string]any{"tagName": strings.ToUpper(tag)}
	switch strings.ToLower(tag) {
	case "audio":
		elem["canPlayType"] = r.audio.canPlayType
	case "video":
		elem["canPlayType"] = r.video.canPlayType
	}
	return r.vm.ToValue(elem)
}

func (r *Runtime) jsAddEventListener(call goja.FunctionCall) goja.Value {
	signal := call.Argument(0).String()
	cb, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		return goja.Undefined()
	}
	r.addListener(signal, func() {
		event := r.vm.NewObject()
		_ = event.Set("type", signal)
		if _, err := cb(goja.Undefined(), event); err != nil {
			r.log.Warn("event listener failed", zap.String("signal", signal), zap.Error(err))
		}
	}, call.Argument(1))
	return goja.Undefined()
}

func (r *Runtime) jsRemoveEventListener(call goja.FunctionCall) goja.Value {
	signal := call.Argument(0).String()
	fn := call.Argument(1)
	r.listeners[signal] = slices.DeleteFunc(r.listeners[signal], func(l listener) bool {
		return l.js != nil && l.js.StrictEquals(fn)
	})
	return goja.Undefined()
}

func (r *Runtime) jsSetTimeout(call goja.FunctionCall) goja.Value {
	cb, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(r.vm.NewTypeError("setTimeout: callback is not a function"))
	}
	var delay time.Duration
	if arg := call.Argument(1); !goja.IsUndefined(arg) {
		if v := arg.ToFloat(); !math.IsNaN(v) && v > 0 {
			delay = time.Duration(v * float64(time.Millisecond))
		}
	}
	h := r.loop.SetTimeout(func() {
		if _, err := cb(goja.Undefined()); err != nil {
			r.log.Warn("timeout callback failed", zap.Error(err))
		}
	}, delay)
	return r.vm.ToValue(int64(h))
}

func (r *Runtime) jsClearTimeout(call goja.FunctionCall) goja.Value {
	r.loop.ClearTimeout(host.Handle(call.Argument(0).ToInteger()))
	return goja.Undefined()
}

func (r *Runtime) jsRequestFrame(call goja.FunctionCall) goja.Value {
	cb, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(r.vm.NewTypeError("requestAnimationFrame: callback is not a function"))
	}
	h := r.loop.RequestAnimationFrame(func(ts float64) {
		if _, err := cb(goja.Undefined(), r.vm.ToValue(ts)); err != nil {
			r.log.Warn("frame callback failed", zap.Error(err))
		}
	})
	return r.vm.ToValue(int64(h))
}

func (r *Runtime) jsCancelFrame(call goja.FunctionCall) goja.Value {
	r.loop.CancelAnimationFrame(host.Handle(call.Argument(0).ToInteger()))
	return goja.Undefined()
}
