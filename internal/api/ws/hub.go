package ws

import (
	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
	"github.com/GriffinCanCode/hostkit/internal/shared/id"
)

// readyHub fans a single registry subscription out to the open streams.
// Closed streams unwatch, so the registry holds one subscriber no matter how
// many clients come and go. Like the registry, it lives on the loop goroutine.
type readyHub struct {
	registry   *capability.Registry
	watchers   map[id.ConnID]chan<- capability.Report
	subscribed bool
}

func newReadyHub(registry *capability.Registry) *readyHub {
	return &readyHub{
		registry: registry,
		watchers: make(map[id.ConnID]chan<- capability.Report),
	}
}

// watch delivers the report to ch once the registry is ready. ch must be
// buffered; a full channel drops the report rather than block the loop.
func (h *readyHub) watch(conn id.ConnID, ch chan<- capability.Report) {
	h.watchers[conn] = ch
	if h.subscribed {
		return
	}
	// set first: an already ready registry calls back before WhenReady returns
	h.subscribed = true
	h.registry.WhenReady(h.broadcast, "ws")
}

func (h *readyHub) unwatch(conn id.ConnID) {
	delete(h.watchers, conn)
}

func (h *readyHub) broadcast(_ any, r *capability.Registry) {
	h.subscribed = false
	rep := r.Report()
	for conn, ch := range h.watchers {
		select {
		case ch <- rep:
		default:
		}
		delete(h.watchers, conn)
	}
}

func (h *readyHub) len() int {
	return len(h.watchers)
}
