package capability

import (
	"maps"
	"slices"
)

// Record maps capability names to bool, string or float64 values. Absent
// names read as the conservative default: false, "" or 0.
//
// A probe writes into a scope layered over the shared record. The scope is
// merged only when the probe succeeds, so a failing probe leaves nothing
// behind.
type Record struct {
	values map[string]any
	parent *Record
}

func newRecord() *Record {
	return &Record{values: make(map[string]any)}
}

func (r *Record) scope() *Record {
	return &Record{values: make(map[string]any), parent: r}
}

func (r *Record) merge(scope *Record) {
	maps.Copy(r.values, scope.values)
}

// SetBool records a boolean capability.
func (r *Record) SetBool(name string, v bool) { r.values[name] = v }

// SetString records a string capability.
func (r *Record) SetString(name string, v string) { r.values[name] = v }

// SetNumber records a numeric capability.
func (r *Record) SetNumber(name string, v float64) { r.values[name] = v }

// Get returns the raw value and whether it was recorded.
func (r *Record) Get(name string) (any, bool) {
	for rec := r; rec != nil; rec = rec.parent {
		if v, ok := rec.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Bool returns a boolean capability, false when absent or not a bool.
func (r *Record) Bool(name string) bool {
	v, _ := r.Get(name)
	b, _ := v.(bool)
	return b
}

// String returns a string capability, "" when absent or not a string.
func (r *Record) String(name string) string {
	v, _ := r.Get(name)
	s, _ := v.(string)
	return s
}

// Number returns a numeric capability, 0 when absent or not a number.
func (r *Record) Number(name string) float64 {
	v, _ := r.Get(name)
	n, _ := v.(float64)
	return n
}

// Len returns the number of recorded capabilities.
func (r *Record) Len() int {
	return len(r.Snapshot())
}

// Names returns the recorded names in sorted order.
func (r *Record) Names() []string {
	snap := r.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Snapshot returns a flattened copy safe to hand to other goroutines.
func (r *Record) Snapshot() map[string]any {
	out := make(map[string]any)
	if r.parent != nil {
		maps.Copy(out, r.parent.Snapshot())
	}
	maps.Copy(out, r.values)
	return out
}
