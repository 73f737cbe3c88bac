package capability

import (
	"errors"
	"fmt"
)

// ErrProbePanicked wraps a panic recovered from a probe.
var ErrProbePanicked = errors.New("probe panicked")

// Probe is one unit of detection logic. Run may read capabilities written
// by earlier probes and write its own; an error or panic discards every
// write it made.
type Probe struct {
	Name string
	Run  func(rec *Record) error
}

// run executes the probe against a scope of rec and merges it on success.
func (p Probe) run(rec *Record) (err error) {
	scope := rec.scope()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProbePanicked, r)
		}
	}()

	if p.Run == nil {
		return nil
	}
	if err := p.Run(scope); err != nil {
		return err
	}
	rec.merge(scope)
	return nil
}
