// Package probes holds the standard capability probes for browser-like
// hosts. Each probe evaluates small scripts through an Inspector and writes
// dotted capability names such as "audio.ogg" or "browser.safariVersion".
package probes

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
)

// ErrUnexpectedType is returned when a script evaluates to the wrong type.
var ErrUnexpectedType = errors.New("unexpected script result type")

// Inspector evaluates a script in the host and returns its exported value.
type Inspector interface {
	Eval(script string) (any, error)
}

// Standard returns the standard probes in the order they must run: browser
// before audio because the audio probe special-cases old Safari.
func Standard(ins Inspector) []capability.Probe {
	return []capability.Probe{
		OS(ins),
		Browser(ins),
		Audio(ins),
		Video(ins),
		Features(ins),
		Input(ins),
		Device(ins),
	}
}

func evalBool(ins Inspector, script string) (bool, error) {
	v, err := ins.Eval(script)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q returned %T", ErrUnexpectedType, script, v)
	}
}

func evalString(ins Inspector, script string) (string, error) {
	v, err := ins.Eval(script)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %q returned %T", ErrUnexpectedType, script, v)
	}
}

func evalNumber(ins Inspector, script string) (float64, error) {
	v, err := ins.Eval(script)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q returned %T", ErrUnexpectedType, script, v)
	}
}

// defined builds a script testing that a global exists.
func defined(name string) string {
	return fmt.Sprintf("typeof %s !== 'undefined'", name)
}

// boolChecks evaluates each script and records the result under its name.
func boolChecks(ins Inspector, rec *capability.Record, checks []check) error {
	for _, c := range checks {
		ok, err := evalBool(ins, c.script)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		rec.SetBool(c.name, ok)
	}
	return nil
}

type check struct {
	name   string
	script string
}
