// Package id provides ULID-based identifiers for log correlation.
//
// Every long-lived hostkit object gets a prefixed, k-sortable ID so that log
// lines from one host, registry or scheduler run can be grouped:
//   - host_*: a simulated host instance
//   - reg_*:  a capability registry
//   - run_*:  one Start..Stop cycle of a frame scheduler
//   - conn_*: an inspector WebSocket connection
//   - trace_*, span_*: tracing context
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// HostID identifies a host instance
type HostID string

// RegistryID identifies a capability registry
type RegistryID string

// RunID identifies one scheduler run
type RunID string

// ConnID identifies an inspector connection
type ConnID string

const (
	HostPrefix     = "host"
	RegistryPrefix = "reg"
	RunPrefix      = "run"
	ConnPrefix     = "conn"
	TracePrefix    = "trace"
	SpanPrefix     = "span"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewHostID generates a new host ID
func NewHostID() HostID {
	return HostID(Default().GenerateWithPrefix(HostPrefix))
}

// NewRegistryID generates a new registry ID
func NewRegistryID() RegistryID {
	return RegistryID(Default().GenerateWithPrefix(RegistryPrefix))
}

// NewRunID generates a new scheduler run ID
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(RunPrefix))
}

// NewConnID generates a new connection ID
func NewConnID() ConnID {
	return ConnID(Default().GenerateWithPrefix(ConnPrefix))
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return Default().GenerateWithPrefix(TracePrefix)
}

// NewSpanID generates a new span ID
func NewSpanID() string {
	return Default().GenerateWithPrefix(SpanPrefix)
}

func (id HostID) String() string     { return string(id) }
func (id RegistryID) String() string { return string(id) }
func (id RunID) String() string      { return string(id) }
func (id ConnID) String() string     { return string(id) }

// IsValid checks if an ID string is a valid ULID, with or without prefix
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Parse parses a ULID string, stripping a known prefix if present
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
