/*
Package host defines the primitives a host runtime exposes to hostkit.

# Overview

Nothing in hostkit talks to a concrete host directly. The capability
registry and the frame scheduler consume the small interfaces declared
here, and each host adapter implements them:

  - eventloop: a cooperative single-goroutine loop with timers and
    refresh-paced frames
  - jshost: a browser-like environment on top of the goja JavaScript VM
  - hosttest: a manual, virtual-time host for deterministic tests

# Threading

Every callback handed to a host primitive runs on the host's loop
goroutine, one at a time. Components built on these interfaces rely on
that confinement instead of locking.

# Signals

Readiness is delivered through named signals (SignalContentLoaded,
SignalLoad, SignalDeviceReady). A host may deliver each at most once per
lifetime, but consumers must tolerate several of them firing.
*/
package host
