/*
Package capability runs a one-shot capability discovery pass over a host and
notifies subscribers once it completes.

# Lifecycle

	unarmed -> armed -> initializing -> ready

A Registry does nothing until the first subscription that does not defer
arming. It then attaches exactly one readiness strategy, chosen in order:

 1. the document is already interactive or complete: check on the next
    timer tick (never synchronously)
 2. the host is a hybrid container: wait for deviceready only
 3. otherwise wait for DOMContentLoaded or load, whichever comes first

The readiness check polls until the document body exists, then detaches
every listener, runs the probes once, notifies OnInitialized observers and
flushes subscribers in registration order. Later signals are no-ops and
later subscriptions are invoked before Subscribe returns. Hosts with no
document at all are ready on the first subscription.

# Probes

Probes run in registration order and may read what earlier probes wrote.
A probe that returns an error or panics has its writes discarded, so its
capabilities read as false, "" or 0. Failures are logged and counted but
never returned.

# Threading

A Registry belongs to its host's loop goroutine and takes no locks.
*/
package capability
