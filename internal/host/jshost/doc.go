/*
Package jshost simulates a browser-like host on top of the goja JavaScript VM.

# Overview

A Runtime is built from a Profile and an event loop. It exposes the
globals page scripts expect (window, document, navigator, screen,
setTimeout and the vendor-named frame functions the profile lists) and
implements host.Environment and host.FrameLookup for Go consumers.

Boot replays the document lifecycle on the loop:

	loading -> body attached -> interactive + DOMContentLoaded -> complete + load

Hybrid profiles additionally fire deviceready. Profiles that start
interactive or complete already have their body.

# Profiles

Profiles are YAML or TOML documents. Several are embedded (see
BuiltinNames); more can be loaded from a directory tree with LoadDir.

	p, err := jshost.Resolve("safari", os.Getenv("HOST_PROFILE_DIR"))
	rt, err := jshost.New(loop, p, jshost.DefaultOptions())
	rt.Boot()

# Threading

A Runtime is confined to its loop goroutine, as is the underlying goja VM.
Eval must therefore be called from loop callbacks or through eventloop.Do.
*/
package jshost
