// Package http serves the inspector REST surface.
//
// Every handler reads or mutates host state through an Executor so that
// the registry, the scheduler and the game are only touched on the host
// loop goroutine.
package http
