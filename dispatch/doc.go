// SPDX-License-Identifier: EPL-2.0

// Package dispatch plays sound profiles through pooled handles.
//
// A Dispatcher resolves a profile, lends one handle per playback config
// from the pool, randomizes volume and pitch inside the configured ranges
// and starts every handle in the same step. Each play request leaves a
// completion watcher behind; Tick evaluates the watchers and returns the
// handles of finished requests to the pool.
//
// Stopping is two-phase: the Stop methods halt handles immediately and the
// next Tick reclaims them. While the dispatcher is paused, handles in
// pausable groups are suspended and their watchers wait, so a paused sound
// is never mistaken for a finished one.
//
// A Dispatcher is not safe for concurrent use. Loop owns one and
// serializes every call onto its goroutine, ticking it at a fixed
// interval:
//
//	loop := dispatch.NewLoop(d)
//	go loop.Run(ctx)
//	err := loop.Play(ctx, "door_open", door)
package dispatch
