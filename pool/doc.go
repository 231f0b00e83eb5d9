// SPDX-License-Identifier: EPL-2.0

// Package pool lends reusable emission handles to the dispatcher.
//
// A Handle wraps one backend Voice. Idle handles wait in a LIFO stack and
// are recycled before new voices are created; a released handle is always
// reset to the neutral state first so no configuration leaks from one
// emission into the next.
//
// When every handle is in use, Acquire follows the configured Policy:
// PolicyReject returns ErrPoolExhausted and PolicyGrow creates a transient
// handle that is destroyed again on release, bringing the pool back under
// its capacity.
//
// The pool is meant to be driven from one goroutine (the dispatch loop).
// Its methods still lock so Stats can be scraped from elsewhere.
package pool
