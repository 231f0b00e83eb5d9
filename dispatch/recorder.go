// SPDX-License-Identifier: EPL-2.0

package dispatch

type PlayResult int

const (
	PlayStarted PlayResult = iota
	// PlaySuppressed is a play of a pausable group while paused.
	PlaySuppressed
	PlayNotFound
	PlayExhausted
)

func (r PlayResult) String() string {
	switch r {
	case PlayStarted:
		return "started"
	case PlaySuppressed:
		return "suppressed"
	case PlayNotFound:
		return "not_found"
	case PlayExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Recorder observes dispatcher activity, typically for metrics.
type Recorder interface {
	ObservePlay(PlayResult)
	ObserveStop(handles int)
	ObserveRelease(handles int)
}

type NopRecorder struct{}

func (NopRecorder) ObservePlay(PlayResult) {}
func (NopRecorder) ObserveStop(int)        {}
func (NopRecorder) ObserveRelease(int)     {}
