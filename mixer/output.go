// SPDX-License-Identifier: EPL-2.0

package mixer

import "time"

const DefaultOutputBuffer = 50 * time.Millisecond

type OutputOptions struct {
	// Buffer is the device latency target; zero means DefaultOutputBuffer.
	Buffer time.Duration
}

func (o OutputOptions) buffer() time.Duration {
	if o.Buffer <= 0 {
		return DefaultOutputBuffer
	}
	return o.Buffer
}
