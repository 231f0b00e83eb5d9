// SPDX-License-Identifier: EPL-2.0

//go:build headless

package mixer

import (
	"sync"
	"time"
)

const headlessPeriod = 10 * time.Millisecond

// Output drains a mixer in real time without a sound device.
type Output struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func Open(m *Mixer, opts OutputOptions) (*Output, error) {
	frames := max(1, m.SampleRate()*int(headlessPeriod)/int(time.Second))
	o := &Output{stop: make(chan struct{})}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		buf := make([]byte, frames*Channels*2)
		t := time.NewTicker(headlessPeriod)
		defer t.Stop()
		for {
			select {
			case <-o.stop:
				return
			case <-t.C:
				_, _ = m.Read(buf)
			}
		}
	}()
	return o, nil
}

func (o *Output) Close() error {
	o.once.Do(func() {
		close(o.stop)
		o.wg.Wait()
	})
	return nil
}
