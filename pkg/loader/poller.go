package loader

import (
	"sync"
	"time"
)

// DefaultPollInterval matches the readiness check cadence of browser hosts
const DefaultPollInterval = 10 * time.Millisecond

// Sizer reports the natural dimensions of an image that may still be
// decoding. Zero dimensions mean not ready yet.
type Sizer interface {
	NaturalSize() (width, height int)
}

// SizerFunc adapts a function to Sizer
type SizerFunc func() (int, int)

// NaturalSize implements Sizer
func (f SizerFunc) NaturalSize() (int, int) { return f() }

// Poller waits for an asynchronously decoding image to report non-zero
// dimensions. It is the fallback for hosts without a decode-completion
// signal. The poll loop stops exactly once, on success or on Cancel.
type Poller struct {
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller creates a poller; a non-positive interval selects
// DefaultPollInterval.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins polling s and calls onReady once with its dimensions. It
// must be called at most once.
func (p *Poller) Start(s Sizer, onReady func(width, height int)) {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			if w, h := s.NaturalSize(); w > 0 && h > 0 {
				if p.Cancel() {
					onReady(w, h)
				}
				return
			}
			select {
			case <-p.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Cancel stops polling. It reports whether this call was the one that
// stopped the loop.
func (p *Poller) Cancel() bool {
	stopped := false
	p.stopOnce.Do(func() {
		close(p.stop)
		stopped = true
	})
	return stopped
}

// Done is closed when the poll loop has exited
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
