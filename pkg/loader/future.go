package loader

import (
	"context"
	"sync"
)

// Future is the pending result of an asynchronous load
type Future struct {
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

// LoadAsync decodes and normalizes data in the background
func (l *Loader) LoadAsync(data []byte) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		res, err := l.Load(data)
		f.resolve(res, err)
	}()
	return f
}

func (f *Future) resolve(res Result, err error) {
	f.once.Do(func() {
		f.result, f.err = res, err
		close(f.done)
	})
}

// Done is closed once the load has finished
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the load finishes or ctx is done
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Then runs fn with the result once the load finishes. fn runs on a
// separate goroutine.
func (f *Future) Then(fn func(Result, error)) {
	go func() {
		<-f.done
		fn(f.result, f.err)
	}()
}
