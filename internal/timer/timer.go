package timer

import (
	"sync"
	"time"
)

// Cancel stops a repeating callback. Calling it more than once is a no-op.
type Cancel func()

type Provider interface {
	Every(interval time.Duration, fn func()) Cancel
}

// Ticker runs callbacks from a time.Ticker on a dedicated goroutine.
type Ticker struct{}

func (Ticker) Every(interval time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(stop)
			<-done
		})
	}
}
