package location

import (
	"context"
	"sync"
	"sync/atomic"
)

// PushProvider serves fixes that are pushed to it from outside, such as a
// phone posting Overland batches to the HTTP server.
type PushProvider struct {
	permission Permission
	subs       map[*pushSubscription]struct{}
	mu         sync.RWMutex
}

func NewPushProvider(granted bool) *PushProvider {
	permission := PermissionGranted
	if !granted {
		permission = PermissionDenied
	}
	return &PushProvider{
		permission: permission,
		subs:       map[*pushSubscription]struct{}{},
	}
}

func (p *PushProvider) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	return p.permission, nil
}

func (p *PushProvider) Watch(ctx context.Context, opts Options, fn func(Fix)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &pushSubscription{provider: p, gate: NewGate(opts), fn: fn}

	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()
	return sub, nil
}

// Push delivers fixes in order to every live subscription. Nothing is
// delivered while permission is denied.
func (p *PushProvider) Push(fixes ...Fix) int {
	if p.permission != PermissionGranted {
		return 0
	}

	p.mu.RLock()
	subs := make([]*pushSubscription, 0, len(p.subs))
	for sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		for _, fix := range fixes {
			if sub.deliver(fix) {
				delivered++
			}
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions.
func (p *PushProvider) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

type pushSubscription struct {
	provider *PushProvider
	gate     *Gate
	fn       func(Fix)
	gateMu   sync.Mutex
	removed  atomic.Bool
}

func (s *pushSubscription) deliver(fix Fix) bool {
	if s.removed.Load() {
		return false
	}
	s.gateMu.Lock()
	admitted := s.gate.Admit(fix)
	s.gateMu.Unlock()
	if !admitted {
		return false
	}
	s.fn(fix)
	return true
}

func (s *pushSubscription) Remove() {
	if s.removed.Swap(true) {
		return
	}
	s.provider.mu.Lock()
	delete(s.provider.subs, s)
	s.provider.mu.Unlock()
}
