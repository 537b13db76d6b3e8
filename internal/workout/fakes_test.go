package workout

import (
	"context"
	"sync"
	"testing"
	"time"

	"velocity/internal/api"
	"velocity/internal/location"
	"velocity/internal/timer"
)

type timerEntry struct {
	fn        func()
	cancelled bool
}

type manualTimer struct {
	mu        sync.Mutex
	entries   []*timerEntry
	intervals []time.Duration
	cancels   int
}

func (m *manualTimer) Every(interval time.Duration, fn func()) timer.Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &timerEntry{fn: fn}
	m.entries = append(m.entries, e)
	m.intervals = append(m.intervals, interval)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		e.cancelled = true
		m.cancels++
	}
}

// Fire runs every callback that has not been cancelled, n times.
func (m *manualTimer) Fire(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		var fns []func()
		for _, e := range m.entries {
			if !e.cancelled {
				fns = append(fns, e.fn)
			}
		}
		m.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

func (m *manualTimer) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

type fakeLocation struct {
	mu         sync.Mutex
	permission location.Permission
	permErr    error
	permBlock  chan struct{}
	watchErr   error
	opts       location.Options
	fn         func(location.Fix)
	removes    int
}

func newFakeLocation() *fakeLocation {
	return &fakeLocation{permission: location.PermissionGranted}
}

func (l *fakeLocation) RequestPermission(context.Context) (location.Permission, error) {
	l.mu.Lock()
	block := l.permBlock
	l.mu.Unlock()
	if block != nil {
		<-block
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.permission, l.permErr
}

func (l *fakeLocation) Watch(_ context.Context, opts location.Options, fn func(location.Fix)) (location.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watchErr != nil {
		return nil, l.watchErr
	}
	l.opts = opts
	l.fn = fn
	return &fakeSubscription{l: l}, nil
}

// Emit hands a fix to the last watcher, even one that has been removed, the
// way a late platform callback would.
func (l *fakeLocation) Emit(fixes ...location.Fix) {
	l.mu.Lock()
	fn := l.fn
	l.mu.Unlock()
	if fn == nil {
		return
	}
	for _, f := range fixes {
		fn(f)
	}
}

func (l *fakeLocation) Removes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removes
}

type fakeSubscription struct {
	l *fakeLocation
}

func (s *fakeSubscription) Remove() {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	s.l.removes++
}

type fakeUploader struct {
	mu     sync.Mutex
	calls  []api.ActivityUpload
	result any
	err    error
	block  chan struct{}
}

func (u *fakeUploader) UploadActivity(_ context.Context, payload api.ActivityUpload) (any, error) {
	u.mu.Lock()
	u.calls = append(u.calls, payload)
	block, result, err := u.block, u.result, u.err
	u.mu.Unlock()
	if block != nil {
		<-block
	}
	return result, err
}

func (u *fakeUploader) Calls() []api.ActivityUpload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]api.ActivityUpload{}, u.calls...)
}

func (u *fakeUploader) SetErr(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.err = err
}

type recordingFeedback struct {
	mu        sync.Mutex
	successes int
	alerts    []error
}

func (f *recordingFeedback) Success(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes++
}

func (f *recordingFeedback) Alert(_ string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, err)
}

func (f *recordingFeedback) Alerts() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error{}, f.alerts...)
}

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (p *recordingPublisher) Publish(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *recordingPublisher) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots[len(p.snapshots)-1]
}

type harness struct {
	tracker   *Tracker
	timer     *manualTimer
	location  *fakeLocation
	uploader  *fakeUploader
	feedback  *recordingFeedback
	publisher *recordingPublisher
}

func newHarness() *harness {
	h := &harness{
		timer:     &manualTimer{},
		location:  newFakeLocation(),
		uploader:  &fakeUploader{result: map[string]any{"id": float64(1)}},
		feedback:  &recordingFeedback{},
		publisher: &recordingPublisher{},
	}
	h.tracker = New(Deps{
		Timer:     h.timer,
		Location:  h.location,
		Uploader:  h.uploader,
		Feedback:  h.feedback,
		Publisher: h.publisher,
	}, Options{
		UserID:       1,
		Title:        "Velocity Morning Run",
		Description:  "test",
		TickInterval: time.Second,
		Location:     location.DefaultOptions(),
	})
	return h
}

// start begins a session and waits for the background subscription.
func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.tracker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.tracker.pending.Wait()
}
