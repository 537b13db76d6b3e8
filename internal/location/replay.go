package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"velocity/internal/shared/geo"

	"github.com/tkrajina/gpxgo/gpx"
)

// ReplayProvider plays back a recorded track as if it were a live stream.
// Each subscription starts from the first point.
type ReplayProvider struct {
	fixes []Fix
	pace  time.Duration
	now   func() time.Time
}

// NewReplayProvider replays fixes one every pace. A zero pace falls back to
// the subscription interval.
func NewReplayProvider(fixes []Fix, pace time.Duration) *ReplayProvider {
	return &ReplayProvider{fixes: fixes, pace: pace, now: time.Now}
}

// TrackKm is the length of the recorded track.
func (p *ReplayProvider) TrackKm() float64 {
	points := make([]geo.Point, 0, len(p.fixes))
	for _, f := range p.fixes {
		points = append(points, geo.Point{Lat: f.Latitude, Lon: f.Longitude})
	}
	return geo.PathKm(points)
}

// Len returns the number of fixes in the track.
func (p *ReplayProvider) Len() int {
	return len(p.fixes)
}

// LoadGPX reads every track point of a GPX file in document order.
func LoadGPX(path string) ([]Fix, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing gpx %s: %w", path, err)
	}
	return fixesFromGPX(g)
}

// ParseGPX is LoadGPX for in-memory documents.
func ParseGPX(data []byte) ([]Fix, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing gpx: %w", err)
	}
	return fixesFromGPX(g)
}

func fixesFromGPX(g *gpx.GPX) ([]Fix, error) {
	var fixes []Fix
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				fixes = append(fixes, Fix{
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
					Timestamp: p.Timestamp,
				})
			}
		}
	}
	if len(fixes) == 0 {
		return nil, errors.New("gpx has no track points")
	}
	return fixes, nil
}

func (p *ReplayProvider) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	return PermissionGranted, nil
}

func (p *ReplayProvider) Watch(ctx context.Context, opts Options, fn func(Fix)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pace := p.pace
	if pace <= 0 {
		pace = opts.Interval
	}
	if pace <= 0 {
		pace = time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &replaySubscription{cancel: cancel, done: make(chan struct{})}
	go p.play(ctx, NewGate(opts), pace, fn, sub.done)
	return sub, nil
}

func (p *ReplayProvider) play(ctx context.Context, gate *Gate, pace time.Duration, fn func(Fix), done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	for _, fix := range p.fixes {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if fix.Timestamp.IsZero() {
			fix.Timestamp = p.now()
		}
		if gate.Admit(fix) {
			fn(fix)
		}
	}
}

type replaySubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Remove stops playback and waits for the replay goroutine to exit.
func (s *replaySubscription) Remove() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}
