package workout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"velocity/internal/api"
	"velocity/internal/location"
	"velocity/internal/logger"
	"velocity/internal/shared/geo"
	"velocity/internal/timer"

	"github.com/google/uuid"
)

var (
	ErrPermissionDenied    = errors.New("permission to access location was denied")
	ErrSubscriptionFailure = errors.New("location updates could not be started")
	ErrEmptyRoute          = errors.New("no GPS data recorded")
	ErrSessionFinished     = errors.New("session already finished")
	ErrUploadInProgress    = errors.New("upload already in progress")
)

type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateFinishing State = "finishing"
	StateFinished  State = "finished"
)

// Session is the tracker-owned state of one workout. Active means the timer
// and the location stream are live.
type Session struct {
	ID              string         `json:"id"`
	State           State          `json:"state"`
	Active          bool           `json:"active"`
	Finished        bool           `json:"finished"`
	Loading         bool           `json:"loading"`
	Error           string         `json:"error,omitempty"`
	DurationSeconds int            `json:"duration_seconds"`
	DistanceKm      float64        `json:"distance_km"`
	Route           []api.GPSPoint `json:"route"`
	HeartRate       int            `json:"heart_rate"`
	StartedAt       time.Time      `json:"started_at"`
}

type Snapshot struct {
	Session
	Metrics Metrics `json:"metrics"`
}

type Uploader interface {
	UploadActivity(ctx context.Context, payload api.ActivityUpload) (any, error)
}

// Feedback receives the user-facing signals of a session: the completion
// pulse when the user finishes and alerts for every failure.
type Feedback interface {
	Success(sessionID string)
	Alert(sessionID string, err error)
}

// Publisher receives a snapshot after every state change.
type Publisher interface {
	Publish(snapshot Snapshot)
}

type Deps struct {
	Timer     timer.Provider
	Location  location.Provider
	Uploader  Uploader
	Feedback  Feedback
	Publisher Publisher
	Logger    logger.Logger
}

type Options struct {
	UserID       int64
	Title        string
	Description  string
	TickInterval time.Duration
	Location     location.Options
}

type Tracker struct {
	deps Deps
	opts Options
	now  func() time.Time

	mu      sync.Mutex
	session Session
	guard   *Guard

	pending sync.WaitGroup
}

func New(deps Deps, opts Options) *Tracker {
	if deps.Timer == nil {
		deps.Timer = timer.Ticker{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	return &Tracker{
		deps:    deps,
		opts:    opts,
		now:     time.Now,
		session: Session{State: StateIdle, Route: []api.GPSPoint{}},
	}
}

// Start begins a new session, discarding whatever the previous one held.
// Location permission is requested in the background: a refusal shows up
// as the session error, never as a Start failure.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.session.Loading {
		t.mu.Unlock()
		return ErrUploadInProgress
	}
	prev := t.guard
	guard := NewGuard()
	t.guard = guard
	t.session = Session{
		ID:        uuid.NewString(),
		State:     StateActive,
		Active:    true,
		Route:     []api.GPSPoint{},
		StartedAt: t.now(),
	}
	sessionID := t.session.ID
	t.mu.Unlock()

	prev.Release()
	t.deps.Logger.Info("session started", "session_id", sessionID)

	guard.SetTimer(t.deps.Timer.Every(t.opts.TickInterval, func() { t.tick(guard) }))

	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		t.subscribe(context.WithoutCancel(ctx), guard, sessionID)
	}()

	t.publish()
	return nil
}

func (t *Tracker) subscribe(ctx context.Context, guard *Guard, sessionID string) {
	permission, err := t.deps.Location.RequestPermission(ctx)
	if err != nil {
		t.fail(guard, sessionID, fmt.Errorf("%w: %v", ErrPermissionDenied, err))
		return
	}
	if permission != location.PermissionGranted {
		t.fail(guard, sessionID, ErrPermissionDenied)
		return
	}

	sub, err := t.deps.Location.Watch(ctx, t.opts.Location, func(fix location.Fix) {
		t.onFix(guard, fix)
	})
	if err != nil {
		t.fail(guard, sessionID, fmt.Errorf("%w: %v", ErrSubscriptionFailure, err))
		return
	}
	guard.SetSubscription(sub)
}

func (t *Tracker) tick(guard *Guard) {
	t.mu.Lock()
	if t.guard != guard {
		t.mu.Unlock()
		return
	}
	t.session.DurationSeconds++
	t.mu.Unlock()
	t.publish()
}

func (t *Tracker) onFix(guard *Guard, fix location.Fix) {
	t.mu.Lock()
	if t.guard != guard {
		t.mu.Unlock()
		return
	}
	point := api.NewGPSPoint(fix.Latitude, fix.Longitude, fix.Timestamp)
	if n := len(t.session.Route); n > 0 {
		prev := t.session.Route[n-1]
		t.session.DistanceKm += geo.HaversineKm(prev.Lat, prev.Lon, point.Lat, point.Lon)
	}
	t.session.Route = append(t.session.Route, point)
	if fix.HeartRate > 0 {
		t.session.HeartRate = fix.HeartRate
	}
	t.mu.Unlock()
	t.publish()
}

func (t *Tracker) fail(guard *Guard, sessionID string, err error) {
	t.mu.Lock()
	if t.guard != guard {
		t.mu.Unlock()
		return
	}
	t.session.Error = err.Error()
	t.mu.Unlock()

	t.deps.Logger.Error("location tracking degraded", err, "session_id", sessionID)
	t.alert(sessionID, err)
	t.publish()
}

// Finish stops tracking and uploads the recorded route. On upload failure
// the route, duration and distance are kept and Finish may be called again,
// which sends the same payload once more.
func (t *Tracker) Finish(ctx context.Context) (any, error) {
	t.mu.Lock()
	if t.session.Finished {
		t.mu.Unlock()
		return nil, ErrSessionFinished
	}
	if t.session.Loading {
		t.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	guard := t.guard
	t.guard = nil
	t.session.Active = false
	sessionID := t.session.ID
	empty := len(t.session.Route) == 0

	var payload api.ActivityUpload
	if empty {
		t.session.Error = ErrEmptyRoute.Error()
	} else {
		t.session.Loading = true
		t.session.Error = ""
		t.session.State = StateFinishing
		payload = t.payloadLocked()
	}
	t.mu.Unlock()

	guard.Release()
	if t.deps.Feedback != nil {
		t.deps.Feedback.Success(sessionID)
	}

	if empty {
		t.deps.Logger.Warn("finish without route", "session_id", sessionID)
		t.alert(sessionID, ErrEmptyRoute)
		t.publish()
		return nil, ErrEmptyRoute
	}
	t.publish()

	result, err := t.deps.Uploader.UploadActivity(ctx, payload)

	t.mu.Lock()
	t.session.Loading = false
	if err != nil {
		t.session.Error = err.Error()
		t.session.State = StateActive
	} else {
		t.session.Finished = true
		t.session.State = StateFinished
	}
	t.mu.Unlock()

	if err != nil {
		t.deps.Logger.Error("activity upload failed", err, "session_id", sessionID)
		t.alert(sessionID, err)
		t.publish()
		return nil, err
	}

	t.deps.Logger.Info("activity saved", "session_id", sessionID, "points", len(payload.Points))
	t.publish()
	return result, nil
}

// Close releases the session's timer and location stream and waits for a
// pending permission request or subscription to settle. It is the owner's
// teardown hook and may run after Finish, before Start, or more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	guard := t.guard
	t.guard = nil
	stopped := guard != nil
	if stopped {
		t.session.Active = false
	}
	t.mu.Unlock()

	guard.Release()
	t.pending.Wait()
	if stopped {
		t.publish()
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := t.session
	s.Route = append([]api.GPSPoint{}, t.session.Route...)
	return Snapshot{Session: s, Metrics: metricsFor(s)}
}

func (t *Tracker) payloadLocked() api.ActivityUpload {
	return api.ActivityUpload{
		Title:       t.opts.Title,
		Description: t.opts.Description,
		UserID:      t.opts.UserID,
		Points:      append([]api.GPSPoint{}, t.session.Route...),
	}
}

func (t *Tracker) alert(sessionID string, err error) {
	if t.deps.Feedback != nil {
		t.deps.Feedback.Alert(sessionID, err)
	}
}

func (t *Tracker) publish() {
	if t.deps.Publisher == nil {
		return
	}
	t.deps.Publisher.Publish(t.Snapshot())
}
