package telemetry

import (
	"strconv"
	"sync"
	"time"

	"velocity/internal/logger"
	"velocity/internal/workout"

	client "github.com/influxdata/influxdb1-client/v2"
)

const Measurement = "workout"

// Sink writes live workout snapshots to influx as "workout" points. Writes
// happen on a background goroutine so a slow database never stalls the
// tracker; when the queue is full the newest snapshot is dropped.
type Sink struct {
	client   client.Client
	database string
	userID   int64
	log      logger.Logger

	queue     chan workout.Snapshot
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewSink(c client.Client, database string, userID int64, log logger.Logger) *Sink {
	if log == nil {
		log = logger.Discard()
	}
	s := &Sink{
		client:   c,
		database: database,
		userID:   userID,
		log:      log.With("component", "telemetry"),
		queue:    make(chan workout.Snapshot, 128),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Publish implements workout.Publisher.
func (s *Sink) Publish(snapshot workout.Snapshot) {
	if snapshot.ID == "" {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- snapshot:
	default:
		s.log.Warn("telemetry queue full, dropping snapshot", "session_id", snapshot.ID)
	}
}

// Close flushes queued snapshots and waits for the writer to stop.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		<-s.done
	})
}

func (s *Sink) run() {
	defer close(s.done)
	for snapshot := range s.queue {
		if err := s.write(snapshot); err != nil {
			s.log.Error("influx write failed", err, "session_id", snapshot.ID)
		}
	}
}

func (s *Sink) write(snapshot workout.Snapshot) error {
	pt, err := Point(snapshot, s.userID, time.Now())
	if err != nil {
		return err
	}
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "s",
	})
	if err != nil {
		return err
	}
	bp.AddPoint(pt)
	return s.client.Write(bp)
}

// Point converts a snapshot into an influx point.
func Point(snapshot workout.Snapshot, userID int64, at time.Time) (*client.Point, error) {
	tags := map[string]string{
		"session_id": snapshot.ID,
		"user_id":    strconv.FormatInt(userID, 10),
		"state":      string(snapshot.State),
	}
	fields := map[string]interface{}{
		"distance_km": snapshot.DistanceKm,
		"duration_s":  snapshot.DurationSeconds,
		"point_count": len(snapshot.Route),
		"heart_rate":  snapshot.HeartRate,
		"calories":    snapshot.Metrics.Calories,
		"pace":        snapshot.Metrics.Pace,
	}
	return client.NewPoint(Measurement, tags, fields, at)
}
