package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"velocity/internal/dashboard"
	"velocity/internal/location"
	"velocity/internal/logger"
	"velocity/internal/workout"

	"github.com/gofiber/fiber/v2"
)

// Slider geometry of the watch face: screen width minus margins, and the knob.
const (
	DefaultSliderWidth = 335
	DefaultKnobWidth   = 60
)

type Workout interface {
	Start(ctx context.Context) error
	Finish(ctx context.Context) (any, error)
	Snapshot() workout.Snapshot
}

type Pusher interface {
	Push(fixes ...location.Fix) int
}

type Service struct {
	workout Workout
	pusher  Pusher
	slider  *dashboard.Slider
	log     logger.Logger

	finishing sync.WaitGroup
}

// NewService wires the workout screen. pusher may be nil when fixes come
// from a replay instead of the ingestion endpoint.
func NewService(w Workout, pusher Pusher, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{workout: w, pusher: pusher, log: log.With("component", "tracking")}
	s.slider = dashboard.NewSlider(DefaultSliderWidth, DefaultKnobWidth, s.finishInBackground)
	return s
}

func (s *Service) Start(ctx context.Context) (dashboard.Dashboard, error) {
	if err := s.workout.Start(ctx); err != nil {
		return dashboard.Dashboard{}, err
	}
	s.slider.Reset()
	return s.Dashboard(), nil
}

func (s *Service) Finish(ctx context.Context) (FinishResponse, error) {
	result, err := s.workout.Finish(ctx)
	resp := FinishResponse{Session: s.Dashboard(), Result: result}
	if err != nil {
		// leave the slider armed so the user can try again
		s.slider.Reset()
		return resp, err
	}
	return resp, nil
}

func (s *Service) Dashboard() dashboard.Dashboard {
	return dashboard.NewDashboard(s.workout.Snapshot())
}

// Slide feeds one gesture event to the slide-to-finish control. A commit
// starts the upload in the background; its outcome reaches the dashboard
// through the session snapshot and feedback events.
func (s *Service) Slide(req SlideRequest) (SlideResponse, error) {
	committed := false
	switch req.Phase {
	case SlideBegin:
		s.slider.Begin()
	case SlideUpdate:
		s.slider.Update(req.TranslationX)
	case SlideEnd:
		committed = s.slider.End()
	default:
		return SlideResponse{}, fmt.Errorf("unknown slide phase %q", req.Phase)
	}
	return SlideResponse{SliderState: s.slider.State(), Finishing: committed}, nil
}

// Ingest decodes an Overland batch and hands its fixes to the push provider.
// Unusable points are logged and dropped; the batch is still acknowledged.
func (s *Service) Ingest(r io.Reader) (IngestResponse, error) {
	fixes, skipped, err := location.DecodeOverland(r)
	if err != nil {
		return IngestResponse{}, err
	}
	for _, e := range skipped {
		s.log.Warn("skipping location", "error", e.Error())
	}
	delivered := 0
	if s.pusher != nil {
		delivered = s.pusher.Push(fixes...)
	}
	s.log.Debug("location batch", "received", len(fixes), "skipped", len(skipped), "delivered", delivered)
	return IngestResponse{Result: "ok", Received: len(fixes), Skipped: len(skipped), Delivered: delivered}, nil
}

// Wait blocks until background finishes started by the slider return.
func (s *Service) Wait() {
	s.finishing.Wait()
}

func (s *Service) finishInBackground() {
	s.finishing.Add(1)
	go func() {
		defer s.finishing.Done()
		if _, err := s.Finish(context.Background()); err != nil {
			s.log.Warn("slide finish failed", "error", err.Error())
		}
	}()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workout.ErrEmptyRoute):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, workout.ErrSessionFinished), errors.Is(err, workout.ErrUploadInProgress):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadGateway
	}
}
