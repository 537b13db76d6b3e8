package server

import (
	"fmt"

	"velocity/internal/api"
	"velocity/internal/config"
	"velocity/internal/dashboard"
	"velocity/internal/feedback"
	"velocity/internal/location"
	applog "velocity/internal/logger"
	"velocity/internal/stream"
	"velocity/internal/telemetry"
	"velocity/internal/timer"
	"velocity/internal/tracking"
	"velocity/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Redis    *redis.Client
	Stream   *stream.Hub
	API      *api.Client
	Tracker  *workout.Tracker
	Tracking *tracking.Service
	History  *dashboard.History

	// Pusher is set when fixes arrive over POST /locations.
	Pusher *location.PushProvider

	sink *telemetry.Sink
	log  applog.Logger
}

func NewServer(cfg config.Config, redisClient *redis.Client, influx client.Client, log applog.Logger) (*Server, error) {
	if log == nil {
		log = applog.Discard()
	}

	provider, pusher, err := locationProvider(cfg, log)
	if err != nil {
		return nil, err
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		API: api.NewClient(api.Options{
			BaseURL:       cfg.APIBaseURL,
			UploadTimeout: cfg.UploadTimeout,
			Logger:        log,
		}),
		Pusher: pusher,
		log:    log,
	}

	publishers := workout.MultiPublisher{s.Stream}
	if influx != nil {
		s.sink = telemetry.NewSink(influx, cfg.InfluxDatabase, cfg.UserID, log)
		publishers = append(publishers, s.sink)
	}

	s.Tracker = workout.New(workout.Deps{
		Timer:     timer.Ticker{},
		Location:  provider,
		Uploader:  s.API,
		Feedback:  feedback.NewNotifier(log, nil, s.Stream),
		Publisher: publishers,
		Logger:    log.With("component", "workout"),
	}, workout.Options{
		UserID:       cfg.UserID,
		Title:        cfg.ActivityTitle,
		Description:  cfg.ActivityDescription,
		TickInterval: cfg.TickInterval,
		Location: location.Options{
			Accuracy:  location.BestAccuracy,
			Interval:  cfg.LocationInterval,
			DistanceM: cfg.LocationDistanceM,
		},
	})
	s.Tracking = tracking.NewService(s.Tracker, pusherOrNil(pusher), log)
	s.History = dashboard.NewHistory(s.API, cfg.UserID, log)

	registerRoutes(s)
	return s, nil
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	tracking.RegisterRoutes(s.App, s.Tracking)
	dashboard.RegisterRoutes(s.App, s.History, s.API)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// Close stops the running session and drains background work. The HTTP app
// is shut down separately by the caller.
func (s *Server) Close() {
	s.Tracker.Close()
	s.Tracking.Wait()
	if s.sink != nil {
		s.sink.Close()
	}
	s.Stream.Close()
}

func locationProvider(cfg config.Config, log applog.Logger) (location.Provider, *location.PushProvider, error) {
	if cfg.ReplayGPX != "" {
		fixes, err := location.LoadGPX(cfg.ReplayGPX)
		if err != nil {
			return nil, nil, fmt.Errorf("loading replay track: %w", err)
		}
		replay := location.NewReplayProvider(fixes, 0)
		log.Info("replay track loaded", "path", cfg.ReplayGPX, "points", replay.Len(), "track_km", replay.TrackKm())
		return replay, nil, nil
	}
	pusher := location.NewPushProvider(cfg.LocationGranted())
	return pusher, pusher, nil
}

// pusherOrNil keeps a nil *PushProvider from becoming a non-nil interface.
func pusherOrNil(p *location.PushProvider) tracking.Pusher {
	if p == nil {
		return nil
	}
	return p
}
