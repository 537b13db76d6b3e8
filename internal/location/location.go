package location

import (
	"context"
	"time"
)

// Fix is a single reported position.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	HeartRate int       `json:"heart_rate,omitempty"`
}

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type Accuracy int

const (
	LowAccuracy Accuracy = iota
	BalancedAccuracy
	HighAccuracy
	BestAccuracy
)

// Options controls how often a subscription reports. A fix is delivered when
// Interval has elapsed or the device moved DistanceM, whichever comes first.
type Options struct {
	Accuracy  Accuracy
	Interval  time.Duration
	DistanceM float64
}

func DefaultOptions() Options {
	return Options{Accuracy: BestAccuracy, Interval: time.Second, DistanceM: 1}
}

type Provider interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Watch(ctx context.Context, opts Options, fn func(Fix)) (Subscription, error)
}

// Subscription is a live stream of fixes. Remove may be called any number of times.
type Subscription interface {
	Remove()
}
