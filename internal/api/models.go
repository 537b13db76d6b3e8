package api

import "time"

// TimestampLayout is the ISO-8601 form the backend accepts for point timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type GPSPoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Timestamp string  `json:"timestamp"`
}

// NewGPSPoint stamps a coordinate with t rendered in UTC.
func NewGPSPoint(lat, lon float64, t time.Time) GPSPoint {
	return GPSPoint{Lat: lat, Lon: lon, Timestamp: t.UTC().Format(TimestampLayout)}
}

type ActivityUpload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	UserID      int64      `json:"user_id"`
	Points      []GPSPoint `json:"points"`
}

type ActivityResponse struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	DistanceKm          float64 `json:"distance_km"`
	MovingTimeSeconds   int64   `json:"moving_time_seconds"`
	ElevationGainMeters float64 `json:"elevation_gain_meters"`
}
