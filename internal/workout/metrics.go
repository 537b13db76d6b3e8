package workout

import (
	"fmt"
	"math"
)

// CaloriesPerKm is a flat burn rate. It is a rough placeholder until a real
// model (weight, heart rate, grade) replaces EstimateCalories.
const CaloriesPerKm = 60

type Metrics struct {
	Distance  string `json:"distance"`
	Pace      string `json:"pace"`
	HeartRate int    `json:"heart_rate"`
	Time      string `json:"time"`
	Calories  int    `json:"calories"`
}

// FormatTime renders seconds as MM:SS. Minutes keep counting past 59; the
// dashboard has no hours slot.
func FormatTime(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}

// FormatPace renders minutes per kilometer as M:SS, or "0:00" when there is
// no distance or no time yet.
func FormatPace(durationSeconds int, distanceKm float64) string {
	if distanceKm <= 0 || durationSeconds <= 0 {
		return "0:00"
	}
	secondsPerKm := int(math.Round(float64(durationSeconds) / distanceKm))
	return fmt.Sprintf("%d:%02d", secondsPerKm/60, secondsPerKm%60)
}

func EstimateCalories(distanceKm float64) int {
	return int(math.Round(distanceKm * CaloriesPerKm))
}

func FormatDistance(distanceKm float64) string {
	return fmt.Sprintf("%.2f", distanceKm)
}

func metricsFor(s Session) Metrics {
	return Metrics{
		Distance:  FormatDistance(s.DistanceKm),
		Pace:      FormatPace(s.DurationSeconds, s.DistanceKm),
		HeartRate: s.HeartRate,
		Time:      FormatTime(s.DurationSeconds),
		Calories:  EstimateCalories(s.DistanceKm),
	}
}
