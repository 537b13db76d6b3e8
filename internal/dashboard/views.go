package dashboard

import "velocity/internal/workout"

type MetricGrid struct {
	Pace      string `json:"pace"`
	HeartRate int    `json:"heart_rate"`
	Time      string `json:"time"`
	Calories  int    `json:"calories"`
}

func NewMetricGrid(s workout.Snapshot) MetricGrid {
	return MetricGrid{
		Pace:      s.Metrics.Pace,
		HeartRate: s.Metrics.HeartRate,
		Time:      s.Metrics.Time,
		Calories:  s.Metrics.Calories,
	}
}

type LiveHeader struct {
	Label    string `json:"label"`
	Distance string `json:"distance"`
	// GPS is set once the session has received at least one fix.
	GPS bool `json:"gps"`
}

func NewLiveHeader(s workout.Snapshot) LiveHeader {
	return LiveHeader{
		Label:    stateLabel(s.Session),
		Distance: s.Metrics.Distance,
		GPS:      len(s.Route) > 0,
	}
}

func stateLabel(s workout.Session) string {
	switch {
	case s.Loading:
		return "SAVING"
	case s.Finished:
		return "FINISHED"
	case s.Active:
		return "LIVE TRACKING"
	case s.State == workout.StateIdle:
		return "READY"
	default:
		return "PAUSED"
	}
}

// Dashboard is the full live screen: the raw snapshot plus the two widgets.
type Dashboard struct {
	workout.Snapshot
	Grid   MetricGrid `json:"grid"`
	Header LiveHeader `json:"header"`
}

func NewDashboard(s workout.Snapshot) Dashboard {
	return Dashboard{Snapshot: s, Grid: NewMetricGrid(s), Header: NewLiveHeader(s)}
}
