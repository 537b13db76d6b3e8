package dashboard

import (
	"testing"

	"velocity/internal/api"
	"velocity/internal/workout"
)

func TestNewDashboard(t *testing.T) {
	snap := workout.Snapshot{
		Session: workout.Session{
			ID:     "s1",
			State:  workout.StateActive,
			Active: true,
			Route:  []api.GPSPoint{{Lat: 1, Lon: 2}},
		},
		Metrics: workout.Metrics{Distance: "1.20", Pace: "5:30", HeartRate: 140, Time: "06:36", Calories: 72},
	}
	d := NewDashboard(snap)

	if d.Grid != (MetricGrid{Pace: "5:30", HeartRate: 140, Time: "06:36", Calories: 72}) {
		t.Fatalf("unexpected grid %+v", d.Grid)
	}
	if d.Header.Label != "LIVE TRACKING" || d.Header.Distance != "1.20" || !d.Header.GPS {
		t.Fatalf("unexpected header %+v", d.Header)
	}
	if d.ID != "s1" {
		t.Fatalf("expected snapshot to be embedded")
	}
}

func TestStateLabel(t *testing.T) {
	cases := []struct {
		session workout.Session
		want    string
	}{
		{workout.Session{State: workout.StateIdle}, "READY"},
		{workout.Session{State: workout.StateActive, Active: true}, "LIVE TRACKING"},
		{workout.Session{State: workout.StateFinishing, Loading: true}, "SAVING"},
		{workout.Session{State: workout.StateFinished, Finished: true}, "FINISHED"},
		{workout.Session{State: workout.StateActive}, "PAUSED"},
	}
	for _, tc := range cases {
		if got := stateLabel(tc.session); got != tc.want {
			t.Fatalf("stateLabel(%+v) = %q, want %q", tc.session, got, tc.want)
		}
	}
}
