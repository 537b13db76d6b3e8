package dashboard

import (
	"context"
	"sync"

	"velocity/internal/api"
	"velocity/internal/logger"
	"velocity/internal/workout"
)

const EmptyHistoryText = "No activities yet. Go run!"

type ActivityLister interface {
	FetchMyActivities(ctx context.Context, userID int64) ([]api.ActivityResponse, error)
}

type HistoryItem struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	DistanceKm          float64 `json:"distance_km"`
	Minutes             int64   `json:"minutes"`
	Pace                string  `json:"pace"`
	ElevationGainMeters float64 `json:"elevation_gain_meters"`
}

type HistoryView struct {
	Loading   bool          `json:"loading"`
	Items     []HistoryItem `json:"items"`
	Error     string        `json:"error,omitempty"`
	EmptyText string        `json:"empty_text,omitempty"`
}

// History is the activity list screen. Load plays the role of opening the
// screen: it fetches once per call and keeps the last result for View.
type History struct {
	lister ActivityLister
	userID int64
	log    logger.Logger

	mu   sync.Mutex
	view HistoryView
}

func NewHistory(lister ActivityLister, userID int64, log logger.Logger) *History {
	if log == nil {
		log = logger.Discard()
	}
	return &History{
		lister: lister,
		userID: userID,
		log:    log.With("component", "history"),
		view:   HistoryView{Loading: true, Items: []HistoryItem{}},
	}
}

func (h *History) Load(ctx context.Context) HistoryView {
	h.mu.Lock()
	h.view.Loading = true
	h.mu.Unlock()

	activities, err := h.lister.FetchMyActivities(ctx, h.userID)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.view.Loading = false
	if err != nil {
		h.log.Error("fetch activities failed", err, "user_id", h.userID)
		h.view.Error = err.Error()
		return h.snapshotLocked()
	}

	items := make([]HistoryItem, 0, len(activities))
	for _, a := range activities {
		items = append(items, NewHistoryItem(a))
	}
	h.view.Items = items
	h.view.Error = ""
	h.view.EmptyText = ""
	if len(items) == 0 {
		h.view.EmptyText = EmptyHistoryText
	}
	return h.snapshotLocked()
}

func (h *History) View() HistoryView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *History) snapshotLocked() HistoryView {
	v := h.view
	v.Items = append([]HistoryItem{}, h.view.Items...)
	return v
}

func NewHistoryItem(a api.ActivityResponse) HistoryItem {
	return HistoryItem{
		ID:                  a.ID,
		Name:                a.Name,
		DistanceKm:          a.DistanceKm,
		Minutes:             a.MovingTimeSeconds / 60,
		Pace:                workout.FormatPace(int(a.MovingTimeSeconds), a.DistanceKm),
		ElevationGainMeters: a.ElevationGainMeters,
	}
}
