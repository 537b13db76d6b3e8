package tracking

import "velocity/internal/dashboard"

const (
	SlideBegin  = "begin"
	SlideUpdate = "update"
	SlideEnd    = "end"
)

type SlideRequest struct {
	Phase        string  `json:"phase"`
	TranslationX float64 `json:"translation_x"`
}

type SlideResponse struct {
	dashboard.SliderState
	Finishing bool `json:"finishing"`
}

type FinishResponse struct {
	Session dashboard.Dashboard `json:"session"`
	Result  any                 `json:"result"`
}

type IngestResponse struct {
	Result    string `json:"result"`
	Received  int    `json:"received"`
	Skipped   int    `json:"skipped"`
	Delivered int    `json:"delivered"`
}
