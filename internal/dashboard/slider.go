package dashboard

import (
	"math"
	"sync"
)

// CommitThreshold is the fraction of the track the knob must pass for a
// release to count as a finish.
const CommitThreshold = 0.8

// Slider models the slide-to-finish control: a knob dragged along a track
// of width - knobWidth.
type Slider struct {
	maxRange float64
	onCommit func()

	mu        sync.Mutex
	position  float64
	start     float64
	committed bool
}

type SliderState struct {
	Position       float64 `json:"position"`
	MaxRange       float64 `json:"max_range"`
	Committed      bool    `json:"committed"`
	LabelOpacity   float64 `json:"label_opacity"`
	OverlayOpacity float64 `json:"overlay_opacity"`
}

func NewSlider(width, knobWidth float64, onCommit func()) *Slider {
	return &Slider{maxRange: math.Max(width-knobWidth, 0), onCommit: onCommit}
}

func (s *Slider) MaxRange() float64 {
	return s.maxRange
}

// Begin records where the drag started. Ignored after a commit until Reset.
func (s *Slider) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		return
	}
	s.start = s.position
}

// Update moves the knob to start + translationX, clamped to the track.
func (s *Slider) Update(translationX float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		return s.position
	}
	s.position = clamp(s.start+translationX, 0, s.maxRange)
	return s.position
}

// End releases the knob. Past the threshold it snaps to the end of the track
// and fires onCommit once; otherwise it springs back to zero.
func (s *Slider) End() bool {
	s.mu.Lock()
	if s.committed {
		s.mu.Unlock()
		return false
	}
	if s.maxRange <= 0 || s.position <= s.maxRange*CommitThreshold {
		s.position = 0
		s.mu.Unlock()
		return false
	}
	s.position = s.maxRange
	s.committed = true
	s.mu.Unlock()

	if s.onCommit != nil {
		s.onCommit()
	}
	return true
}

func (s *Slider) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = 0
	s.start = 0
	s.committed = false
}

func (s *Slider) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// LabelOpacity fades the "slide to finish" label out over the first half of
// the track.
func (s *Slider) LabelOpacity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labelOpacityLocked()
}

// OverlayOpacity fades the finish overlay in over the whole track.
func (s *Slider) OverlayOpacity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlayOpacityLocked()
}

func (s *Slider) State() SliderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SliderState{
		Position:       s.position,
		MaxRange:       s.maxRange,
		Committed:      s.committed,
		LabelOpacity:   s.labelOpacityLocked(),
		OverlayOpacity: s.overlayOpacityLocked(),
	}
}

func (s *Slider) labelOpacityLocked() float64 {
	half := s.maxRange / 2
	if half <= 0 {
		return 1
	}
	return clamp(1-s.position/half, 0, 1)
}

func (s *Slider) overlayOpacityLocked() float64 {
	if s.maxRange <= 0 {
		return 0
	}
	return clamp(s.position/s.maxRange, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
