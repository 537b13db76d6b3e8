package location

import "velocity/internal/shared/geo"

// Gate decides which raw fixes a subscription reports, following its Options.
type Gate struct {
	opts Options
	last *Fix
}

func NewGate(opts Options) *Gate {
	return &Gate{opts: opts}
}

// Admit reports whether fix should be delivered and, if so, remembers it as
// the new reference point.
func (g *Gate) Admit(fix Fix) bool {
	if g.last == nil || g.due(fix) {
		f := fix
		g.last = &f
		return true
	}
	return false
}

func (g *Gate) due(fix Fix) bool {
	if g.opts.Interval <= 0 && g.opts.DistanceM <= 0 {
		return true
	}
	if g.opts.Interval > 0 && fix.Timestamp.Sub(g.last.Timestamp) >= g.opts.Interval {
		return true
	}
	if g.opts.DistanceM > 0 {
		movedM := geo.HaversineKm(g.last.Latitude, g.last.Longitude, fix.Latitude, fix.Longitude) * 1000
		if movedM >= g.opts.DistanceM {
			return true
		}
	}
	return false
}
