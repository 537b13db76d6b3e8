package location

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

type overlandGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type overlandProperties struct {
	Timestamp string `json:"timestamp"`
	HeartRate int    `json:"heart_rate"`
}

type overlandLocation struct {
	Type       string             `json:"type"`
	Geometry   overlandGeometry   `json:"geometry"`
	Properties overlandProperties `json:"properties"`
}

type overlandPost struct {
	Locations []overlandLocation `json:"locations"`
}

// DecodeOverland parses an Overland batch ({"locations": [GeoJSON Feature...]})
// into fixes, keeping the batch order. Points without [lon, lat] coordinates
// or with an unreadable timestamp are left out and reported in skipped; only
// a body that is not a batch at all is an error.
func DecodeOverland(r io.Reader) (fixes []Fix, skipped []error, err error) {
	decoder := json.NewDecoder(r)

	var post overlandPost
	if err := decoder.Decode(&post); err != nil {
		return nil, nil, fmt.Errorf("decoding overland batch: %w", err)
	}
	if decoder.More() {
		return nil, nil, errors.New("trailing garbage in body")
	}

	fixes = make([]Fix, 0, len(post.Locations))
	for i, loc := range post.Locations {
		// GeoJSON order is lon, lat
		if len(loc.Geometry.Coordinates) < 2 {
			skipped = append(skipped, fmt.Errorf("location %d: expected [lon, lat] coordinates", i))
			continue
		}
		ts, err := time.Parse(time.RFC3339, loc.Properties.Timestamp)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("location %d: parsing time %q: %w", i, loc.Properties.Timestamp, err))
			continue
		}
		fixes = append(fixes, Fix{
			Latitude:  loc.Geometry.Coordinates[1],
			Longitude: loc.Geometry.Coordinates[0],
			Timestamp: ts,
			HeartRate: loc.Properties.HeartRate,
		})
	}
	return fixes, skipped, nil
}
