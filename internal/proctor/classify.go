package proctor

import (
	"slices"
	"time"
)

// Detector labels with proctoring significance.
const (
	LabelPerson    = "person"
	LabelCellPhone = "cell phone"
)

var prohibitedLabels = []string{"book", "laptop"}

// BoundingBox locates a detection within the frame, in pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one object reported by the detector for a frame.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// Classify maps one frame's detections to violation events.
// Each kind is emitted at most once per frame, in kind declaration order.
// No confidence threshold is applied.
func Classify(detections []Detection, now time.Time) []Event {
	var (
		persons    int
		phone      bool
		prohibited bool
	)

	for _, d := range detections {
		switch {
		case d.Label == LabelPerson:
			persons++
		case d.Label == LabelCellPhone:
			phone = true
		case slices.Contains(prohibitedLabels, d.Label):
			prohibited = true
		}
	}

	fired := map[Kind]bool{
		NoFace:           persons == 0,
		MultipleFace:     persons > 1,
		CellPhone:        phone,
		ProhibitedObject: prohibited,
	}

	var events []Event
	for _, k := range kinds {
		if fired[k] {
			events = append(events, Event{Kind: k, OccurredAt: now})
		}
	}
	return events
}
