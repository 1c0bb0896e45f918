// Package proctor turns object detections into debounced violations,
// captures evidence stills, and aggregates them into a per-session log.
package proctor

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a category of suspicious behavior.
type Kind string

const (
	NoFace           Kind = "noFace"
	MultipleFace     Kind = "multipleFace"
	CellPhone        Kind = "cellPhone"
	ProhibitedObject Kind = "prohibitedObject"
)

var kinds = []Kind{NoFace, MultipleFace, CellPhone, ProhibitedObject}

// Kinds returns every violation kind in declaration order.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// ParseKind validates a wire name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// UnmarshalJSON rejects unknown kinds.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Warning is the student-facing alert shown when a violation is recorded.
type Warning struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var warnings = map[Kind]Warning{
	NoFace:           {"Face Not Visible", "Warning Recorded - Keep your face visible to the camera"},
	MultipleFace:     {"Multiple Faces Detected", "Warning Recorded - Only one person should be visible"},
	CellPhone:        {"Cell Phone Detected", "Warning Recorded - Remove all electronic devices"},
	ProhibitedObject: {"Prohibited Object Detected", "Warning Recorded - Remove all prohibited items"},
}

// Warning returns the alert text for k.
func (k Kind) Warning() Warning {
	return warnings[k]
}

var labels = map[Kind]string{
	CellPhone:        "📱 Cell Phone",
	MultipleFace:     "👥 Multiple Faces",
	NoFace:           "🚫 No Face Visible",
	ProhibitedObject: "📚 Prohibited Object",
}

// Label returns the short label used in teacher notifications.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return "⚠️ Suspicious Activity"
}

// Event is a classified violation before debouncing.
type Event struct {
	Kind       Kind      `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Evidence is a captured still bound to the violation that triggered it.
type Evidence struct {
	MediaRef   string    `json:"media_ref"`
	Kind       Kind      `json:"kind"`
	CapturedAt time.Time `json:"captured_at"`
}

// Subject identifies the student being proctored.
type Subject struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Counts holds per-kind violation totals.
type Counts map[Kind]int

// NewCounts returns counts with every kind present at zero.
func NewCounts() Counts {
	c := make(Counts, len(kinds))
	for _, k := range kinds {
		c[k] = 0
	}
	return c
}

// Total sums all kinds.
func (c Counts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// Add accumulates other into c.
func (c Counts) Add(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Log is the aggregated cheating log for one proctored attempt.
// Counts may exceed the number of evidence entries for a kind when
// captures fail.
type Log struct {
	ExamID   uuid.UUID  `json:"exam_id"`
	Subject  Subject    `json:"subject"`
	Counts   Counts     `json:"counts"`
	Evidence []Evidence `json:"evidence"`
}

func (l Log) clone() Log {
	l.Counts = maps.Clone(l.Counts)
	l.Evidence = slices.Clone(l.Evidence)
	if l.Evidence == nil {
		l.Evidence = []Evidence{}
	}
	return l
}

// Delta is a single increment applied to a Log.
type Delta struct {
	Kind     Kind      `json:"kind"`
	Evidence *Evidence `json:"evidence,omitempty"`
}

// Outcome describes an accepted violation after capture.
// Evidence is nil when the frame was not ready or the upload failed.
type Outcome struct {
	Event      Event     `json:"event"`
	Evidence   *Evidence `json:"evidence,omitempty"`
	Warning    Warning   `json:"warning"`
	CaptureErr error     `json:"-"`
}

// Delta returns the log increment carried by o.
func (o Outcome) Delta() Delta {
	return Delta{Kind: o.Event.Kind, Evidence: o.Evidence}
}
