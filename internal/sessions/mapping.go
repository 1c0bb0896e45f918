package sessions

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/pkg/query"
	"github.com/JaimeStill/proctor/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("exam_id", "ExamID").
	Project("subject_name", "SubjectName").
	Project("subject_email", "SubjectEmail").
	Project("status", "Status").
	Project("no_face", "NoFace").
	Project("multiple_face", "MultipleFace").
	Project("cell_phone", "CellPhone").
	Project("prohibited_object", "ProhibitedObject").
	Project("started_at", "StartedAt").
	Project("submitted_at", "SubmittedAt")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

// countColumns maps each kind to its counter column.
var countColumns = map[proctor.Kind]string{
	proctor.NoFace:           "no_face",
	proctor.MultipleFace:     "multiple_face",
	proctor.CellPhone:        "cell_phone",
	proctor.ProhibitedObject: "prohibited_object",
}

// Filters contains optional filtering criteria for session queries.
// Nil fields are ignored. SubjectName and SubjectEmail use
// case-insensitive contains matching.
type Filters struct {
	ExamID       *uuid.UUID `json:"exam_id,omitempty"`
	Status       *string    `json:"status,omitempty"`
	SubjectName  *string    `json:"subject_name,omitempty"`
	SubjectEmail *string    `json:"subject_email,omitempty"`
	Since        *time.Time `json:"since,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ExamID", f.ExamID).
		WhereEquals("Status", f.Status).
		WhereContains("SubjectName", f.SubjectName).
		WhereContains("SubjectEmail", f.SubjectEmail).
		WhereSince("StartedAt", f.Since).
		WhereBefore("StartedAt", f.Before)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed ids and timestamps are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("exam_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.ExamID = &id
		}
	}

	if v := values.Get("status"); v != "" {
		f.Status = &v
	}

	if v := values.Get("subject_name"); v != "" {
		f.SubjectName = &v
	}

	if v := values.Get("subject_email"); v != "" {
		f.SubjectEmail = &v
	}

	if v := values.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Since = &t
		}
	}

	if v := values.Get("before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Before = &t
		}
	}

	return f
}

func scanSession(s repository.Scanner) (Session, error) {
	var (
		sess                                     Session
		noFace, multipleFace, cellPhone, objects int
	)

	err := s.Scan(
		&sess.ID,
		&sess.ExamID,
		&sess.Subject.Name,
		&sess.Subject.Email,
		&sess.Status,
		&noFace,
		&multipleFace,
		&cellPhone,
		&objects,
		&sess.StartedAt,
		&sess.SubmittedAt,
	)
	if err != nil {
		return sess, err
	}

	sess.Counts = proctor.Counts{
		proctor.NoFace:           noFace,
		proctor.MultipleFace:     multipleFace,
		proctor.CellPhone:        cellPhone,
		proctor.ProhibitedObject: objects,
	}
	sess.Evidence = []proctor.Evidence{}
	return sess, nil
}

type evidenceRow struct {
	sessionID uuid.UUID
	evidence  proctor.Evidence
}

func scanEvidence(s repository.Scanner) (evidenceRow, error) {
	var row evidenceRow
	err := s.Scan(
		&row.sessionID,
		&row.evidence.MediaRef,
		&row.evidence.Kind,
		&row.evidence.CapturedAt,
	)
	return row, err
}
