// Package sessions implements proctored exam attempts: durable session
// records, the live runtimes that monitor them, and the teacher-facing
// summaries built from both.
package sessions

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/internal/proctor"
)

// Status is the lifecycle state of a session record.
type Status string

const (
	StatusActive    Status = "active"
	StatusSubmitted Status = "submitted"
	StatusAbandoned Status = "abandoned"
)

// Session is one student's proctored attempt at an exam.
// Counts may exceed the evidence held for a kind when captures failed.
type Session struct {
	ID          uuid.UUID          `json:"id"`
	ExamID      uuid.UUID          `json:"exam_id"`
	Subject     proctor.Subject    `json:"subject"`
	Status      Status             `json:"status"`
	Counts      proctor.Counts     `json:"counts"`
	Evidence    []proctor.Evidence `json:"evidence"`
	StartedAt   time.Time          `json:"started_at"`
	SubmittedAt *time.Time         `json:"submitted_at"`
}

// Log returns the session as a cheating log.
func (s Session) Log() proctor.Log {
	return proctor.Log{
		ExamID:   s.ExamID,
		Subject:  s.Subject,
		Counts:   s.Counts,
		Evidence: s.Evidence,
	}
}

// CreateCommand carries the data needed to open a session.
type CreateCommand struct {
	ExamID  uuid.UUID
	Subject proctor.Subject
}

// RecentLimit caps the evidence listed in a Summary.
const RecentLimit = 12

// SessionSummary is the per-session breakdown in a Summary.
type SessionSummary struct {
	ID              uuid.UUID       `json:"id"`
	ExamID          uuid.UUID       `json:"exam_id"`
	Subject         proctor.Subject `json:"subject"`
	Status          Status          `json:"status"`
	Counts          proctor.Counts  `json:"counts"`
	TotalViolations int             `json:"total_violations"`
	EvidenceCount   int             `json:"evidence_count"`
	StartedAt       time.Time       `json:"started_at"`
}

// RecentEvidence is an evidence still with the session it belongs to.
type RecentEvidence struct {
	proctor.Evidence
	SessionID uuid.UUID       `json:"session_id"`
	Subject   proctor.Subject `json:"subject"`
}

// Summary aggregates suspicious activity across sessions.
type Summary struct {
	Counts          proctor.Counts   `json:"counts"`
	TotalViolations int              `json:"total_violations"`
	TotalEvidence   int              `json:"total_evidence"`
	Sessions        []SessionSummary `json:"sessions"`
	RecentEvidence  []RecentEvidence `json:"recent_evidence"`
}

// Summarize totals counts and evidence across sessions. Only sessions with
// at least one violation are listed. Recent evidence is ordered newest
// first and capped at RecentLimit.
func Summarize(sessions []Session) Summary {
	s := Summary{
		Counts:         proctor.NewCounts(),
		Sessions:       []SessionSummary{},
		RecentEvidence: []RecentEvidence{},
	}

	for _, sess := range sessions {
		total := sess.Counts.Total()
		s.Counts.Add(sess.Counts)
		s.TotalViolations += total
		s.TotalEvidence += len(sess.Evidence)

		for _, ev := range sess.Evidence {
			s.RecentEvidence = append(s.RecentEvidence, RecentEvidence{
				Evidence:  ev,
				SessionID: sess.ID,
				Subject:   sess.Subject,
			})
		}

		if total == 0 {
			continue
		}

		s.Sessions = append(s.Sessions, SessionSummary{
			ID:              sess.ID,
			ExamID:          sess.ExamID,
			Subject:         sess.Subject,
			Status:          sess.Status,
			Counts:          sess.Counts,
			TotalViolations: total,
			EvidenceCount:   len(sess.Evidence),
			StartedAt:       sess.StartedAt,
		})
	}

	slices.SortStableFunc(s.RecentEvidence, func(a, b RecentEvidence) int {
		return cmp.Compare(b.CapturedAt.UnixNano(), a.CapturedAt.UnixNano())
	})
	if len(s.RecentEvidence) > RecentLimit {
		s.RecentEvidence = s.RecentEvidence[:RecentLimit]
	}

	return s
}
