// Package exams is the minimal exam read model: teachers create exams and
// list their own; students and the notifier look them up by id.
package exams

import (
	"time"

	"github.com/google/uuid"
)

// Exam is an assessment that students attempt under proctoring.
type Exam struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to register an exam.
type CreateCommand struct {
	Name      string `json:"name"`
	CreatedBy string `json:"-"`
}
