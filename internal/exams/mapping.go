package exams

import (
	"github.com/JaimeStill/proctor/pkg/query"
	"github.com/JaimeStill/proctor/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "exams", "e").
	Project("id", "ID").
	Project("name", "Name").
	Project("created_by", "CreatedBy").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

func scanExam(s repository.Scanner) (Exam, error) {
	var e Exam
	err := s.Scan(&e.ID, &e.Name, &e.CreatedBy, &e.CreatedAt)
	return e, err
}
