package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

func (repo *lmsRepository) QueryGrades(ctx context.Context, studentID int) ([]lms.Grade, error) {
	grades := []lms.Grade{}
	err := repo.db.SelectContext(ctx, &grades,
		`SELECT g.id, g.student_id, g.quiz_id, q.title AS quiz_title, g.score, g.max_score, g.submitted_at
		FROM grades g
		JOIN quizzes q ON q.id = g.quiz_id
		WHERE g.student_id = $1
		ORDER BY g.submitted_at DESC, g.id DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo *lmsRepository) CreateGrade(ctx context.Context, grade lms.Grade) (lms.Grade, error) {
	err := repo.db.QueryRowxContext(ctx,
		`WITH g AS (
			INSERT INTO grades (student_id, quiz_id, score, max_score, submitted_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, quiz_id
		)
		SELECT g.id, q.title FROM g JOIN quizzes q ON q.id = g.quiz_id`,
		grade.StudentID, grade.QuizID, grade.Score, grade.MaxScore, grade.SubmittedAt,
	).Scan(&grade.ID, &grade.QuizTitle)
	if err != nil {
		return lms.Grade{}, mapError(err, "creating grade")
	}
	return grade, nil
}
