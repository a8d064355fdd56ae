package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

func (repo *lmsRepository) QueryStudentAssignments(ctx context.Context, studentID int) ([]lms.Assignment, error) {
	assignments := []lms.Assignment{}
	err := repo.db.SelectContext(ctx, &assignments,
		`SELECT a.id, a.title, a.description, a.due_date, COALESCE(sa.status, a.status) AS status,
		a.teacher_id, a.class_id, a.student_id, c.name AS class_name, a.created_at
		FROM assignments a
		LEFT JOIN classes c ON c.id = a.class_id
		LEFT JOIN student_assignments sa ON sa.assignment_id = a.id AND sa.student_id = $1
		WHERE a.student_id = $1 OR sa.student_id IS NOT NULL
		ORDER BY a.due_date, a.id`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student assignments")
	}
	return assignments, nil
}

func (repo *lmsRepository) QueryTeacherAssignments(ctx context.Context, teacherID int) ([]lms.Assignment, error) {
	assignments := []lms.Assignment{}
	err := repo.db.SelectContext(ctx, &assignments,
		`SELECT a.id, a.title, a.description, a.due_date, a.status,
		a.teacher_id, a.class_id, a.student_id, c.name AS class_name, a.created_at
		FROM assignments a
		LEFT JOIN classes c ON c.id = a.class_id
		WHERE a.teacher_id = $1
		ORDER BY a.due_date, a.id`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher assignments")
	}
	return assignments, nil
}

func (repo *lmsRepository) CreateAssignment(ctx context.Context, a lms.Assignment) (lms.Assignment, []lms.Student, error) {
	var students []lms.Student
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		if a.ClassID.Valid {
			err = tx.QueryRowxContext(ctx, "SELECT name FROM classes WHERE id = $1", a.ClassID.Int).Scan(&a.ClassName)
			if err == sql.ErrNoRows {
				return lms.ErrClassNotFound
			}
			if err != nil {
				return errors.Wrap(err, "getting class")
			}
			students, err = selectStudents(ctx, tx, "s.class_id = $1", a.ClassID.Int)
		} else {
			students, err = selectStudents(ctx, tx, "s.id = $1", a.StudentID.Int)
			if err == nil && len(students) == 0 {
				return lms.ErrStudentNotFound
			}
		}
		if err != nil {
			return err
		}

		err = tx.QueryRowxContext(ctx,
			`INSERT INTO assignments (title, description, due_date, status, teacher_id, class_id, student_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			a.Title, a.Description, a.DueDate, a.Status, a.TeacherID, a.ClassID, a.StudentID, a.CreatedAt,
		).Scan(&a.ID)
		if err != nil {
			return mapError(err, "inserting assignment")
		}

		if len(students) > 0 {
			ids := make([]int, 0, len(students))
			for _, st := range students {
				ids = append(ids, st.ID)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO student_assignments (assignment_id, student_id, status)
				SELECT $1, unnest($2::int[]), $3`,
				a.ID, int64s(ids), a.Status)
			if err != nil {
				return errors.Wrap(err, "linking students")
			}
		}
		return nil
	})
	if err != nil {
		return lms.Assignment{}, nil, err
	}
	return a, students, nil
}
