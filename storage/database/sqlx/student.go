package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

const studentSelect = `SELECT s.id, s.user_id, s.class_id, c.name AS class_name, s.name, s.email, s.persona, s.created_at
	FROM students s
	LEFT JOIN classes c ON c.id = s.class_id`

func selectStudents(ctx context.Context, q sqlx.QueryerContext, where string, args ...interface{}) ([]lms.Student, error) {
	students := []lms.Student{}
	query := studentSelect
	if where != "" {
		query += " WHERE " + where
	}
	if err := sqlx.SelectContext(ctx, q, &students, query+" ORDER BY s.id", args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *lmsRepository) QueryStudents(ctx context.Context, filter lms.StudentFilter) ([]lms.Student, error) {
	if filter.TeacherID == 0 {
		return selectStudents(ctx, repo.db, "")
	}
	return selectStudents(ctx, repo.db,
		"s.class_id IN (SELECT tc.class_id FROM teacher_classes tc WHERE tc.teacher_id = $1)", filter.TeacherID)
}

func (repo *lmsRepository) GetStudentByUserID(ctx context.Context, userID int) (lms.Student, error) {
	students, err := selectStudents(ctx, repo.db, "s.user_id = $1", userID)
	if err != nil {
		return lms.Student{}, err
	}
	if len(students) == 0 {
		return lms.Student{}, lms.ErrStudentNotFound
	}
	return students[0], nil
}

func (repo *lmsRepository) QueryTeacherClasses(ctx context.Context, teacherID int) ([]lms.Class, error) {
	classes := []lms.Class{}
	err := repo.db.SelectContext(ctx, &classes,
		`SELECT c.id, c.name, COUNT(s.id) AS student_count
		FROM classes c
		JOIN teacher_classes tc ON tc.class_id = c.id
		LEFT JOIN students s ON s.class_id = c.id
		WHERE tc.teacher_id = $1
		GROUP BY c.id, c.name
		ORDER BY c.id`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher classes")
	}
	return classes, nil
}

func (repo *lmsRepository) CreateClass(ctx context.Context, name string, teacherIDs ...int) (lms.Class, error) {
	class := lms.Class{Name: name}
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, "INSERT INTO classes (name) VALUES ($1) RETURNING id", name).Scan(&class.ID); err != nil {
			return errors.Wrap(err, "inserting class")
		}
		if len(teacherIDs) == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teacher_classes (teacher_id, class_id)
			SELECT unnest($2::int[]), $1
			ON CONFLICT DO NOTHING`,
			class.ID, int64s(teacherIDs))
		return mapError(err, "linking class teachers")
	})
	if err != nil {
		return lms.Class{}, err
	}
	return class, nil
}

func (repo *lmsRepository) CreateStudent(ctx context.Context, usr user.User, st lms.Student) (lms.Student, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO users (username, email, role, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			usr.Username, usr.Email, usr.Role, usr.PasswordHash, usr.CreatedAt,
		).Scan(&usr.ID)
		if err != nil {
			return studentError(userError(err, "inserting user"))
		}

		st.UserID.SetValid(usr.ID)
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO students (user_id, class_id, name, email, persona, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, (SELECT name FROM classes WHERE id = $2)`,
			st.UserID, st.ClassID, st.Name, st.Email, st.Persona, st.CreatedAt,
		).Scan(&st.ID, &st.ClassName)
		if err != nil {
			if pqErr, ok := pqError(err); ok && pqErr.Code == uniqueViolation {
				return studentError(lms.ErrStudentEmailExists)
			}
			return mapError(err, "inserting student")
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO student_profiles (student_id, email) VALUES ($1, $2)", st.ID, st.Email); err != nil {
			return errors.Wrap(err, "inserting student profile")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO student_gamification (student_id) VALUES ($1)", st.ID); err != nil {
			return errors.Wrap(err, "inserting student gamification")
		}
		return nil
	})
	if err != nil {
		return lms.Student{}, err
	}
	return st, nil
}

// studentError reports email conflicts as a validation error on the email field.
func studentError(err error) error {
	switch err {
	case user.ErrEmailExists, user.ErrUsernameExists, lms.ErrStudentEmailExists:
		return core.NewValidationError(lms.ErrStudentEmailExists,
			core.FieldError{Field: "email", Error: lms.ErrStudentEmailExists.Error()})
	}
	return err
}
