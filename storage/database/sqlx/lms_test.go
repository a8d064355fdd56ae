package sqlxrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0].Field
}

func TestCreateQuiz_Commit(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO quizzes")).
		WithArgs("Algebra", "Maths", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(q("INSERT INTO quiz_questions")).
		WithArgs(5, 0, "2+2?", sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(q("INSERT INTO quiz_questions")).
		WithArgs(5, 1, "3*3?", sqlmock.AnyArg(), 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(q("UPDATE quizzes SET total_questions")).
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.CreateQuiz(context.Background(),
		lms.Quiz{Title: "Algebra", Topic: "Maths", CreatedAt: now},
		[]lms.Question{
			{Position: 0, QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectOption: 1},
			{Position: 1, QuestionText: "3*3?", Options: []string{"9", "6"}, CorrectOption: 0},
		},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 5, res.ID)
	assert.Equal(t, 2, res.TotalQuestions)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, 11, res.Questions[0].ID)
	assert.Equal(t, 5, res.Questions[1].QuizID)
}

func TestCreateQuiz_RollbackOnFailingQuestion(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO quizzes")).
		WithArgs("Algebra", "Maths", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(q("INSERT INTO quiz_questions")).
		WithArgs(5, 0, "2+2?", sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(q("INSERT INTO quiz_questions")).
		WithArgs(5, 1, "3*3?", sqlmock.AnyArg(), 0).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.CreateQuiz(context.Background(),
		lms.Quiz{Title: "Algebra", Topic: "Maths", CreatedAt: now},
		[]lms.Question{
			{Position: 0, QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectOption: 1},
			{Position: 1, QuestionText: "3*3?", Options: []string{"9", "6"}, CorrectOption: 0},
		},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet(), "the quiz insert is rolled back, never committed")
}

func TestReplaceQuiz_RollbackOnFailingStep(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT created_at FROM quizzes WHERE id = $1 FOR UPDATE")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(q("UPDATE quizzes SET title")).WithArgs(5, "Algebra II", "").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM quiz_questions")).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(q("INSERT INTO quiz_questions")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.ReplaceQuiz(context.Background(),
		lms.Quiz{ID: 5, Title: "Algebra II"},
		[]lms.Question{{QuestionText: "1+1?", Options: []string{"2", "3"}}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceQuiz_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM quizzes WHERE id = $1 FOR UPDATE")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	mock.ExpectRollback()

	_, err := repo.ReplaceQuiz(context.Background(), lms.Quiz{ID: 99, Title: "x"}, nil)
	assert.Equal(t, lms.ErrQuizNotFound, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryQuestions_DecodesOptions(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)

	mock.ExpectQuery(q("FROM quiz_questions WHERE quiz_id = $1 ORDER BY position")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "position", "question_text", "options", "correct_option"}).
			AddRow(11, 5, 0, "2+2?", `{"3","4"}`, 1).
			AddRow(12, 5, 1, "Capital of France?", `{Paris,"New York"}`, 0))

	questions, err := repo.QueryQuestions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, []string{"3", "4"}, questions[0].Options)
	assert.Equal(t, []string{"Paris", "New York"}, questions[1].Options)
}

func TestCreateModule_CourseNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)

	mock.ExpectQuery(q("INSERT INTO modules")).
		WithArgs(42, "Intro", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_index"}))

	_, err := repo.CreateModule(context.Background(), lms.Module{CourseID: 42, Title: "Intro"}, nil)
	assert.Equal(t, lms.ErrCourseNotFound, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateChapter_ForeignKeyViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)

	mock.ExpectQuery(q("INSERT INTO chapters")).
		WillReturnError(&pq.Error{Code: foreignKeyViolation, Table: "chapters", Constraint: "chapters_quiz_id_fkey"})

	_, err := repo.CreateChapter(context.Background(), lms.Chapter{
		ModuleID: 1, Title: "Check", ContentType: lms.ContentQuiz, QuizID: null.IntFrom(77), DurationMinutes: 10,
	})
	assert.Equal(t, "quizId", fieldOf(t, err))
}

func TestCreateGrade(t *testing.T) {
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	grade := lms.Grade{StudentID: 3, QuizID: 5, Score: 8, MaxScore: 10, SubmittedAt: now}

	t.Run("ok", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q("INSERT INTO grades")).
			WithArgs(3, 5, 8.0, 10.0, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(21, "Algebra"))

		saved, err := NewLMSRepository(db).CreateGrade(context.Background(), grade)
		require.NoError(t, err)
		assert.Equal(t, 21, saved.ID)
		assert.Equal(t, "Algebra", saved.QuizTitle)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	tests := []struct {
		constraint string
		wantField  string
	}{
		{"grades_student_id_fkey", "studentId"},
		{"grades_quiz_id_fkey", "quizId"},
	}
	for _, tc := range tests {
		t.Run(tc.constraint, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(q("INSERT INTO grades")).
				WillReturnError(&pq.Error{Code: foreignKeyViolation, Table: "grades", Constraint: tc.constraint})

			_, err := NewLMSRepository(db).CreateGrade(context.Background(), grade)
			assert.Equal(t, tc.wantField, fieldOf(t, err))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateModule(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)
	cols := []string{"id", "course_id", "title", "order_index"}

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(q("FROM modules WHERE id = $1 FOR UPDATE")).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 1, "Old", 2))
		mock.ExpectExec(q("UPDATE modules SET title = $2, order_index = $3 WHERE id = $1")).
			WithArgs(3, "New", 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mod, err := repo.UpdateModule(context.Background(), 3, func(m *lms.Module) error {
			m.Title = "New"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, lms.Module{ID: 3, CourseID: 1, Title: "New", OrderIndex: 2}, mod)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(q("FROM modules WHERE id = $1 FOR UPDATE")).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 1, "Old", 2))
		mock.ExpectRollback()

		boom := errors.New("boom")
		_, err := repo.UpdateModule(context.Background(), 3, func(m *lms.Module) error { return boom })
		assert.Equal(t, boom, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateAssignment_Class(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT name FROM classes WHERE id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("6A"))
	mock.ExpectQuery(q("WHERE s.class_id = $1 ORDER BY s.id")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "class_id", "class_name", "name", "email", "persona", "created_at"}).
			AddRow(7, nil, 2, "6A", "Ada", "ada@edupath.com", "Standard", now).
			AddRow(8, nil, 2, "6A", "Alan", "alan@edupath.com", "Standard", now))
	mock.ExpectQuery(q("INSERT INTO assignments")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec(q("INSERT INTO student_assignments")).
		WithArgs(4, sqlmock.AnyArg(), lms.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	a, students, err := repo.CreateAssignment(context.Background(), lms.Assignment{
		Title:     "Essay",
		DueDate:   now.Add(lms.DefaultDueDelta),
		Status:    lms.StatusPending,
		TeacherID: null.IntFrom(2),
		ClassID:   null.IntFrom(2),
		CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 4, a.ID)
	assert.Equal(t, null.StringFrom("6A"), a.ClassName)
	assert.Len(t, students, 2)
}

func TestCreateAssignment_UnknownStudent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLMSRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE s.id = $1 ORDER BY s.id")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err := repo.CreateAssignment(context.Background(), lms.Assignment{Title: "x", StudentID: null.IntFrom(50)})
	assert.Equal(t, lms.ErrStudentNotFound, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStudent(t *testing.T) {
	now := time.Now().UTC()
	usr := user.User{Username: "ada@edupath.com", Email: "ada@edupath.com", Role: user.RoleStudent, PasswordHash: []byte("hash"), CreatedAt: now}
	st := lms.Student{ClassID: null.IntFrom(2), Name: "Ada", Email: "ada@edupath.com", Persona: lms.DefaultPersona, CreatedAt: now}

	t.Run("commit", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewLMSRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO users")).
			WithArgs(usr.Username, usr.Email, usr.Role, usr.PasswordHash, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))
		mock.ExpectQuery(q("INSERT INTO students")).
			WithArgs(30, 2, "Ada", "ada@edupath.com", lms.DefaultPersona, now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(9, "6A"))
		mock.ExpectExec(q("INSERT INTO student_profiles")).WithArgs(9, "ada@edupath.com").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("INSERT INTO student_gamification")).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		saved, err := repo.CreateStudent(context.Background(), usr, st)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 9, saved.ID)
		assert.Equal(t, null.IntFrom(30), saved.UserID)
		assert.Equal(t, null.StringFrom("6A"), saved.ClassName)
	})

	t.Run("rollback on failing profile", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewLMSRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO users")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))
		mock.ExpectQuery(q("INSERT INTO students")).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(9, "6A"))
		mock.ExpectExec(q("INSERT INTO student_profiles")).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := repo.CreateStudent(context.Background(), usr, st)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewLMSRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO users")).
			WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})
		mock.ExpectRollback()

		_, err := repo.CreateStudent(context.Background(), usr, st)
		assert.Equal(t, "email", fieldOf(t, err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateClass(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO classes (name) VALUES ($1) RETURNING id")).
			WithArgs("Grade 10 A").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectExec(q("INSERT INTO teacher_classes")).
			WithArgs(7, "{2,4}").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		class, err := NewLMSRepository(db).CreateClass(context.Background(), "Grade 10 A", 2, 4)
		require.NoError(t, err)
		assert.Equal(t, lms.Class{ID: 7, Name: "Grade 10 A"}, class)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no teacher", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO classes")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		mock.ExpectCommit()

		class, err := NewLMSRepository(db).CreateClass(context.Background(), "Orphans")
		require.NoError(t, err)
		assert.Equal(t, 8, class.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown teacher", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO classes")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectExec(q("INSERT INTO teacher_classes")).
			WillReturnError(&pq.Error{Code: foreignKeyViolation, Table: "teacher_classes", Constraint: "teacher_classes_teacher_id_fkey"})
		mock.ExpectRollback()

		_, err := NewLMSRepository(db).CreateClass(context.Background(), "Grade 10 B", 99)
		assert.Equal(t, "teacherId", fieldOf(t, err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConstraintField(t *testing.T) {
	assert.Equal(t, "quizId", constraintField("chapters", "chapters_quiz_id_fkey"))
	assert.Equal(t, "studentId", constraintField("grades", "grades_student_id_fkey"))
	assert.Equal(t, "classId", constraintField("students", "students_class_id_fkey"))
}
