package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

const (
	courseColumns  = "id, title, description, category, thumbnail_url, teacher_id, created_at"
	moduleColumns  = "id, course_id, title, order_index"
	chapterColumns = "id, module_id, title, content_type, content_url, content, quiz_id, assignment_id, duration_minutes"
)

type lmsRepository struct {
	db *sqlx.DB
}

var _ lms.Repository = (*lmsRepository)(nil)

func NewLMSRepository(db *sqlx.DB) lms.Repository {
	return &lmsRepository{db: db}
}

func (repo *lmsRepository) QueryCourses(ctx context.Context) ([]lms.Course, error) {
	courses := []lms.Course{}
	if err := repo.db.SelectContext(ctx, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo *lmsRepository) GetCourse(ctx context.Context, id int) (lms.Course, error) {
	var course lms.Course
	err := repo.db.GetContext(ctx, &course, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return lms.Course{}, lms.ErrCourseNotFound
	}
	if err != nil {
		return lms.Course{}, errors.Wrap(err, "getting course")
	}
	return course, nil
}

func (repo *lmsRepository) CreateCourse(ctx context.Context, course lms.Course) (lms.Course, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO courses (title, description, category, thumbnail_url, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		course.Title, course.Description, course.Category, course.ThumbnailURL, course.TeacherID, course.CreatedAt,
	).Scan(&course.ID)
	if err != nil {
		return lms.Course{}, mapError(err, "creating course")
	}
	return course, nil
}

func (repo *lmsRepository) QueryModules(ctx context.Context, courseID int) ([]lms.Module, error) {
	modules := []lms.Module{}
	err := repo.db.SelectContext(ctx, &modules,
		"SELECT "+moduleColumns+" FROM modules WHERE course_id = $1 ORDER BY order_index, id", courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	return modules, nil
}

func (repo *lmsRepository) CreateModule(ctx context.Context, mod lms.Module, orderIndex *int) (lms.Module, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO modules (course_id, title, order_index)
		SELECT c.id, $2, COALESCE($3::int, (SELECT COALESCE(MAX(m.order_index) + 1, 0) FROM modules m WHERE m.course_id = c.id))
		FROM courses c WHERE c.id = $1
		RETURNING id, order_index`,
		mod.CourseID, mod.Title, null.IntFromPtr(orderIndex),
	).Scan(&mod.ID, &mod.OrderIndex)
	if err == sql.ErrNoRows {
		return lms.Module{}, lms.ErrCourseNotFound
	}
	if err != nil {
		return lms.Module{}, mapError(err, "creating module")
	}
	return mod, nil
}

func (repo *lmsRepository) UpdateModule(ctx context.Context, id int, fn func(*lms.Module) error) (lms.Module, error) {
	var mod lms.Module
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &mod, "SELECT "+moduleColumns+" FROM modules WHERE id = $1 FOR UPDATE", id)
		if err == sql.ErrNoRows {
			return lms.ErrModuleNotFound
		}
		if err != nil {
			return errors.Wrap(err, "locking module")
		}
		if err := fn(&mod); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE modules SET title = $2, order_index = $3 WHERE id = $1",
			mod.ID, mod.Title, mod.OrderIndex)
		return errors.Wrap(err, "updating module")
	})
	if err != nil {
		return lms.Module{}, err
	}
	return mod, nil
}

func (repo *lmsRepository) QueryChapters(ctx context.Context, moduleIDs ...int) ([]lms.Chapter, error) {
	chapters := []lms.Chapter{}
	if len(moduleIDs) == 0 {
		return chapters, nil
	}
	err := repo.db.SelectContext(ctx, &chapters,
		"SELECT "+chapterColumns+" FROM chapters WHERE module_id = ANY($1) ORDER BY id", int64s(moduleIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	return chapters, nil
}

func (repo *lmsRepository) CreateChapter(ctx context.Context, ch lms.Chapter) (lms.Chapter, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO chapters (module_id, title, content_type, content_url, content, quiz_id, assignment_id, duration_minutes)
		SELECT m.id, $2, $3, $4, $5, $6::int, $7::int, $8::int
		FROM modules m WHERE m.id = $1
		RETURNING id`,
		ch.ModuleID, ch.Title, ch.ContentType, ch.ContentURL, ch.Content, ch.QuizID, ch.AssignmentID, ch.DurationMinutes,
	).Scan(&ch.ID)
	if err == sql.ErrNoRows {
		return lms.Chapter{}, lms.ErrModuleNotFound
	}
	if err != nil {
		return lms.Chapter{}, mapError(err, "creating chapter")
	}
	return ch, nil
}

func (repo *lmsRepository) UpdateChapter(ctx context.Context, id int, fn func(*lms.Chapter) error) (lms.Chapter, error) {
	var ch lms.Chapter
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &ch, "SELECT "+chapterColumns+" FROM chapters WHERE id = $1 FOR UPDATE", id)
		if err == sql.ErrNoRows {
			return lms.ErrChapterNotFound
		}
		if err != nil {
			return errors.Wrap(err, "locking chapter")
		}
		if err := fn(&ch); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE chapters SET title = $2, content_type = $3, content_url = $4, content = $5,
			quiz_id = $6, assignment_id = $7, duration_minutes = $8
			WHERE id = $1`,
			ch.ID, ch.Title, ch.ContentType, ch.ContentURL, ch.Content, ch.QuizID, ch.AssignmentID, ch.DurationMinutes,
		)
		return mapError(err, "updating chapter")
	})
	if err != nil {
		return lms.Chapter{}, err
	}
	return ch, nil
}
