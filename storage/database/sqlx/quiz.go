package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
)

const quizColumns = "id, title, topic, total_questions, created_at"

func (repo *lmsRepository) QueryQuizzes(ctx context.Context) ([]lms.Quiz, error) {
	quizzes := []lms.Quiz{}
	err := repo.db.SelectContext(ctx, &quizzes, "SELECT "+quizColumns+" FROM quizzes ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	return quizzes, nil
}

func (repo *lmsRepository) GetQuiz(ctx context.Context, id int) (lms.Quiz, error) {
	var quiz lms.Quiz
	err := repo.db.GetContext(ctx, &quiz, "SELECT "+quizColumns+" FROM quizzes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return lms.Quiz{}, lms.ErrQuizNotFound
	}
	if err != nil {
		return lms.Quiz{}, errors.Wrap(err, "getting quiz")
	}
	return quiz, nil
}

func (repo *lmsRepository) QueryQuestions(ctx context.Context, quizID int) ([]lms.Question, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, quiz_id, position, question_text, options, correct_option
		FROM quiz_questions WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	defer func() { _ = rows.Close() }()

	questions := []lms.Question{}
	for rows.Next() {
		var q lms.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Position, &q.QuestionText, pq.Array(&q.Options), &q.CorrectOption); err != nil {
			return nil, errors.Wrap(err, "scanning question")
		}
		questions = append(questions, q)
	}
	return questions, errors.Wrap(rows.Err(), "querying questions")
}

func (repo *lmsRepository) CreateQuiz(ctx context.Context, quiz lms.Quiz, questions []lms.Question) (lms.QuizWithQuestions, error) {
	var result lms.QuizWithQuestions
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO quizzes (title, topic, total_questions, created_at) VALUES ($1, $2, 0, $3) RETURNING id`,
			quiz.Title, quiz.Topic, quiz.CreatedAt,
		).Scan(&quiz.ID)
		if err != nil {
			return errors.Wrap(err, "inserting quiz")
		}

		saved, err := insertQuestions(ctx, tx, quiz.ID, questions)
		if err != nil {
			return err
		}
		if err := setTotalQuestions(ctx, tx, quiz.ID, len(saved)); err != nil {
			return err
		}
		quiz.TotalQuestions = len(saved)
		result = lms.QuizWithQuestions{Quiz: quiz, Questions: saved}
		return nil
	})
	if err != nil {
		return lms.QuizWithQuestions{}, err
	}
	return result, nil
}

func (repo *lmsRepository) ReplaceQuiz(ctx context.Context, quiz lms.Quiz, questions []lms.Question) (lms.QuizWithQuestions, error) {
	var result lms.QuizWithQuestions
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, "SELECT created_at FROM quizzes WHERE id = $1 FOR UPDATE", quiz.ID).
			Scan(&quiz.CreatedAt)
		if err == sql.ErrNoRows {
			return lms.ErrQuizNotFound
		}
		if err != nil {
			return errors.Wrap(err, "locking quiz")
		}

		if _, err := tx.ExecContext(ctx, "UPDATE quizzes SET title = $2, topic = $3 WHERE id = $1",
			quiz.ID, quiz.Title, quiz.Topic); err != nil {
			return errors.Wrap(err, "updating quiz")
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM quiz_questions WHERE quiz_id = $1", quiz.ID); err != nil {
			return errors.Wrap(err, "deleting questions")
		}

		saved, err := insertQuestions(ctx, tx, quiz.ID, questions)
		if err != nil {
			return err
		}
		if err := setTotalQuestions(ctx, tx, quiz.ID, len(saved)); err != nil {
			return err
		}
		quiz.TotalQuestions = len(saved)
		result = lms.QuizWithQuestions{Quiz: quiz, Questions: saved}
		return nil
	})
	if err != nil {
		return lms.QuizWithQuestions{}, err
	}
	return result, nil
}

func insertQuestions(ctx context.Context, tx core.DBExecutor, quizID int, questions []lms.Question) ([]lms.Question, error) {
	saved := make([]lms.Question, 0, len(questions))
	for _, q := range questions {
		q.QuizID = quizID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO quiz_questions (quiz_id, position, question_text, options, correct_option)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			q.QuizID, q.Position, q.QuestionText, pq.Array(q.Options), q.CorrectOption,
		).Scan(&q.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "inserting question #%d", q.Position+1)
		}
		saved = append(saved, q)
	}
	return saved, nil
}

func setTotalQuestions(ctx context.Context, tx core.DBExecutor, quizID, total int) error {
	_, err := tx.ExecContext(ctx, "UPDATE quizzes SET total_questions = $2 WHERE id = $1", quizID, total)
	return errors.Wrap(err, "updating question count")
}
