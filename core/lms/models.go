package lms

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Chapter content types
const (
	ContentVideo      = "video"
	ContentText       = "text"
	ContentPDF        = "pdf"
	ContentQuiz       = "quiz"
	ContentAssignment = "assignment"
)

var ContentTypes = []string{ContentVideo, ContentText, ContentPDF, ContentQuiz, ContentAssignment}

// Assignment statuses
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

const (
	DefaultPersona         = "Standard"
	DefaultChapterDuration = 10
	DefaultDueDelta        = 7 * 24 * time.Hour
)

type (
	Course struct {
		ID           int       `json:"id" db:"id"`
		Title        string    `json:"title" db:"title"`
		Description  string    `json:"description" db:"description"`
		Category     string    `json:"category" db:"category"`
		ThumbnailURL string    `json:"thumbnail_url" db:"thumbnail_url"`
		TeacherID    null.Int  `json:"teacher_id" db:"teacher_id"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"`
	}

	Module struct {
		ID         int    `json:"id" db:"id"`
		CourseID   int    `json:"course_id" db:"course_id"`
		Title      string `json:"title" db:"title"`
		OrderIndex int    `json:"order_index" db:"order_index"`
	}

	// Chapter content fields are mutually exclusive and depend on ContentType:
	// video & pdf use ContentURL, text uses Content, quiz uses QuizID, assignment uses AssignmentID.
	Chapter struct {
		ID              int         `json:"id" db:"id"`
		ModuleID        int         `json:"module_id" db:"module_id"`
		Title           string      `json:"title" db:"title"`
		ContentType     string      `json:"content_type" db:"content_type"`
		ContentURL      null.String `json:"content_url" db:"content_url"`
		Content         null.String `json:"content" db:"content"`
		QuizID          null.Int    `json:"quiz_id" db:"quiz_id"`
		AssignmentID    null.Int    `json:"assignment_id" db:"assignment_id"`
		DurationMinutes int         `json:"duration_minutes" db:"duration_minutes"`
	}

	ModuleWithChapters struct {
		Module
		Chapters []Chapter `json:"chapters"`
	}

	CourseDetails struct {
		Course
		Modules []ModuleWithChapters `json:"modules"`
	}

	Quiz struct {
		ID             int       `json:"id" db:"id"`
		Title          string    `json:"title" db:"title"`
		Topic          string    `json:"topic" db:"topic"`
		TotalQuestions int       `json:"total_questions" db:"total_questions"`
		CreatedAt      time.Time `json:"created_at" db:"created_at"`
	}

	Question struct {
		ID            int      `json:"id" db:"id"`
		QuizID        int      `json:"quiz_id" db:"quiz_id"`
		Position      int      `json:"position" db:"position"`
		QuestionText  string   `json:"question_text" db:"question_text"`
		Options       []string `json:"options" db:"-"`
		CorrectOption int      `json:"correct_option" db:"correct_option"`
	}

	QuizWithQuestions struct {
		Quiz
		Questions []Question `json:"questions"`
	}

	Grade struct {
		ID          int       `json:"id" db:"id"`
		StudentID   int       `json:"student_id" db:"student_id"`
		QuizID      int       `json:"quiz_id" db:"quiz_id"`
		QuizTitle   string    `json:"quiz_title" db:"quiz_title"`
		Score       float64   `json:"score" db:"score"`
		MaxScore    float64   `json:"max_score" db:"max_score"`
		SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
	}

	// Assignment targets either one student or a whole class.
	Assignment struct {
		ID          int         `json:"id" db:"id"`
		Title       string      `json:"title" db:"title"`
		Description string      `json:"description" db:"description"`
		DueDate     time.Time   `json:"due_date" db:"due_date"`
		Status      string      `json:"status" db:"status"`
		TeacherID   null.Int    `json:"teacher_id" db:"teacher_id"`
		ClassID     null.Int    `json:"class_id" db:"class_id"`
		StudentID   null.Int    `json:"student_id" db:"student_id"`
		ClassName   null.String `json:"class_name" db:"class_name"`
		CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	}

	Student struct {
		ID        int         `json:"id" db:"id"`
		UserID    null.Int    `json:"user_id" db:"user_id"`
		ClassID   null.Int    `json:"class_id" db:"class_id"`
		ClassName null.String `json:"class_name" db:"class_name"`
		Name      string      `json:"name" db:"name"`
		Email     string      `json:"email" db:"email"`
		Persona   string      `json:"persona" db:"persona"`
		CreatedAt time.Time   `json:"created_at" db:"created_at"`
	}

	Class struct {
		ID           int    `json:"id" db:"id"`
		Name         string `json:"name" db:"name"`
		StudentCount int    `json:"student_count" db:"student_count"`
	}

	// StudentFilter narrows GetAllStudents; a zero TeacherID means no filter.
	StudentFilter struct {
		TeacherID int
	}
)

// Flexible is a timestamp accepting RFC 3339 as well as the shorter layouts sent by HTML date inputs.
type Flexible struct {
	time.Time
}

var flexibleLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func (f *Flexible) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "due date must be a string")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		f.Time = time.Time{}
		return nil
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	return errors.Errorf("invalid date %q", raw)
}

func (f Flexible) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Time)
}

// looseInt is an integer that may also be sent as a numeric string, as HTML number inputs do.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}
	var i int
	if err := json.Unmarshal(raw, &i); err != nil {
		return errors.Errorf("expected an integer, got %s", data)
	}
	*n = looseInt(i)
	return nil
}

// parseID parses a positive integer identifier; ok is false for anything else.
func parseID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
