package lms

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core"
)

type NewCourse struct {
	Title        string `json:"title" validate:"required,notblank,max=255"`
	Description  string `json:"description"`
	Category     string `json:"category" validate:"max=100"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
}

// UnmarshalJSON also reads the snake_case thumbnail_url key.
func (nc *NewCourse) UnmarshalJSON(data []byte) error {
	type plain NewCourse
	aux := struct {
		*plain
		SnakeThumbnailURL string `json:"thumbnail_url"`
	}{plain: (*plain)(nc)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if nc.ThumbnailURL == "" {
		nc.ThumbnailURL = aux.SnakeThumbnailURL
	}
	return nil
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Category = core.CleanString(nc.Category)
	nc.ThumbnailURL = core.CleanString(nc.ThumbnailURL)
	return validate.Struct(nc)
}

type NewModule struct {
	Title      string `json:"title" validate:"required,notblank,max=255"`
	OrderIndex *int   `json:"orderIndex" validate:"omitempty,min=0"`
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}

// UpdateModule holds a partial update: nil fields keep their current value.
type UpdateModule struct {
	Title      *string `json:"title" validate:"omitempty,notblank,max=255"`
	OrderIndex *int    `json:"orderIndex" validate:"omitempty,min=0"`
}

func (um *UpdateModule) Validate(validate *validator.Validate) error {
	if um.Title != nil {
		title := core.CleanString(*um.Title)
		um.Title = &title
	}
	return validate.Struct(um)
}

func (um UpdateModule) Apply(mod *Module) {
	if um.Title != nil {
		mod.Title = *um.Title
	}
	if um.OrderIndex != nil {
		mod.OrderIndex = *um.OrderIndex
	}
}

// ChapterInput is the full set of chapter fields accepted from clients.
// For quiz & assignment chapters a numeric contentUrl is accepted in place of quizId/assignmentId.
type ChapterInput struct {
	Title           string  `json:"title" validate:"required,notblank,max=255"`
	ContentType     string  `json:"contentType" validate:"required,contenttype"`
	ContentURL      *string `json:"contentUrl"`
	Content         *string `json:"content"`
	QuizID          *int    `json:"quizId" validate:"omitempty,min=1"`
	AssignmentID    *int    `json:"assignmentId" validate:"omitempty,min=1"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,min=0"`
}

// UnmarshalJSON accepts durationMinutes as a number or a numeric string.
func (ci *ChapterInput) UnmarshalJSON(data []byte) error {
	type plain ChapterInput
	aux := struct {
		*plain
		DurationMinutes *looseInt `json:"durationMinutes"`
	}{plain: (*plain)(ci)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ci.DurationMinutes = (*int)(aux.DurationMinutes)
	return nil
}

func (ci *ChapterInput) clean() {
	ci.Title = core.CleanString(ci.Title)
	ci.ContentType = core.CleanString(ci.ContentType, true /* lower */)
	if ci.ContentURL != nil {
		u := core.CleanString(*ci.ContentURL)
		ci.ContentURL = &u
	}
	switch ci.ContentType {
	case ContentQuiz:
		if ci.QuizID == nil && ci.ContentURL != nil {
			if id, ok := parseID(*ci.ContentURL); ok {
				ci.QuizID = &id
			}
		}
	case ContentAssignment:
		if ci.AssignmentID == nil && ci.ContentURL != nil {
			if id, ok := parseID(*ci.ContentURL); ok {
				ci.AssignmentID = &id
			}
		}
	}
}

func (ci *ChapterInput) Validate(validate *validator.Validate) error {
	ci.clean()
	return validate.Struct(ci)
}

// Apply writes the input onto ch, keeping only the content field relevant to the content type.
func (ci ChapterInput) Apply(ch *Chapter) {
	ch.Title = ci.Title
	ch.ContentType = ci.ContentType
	ch.ContentURL = null.String{}
	ch.Content = null.String{}
	ch.QuizID = null.Int{}
	ch.AssignmentID = null.Int{}

	switch ci.ContentType {
	case ContentVideo, ContentPDF:
		ch.ContentURL = null.StringFromPtr(ci.ContentURL)
	case ContentText:
		ch.Content = null.StringFromPtr(ci.Content)
	case ContentQuiz:
		ch.QuizID = null.IntFromPtr(ci.QuizID)
	case ContentAssignment:
		ch.AssignmentID = null.IntFromPtr(ci.AssignmentID)
	}

	if ci.DurationMinutes != nil {
		ch.DurationMinutes = *ci.DurationMinutes
	} else if ch.DurationMinutes == 0 {
		ch.DurationMinutes = DefaultChapterDuration
	}
}

// UpdateChapter holds a partial update: nil fields keep their current value.
type UpdateChapter struct {
	Title           *string `json:"title"`
	ContentType     *string `json:"contentType"`
	ContentURL      *string `json:"contentUrl"`
	Content         *string `json:"content"`
	QuizID          *int    `json:"quizId"`
	AssignmentID    *int    `json:"assignmentId"`
	DurationMinutes *int    `json:"durationMinutes"`
}

// UnmarshalJSON accepts durationMinutes as a number or a numeric string.
func (uc *UpdateChapter) UnmarshalJSON(data []byte) error {
	type plain UpdateChapter
	aux := struct {
		*plain
		DurationMinutes *looseInt `json:"durationMinutes"`
	}{plain: (*plain)(uc)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	uc.DurationMinutes = (*int)(aux.DurationMinutes)
	return nil
}

// Merge overlays the update on the current chapter and returns the complete input to validate.
func (uc UpdateChapter) Merge(ch Chapter) ChapterInput {
	ci := ChapterInput{
		Title:           ch.Title,
		ContentType:     ch.ContentType,
		ContentURL:      ch.ContentURL.Ptr(),
		Content:         ch.Content.Ptr(),
		QuizID:          ch.QuizID.Ptr(),
		AssignmentID:    ch.AssignmentID.Ptr(),
		DurationMinutes: &ch.DurationMinutes,
	}
	if uc.Title != nil {
		ci.Title = *uc.Title
	}
	if uc.ContentType != nil {
		ci.ContentType = *uc.ContentType
	}
	if uc.ContentURL != nil {
		ci.ContentURL = uc.ContentURL
	}
	if uc.Content != nil {
		ci.Content = uc.Content
	}
	if uc.QuizID != nil {
		ci.QuizID = uc.QuizID
	}
	if uc.AssignmentID != nil {
		ci.AssignmentID = uc.AssignmentID
	}
	if uc.DurationMinutes != nil {
		ci.DurationMinutes = uc.DurationMinutes
	}
	return ci
}

type NewQuestion struct {
	Question string   `json:"question" validate:"required,notblank"`
	Options  []string `json:"options" validate:"required,min=2,dive,required,notblank"`
	Correct  *int     `json:"correct" validate:"required,min=0"`
}

// NewQuiz is used to create a quiz, and to fully replace an existing one.
type NewQuiz struct {
	Title     string        `json:"title" validate:"required,notblank,max=255"`
	Topic     string        `json:"topic" validate:"max=255"`
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Topic = core.CleanString(nq.Topic)
	for i := range nq.Questions {
		nq.Questions[i].Question = core.CleanString(nq.Questions[i].Question)
		for j := range nq.Questions[i].Options {
			nq.Questions[i].Options[j] = core.CleanString(nq.Questions[i].Options[j])
		}
	}
	return validate.Struct(nq)
}

func (nq NewQuiz) questions() []Question {
	qs := make([]Question, 0, len(nq.Questions))
	for i, q := range nq.Questions {
		qs = append(qs, Question{
			Position:      i,
			QuestionText:  q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectOption: *q.Correct,
		})
	}
	return qs
}

type NewGrade struct {
	StudentID int      `json:"studentId" validate:"required,min=1"`
	QuizID    int      `json:"quizId" validate:"required,min=1"`
	Score     *float64 `json:"score" validate:"required,min=0"`
	MaxScore  *float64 `json:"maxScore" validate:"required,gt=0"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

type NewAssignment struct {
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description"`
	DueDate     *Flexible `json:"dueDate"`
	ClassID     *int      `json:"classId" validate:"omitempty,min=1"`
	StudentID   *int      `json:"studentId" validate:"omitempty,min=1"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type NewStudent struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ClassID  *int   `json:"classId" validate:"omitempty,min=1"`
	Persona  string `json:"persona" validate:"max=50"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Persona = core.CleanString(ns.Persona)
	if ns.Persona == "" {
		ns.Persona = DefaultPersona
	}
	return validate.Struct(ns)
}
