package lms

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/user"
)

var (
	contentTypeTag  = "contenttype"
	contentTypeText = "must be one of: " + strings.Join(ContentTypes, ", ")

	requiredForTypeTag  = "requiredfortype"
	requiredForTypeText = "this field is required for this content type"

	correctOptionTag  = "correctoption"
	correctOptionText = "must be the index of one of the options"

	scoreMaxTag  = "scoremax"
	scoreMaxText = "score cannot exceed maxScore"

	oneTargetTag  = "onetarget"
	oneTargetText = "exactly one of studentId or classId is required"
)

// InitValidators registers the LMS validators & translations.
// user.InitValidators must also be called: students are validated against the password policy.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(contentTypeTag, contentTypeValidation)
	core.RegisterCustomTranslation(validate, translator, contentTypeTag, contentTypeText)

	validate.RegisterStructValidation(chapterStructValidation, ChapterInput{})
	core.RegisterCustomTranslation(validate, translator, requiredForTypeTag, requiredForTypeText)

	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, correctOptionTag, correctOptionText)

	validate.RegisterStructValidation(gradeStructValidation, NewGrade{})
	core.RegisterCustomTranslation(validate, translator, scoreMaxTag, scoreMaxText)

	validate.RegisterStructValidation(assignmentStructValidation, NewAssignment{})
	core.RegisterCustomTranslation(validate, translator, oneTargetTag, oneTargetText)

	validate.RegisterStructValidation(studentStructValidation, NewStudent{})
}

func contentTypeValidation(fl validator.FieldLevel) bool {
	ct := fl.Field().String()
	for _, t := range ContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// chapterStructValidation checks that the content field matching the content type is set.
func chapterStructValidation(sl validator.StructLevel) {
	ci := sl.Current().Interface().(ChapterInput)
	switch ci.ContentType {
	case ContentVideo, ContentPDF:
		if isBlank(ci.ContentURL) {
			sl.ReportError(ci.ContentURL, "contentUrl", "ContentURL", requiredForTypeTag, ci.ContentType)
		}
	case ContentText:
		if isBlank(ci.Content) {
			sl.ReportError(ci.Content, "content", "Content", requiredForTypeTag, ci.ContentType)
		}
	case ContentQuiz:
		if ci.QuizID == nil {
			sl.ReportError(ci.QuizID, "quizId", "QuizID", requiredForTypeTag, ci.ContentType)
		}
	case ContentAssignment:
		if ci.AssignmentID == nil {
			sl.ReportError(ci.AssignmentID, "assignmentId", "AssignmentID", requiredForTypeTag, ci.ContentType)
		}
	}
}

func questionStructValidation(sl validator.StructLevel) {
	q := sl.Current().Interface().(NewQuestion)
	if q.Correct != nil && len(q.Options) > 0 && *q.Correct >= len(q.Options) {
		sl.ReportError(q.Correct, "correct", "Correct", correctOptionTag, "")
	}
}

func gradeStructValidation(sl validator.StructLevel) {
	g := sl.Current().Interface().(NewGrade)
	if g.Score != nil && g.MaxScore != nil && *g.Score > *g.MaxScore {
		sl.ReportError(g.Score, "score", "Score", scoreMaxTag, "")
	}
}

func assignmentStructValidation(sl validator.StructLevel) {
	a := sl.Current().Interface().(NewAssignment)
	if (a.ClassID == nil) == (a.StudentID == nil) {
		sl.ReportError(a.StudentID, "studentId", "StudentID", oneTargetTag, "")
		sl.ReportError(a.ClassID, "classId", "ClassID", oneTargetTag, "")
	}
}

func studentStructValidation(sl validator.StructLevel) {
	s := sl.Current().Interface().(NewStudent)
	if s.Password != "" {
		user.ValidatePassword(s.Password, s.Name, s.Email, sl)
	}
}
