package lms

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/user"
)

var (
	// errors
	ErrCourseNotFound     = core.NewNotFoundError("course")
	ErrModuleNotFound     = core.NewNotFoundError("module")
	ErrChapterNotFound    = core.NewNotFoundError("chapter")
	ErrQuizNotFound       = core.NewNotFoundError("quiz")
	ErrClassNotFound      = core.NewNotFoundError("class")
	ErrStudentNotFound    = core.NewNotFoundError("student")
	ErrQuestionNoOptions  = errors.New("quiz question has no options")
	ErrStudentEmailExists = errors.New("a user with this email already exists")

	NowFunc = time.Now // mockable
)

const assignmentCreatedTemplate = "assignment_created"

type Service struct {
	repo     Repository
	mailSvc  core.EmailService
	logger   core.Logger
	validate *validator.Validate
}

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

// Courses

func (svc *Service) GetAllCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

func (svc *Service) GetCourseDetails(ctx context.Context, id int) (CourseDetails, error) {
	course, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return CourseDetails{}, err
	}
	modules, err := svc.structure(ctx, id)
	if err != nil {
		return CourseDetails{}, err
	}
	return CourseDetails{Course: course, Modules: modules}, nil
}

func (svc *Service) GetCourseStructure(ctx context.Context, id int) ([]ModuleWithChapters, error) {
	if _, err := svc.repo.GetCourse(ctx, id); err != nil {
		return nil, err
	}
	return svc.structure(ctx, id)
}

// structure fetches the modules of a course, then all their chapters in one query, and merges them.
func (svc *Service) structure(ctx context.Context, courseID int) ([]ModuleWithChapters, error) {
	modules, err := svc.repo.QueryModules(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	result := make([]ModuleWithChapters, 0, len(modules))
	if len(modules) == 0 {
		return result, nil
	}

	ids := make([]int, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	chapters, err := svc.repo.QueryChapters(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	byModule := make(map[int][]Chapter, len(modules))
	for _, ch := range chapters {
		byModule[ch.ModuleID] = append(byModule[ch.ModuleID], ch)
	}

	for _, m := range modules {
		chs := byModule[m.ID]
		if chs == nil {
			chs = []Chapter{}
		}
		result = append(result, ModuleWithChapters{Module: m, Chapters: chs})
	}
	return result, nil
}

func (svc *Service) CreateCourse(ctx context.Context, teacherID int, nc NewCourse) (Course, error) {
	course := Course{
		Title:        nc.Title,
		Description:  nc.Description,
		Category:     nc.Category,
		ThumbnailURL: nc.ThumbnailURL,
		TeacherID:    null.IntFrom(teacherID),
		CreatedAt:    NowFunc().UTC(),
	}
	return svc.repo.CreateCourse(ctx, course)
}

func (svc *Service) CreateModule(ctx context.Context, courseID int, nm NewModule) (Module, error) {
	return svc.repo.CreateModule(ctx, Module{CourseID: courseID, Title: nm.Title}, nm.OrderIndex)
}

func (svc *Service) UpdateModule(ctx context.Context, id int, um UpdateModule) (Module, error) {
	return svc.repo.UpdateModule(ctx, id, func(mod *Module) error {
		um.Apply(mod)
		return nil
	})
}

func (svc *Service) CreateChapter(ctx context.Context, moduleID int, ci ChapterInput) (Chapter, error) {
	ch := Chapter{ModuleID: moduleID}
	ci.Apply(&ch)
	return svc.repo.CreateChapter(ctx, ch)
}

// UpdateChapter merges the partial update into the stored chapter, then validates the result as a whole:
// the content type rules apply to the merged chapter, not to the update alone.
func (svc *Service) UpdateChapter(ctx context.Context, id int, uc UpdateChapter) (Chapter, error) {
	return svc.repo.UpdateChapter(ctx, id, func(ch *Chapter) error {
		ci := uc.Merge(*ch)
		if err := ci.Validate(svc.validate); err != nil {
			return err
		}
		ci.Apply(ch)
		return nil
	})
}

// Quizzes

func (svc *Service) GetAllQuizzes(ctx context.Context) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx)
}

func (svc *Service) GetQuiz(ctx context.Context, id int) (QuizWithQuestions, error) {
	quiz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return QuizWithQuestions{}, err
	}
	questions, err := svc.repo.QueryQuestions(ctx, id)
	if err != nil {
		return QuizWithQuestions{}, errors.Wrap(err, "querying questions")
	}
	for _, q := range questions {
		if len(q.Options) == 0 {
			return QuizWithQuestions{}, errors.Wrapf(ErrQuestionNoOptions, "quiz %d, question %d", id, q.ID)
		}
	}
	if questions == nil {
		questions = []Question{}
	}
	return QuizWithQuestions{Quiz: quiz, Questions: questions}, nil
}

func (svc *Service) SaveQuiz(ctx context.Context, nq NewQuiz) (QuizWithQuestions, error) {
	questions := nq.questions()
	quiz := Quiz{
		Title:          nq.Title,
		Topic:          nq.Topic,
		TotalQuestions: len(questions),
		CreatedAt:      NowFunc().UTC(),
	}
	return svc.repo.CreateQuiz(ctx, quiz, questions)
}

func (svc *Service) UpdateQuiz(ctx context.Context, id int, nq NewQuiz) (QuizWithQuestions, error) {
	questions := nq.questions()
	quiz := Quiz{
		ID:             id,
		Title:          nq.Title,
		Topic:          nq.Topic,
		TotalQuestions: len(questions),
	}
	return svc.repo.ReplaceQuiz(ctx, quiz, questions)
}

// Grades

func (svc *Service) GetGrades(ctx context.Context, studentID int) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, studentID)
}

// SubmitGrade records an attempt; repeated submissions for the same quiz are all kept.
func (svc *Service) SubmitGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	grade := Grade{
		StudentID:   ng.StudentID,
		QuizID:      ng.QuizID,
		Score:       *ng.Score,
		MaxScore:    *ng.MaxScore,
		SubmittedAt: NowFunc().UTC(),
	}
	return svc.repo.CreateGrade(ctx, grade)
}

// Assignments

func (svc *Service) GetAssignments(ctx context.Context, studentID int) ([]Assignment, error) {
	return svc.repo.QueryStudentAssignments(ctx, studentID)
}

func (svc *Service) GetTeacherAssignments(ctx context.Context, teacherID int) ([]Assignment, error) {
	return svc.repo.QueryTeacherAssignments(ctx, teacherID)
}

// AssignTask creates an assignment for a student or a class, then notifies the targeted students by email.
func (svc *Service) AssignTask(ctx context.Context, teacherID int, na NewAssignment) (Assignment, error) {
	now := NowFunc().UTC()
	due := now.Add(DefaultDueDelta)
	if na.DueDate != nil && !na.DueDate.IsZero() {
		due = na.DueDate.UTC()
	}

	a := Assignment{
		Title:       na.Title,
		Description: na.Description,
		DueDate:     due,
		Status:      StatusPending,
		TeacherID:   null.IntFrom(teacherID),
		ClassID:     null.IntFromPtr(na.ClassID),
		StudentID:   null.IntFromPtr(na.StudentID),
		CreatedAt:   now,
	}
	a, students, err := svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, err
	}

	svc.notifyAssignment(a, students)
	return a, nil
}

type assignmentMailData struct {
	StudentName string
	Title       string
	Description string
	DueDate     time.Time
}

func (svc *Service) notifyAssignment(a Assignment, students []Student) {
	if svc.mailSvc == nil {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(students))
	for _, st := range students {
		if st.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: st.Name, Address: st.Email}},
			Subject:      fmt.Sprintf("New assignment: %s", a.Title),
			TemplateName: assignmentCreatedTemplate,
			TemplateData: assignmentMailData{
				StudentName: st.Name,
				Title:       a.Title,
				Description: a.Description,
				DueDate:     a.DueDate,
			},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
		svc.logger.Info(fmt.Sprintf("assignment %d: %d notification(s) queued", a.ID, len(msgs)))
	}
}

// Students & classes

func (svc *Service) GetAllStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

// CanAccessStudent reports whether the caller may read and write the records of studentID.
// Staff may access any student; a student only their own records.
func (svc *Service) CanAccessStudent(ctx context.Context, callerID int, callerRole string, studentID int) (bool, error) {
	if callerRole != user.RoleStudent {
		return true, nil
	}
	st, err := svc.repo.GetStudentByUserID(ctx, callerID)
	if err == ErrStudentNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "finding caller's student record")
	}
	return st.ID == studentID, nil
}

func (svc *Service) GetTeacherClasses(ctx context.Context, teacherID int) ([]Class, error) {
	return svc.repo.QueryTeacherClasses(ctx, teacherID)
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := NowFunc().UTC()
	// student logins are keyed by email: it is already unique among students
	usr := user.User{
		Username:  ns.Email,
		Email:     ns.Email,
		Role:      user.RoleStudent,
		CreatedAt: now,
	}
	if err := usr.SetPassword(ns.Password); err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}
	st := Student{
		ClassID:   null.IntFromPtr(ns.ClassID),
		Name:      ns.Name,
		Email:     ns.Email,
		Persona:   ns.Persona,
		CreatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, usr, st)
}
