package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

type lmsRepository struct {
	db *DB
}

var _ lms.Repository = (*lmsRepository)(nil)

func NewLMSRepository(db *DB) lms.Repository {
	return &lmsRepository{db: db}
}

func refError(field string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: "referenced record does not exist"})
}

// Courses

func (repo *lmsRepository) QueryCourses(ctx context.Context) ([]lms.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]lms.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *lmsRepository) GetCourse(ctx context.Context, id int) (lms.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return c, nil
	}
	return lms.Course{}, lms.ErrCourseNotFound
}

func (repo *lmsRepository) CreateCourse(ctx context.Context, course lms.Course) (lms.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	course.ID = repo.db.nextID("courses")
	repo.db.courses[course.ID] = course
	return course, nil
}

func (repo *lmsRepository) QueryModules(ctx context.Context, courseID int) ([]lms.Module, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.courseModules(courseID), nil
}

func (db *DB) courseModules(courseID int) []lms.Module {
	modules := make([]lms.Module, 0)
	for _, m := range db.modules {
		if m.CourseID == courseID {
			modules = append(modules, m)
		}
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].OrderIndex != modules[j].OrderIndex {
			return modules[i].OrderIndex < modules[j].OrderIndex
		}
		return modules[i].ID < modules[j].ID
	})
	return modules
}

func (repo *lmsRepository) CreateModule(ctx context.Context, mod lms.Module, orderIndex *int) (lms.Module, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[mod.CourseID]; !ok {
		return lms.Module{}, lms.ErrCourseNotFound
	}
	if orderIndex != nil {
		mod.OrderIndex = *orderIndex
	} else {
		mod.OrderIndex = 0
		for _, m := range repo.db.courseModules(mod.CourseID) {
			if m.OrderIndex >= mod.OrderIndex {
				mod.OrderIndex = m.OrderIndex + 1
			}
		}
	}
	mod.ID = repo.db.nextID("modules")
	repo.db.modules[mod.ID] = mod
	return mod, nil
}

func (repo *lmsRepository) UpdateModule(ctx context.Context, id int, fn func(*lms.Module) error) (lms.Module, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	mod, ok := repo.db.modules[id]
	if !ok {
		return lms.Module{}, lms.ErrModuleNotFound
	}
	if err := fn(&mod); err != nil {
		return lms.Module{}, err
	}
	repo.db.modules[id] = mod
	return mod, nil
}

func (repo *lmsRepository) QueryChapters(ctx context.Context, moduleIDs ...int) ([]lms.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[int]bool, len(moduleIDs))
	for _, id := range moduleIDs {
		wanted[id] = true
	}
	chapters := make([]lms.Chapter, 0)
	for _, ch := range repo.db.chapters {
		if wanted[ch.ModuleID] {
			chapters = append(chapters, ch)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].ID < chapters[j].ID })
	return chapters, nil
}

// checkChapterRefs must be called with the lock held.
func (db *DB) checkChapterRefs(ch lms.Chapter) error {
	if ch.QuizID.Valid {
		if _, ok := db.quizzes[ch.QuizID.Int]; !ok {
			return refError("quizId")
		}
	}
	if ch.AssignmentID.Valid {
		if _, ok := db.assignments[ch.AssignmentID.Int]; !ok {
			return refError("assignmentId")
		}
	}
	return nil
}

func (repo *lmsRepository) CreateChapter(ctx context.Context, ch lms.Chapter) (lms.Chapter, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.modules[ch.ModuleID]; !ok {
		return lms.Chapter{}, lms.ErrModuleNotFound
	}
	if err := repo.db.checkChapterRefs(ch); err != nil {
		return lms.Chapter{}, err
	}
	ch.ID = repo.db.nextID("chapters")
	repo.db.chapters[ch.ID] = ch
	return ch, nil
}

func (repo *lmsRepository) UpdateChapter(ctx context.Context, id int, fn func(*lms.Chapter) error) (lms.Chapter, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ch, ok := repo.db.chapters[id]
	if !ok {
		return lms.Chapter{}, lms.ErrChapterNotFound
	}
	if err := fn(&ch); err != nil {
		return lms.Chapter{}, err
	}
	if err := repo.db.checkChapterRefs(ch); err != nil {
		return lms.Chapter{}, err
	}
	repo.db.chapters[id] = ch
	return ch, nil
}

// Quizzes

func (repo *lmsRepository) QueryQuizzes(ctx context.Context) ([]lms.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	quizzes := make([]lms.Quiz, 0, len(repo.db.quizzes))
	for _, q := range repo.db.quizzes {
		quizzes = append(quizzes, q)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID > quizzes[j].ID
	})
	return quizzes, nil
}

func (repo *lmsRepository) GetQuiz(ctx context.Context, id int) (lms.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if q, ok := repo.db.quizzes[id]; ok {
		return q, nil
	}
	return lms.Quiz{}, lms.ErrQuizNotFound
}

func (repo *lmsRepository) QueryQuestions(ctx context.Context, quizID int) ([]lms.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return copyQuestions(repo.db.questions[quizID]), nil
}

func copyQuestions(src []lms.Question) []lms.Question {
	out := make([]lms.Question, 0, len(src))
	for _, q := range src {
		q.Options = append([]string(nil), q.Options...)
		out = append(out, q)
	}
	return out
}

// setQuestions must be called with the write lock held.
func (db *DB) setQuestions(quiz lms.Quiz, questions []lms.Question) lms.QuizWithQuestions {
	saved := make([]lms.Question, 0, len(questions))
	for _, q := range questions {
		q.ID = db.nextID("quiz_questions")
		q.QuizID = quiz.ID
		saved = append(saved, q)
	}
	sort.SliceStable(saved, func(i, j int) bool { return saved[i].Position < saved[j].Position })
	db.questions[quiz.ID] = saved

	quiz.TotalQuestions = len(saved)
	db.quizzes[quiz.ID] = quiz
	return lms.QuizWithQuestions{Quiz: quiz, Questions: copyQuestions(saved)}
}

func (repo *lmsRepository) CreateQuiz(ctx context.Context, quiz lms.Quiz, questions []lms.Question) (lms.QuizWithQuestions, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	quiz.ID = repo.db.nextID("quizzes")
	return repo.db.setQuestions(quiz, questions), nil
}

func (repo *lmsRepository) ReplaceQuiz(ctx context.Context, quiz lms.Quiz, questions []lms.Question) (lms.QuizWithQuestions, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.quizzes[quiz.ID]
	if !ok {
		return lms.QuizWithQuestions{}, lms.ErrQuizNotFound
	}
	quiz.CreatedAt = orig.CreatedAt
	return repo.db.setQuestions(quiz, questions), nil
}

// Grades

func (repo *lmsRepository) QueryGrades(ctx context.Context, studentID int) ([]lms.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	grades := make([]lms.Grade, 0)
	for _, g := range repo.db.grades {
		if g.StudentID == studentID {
			g.QuizTitle = repo.db.quizzes[g.QuizID].Title
			grades = append(grades, g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if !grades[i].SubmittedAt.Equal(grades[j].SubmittedAt) {
			return grades[i].SubmittedAt.After(grades[j].SubmittedAt)
		}
		return grades[i].ID > grades[j].ID
	})
	return grades, nil
}

func (repo *lmsRepository) CreateGrade(ctx context.Context, grade lms.Grade) (lms.Grade, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[grade.StudentID]; !ok {
		return lms.Grade{}, refError("studentId")
	}
	quiz, ok := repo.db.quizzes[grade.QuizID]
	if !ok {
		return lms.Grade{}, refError("quizId")
	}
	grade.ID = repo.db.nextID("grades")
	grade.QuizTitle = quiz.Title
	repo.db.grades[grade.ID] = grade
	return grade, nil
}

// Assignments

// withClassName must be called with the lock held.
func (db *DB) withClassName(a lms.Assignment) lms.Assignment {
	if a.ClassID.Valid {
		if c, ok := db.classes[a.ClassID.Int]; ok {
			a.ClassName = null.StringFrom(c.Name)
		}
	}
	return a
}

func sortAssignments(as []lms.Assignment) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].DueDate.Equal(as[j].DueDate) {
			return as[i].DueDate.Before(as[j].DueDate)
		}
		return as[i].ID < as[j].ID
	})
}

func (repo *lmsRepository) QueryStudentAssignments(ctx context.Context, studentID int) ([]lms.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	assignments := make([]lms.Assignment, 0)
	for _, a := range repo.db.assignments {
		status, linked := repo.db.studentAssignments[studentAssignment{assignmentID: a.ID, studentID: studentID}]
		if !linked && !(a.StudentID.Valid && a.StudentID.Int == studentID) {
			continue
		}
		if linked {
			a.Status = status
		}
		assignments = append(assignments, repo.db.withClassName(a))
	}
	sortAssignments(assignments)
	return assignments, nil
}

func (repo *lmsRepository) QueryTeacherAssignments(ctx context.Context, teacherID int) ([]lms.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	assignments := make([]lms.Assignment, 0)
	for _, a := range repo.db.assignments {
		if a.TeacherID.Valid && a.TeacherID.Int == teacherID {
			assignments = append(assignments, repo.db.withClassName(a))
		}
	}
	sortAssignments(assignments)
	return assignments, nil
}

func (repo *lmsRepository) CreateAssignment(ctx context.Context, a lms.Assignment) (lms.Assignment, []lms.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var students []lms.Student
	if a.ClassID.Valid {
		if _, ok := repo.db.classes[a.ClassID.Int]; !ok {
			return lms.Assignment{}, nil, lms.ErrClassNotFound
		}
		students = repo.db.filterStudents(func(s lms.Student) bool { return s.ClassID == a.ClassID })
	} else {
		st, ok := repo.db.students[a.StudentID.Int]
		if !ok {
			return lms.Assignment{}, nil, lms.ErrStudentNotFound
		}
		students = []lms.Student{repo.db.withStudentClass(st)}
	}

	a.ID = repo.db.nextID("assignments")
	a = repo.db.withClassName(a)
	repo.db.assignments[a.ID] = a
	for _, st := range students {
		repo.db.studentAssignments[studentAssignment{assignmentID: a.ID, studentID: st.ID}] = a.Status
	}
	return a, students, nil
}

// Students & classes

// withStudentClass must be called with the lock held.
func (db *DB) withStudentClass(st lms.Student) lms.Student {
	st.ClassName = null.String{}
	if st.ClassID.Valid {
		if c, ok := db.classes[st.ClassID.Int]; ok {
			st.ClassName = null.StringFrom(c.Name)
		}
	}
	return st
}

// filterStudents must be called with the lock held.
func (db *DB) filterStudents(keep func(lms.Student) bool) []lms.Student {
	students := make([]lms.Student, 0)
	for _, st := range db.students {
		if keep(st) {
			students = append(students, db.withStudentClass(st))
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (repo *lmsRepository) QueryStudents(ctx context.Context, filter lms.StudentFilter) ([]lms.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.filterStudents(func(st lms.Student) bool {
		if filter.TeacherID == 0 {
			return true
		}
		return st.ClassID.Valid && repo.db.teacherClasses[teacherClass{teacherID: filter.TeacherID, classID: st.ClassID.Int}]
	}), nil
}

func (repo *lmsRepository) GetStudentByUserID(ctx context.Context, userID int) (lms.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, st := range repo.db.students {
		if st.UserID.Valid && st.UserID.Int == userID {
			return repo.db.withStudentClass(st), nil
		}
	}
	return lms.Student{}, lms.ErrStudentNotFound
}

func (repo *lmsRepository) QueryTeacherClasses(ctx context.Context, teacherID int) ([]lms.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]lms.Class, 0)
	for link := range repo.db.teacherClasses {
		if link.teacherID != teacherID {
			continue
		}
		class := repo.db.classes[link.classID]
		class.StudentCount = 0
		for _, st := range repo.db.students {
			if st.ClassID.Valid && st.ClassID.Int == class.ID {
				class.StudentCount++
			}
		}
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes, nil
}

func (repo *lmsRepository) CreateClass(ctx context.Context, name string, teacherIDs ...int) (lms.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, tid := range teacherIDs {
		if _, ok := repo.db.users[tid]; !ok {
			return lms.Class{}, refError("teacherId")
		}
	}
	return repo.db.insertClass(name, teacherIDs), nil
}

func (repo *lmsRepository) CreateStudent(ctx context.Context, usr user.User, st lms.Student) (lms.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	emailTaken := core.NewValidationError(lms.ErrStudentEmailExists,
		core.FieldError{Field: "email", Error: lms.ErrStudentEmailExists.Error()})
	for _, s := range repo.db.students {
		if s.Email == st.Email {
			return lms.Student{}, emailTaken
		}
	}
	if st.ClassID.Valid {
		if _, ok := repo.db.classes[st.ClassID.Int]; !ok {
			return lms.Student{}, refError("classId")
		}
	}
	usr, err := repo.db.insertUser(usr)
	if err != nil {
		return lms.Student{}, emailTaken
	}

	st.ID = repo.db.nextID("students")
	st.UserID = null.IntFrom(usr.ID)
	st = repo.db.withStudentClass(st)
	repo.db.students[st.ID] = st
	return st, nil
}
