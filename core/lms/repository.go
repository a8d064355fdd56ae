package lms

import (
	"context"

	"github.com/YounesFetouaki/edu-path/core/user"
)

type (
	CourseRepository interface {
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		CreateCourse(ctx context.Context, course Course) (Course, error)

		// QueryModules returns the modules of a course ordered by order index then id.
		QueryModules(ctx context.Context, courseID int) ([]Module, error)
		// CreateModule fails with a not found error if the course does not exist.
		// A nil orderIndex appends the module after the last one.
		CreateModule(ctx context.Context, mod Module, orderIndex *int) (Module, error)
		// UpdateModule locks the module, applies fn and saves the result atomically.
		UpdateModule(ctx context.Context, id int, fn func(*Module) error) (Module, error)

		// QueryChapters returns the chapters of the given modules ordered by id.
		QueryChapters(ctx context.Context, moduleIDs ...int) ([]Chapter, error)
		// CreateChapter fails with a not found error if the module does not exist.
		CreateChapter(ctx context.Context, ch Chapter) (Chapter, error)
		// UpdateChapter locks the chapter, applies fn and saves the result atomically.
		UpdateChapter(ctx context.Context, id int, fn func(*Chapter) error) (Chapter, error)
	}

	QuizRepository interface {
		QueryQuizzes(ctx context.Context) ([]Quiz, error)
		GetQuiz(ctx context.Context, id int) (Quiz, error)
		// QueryQuestions returns the questions of a quiz ordered by position.
		QueryQuestions(ctx context.Context, quizID int) ([]Question, error)
		// CreateQuiz inserts the quiz and its questions in one transaction.
		CreateQuiz(ctx context.Context, quiz Quiz, questions []Question) (QuizWithQuestions, error)
		// ReplaceQuiz updates the quiz and replaces all its questions in one transaction.
		ReplaceQuiz(ctx context.Context, quiz Quiz, questions []Question) (QuizWithQuestions, error)
	}

	GradeRepository interface {
		// QueryGrades returns the grades of a student, newest first.
		QueryGrades(ctx context.Context, studentID int) ([]Grade, error)
		CreateGrade(ctx context.Context, grade Grade) (Grade, error)
	}

	AssignmentRepository interface {
		QueryStudentAssignments(ctx context.Context, studentID int) ([]Assignment, error)
		QueryTeacherAssignments(ctx context.Context, teacherID int) ([]Assignment, error)
		// CreateAssignment inserts the assignment and links it to every targeted student in one transaction.
		// It returns the targeted students.
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, []Student, error)
	}

	StudentRepository interface {
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		// GetStudentByUserID returns the student whose login is userID, or ErrStudentNotFound.
		GetStudentByUserID(ctx context.Context, userID int) (Student, error)
		QueryTeacherClasses(ctx context.Context, teacherID int) ([]Class, error)
		// CreateClass inserts the class and links it to its teachers in one transaction.
		CreateClass(ctx context.Context, name string, teacherIDs ...int) (Class, error)
		// CreateStudent inserts the login user, the student, and their default profile & gamification rows
		// in one transaction.
		CreateStudent(ctx context.Context, usr user.User, st Student) (Student, error)
	}

	Repository interface {
		CourseRepository
		QuizRepository
		GradeRepository
		AssignmentRepository
		StudentRepository
	}
)
