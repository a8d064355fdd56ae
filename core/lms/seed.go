package lms

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// The demo student logs in with these credentials.
const (
	DemoStudentEmail    = "student@edupath.com"
	DemoStudentPassword = "password"
)

// DemoSummary counts the records created by SeedDemo.
type DemoSummary struct {
	Skipped     bool
	Classes     int
	Students    int
	Courses     int
	Quizzes     int
	Grades      int
	Assignments int
}

func (d DemoSummary) String() string {
	if d.Skipped {
		return "demo data skipped: the store already has courses"
	}
	return fmt.Sprintf("demo data: %d classes, %d students, %d courses, %d quizzes, %d grades, %d assignments",
		d.Classes, d.Students, d.Courses, d.Quizzes, d.Grades, d.Assignments)
}

func ptr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

// SeedDemo fills a store without courses with demo content taught by teacherID: two classes, students with their
// logins, two courses, a quiz with grades and assignments. A store that already has courses is left as is.
// No assignment notification is sent.
func (svc *Service) SeedDemo(ctx context.Context, teacherID int) (DemoSummary, error) {
	var sum DemoSummary
	courses, err := svc.repo.QueryCourses(ctx)
	if err != nil {
		return sum, err
	}
	if len(courses) > 0 {
		sum.Skipped = true
		return sum, nil
	}

	// classes
	classA, err := svc.repo.CreateClass(ctx, "Grade 10 A", teacherID)
	if err != nil {
		return sum, errors.Wrap(err, "seeding classes")
	}
	classB, err := svc.repo.CreateClass(ctx, "Grade 10 B", teacherID)
	if err != nil {
		return sum, errors.Wrap(err, "seeding classes")
	}
	sum.Classes = 2

	// students
	students := make(map[string]Student, 3)
	for _, ns := range []NewStudent{
		{Name: "Demo Student", Email: DemoStudentEmail, Password: DemoStudentPassword, ClassID: &classA.ID, Persona: DefaultPersona},
		{Name: "Alex Risk", Email: "alex@edupath.com", Password: "password", ClassID: &classA.ID, Persona: "Risk"},
		{Name: "Sarah Star", Email: "sarah@edupath.com", Password: "password", ClassID: &classB.ID, Persona: "Star"},
	} {
		st, err := svc.CreateStudent(ctx, ns)
		if err != nil {
			return sum, errors.Wrapf(err, "seeding student %s", ns.Email)
		}
		students[ns.Email] = st
		sum.Students++
	}

	// quiz
	quiz, err := svc.SaveQuiz(ctx, NewQuiz{
		Title: "Neural Networks Basics",
		Topic: "AI",
		Questions: []NewQuestion{
			{Question: "What is the most common activation function?", Options: []string{"Sigmoid", "ReLU", "Tanh", "Linear"}, Correct: ptr(1)},
			{Question: "Which component updates weights?", Options: []string{"Optimizer", "Loss Function", "Layer", "Input"}, Correct: ptr(0)},
		},
	})
	if err != nil {
		return sum, errors.Wrap(err, "seeding quiz")
	}
	sum.Quizzes = 1

	// courses
	ai, err := svc.CreateCourse(ctx, teacherID, NewCourse{
		Title:        "Intro to AI",
		Description:  "Learn the basics of Artificial Intelligence.",
		Category:     "CS",
		ThumbnailURL: "https://via.placeholder.com/150",
	})
	if err != nil {
		return sum, errors.Wrap(err, "seeding courses")
	}
	if _, err = svc.CreateCourse(ctx, teacherID, NewCourse{
		Title:        "Web Development",
		Description:  "Master React and Modern CSS.",
		Category:     "Web",
		ThumbnailURL: "https://via.placeholder.com/150",
	}); err != nil {
		return sum, errors.Wrap(err, "seeding courses")
	}
	sum.Courses = 2

	nn, err := svc.CreateModule(ctx, ai.ID, NewModule{Title: "Neural Networks", OrderIndex: ptr(1)})
	if err != nil {
		return sum, errors.Wrap(err, "seeding modules")
	}
	if _, err = svc.CreateModule(ctx, ai.ID, NewModule{Title: "Deep Learning", OrderIndex: ptr(2)}); err != nil {
		return sum, errors.Wrap(err, "seeding modules")
	}
	videoURL := "https://www.youtube.com/watch?v=kft1AJ9WVDk"
	text := "ReLU (Rectified Linear Unit) is the most widespread activation function."
	for _, ci := range []ChapterInput{
		{Title: "What is a Perceptron?", ContentType: ContentVideo, ContentURL: &videoURL, DurationMinutes: ptr(10)},
		{Title: "Activation Functions", ContentType: ContentText, Content: &text, DurationMinutes: ptr(15)},
		{Title: "Neural Net Quiz", ContentType: ContentQuiz, QuizID: &quiz.ID, DurationMinutes: ptr(20)},
	} {
		if _, err := svc.CreateChapter(ctx, nn.ID, ci); err != nil {
			return sum, errors.Wrapf(err, "seeding chapter %q", ci.Title)
		}
	}

	// grades
	for _, g := range []struct {
		email string
		score float64
	}{{"alex@edupath.com", 40}, {"sarah@edupath.com", 95}, {DemoStudentEmail, 70}} {
		ng := NewGrade{StudentID: students[g.email].ID, QuizID: quiz.ID, Score: floatPtr(g.score), MaxScore: floatPtr(100)}
		if _, err := svc.SubmitGrade(ctx, ng); err != nil {
			return sum, errors.Wrap(err, "seeding grades")
		}
		sum.Grades++
	}

	// assignments
	now := NowFunc().UTC()
	for _, a := range []Assignment{
		{
			Title:       "Remedial: Math for AI",
			Description: "Please review linear algebra basics.",
			DueDate:     now.Add(3 * 24 * time.Hour),
			ClassID:     null.IntFrom(classA.ID),
		},
		{
			Title:       "Project: build a perceptron",
			Description: "Implement a perceptron from scratch.",
			DueDate:     now.Add(DefaultDueDelta),
			StudentID:   null.IntFrom(students["sarah@edupath.com"].ID),
		},
	} {
		a.Status = StatusPending
		a.TeacherID = null.IntFrom(teacherID)
		a.CreatedAt = now
		if _, _, err := svc.repo.CreateAssignment(ctx, a); err != nil {
			return sum, errors.Wrapf(err, "seeding assignment %q", a.Title)
		}
		sum.Assignments++
	}
	return sum, nil
}
