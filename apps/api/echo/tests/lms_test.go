package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YounesFetouaki/edu-path/core/datasync"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

func TestLMS_Auth(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "student", user.RoleStudent)
	studentToken := env.getToken(t, student)

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/api/lms/courses",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "bad token",
			method:   http.MethodGet,
			path:     "/api/lms/courses",
			token:    "not-a-jwt",
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, errBadToken),
		},
		{
			name:     "student reads",
			method:   http.MethodGet,
			path:     "/api/lms/courses",
			token:    studentToken,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "student cannot author courses",
			method:   http.MethodPost,
			path:     "/api/lms/courses",
			body:     []byte(`{"title": "Intro to AI"}`),
			token:    studentToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errForbidden),
		},
		{
			name:     "student cannot sync",
			method:   http.MethodPost,
			path:     "/api/lms/sync",
			token:    studentToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(env.lmsApp, tt))
		})
	}
}

func TestLMS_CourseStructure(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "teacher", user.RoleTeacher)
	token := env.getToken(t, teacher)

	// course
	rec := serve(env.lmsApp, httpTest{
		method: http.MethodPost,
		path:   "/api/lms/courses",
		token:  token,
		body: []byte(`{"title": "Intro to AI", "description": "Basics", "category": "CS",
			"thumbnail_url": "https://cdn.edupath.com/ai.png"}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course lms.Course
	unmarshall(t, rec, &course)
	assert.Equal(t, teacher.ID, course.TeacherID.Int)
	assert.Equal(t, "https://cdn.edupath.com/ai.png", course.ThumbnailURL)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/courses/%d", course.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var details lms.CourseDetails
	unmarshall(t, rec, &details)
	assert.Equal(t, "Intro to AI", details.Title)
	assert.Equal(t, "Basics", details.Description)
	assert.Equal(t, "CS", details.Category)
	assert.NotNil(t, details.Modules)
	assert.Empty(t, details.Modules)

	// module
	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/lms/courses/%d/modules", course.ID),
		token:  token,
		body:   []byte(`{"title": "Neural Networks", "orderIndex": 1}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var mod lms.Module
	unmarshall(t, rec, &mod)

	// chapter
	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/lms/modules/%d/chapters", mod.ID),
		token:  token,
		body: []byte(`{"title": "Perceptrons", "contentType": "video",
			"contentUrl": "https://videos.edupath.com/perceptrons", "durationMinutes": "10"}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(env.lmsApp, httpTest{
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/lms/courses/%d/structure", course.ID),
		token:  token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var structure []lms.ModuleWithChapters
	unmarshall(t, rec, &structure)
	require.Len(t, structure, 1)
	assert.Equal(t, "Neural Networks", structure[0].Title)
	assert.Equal(t, 1, structure[0].OrderIndex)
	require.Len(t, structure[0].Chapters, 1)
	assert.Equal(t, "Perceptrons", structure[0].Chapters[0].Title)
	assert.Equal(t, lms.ContentVideo, structure[0].Chapters[0].ContentType)
	assert.Equal(t, 10, structure[0].Chapters[0].DurationMinutes)

	// partial updates
	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/lms/modules/%d", mod.ID),
		token:  token,
		body:   []byte(`{"orderIndex": 3}`),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshall(t, rec, &mod)
	assert.Equal(t, "Neural Networks", mod.Title)
	assert.Equal(t, 3, mod.OrderIndex)

	chapterID := structure[0].Chapters[0].ID
	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/lms/chapters/%d", chapterID),
		token:  token,
		body:   []byte(`{"contentType": "text"}`),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"content": "this field is required for this content type"}`, rec.Body.String())

	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/lms/chapters/%d", chapterID),
		token:  token,
		body:   []byte(`{"contentType": "text", "content": "A perceptron is a linear classifier."}`),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ch lms.Chapter
	unmarshall(t, rec, &ch)
	assert.Equal(t, "Perceptrons", ch.Title)
	assert.Equal(t, lms.ContentText, ch.ContentType)
	assert.False(t, ch.ContentURL.Valid)
	assert.Equal(t, "A perceptron is a linear classifier.", ch.Content.String)
}

func TestLMS_NotFoundAndValidation(t *testing.T) {
	env := setup(t)
	token := env.getToken(t, env.createUser(t, "admin", user.RoleAdmin))

	tests := []httpTest{
		{
			name:     "course",
			method:   http.MethodGet,
			path:     "/api/lms/courses/42",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name:     "course structure",
			method:   http.MethodGet,
			path:     "/api/lms/courses/42/structure",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name:     "invalid id",
			method:   http.MethodGet,
			path:     "/api/lms/courses/abc",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "module of unknown course",
			method:   http.MethodPost,
			path:     "/api/lms/courses/42/modules",
			body:     []byte(`{"title": "Orphan"}`),
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name:     "quiz",
			method:   http.MethodGet,
			path:     "/api/lms/quizzes/42",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "quiz not found"}),
		},
		{
			name:     "update unknown quiz",
			method:   http.MethodPut,
			path:     "/api/lms/quizzes/42",
			body:     []byte(`{"title": "Q", "questions": [{"question": "?", "options": ["a", "b"], "correct": 0}]}`),
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "quiz not found"}),
		},
		{
			name:     "course without title",
			method:   http.MethodPost,
			path:     "/api/lms/courses",
			body:     []byte(`{"title": "  "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title": "this field is required"}`),
		},
		{
			name:     "score above max",
			method:   http.MethodPost,
			path:     "/api/lms/grades",
			body:     []byte(`{"studentId": 1, "quizId": 1, "score": 12, "maxScore": 10}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"score": "score cannot exceed maxScore"}`),
		},
		{
			name:     "assignment with two targets",
			method:   http.MethodPost,
			path:     "/api/lms/assign",
			body:     []byte(`{"title": "Essay", "studentId": 1, "classId": 1}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"studentId": "exactly one of studentId or classId is required",
				"classId": "exactly one of studentId or classId is required"}`),
		},
		{
			name:     "invalid teacher filter",
			method:   http.MethodGet,
			path:     "/api/lms/students?teacherId=abc",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"teacherId": "must be a positive integer"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.token = token
			checkCodeAndData(t, tt, serve(env.lmsApp, tt))
		})
	}
}

func TestLMS_Quiz(t *testing.T) {
	env := setup(t)
	token := env.getToken(t, env.createUser(t, "teacher", user.RoleTeacher))

	rec := serve(env.lmsApp, httpTest{
		method: http.MethodPost,
		path:   "/api/lms/quizzes",
		token:  token,
		body: []byte(`{"title": "Python Basics", "topic": "python", "questions": [
			{"question": "2 + 2?", "options": ["3", "4"], "correct": 1},
			{"question": "Keyword for functions?", "options": ["def", "fun", "func"], "correct": 0},
			{"question": "Immutable sequence?", "options": ["list", "tuple"], "correct": 1}
		]}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quiz lms.QuizWithQuestions
	unmarshall(t, rec, &quiz)
	assert.Equal(t, 3, quiz.TotalQuestions)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/quizzes/%d", quiz.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshall(t, rec, &quiz)
	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, "2 + 2?", quiz.Questions[0].QuestionText)
	assert.Equal(t, []string{"def", "fun", "func"}, quiz.Questions[1].Options)
	assert.Equal(t, "Immutable sequence?", quiz.Questions[2].QuestionText)

	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/lms/quizzes/%d", quiz.ID),
		token:  token,
		body:   []byte(`{"title": "Python Basics v2", "questions": [{"question": "len('abc')?", "options": ["2", "3"], "correct": 1}]}`),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/quizzes/%d", quiz.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated lms.QuizWithQuestions
	unmarshall(t, rec, &updated)
	assert.Equal(t, "Python Basics v2", updated.Title)
	assert.Equal(t, 1, updated.TotalQuestions)
	require.Len(t, updated.Questions, 1)
	assert.Equal(t, "len('abc')?", updated.Questions[0].QuestionText)

	tt := httpTest{
		method:   http.MethodPost,
		path:     "/api/lms/quizzes",
		token:    token,
		body:     []byte(`{"title": "Bad", "questions": [{"question": "?", "options": ["a", "b"], "correct": 2}]}`),
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"correct": "must be the index of one of the options"}`),
	}
	checkCodeAndData(t, tt, serve(env.lmsApp, tt))
}

func TestLMS_StudentsGradesAssignments(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "teacher", user.RoleTeacher)
	other := env.createUser(t, "other", user.RoleTeacher)
	token := env.getToken(t, teacher)
	class := env.db.AddClass("Grade 10 A", teacher.ID)
	env.db.AddClass("Grade 10 B", other.ID)

	// students
	createStudent := func(body string) *lms.Student {
		rec := serve(env.lmsApp, httpTest{method: http.MethodPost, path: "/api/lms/students", token: token, body: []byte(body)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		st := new(lms.Student)
		unmarshall(t, rec, st)
		return st
	}
	alice := createStudent(fmt.Sprintf(
		`{"name": "Alice Martin", "email": "alice@edupath.com", "password": "Xk2!pq-Lm9#z", "classId": %d}`, class.ID))
	assert.Equal(t, "Grade 10 A", alice.ClassName.String)
	assert.Equal(t, lms.DefaultPersona, alice.Persona)
	bob := createStudent(`{"name": "Bob Stone", "email": "bob@edupath.com", "password": "Qw7$rt-Yu3!p"}`)

	tt := httpTest{
		method:   http.MethodPost,
		path:     "/api/lms/students",
		token:    token,
		body:     []byte(`{"name": "Alice Bis", "email": "ALICE@edupath.com", "password": "Zx9!cv-Bn4#m"}`),
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"email": "a user with this email already exists"}`),
	}
	checkCodeAndData(t, tt, serve(env.lmsApp, tt))

	// the new student can log in
	req, rec := newRequest(http.MethodPost, "/auth/login", []byte(`{"email": "alice@edupath.com", "password": "Xk2!pq-Lm9#z"}`))
	env.authApp.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/students?teacherId=%d", teacher.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var students []lms.Student
	unmarshall(t, rec, &students)
	require.Len(t, students, 1)
	assert.Equal(t, alice.ID, students[0].ID)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: "/api/lms/students", token: token})
	unmarshall(t, rec, &students)
	assert.Len(t, students, 2)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/classes/teacher/%d", teacher.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var classes []lms.Class
	unmarshall(t, rec, &classes)
	require.Len(t, classes, 1)
	assert.Equal(t, 1, classes[0].StudentCount)

	// grades: the most recent submission comes first
	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPost,
		path:   "/api/lms/quizzes",
		token:  token,
		body:   []byte(`{"title": "Q1", "questions": [{"question": "?", "options": ["a", "b"], "correct": 0}]}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quiz lms.Quiz
	unmarshall(t, rec, &quiz)

	studentToken := env.getToken(t, user.User{ID: alice.UserID.Int, Email: alice.Email, Role: user.RoleStudent})
	for _, score := range []int{6, 9} {
		rec = serve(env.lmsApp, httpTest{
			method: http.MethodPost,
			path:   "/api/lms/grades",
			token:  studentToken,
			body:   []byte(fmt.Sprintf(`{"studentId": %d, "quizId": %d, "score": %d, "maxScore": 10}`, alice.ID, quiz.ID, score)),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/grades/%d", alice.ID), token: studentToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var grades []lms.Grade
	unmarshall(t, rec, &grades)
	require.Len(t, grades, 2)
	assert.Equal(t, 9.0, grades[0].Score)
	assert.Equal(t, "Q1", grades[0].QuizTitle)

	tt = httpTest{
		method:   http.MethodPost,
		path:     "/api/lms/grades",
		token:    studentToken,
		body:     []byte(fmt.Sprintf(`{"studentId": %d, "quizId": 999, "score": 1, "maxScore": 10}`, alice.ID)),
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"quizId": "referenced record does not exist"}`),
	}
	checkCodeAndData(t, tt, serve(env.lmsApp, tt))

	// students only reach their own records
	bobToken := env.getToken(t, user.User{ID: bob.UserID.Int, Email: bob.Email, Role: user.RoleStudent})
	strangerToken := env.getToken(t, env.createUser(t, "stranger", user.RoleStudent))
	for _, tt := range []httpTest{
		{
			name:   "grade for another student",
			method: http.MethodPost,
			path:   "/api/lms/grades",
			token:  bobToken,
			body:   []byte(fmt.Sprintf(`{"studentId": %d, "quizId": %d, "score": 10, "maxScore": 10}`, alice.ID, quiz.ID)),
		},
		{name: "another student's grades", method: http.MethodGet, path: fmt.Sprintf("/api/lms/grades/%d", alice.ID), token: bobToken},
		{name: "another student's assignments", method: http.MethodGet, path: fmt.Sprintf("/api/lms/assignments/%d", alice.ID), token: bobToken},
		{name: "no student record", method: http.MethodGet, path: fmt.Sprintf("/api/lms/grades/%d", alice.ID), token: strangerToken},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tt.wantCode = http.StatusForbidden
			tt.wantData = marshallObj(t, errForbidden)
			checkCodeAndData(t, tt, serve(env.lmsApp, tt))
		})
	}
	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/grades/%d", bob.ID), token: bobToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/grades/%d", alice.ID), token: token})
	assert.Equal(t, http.StatusOK, rec.Code, "staff may read any student")

	// assignments
	rec = serve(env.lmsApp, httpTest{
		method: http.MethodPost,
		path:   "/api/lms/assign",
		token:  token,
		body:   []byte(fmt.Sprintf(`{"title": "Essay", "description": "500 words", "dueDate": "2026-03-02", "classId": %d}`, class.ID)),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var assignment lms.Assignment
	unmarshall(t, rec, &assignment)
	assert.Equal(t, lms.StatusPending, assignment.Status)
	assert.Equal(t, teacher.ID, assignment.TeacherID.Int)
	assert.Equal(t, "Grade 10 A", assignment.ClassName.String)

	sent := env.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@edupath.com", sent[0].To[0].Address)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/assignments/%d", alice.ID), token: token})
	var assignments []lms.Assignment
	unmarshall(t, rec, &assignments)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Essay", assignments[0].Title)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/assignments/%d", bob.ID), token: token})
	unmarshall(t, rec, &assignments)
	assert.Empty(t, assignments)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: fmt.Sprintf("/api/lms/assignments/teacher/%d", teacher.ID), token: token})
	unmarshall(t, rec, &assignments)
	assert.Len(t, assignments, 1)

	tt = httpTest{
		method:   http.MethodPost,
		path:     "/api/lms/assign",
		token:    token,
		body:     []byte(`{"title": "Lost", "studentId": 999}`),
		wantCode: http.StatusNotFound,
		wantData: marshallObj(t, httpErr{Error: "student not found"}),
	}
	checkCodeAndData(t, tt, serve(env.lmsApp, tt))
}

func TestLMS_Sync(t *testing.T) {
	env := setup(t)
	token := env.getToken(t, env.createUser(t, "admin", user.RoleAdmin))

	rec := serve(env.lmsApp, httpTest{method: http.MethodPost, path: "/api/lms/sync", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run datasync.Run
	unmarshall(t, rec, &run)
	assert.Equal(t, datasync.StatusSuccess, run.Status)
	assert.Equal(t, "static", run.Adaptor)

	rec = serve(env.lmsApp, httpTest{method: http.MethodGet, path: "/api/lms/sync/runs", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var runs []datasync.Run
	unmarshall(t, rec, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
