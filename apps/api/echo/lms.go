package echoapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/YounesFetouaki/edu-path/core/datasync"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

const (
	lmsPrefix = "/api/lms"
	syncPath  = "/sync"
)

type lmsApi struct {
	svc      *lms.Service
	syncSvc  *datasync.Service
	validate *validator.Validate
}

// registerLMSAPI mounts the LMS routes on g, which must already check bearer tokens.
// Content authoring is reserved to staff; reads and grade submission are open to any role,
// a student only reaching their own grades and assignments.
// A manual sync runs under syncTimeout instead of the regular request timeout.
func registerLMSAPI(g *echo.Group, svc *lms.Service, syncSvc *datasync.Service, validate *validator.Validate, syncTimeout time.Duration) {
	api := lmsApi{
		svc:      svc,
		syncSvc:  syncSvc,
		validate: validate,
	}
	staff := roleMiddleware(user.StaffRoles...)

	// courses
	g.GET("/courses", api.queryCourses)
	g.POST("/courses", api.createCourse, staff)
	g.GET("/courses/:id", api.retrieveCourse)
	g.GET("/courses/:id/structure", api.courseStructure)
	g.POST("/courses/:id/modules", api.createModule, staff)
	g.PUT("/modules/:id", api.updateModule, staff)
	g.POST("/modules/:id/chapters", api.createChapter, staff)
	g.PUT("/chapters/:id", api.updateChapter, staff)

	// quizzes & grades
	g.GET("/quizzes", api.queryQuizzes)
	g.POST("/quizzes", api.createQuiz, staff)
	g.GET("/quizzes/:id", api.retrieveQuiz)
	g.PUT("/quizzes/:id", api.updateQuiz, staff)
	g.GET("/grades/:studentId", api.queryGrades)
	g.POST("/grades", api.submitGrade)

	// assignments
	g.GET("/assignments/teacher/:teacherId", api.queryTeacherAssignments)
	g.GET("/assignments/:studentId", api.queryAssignments)
	g.POST("/assign", api.assignTask, staff)

	// students & classes
	g.GET("/students", api.queryStudents)
	g.POST("/students", api.createStudent, staff)
	g.GET("/classes/teacher/:teacherId", api.queryTeacherClasses)

	// sync
	g.POST(syncPath, api.sync, staff, requestTimeout(syncTimeout))
	g.GET("/sync/runs", api.querySyncRuns, staff)
}
