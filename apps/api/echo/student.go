package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

func (api *lmsApi) queryStudents(ctx echo.Context) error {
	teacherID, err := queryID(ctx, "teacherId")
	if err != nil {
		return err
	}
	students, err := api.svc.GetAllStudents(ctx.Request().Context(), lms.StudentFilter{TeacherID: teacherID})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *lmsApi) createStudent(ctx echo.Context) error {
	var data lms.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	student, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *lmsApi) queryTeacherClasses(ctx echo.Context) error {
	teacherID, err := paramID(ctx, "teacherId")
	if err != nil {
		return err
	}
	classes, err := api.svc.GetTeacherClasses(ctx.Request().Context(), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying teacher classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

// checkStudentAccess rejects a STUDENT caller reaching another student's records.
func (api *lmsApi) checkStudentAccess(ctx echo.Context, studentID int) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errAccessDenied
	}
	ok, err := api.svc.CanAccessStudent(ctx.Request().Context(), claims.ID, claims.Role, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return errHttpForbidden
	}
	return nil
}
