package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

func (api *lmsApi) queryAssignments(ctx echo.Context) error {
	studentID, err := paramID(ctx, "studentId")
	if err != nil {
		return err
	}
	if err := api.checkStudentAccess(ctx, studentID); err != nil {
		return err
	}
	assignments, err := api.svc.GetAssignments(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *lmsApi) queryTeacherAssignments(ctx echo.Context) error {
	teacherID, err := paramID(ctx, "teacherId")
	if err != nil {
		return err
	}
	assignments, err := api.svc.GetTeacherAssignments(ctx.Request().Context(), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *lmsApi) assignTask(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errAccessDenied
	}

	var data lms.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	assignment, err := api.svc.AssignTask(ctx.Request().Context(), claims.ID, data)
	if err != nil {
		return errors.Wrap(err, "assigning task")
	}
	return ctx.JSON(http.StatusCreated, assignment)
}
