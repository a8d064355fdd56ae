package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

func (api *lmsApi) queryQuizzes(ctx echo.Context) error {
	quizzes, err := api.svc.GetAllQuizzes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *lmsApi) retrieveQuiz(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	quiz, err := api.svc.GetQuiz(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, quiz)
}

func (api *lmsApi) createQuiz(ctx echo.Context) error {
	var data lms.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	quiz, err := api.svc.SaveQuiz(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving quiz")
	}
	return ctx.JSON(http.StatusCreated, quiz)
}

func (api *lmsApi) updateQuiz(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data lms.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	quiz, err := api.svc.UpdateQuiz(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, quiz)
}

func (api *lmsApi) queryGrades(ctx echo.Context) error {
	studentID, err := paramID(ctx, "studentId")
	if err != nil {
		return err
	}
	if err := api.checkStudentAccess(ctx, studentID); err != nil {
		return err
	}
	grades, err := api.svc.GetGrades(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *lmsApi) submitGrade(ctx echo.Context) error {
	var data lms.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.checkStudentAccess(ctx, data.StudentID); err != nil {
		return err
	}

	grade, err := api.svc.SubmitGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}
