package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/lms"
)

func (api *lmsApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.GetAllCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *lmsApi) retrieveCourse(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	course, err := api.svc.GetCourseDetails(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course details")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *lmsApi) courseStructure(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	modules, err := api.svc.GetCourseStructure(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course structure")
	}
	return ctx.JSON(http.StatusOK, modules)
}

func (api *lmsApi) createCourse(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errAccessDenied
	}

	var data lms.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.svc.CreateCourse(ctx.Request().Context(), claims.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *lmsApi) createModule(ctx echo.Context) error {
	courseID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data lms.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.CreateModule(ctx.Request().Context(), courseID, data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *lmsApi) updateModule(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data lms.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.UpdateModule(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *lmsApi) createChapter(ctx echo.Context) error {
	moduleID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data lms.ChapterInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChapterInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ch, err := api.svc.CreateChapter(ctx.Request().Context(), moduleID, data)
	if err != nil {
		return errors.Wrap(err, "creating chapter")
	}
	return ctx.JSON(http.StatusCreated, ch)
}

// updateChapter does not validate the payload: the service validates it once merged with the stored chapter.
func (api *lmsApi) updateChapter(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	var data lms.UpdateChapter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChapter")
	}

	ch, err := api.svc.UpdateChapter(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating chapter")
	}
	return ctx.JSON(http.StatusOK, ch)
}
