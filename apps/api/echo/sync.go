package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const syncRunsLimitParam = "limit"

func (api *lmsApi) sync(ctx echo.Context) error {
	run, err := api.syncSvc.Run(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "running sync")
	}
	return ctx.JSON(http.StatusOK, run)
}

func (api *lmsApi) querySyncRuns(ctx echo.Context) error {
	limit, err := queryID(ctx, syncRunsLimitParam)
	if err != nil {
		return err
	}
	runs, err := api.syncSvc.LatestRuns(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying sync runs")
	}
	return ctx.JSON(http.StatusOK, runs)
}
