package adaptorsvc

import (
	"context"
	"encoding/json"

	"github.com/YounesFetouaki/edu-path/core/datasync"
)

// staticAdaptor always succeeds with a fixed result. It stands in for the ETL service in development.
type staticAdaptor struct {
	result datasync.Result
}

var _ datasync.Adaptor = (*staticAdaptor)(nil)

func NewStaticAdaptor() datasync.Adaptor {
	return &staticAdaptor{
		result: datasync.Result{
			Status:  datasync.StatusSuccess,
			Records: 0,
			Message: "static adaptor: nothing to import",
			Payload: json.RawMessage(`{"source":"static"}`),
		},
	}
}

func (a *staticAdaptor) Name() string { return "static" }

func (a *staticAdaptor) Connect(ctx context.Context) error { return ctx.Err() }

func (a *staticAdaptor) Prepare(ctx context.Context) error { return ctx.Err() }

func (a *staticAdaptor) Fetch(ctx context.Context) (datasync.Result, error) {
	if err := ctx.Err(); err != nil {
		return datasync.Result{}, err
	}
	return a.result, nil
}
