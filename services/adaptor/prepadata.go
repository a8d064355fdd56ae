package adaptorsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/datasync"
)

const (
	healthPath = "/health"
	runPath    = "/etl/run"
	resultPath = "/etl/result"
)

// prepaDataAdaptor drives the PrepaData ETL service over HTTP.
type prepaDataAdaptor struct {
	client *resty.Client
}

var _ datasync.Adaptor = (*prepaDataAdaptor)(nil)

func NewPrepaDataAdaptor(baseURL string, timeout time.Duration) datasync.Adaptor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &prepaDataAdaptor{client: client}
}

type etlError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *prepaDataAdaptor) Name() string { return "prepadata" }

func (a *prepaDataAdaptor) Connect(ctx context.Context) error {
	resp, err := a.client.R().SetContext(ctx).Get(healthPath)
	if err != nil {
		return errors.Wrap(err, "reaching ETL service")
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("ETL service health: status %d", resp.StatusCode())
	}
	return nil
}

func (a *prepaDataAdaptor) Prepare(ctx context.Context) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{"requested_at": time.Now().UTC()}).
		SetError(&etlError{}).
		Post(runPath)
	if err != nil {
		return errors.Wrap(err, "starting ETL run")
	}
	if resp.IsError() {
		return errors.Errorf("starting ETL run: status %d: %s", resp.StatusCode(), errorMessage(resp))
	}
	return nil
}

func (a *prepaDataAdaptor) Fetch(ctx context.Context) (datasync.Result, error) {
	var body struct {
		Status  string          `json:"status"`
		Records int             `json:"records"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&etlError{}).
		Get(resultPath)
	if err != nil {
		return datasync.Result{}, errors.Wrap(err, "fetching ETL result")
	}
	if resp.IsError() {
		return datasync.Result{}, errors.Errorf("fetching ETL result: status %d: %s", resp.StatusCode(), errorMessage(resp))
	}
	if body.Status == "" {
		body.Status = datasync.StatusSuccess
	}
	if body.Status != datasync.StatusSuccess {
		return datasync.Result{}, errors.Errorf("ETL run %s: %s", body.Status, body.Message)
	}
	return datasync.Result{
		Status:  body.Status,
		Records: body.Records,
		Message: body.Message,
		Payload: body.Data,
	}, nil
}

func errorMessage(resp *resty.Response) string {
	if e, ok := resp.Error().(*etlError); ok && e != nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return resp.String()
}

// NewAdaptor returns the adaptor selected by conf.Sync.Adaptor.
func NewAdaptor(conf *core.Config) (datasync.Adaptor, error) {
	switch conf.Sync.Adaptor {
	case "", "static":
		return NewStaticAdaptor(), nil
	case "prepadata":
		return NewPrepaDataAdaptor(conf.Sync.BaseURL, conf.Sync.Timeout), nil
	default:
		return nil, errors.Errorf("unknown sync adaptor %q", conf.Sync.Adaptor)
	}
}
