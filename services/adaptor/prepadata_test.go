package adaptorsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/datasync"
)

func newETLServer(t *testing.T, runStatus int, result string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(runPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(runStatus)
		if runStatus >= http.StatusBadRequest {
			_, _ = w.Write([]byte(`{"error":"dataset missing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"started":true}`))
	})
	mux.HandleFunc(resultPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(result))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPrepaDataAdaptor(t *testing.T) {
	srv := newETLServer(t, http.StatusAccepted, `{"status":"success","records":12,"message":"ok","data":{"students":12}}`)
	a := NewPrepaDataAdaptor(srv.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Prepare(ctx))
	res, err := a.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, datasync.StatusSuccess, res.Status)
	assert.Equal(t, 12, res.Records)
	assert.Equal(t, "ok", res.Message)
	assert.JSONEq(t, `{"students":12}`, string(res.Payload))
}

func TestPrepaDataAdaptor_PrepareError(t *testing.T) {
	srv := newETLServer(t, http.StatusInternalServerError, `{}`)
	a := NewPrepaDataAdaptor(srv.URL, time.Second)

	err := a.Prepare(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset missing")
}

func TestPrepaDataAdaptor_FailedRun(t *testing.T) {
	srv := newETLServer(t, http.StatusAccepted, `{"status":"failed","message":"bad rows"}`)
	a := NewPrepaDataAdaptor(srv.URL, time.Second)

	_, err := a.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad rows")
}

func TestPrepaDataAdaptor_ConnectError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewPrepaDataAdaptor(url, 200*time.Millisecond)
	assert.Error(t, a.Connect(context.Background()))
}

func TestStaticAdaptor(t *testing.T) {
	a := NewStaticAdaptor()
	ctx := context.Background()
	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Prepare(ctx))
	res, err := a.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, datasync.StatusSuccess, res.Status)
	assert.True(t, json.Valid(res.Payload))
}

func TestNewAdaptor(t *testing.T) {
	conf := core.NewTestConfig()

	conf.Sync.Adaptor = "static"
	a, err := NewAdaptor(conf)
	require.NoError(t, err)
	assert.Equal(t, "static", a.Name())

	conf.Sync.Adaptor = "prepadata"
	a, err = NewAdaptor(conf)
	require.NoError(t, err)
	assert.Equal(t, "prepadata", a.Name())

	conf.Sync.Adaptor = "moodle"
	_, err = NewAdaptor(conf)
	assert.Error(t, err)
}
