package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/YounesFetouaki/edu-path/apps/api/echo"
	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/datasync"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
	adaptorsvc "github.com/YounesFetouaki/edu-path/services/adaptor"
	emailsvc "github.com/YounesFetouaki/edu-path/services/email"
	inmemdb "github.com/YounesFetouaki/edu-path/storage/database/inmem"
	"github.com/YounesFetouaki/edu-path/testutil"
)

var (
	errMissingToken = httpErr{Error: "access denied"}
	errBadToken     = httpErr{Error: "invalid token"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testEnv struct {
	conf    *core.Config
	db      *inmemdb.DB
	usrRepo user.Repository
	lmsRepo lms.Repository
	mailSvc *emailsvc.ConsoleServiceMock
	authApp *Server
	lmsApp  *Server
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(t)
	validate, translator := testutil.NewValidator()
	core.ParseEmailTemplates(conf, logger)

	// set up DB & repos
	db := inmemdb.Open()
	env := &testEnv{
		conf:    conf,
		db:      db,
		usrRepo: inmemdb.NewUserRepository(db),
		lmsRepo: inmemdb.NewLMSRepository(db),
		mailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
	}

	// set up services
	deps := ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        user.NewService(env.usrRepo),
		LMSSvc:         lms.NewService(env.lmsRepo, env.mailSvc, logger, validate),
		SyncSvc:        datasync.NewService(adaptorsvc.NewStaticAdaptor(), inmemdb.NewSyncRunRepository(db), logger),
	}

	// set up servers
	env.authApp = NewAuthServer(deps)
	env.lmsApp = NewLMSServer(deps)
	return env
}

func (env *testEnv) createUser(t *testing.T, uname, role string) user.User {
	return testutil.CreateUser(t, env.usrRepo, uname, uname+"@edupath.com", "password", role)
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	auth := env.authApp.Auth()
	token, err := auth.GenerateToken(auth.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func serve(app http.Handler, tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshall(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
