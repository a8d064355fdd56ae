package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/datasync"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc *user.Service
		LMSSvc  *lms.Service
		SyncSvc *datasync.Service
	}

	Server struct {
		addr     string
		app      *echo.Echo
		auth     *JWTAuth
		errors   chan error
		shutdown chan os.Signal
	}
)

func newServer(addr string, deps ServerDeps) *Server {
	s := &Server{
		addr:     addr,
		app:      echo.New(),
		auth:     NewJWTAuth(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}

	conf := deps.Conf
	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	s.app.Use(requestTimeout(conf.Server.RequestTimeout, lmsPrefix+syncPath))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	return s
}

// NewAuthServer serves the login, verify & refresh endpoints under /auth.
func NewAuthServer(deps ServerDeps) *Server {
	s := newServer(deps.Conf.Auth.Address, deps)
	s.app.GET("/", home("EduPath-MS Auth Service Running"))
	registerAuthAPI(s.app.Group("/auth"), s.auth, deps.UserSvc, deps.Validate)
	return s
}

// NewLMSServer serves the LMS API under /api/lms; every route requires a bearer token.
func NewLMSServer(deps ServerDeps) *Server {
	s := newServer(deps.Conf.LMS.Address, deps)
	s.app.GET("/", home("EduPath-MS LMS Service Running"))
	// a sync may outlive the regular write timeout
	s.app.Server.WriteTimeout += deps.Conf.Sync.Timeout
	registerLMSAPI(s.app.Group(lmsPrefix, s.auth.Middleware()), deps.LMSSvc, deps.SyncSvc, deps.Validate, deps.Conf.Sync.Timeout)
	return s
}

// Start blocks serving requests; failures other than a regular shutdown are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Auth() *JWTAuth {
	return s.auth
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(msg string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, msg)
	}
}
