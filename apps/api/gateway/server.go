// Package gatewayapi is the single entry point of EduPath-MS: it forwards requests to the upstream services by path
// prefix.
package gatewayapi

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/gateway"
)

const homeMessage = "EduPath-MS API Gateway Running"

type Server struct {
	addr     string
	app      *echo.Echo
	table    gateway.Table
	checker  *healthChecker
	errors   chan error
	shutdown chan os.Signal
}

// NewServer mounts one proxy per route of table. Paths are forwarded verbatim: no trailing slash removal.
func NewServer(conf *core.Config, logger core.Logger, table gateway.Table, disableReqLogs bool) (*Server, error) {
	s := &Server{
		addr:     conf.Gateway.Address,
		app:      echo.New(),
		table:    table,
		checker:  newHealthChecker(conf.Gateway.ProxyTimeout),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	// proxied responses may take up to the proxy timeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout + conf.Gateway.ProxyTimeout

	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !disableReqLogs {
		s.app.Use(middleware.Logger())
	}
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	s.app.HTTPErrorHandler = newHTTPErrorHandler(logger)
	s.app.Debug = conf.Debug

	s.app.GET("/", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, homeMessage)
	})
	s.app.GET("/health", s.health)

	transport := newTransport(conf.Gateway.ProxyTimeout)
	for _, r := range table.Routes() {
		if r.Prefix == "/" {
			return nil, errors.Errorf("gateway: route %q: the root prefix is reserved", r.Name)
		}
		target, err := url.Parse(r.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "gateway: route %q", r.Name)
		}
		s.app.Group(r.Prefix, middleware.ProxyWithConfig(middleware.ProxyConfig{
			Balancer:   middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{Name: r.Name, URL: target}}),
			Rewrite:    r.Rewrite,
			Transport:  transport,
			ContextKey: "target",
		}))
	}
	return s, nil
}

func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}
}

// health checks every upstream; it answers 503 if any of them is down.
func (s *Server) health(ctx echo.Context) error {
	status := s.checker.check(ctx.Request().Context(), s.table.Routes())
	code := http.StatusOK
	for _, st := range status {
		if st != statusUp {
			code = http.StatusServiceUnavailable
			break
		}
	}
	return ctx.JSON(code, status)
}

func newHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		var message interface{} = http.StatusText(code)

		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			code = herr.Code
			message = herr.Message
			if code == http.StatusBadGateway {
				logger.Warn(err.Error(), err)
				message = http.StatusText(code)
			}
		} else {
			logger.Error(message.(string), errors.Wrap(err, "gateway"))
		}
		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if msg, ok := message.(string); ok {
			message = map[string]string{"error": msg}
		}

		if !ctx.Response().Committed {
			var rErr error
			if ctx.Request().Method == http.MethodHead {
				rErr = ctx.NoContent(code)
			} else {
				rErr = ctx.JSON(code, message)
			}
			if rErr != nil {
				logger.Error(rErr.Error(), rErr)
			}
		}
	}
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

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
