package di

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/YounesFetouaki/edu-path/core"
)

// Server is implemented by the echo & gateway servers.
type Server interface {
	Start()
	Errors() <-chan error
	ShutdownSignal() <-chan os.Signal
	Shutdown(ctx context.Context) error
	Close() error
}

// Run starts the debug service and srv, then blocks until srv fails or a shutdown signal is received.
// onShutdown functions run alongside the server shutdown, sharing its deadline.
func Run(conf *core.Config, logger core.Logger, name string, srv Server, onShutdown ...func(ctx context.Context) error) error {
	logger.Info(fmt.Sprintf("%s initializing : version %q", name, conf.Build))
	defer logger.Info(fmt.Sprintf("%s stopped", name))

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	publishString("build", conf.Build)
	publishString("env", conf.Env)
	publishString("service", name)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Warn(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start Service

	go srv.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-srv.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-srv.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		var g errgroup.Group
		g.Go(func() error {
			// asking listener to shut down and shed load
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
				if err = srv.Close(); err != nil {
					return errors.Wrap(err, "could not force stop server")
				}
			}
			return nil
		})
		for _, fn := range onShutdown {
			fn := fn
			g.Go(func() error { return fn(ctx) })
		}
		return g.Wait()
	}
}

func publishString(name, value string) {
	if v, ok := expvar.Get(name).(*expvar.String); ok {
		v.Set(value)
		return
	}
	expvar.NewString(name).Set(value)
}
