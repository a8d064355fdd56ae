// Command gateway is the single entry point of EduPath-MS: it proxies requests to the services by path prefix.
package main

import (
	"fmt"
	"log"

	"github.com/YounesFetouaki/edu-path/apps/api/di"
	gatewayapi "github.com/YounesFetouaki/edu-path/apps/api/gateway"
	"github.com/YounesFetouaki/edu-path/core"
	logsvc "github.com/YounesFetouaki/edu-path/services/logger"
)

func main() {
	c := di.New()
	must(c.Invoke(func(conf *core.Config, root *logsvc.RollbarLogger, server *gatewayapi.Server) {
		defer root.Sync()
		logger := root.Named("GATEWAY")
		logger.Info(fmt.Sprintf("routes loaded from %s", routesSource(conf)))

		if err := di.Run(conf, logger, "gateway", server); err != nil {
			logger.Error(err.Error(), err)
		}
	}))
}

func routesSource(conf *core.Config) string {
	if conf.Gateway.RoutesFile == "" {
		return "built-in defaults"
	}
	return conf.Gateway.RoutesFile
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
