// Command auth serves the EduPath-MS login & token verification API.
package main

import (
	"context"
	"log"

	"go.uber.org/dig"

	"github.com/YounesFetouaki/edu-path/apps/api/di"
	echoapi "github.com/YounesFetouaki/edu-path/apps/api/echo"
	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
	logsvc "github.com/YounesFetouaki/edu-path/services/logger"
)

type params struct {
	dig.In
	Conf    *core.Config
	Root    *logsvc.RollbarLogger
	Logger  core.Logger
	Store   *di.Storage
	UserSvc *user.Service
	LMSSvc  *lms.Service
	Server  *echoapi.Server `name:"auth"`
}

func main() {
	c := di.New()
	must(c.Invoke(func(p params) {
		defer p.Root.Sync()
		defer func() {
			if err := p.Store.Close(); err != nil {
				p.Logger.Error("failed to close storage", err)
			}
		}()

		seed := di.SeedParams{Store: p.Store, Logger: p.Logger, UserSvc: p.UserSvc, LMSSvc: p.LMSSvc}
		if err := di.PrepareMemoryStore(context.Background(), "auth", seed); err != nil {
			p.Logger.Fatal(err.Error(), err)
		}

		if err := di.Run(p.Conf, p.Logger, "auth", p.Server); err != nil {
			p.Logger.Error(err.Error(), err)
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
