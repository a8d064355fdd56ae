// Command lms serves the EduPath-MS learning management API, and runs the periodic data sync when scheduled.
package main

import (
	"context"
	"log"

	"go.uber.org/dig"

	"github.com/YounesFetouaki/edu-path/apps/api/di"
	echoapi "github.com/YounesFetouaki/edu-path/apps/api/echo"
	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/datasync"
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
	SyncSvc *datasync.Service
	Server  *echoapi.Server `name:"lms"`
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

		// email templates are only needed for assignment notifications
		core.ParseEmailTemplates(p.Conf, p.Logger)

		seed := di.SeedParams{Store: p.Store, Logger: p.Logger, UserSvc: p.UserSvc, LMSSvc: p.LMSSvc}
		if err := di.PrepareMemoryStore(context.Background(), "lms", seed); err != nil {
			p.Logger.Fatal(err.Error(), err)
		}

		var onShutdown []func(ctx context.Context) error
		if p.Conf.Sync.Schedule != "" {
			sched, err := datasync.NewScheduler(p.SyncSvc, p.Root.Named("SYNC"), p.Conf.Sync.Schedule, p.Conf.Sync.Timeout)
			if err != nil {
				p.Logger.Fatal(err.Error(), err)
			}
			sched.Start()
			onShutdown = append(onShutdown, sched.Stop)
		}

		if err := di.Run(p.Conf, p.Logger, "lms", p.Server, onShutdown...); err != nil {
			p.Logger.Error(err.Error(), err)
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
