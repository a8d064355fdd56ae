package main

import (
	"context"

	"github.com/YounesFetouaki/edu-path/apps/api/di"
	"github.com/YounesFetouaki/edu-path/core/lms"
)

// seed creates the demo accounts, then the demo content unless the database already has courses.
func (cli *commandLine) seed() (lms.DemoSummary, error) {
	return di.SeedDemoData(context.Background(), cli.usrSvc, cli.lmsSvc)
}
