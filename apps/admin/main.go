// Command admin manages the EduPath-MS database: migrations, user accounts & demo data.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/YounesFetouaki/edu-path/apps/api/di"
	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
	logsvc "github.com/YounesFetouaki/edu-path/services/logger"
	"github.com/YounesFetouaki/edu-path/storage/database"
	sqlxrepos "github.com/YounesFetouaki/edu-path/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf).Named("ADMIN")
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	// start CLI
	validate, _ := di.NewValidator()
	cli := commandLine{
		db:       db.DB,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db)),
		lmsSvc:   lms.NewService(sqlxrepos.NewLMSRepository(db), nil, logger, validate),
		validate: validate,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
