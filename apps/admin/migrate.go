package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/storage/database"
)

const migrateTimeout = 5 * time.Minute

var (
	migrateFunc = database.Migrate // mockable

	errNoDatabase = errors.New("migrate requires the database store (auth.store=database)")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	return migrateFunc(ctx, cli.db, args[0], args[1:]...)
}
