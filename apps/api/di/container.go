// Package di wires the EduPath-MS binaries with a go.uber.org/dig container.
package di

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/YounesFetouaki/edu-path/apps/api/echo"
	gatewayapi "github.com/YounesFetouaki/edu-path/apps/api/gateway"
	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/datasync"
	"github.com/YounesFetouaki/edu-path/core/gateway"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
	adaptorsvc "github.com/YounesFetouaki/edu-path/services/adaptor"
	emailsvc "github.com/YounesFetouaki/edu-path/services/email"
	logsvc "github.com/YounesFetouaki/edu-path/services/logger"
	"github.com/YounesFetouaki/edu-path/storage/database"
	inmemdb "github.com/YounesFetouaki/edu-path/storage/database/inmem"
	sqlxrepos "github.com/YounesFetouaki/edu-path/storage/database/sqlx"
)

const dbSetUpTimeout = time.Minute

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	serverDepsParam struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		UserSvc    *user.Service
		LMSSvc     *lms.Service
		SyncSvc    *datasync.Service
	}
)

// Storage holds the repositories selected by auth.store; DB is nil with the in-memory store.
type Storage struct {
	DB       *sqlx.DB
	Users    user.Repository
	LMS      lms.Repository
	SyncRuns datasync.Recorder
}

func (s *Storage) InMemory() bool {
	return s.DB == nil
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func newRootLogger(conf *core.Config) (*logsvc.RollbarLogger, error) {
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger, nil
}

func newLogger(root *logsvc.RollbarLogger) core.Logger {
	return root.Named("API")
}

func newDBLogger(root *logsvc.RollbarLogger) core.Logger {
	return root.Named("DB")
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) (*Storage, error) {
	switch conf.Auth.Store {
	case "", "memory":
		db := inmemdb.Open()
		return &Storage{
			Users:    inmemdb.NewUserRepository(db),
			LMS:      inmemdb.NewLMSRepository(db),
			SyncRuns: inmemdb.NewSyncRunRepository(db),
		}, nil
	case "database":
	default:
		return nil, errors.Errorf("unknown store %q", conf.Auth.Store)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbSetUpTimeout)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(ctx, db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	loggerParam.Logger.Info(fmt.Sprintf("connected to %s on %s", conf.Database.Name, conf.Database.Address()))

	return &Storage{
		DB:       db,
		Users:    sqlxrepos.NewUserRepository(db),
		LMS:      sqlxrepos.NewLMSRepository(db),
		SyncRuns: sqlxrepos.NewSyncRunRepository(db),
	}, nil
}

// NewValidator returns a validator with every domain validation and its english translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	lms.InitValidators(validate, translator)
	return validate, translator
}

func newLMSService(store *Storage, mailSvc core.EmailService, logger core.Logger, validate *validator.Validate) *lms.Service {
	return lms.NewService(store.LMS, mailSvc, logger, validate)
}

func newSyncService(conf *core.Config, store *Storage, root *logsvc.RollbarLogger) (*datasync.Service, error) {
	adaptor, err := adaptorsvc.NewAdaptor(conf)
	if err != nil {
		return nil, err
	}
	return datasync.NewService(adaptor, store.SyncRuns, root.Named("SYNC")), nil
}

func newServerDeps(p serverDepsParam) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		UserSvc:    p.UserSvc,
		LMSSvc:     p.LMSSvc,
		SyncSvc:    p.SyncSvc,
	}
}

func newGatewayServer(conf *core.Config, root *logsvc.RollbarLogger) (*gatewayapi.Server, error) {
	table, err := gateway.LoadTable(conf.Gateway.RoutesFile, conf.Gateway.Targets)
	if err != nil {
		return nil, err
	}
	return gatewayapi.NewServer(conf, root.Named("GATEWAY"), table, false)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newRootLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(func(s *Storage) user.Repository { return s.Users }))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(NewValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newLMSService))
	must(c.Provide(newSyncService))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewAuthServer, dig.Name("auth")))
	must(c.Provide(echoapi.NewLMSServer, dig.Name("lms")))
	must(c.Provide(newGatewayServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
