package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/YounesFetouaki/edu-path/core"
)

// RollbarLogger reports to Rollbar and writes locally through zap.
type RollbarLogger struct {
	local *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewZap builds the local sink: human readable in debug, JSON otherwise.
func NewZap(conf *core.Config) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if conf.Debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = !conf.Debug
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return zl.Sugar().With("app", conf.AppName, "env", conf.Env), nil
}

func NewRollbarLogger(local *zap.SugaredLogger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{local: local}
}

// Named returns a logger whose local lines are tagged with the component name.
func (l *RollbarLogger) Named(name string) *RollbarLogger {
	return &RollbarLogger{local: l.local.Named(name)}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l *RollbarLogger) Sync() {
	_ = l.local.Sync()
}

// prepare splits args into the rollbar arguments and the zap key/value pairs.
// expected args: error, map[string]interface{}, core.LogUser
func (l *RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	kvs := make([]interface{}, 0, 2*len(args))

	for i, arg := range args {
		switch a := arg.(type) {
		case core.LogUser:
			if !usrSet && a.ID != 0 { // only set one, known user
				rollbar.SetPerson(fmt.Sprint(a.ID), a.Username, a.Email)
				kvs = append(kvs, "user_id", a.ID)
				usrSet = true
			}
		case error:
			rbArgs = append(rbArgs, a)
			kvs = append(kvs, "error", a.Error())
		case map[string]interface{}:
			rbArgs = append(rbArgs, a)
			for k, v := range a {
				kvs = append(kvs, k, v)
			}
		default:
			rbArgs = append(rbArgs, a)
			kvs = append(kvs, fmt.Sprintf("arg%d", i), a)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return rbArgs, kvs
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.local.Debugw(msg, kvs...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.local.Infow(msg, kvs...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.local.Warnw(msg, kvs...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.local.Errorw(msg, kvs...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, kvs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	l.local.Fatalw(msg, kvs...)
}
