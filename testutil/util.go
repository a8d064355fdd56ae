package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zaptest"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
	logsvc "github.com/YounesFetouaki/edu-path/services/logger"
)

// NewLogger returns a logger writing to the test output, with Rollbar reporting disabled.
func NewLogger(t *testing.T) *logsvc.RollbarLogger {
	t.Helper()
	logger := logsvc.NewRollbarLogger(zaptest.NewLogger(t).Sugar(), core.NewTestConfig())
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every domain validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	lms.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, uname, email, pwd, role string, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func IntPtr(i int) *int { return &i }
func StrPtr(s string) *string { return &s }
func FloatPtr(f float64) *float64 { return &f }
