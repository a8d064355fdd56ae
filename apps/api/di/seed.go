package di

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

// SeedDemoData creates the demo staff accounts, then the LMS demo content taught by the demo teacher.
// Both steps skip what already exists.
func SeedDemoData(ctx context.Context, usrSvc *user.Service, lmsSvc *lms.Service) (lms.DemoSummary, error) {
	users, err := usrSvc.SeedDemoUsers(ctx)
	if err != nil {
		return lms.DemoSummary{}, err
	}
	for _, usr := range users {
		if usr.Role == user.RoleTeacher {
			return lmsSvc.SeedDemo(ctx, usr.ID)
		}
	}
	return lms.DemoSummary{}, errors.New("no demo teacher")
}

// MemoryWarning describes what the in-memory store loses, or returns "" with a database store.
func (s *Storage) MemoryWarning(service string) string {
	if !s.InMemory() {
		return ""
	}
	return fmt.Sprintf("%s uses the in-memory store: data is lost on restart and is not shared with the other "+
		"services, so accounts or records created through one service are unknown to the others. "+
		"Set auth.store=database when serving behind the gateway", service)
}

// SeedParams are the dependencies of a binary serving the demo data.
type SeedParams struct {
	Store   *Storage
	Logger  core.Logger
	UserSvc *user.Service
	LMSSvc  *lms.Service
}

// PrepareMemoryStore logs the limits of an in-memory store, then seeds it with the demo data.
// It does nothing with a database store.
func PrepareMemoryStore(ctx context.Context, service string, p SeedParams) error {
	if !p.Store.InMemory() {
		return nil
	}
	p.Logger.Warn(p.Store.MemoryWarning(service))
	sum, err := SeedDemoData(ctx, p.UserSvc, p.LMSSvc)
	if err != nil {
		return errors.Wrap(err, "seeding demo data")
	}
	p.Logger.Info(sum.String())
	return nil
}
