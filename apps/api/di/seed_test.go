package di_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YounesFetouaki/edu-path/apps/api/di"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
	inmemdb "github.com/YounesFetouaki/edu-path/storage/database/inmem"
	"github.com/YounesFetouaki/edu-path/testutil"
)

func memoryParams(t *testing.T) di.SeedParams {
	t.Helper()
	db := inmemdb.Open()
	store := &di.Storage{
		Users:    inmemdb.NewUserRepository(db),
		LMS:      inmemdb.NewLMSRepository(db),
		SyncRuns: inmemdb.NewSyncRunRepository(db),
	}
	logger := testutil.NewLogger(t)
	validate, _ := testutil.NewValidator()
	return di.SeedParams{
		Store:   store,
		Logger:  logger,
		UserSvc: user.NewService(store.Users),
		LMSSvc:  lms.NewService(store.LMS, nil, logger, validate),
	}
}

func TestPrepareMemoryStore(t *testing.T) {
	p := memoryParams(t)
	ctx := context.Background()

	require.NoError(t, di.PrepareMemoryStore(ctx, "lms", p))
	require.NoError(t, di.PrepareMemoryStore(ctx, "lms", p), "seeding twice")

	for _, creds := range [][2]string{
		{"admin@edupath.com", "admin"},
		{"teacher@edupath.com", "password"},
		{lms.DemoStudentEmail, lms.DemoStudentPassword},
	} {
		_, err := p.UserSvc.Authenticate(ctx, creds[0], creds[1])
		assert.NoError(t, err, creds[0])
	}
	students, err := p.LMSSvc.GetAllStudents(ctx, lms.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 3)
	courses, err := p.LMSSvc.GetAllCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

// Separate in-memory stores seed the same ids, so tokens issued by auth match the lms records.
func TestSeedDemoData_SameIDsAcrossStores(t *testing.T) {
	ctx := context.Background()
	a, b := memoryParams(t), memoryParams(t)
	_, err := di.SeedDemoData(ctx, a.UserSvc, a.LMSSvc)
	require.NoError(t, err)
	_, err = di.SeedDemoData(ctx, b.UserSvc, b.LMSSvc)
	require.NoError(t, err)

	ua, err := a.UserSvc.Authenticate(ctx, lms.DemoStudentEmail, lms.DemoStudentPassword)
	require.NoError(t, err)
	ub, err := b.UserSvc.Authenticate(ctx, lms.DemoStudentEmail, lms.DemoStudentPassword)
	require.NoError(t, err)
	assert.Equal(t, ua.ID, ub.ID)
}

func TestStorage_MemoryWarning(t *testing.T) {
	p := memoryParams(t)
	msg := p.Store.MemoryWarning("auth")
	assert.Contains(t, msg, "auth uses the in-memory store")
	assert.Contains(t, msg, "auth.store=database")

	assert.Empty(t, (&di.Storage{DB: &sqlx.DB{}}).MemoryWarning("auth"))
}

func TestPrepareMemoryStore_DatabaseStore(t *testing.T) {
	p := di.SeedParams{Store: &di.Storage{DB: &sqlx.DB{}}, Logger: testutil.NewLogger(t)}
	assert.NoError(t, di.PrepareMemoryStore(context.Background(), "lms", p))
}
