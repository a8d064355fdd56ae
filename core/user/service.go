package user

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	dummyHash     []byte
	dummyHashOnce sync.Once
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...int) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, uname, email string, excludedIDs ...int) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, excludedIDs...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Authenticate returns the user owning email if pwd matches its password.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			// keep response time close to the one of a real check
			_ = (&User{PasswordHash: getDummyHash()}).CheckPassword(pwd)
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		u := new(User)
		_ = u.SetPassword("edupath-dummy-password")
		dummyHash = u.PasswordHash
	})
	return dummyHash
}

// DemoUsers are the staff accounts seeded with the demo data. The demo student account is created along with
// its student record by the LMS seed.
func DemoUsers() []NewUser {
	return []NewUser{
		{Username: "admin", Email: "admin@edupath.com", Password: "admin", Role: RoleAdmin},
		{Username: "teacher", Email: "teacher@edupath.com", Password: "password", Role: RoleTeacher},
	}
}

// SeedDemoUsers creates the demo accounts missing from the store, and returns all of them.
func (svc *Service) SeedDemoUsers(ctx context.Context) ([]User, error) {
	demo := DemoUsers()
	users := make([]User, 0, len(demo))
	for _, nu := range demo {
		usr, err := svc.GetByUsernameOrEmail(ctx, nu.Email)
		if errors.Cause(err) == ErrNotFound {
			usr, err = svc.Create(ctx, nu)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "seeding %s", nu.Email)
		}
		users = append(users, usr)
	}
	return users, nil
}
