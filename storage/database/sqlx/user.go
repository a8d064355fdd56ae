package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core/user"
)

const userColumns = "id, username, email, role, password_hash, created_at"

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...int) error {
	var found struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := repo.db.GetContext(ctx, &found,
		`SELECT username, email FROM users
		WHERE (username = $1 OR email = $2) AND NOT (id = ANY($3))
		LIMIT 1`,
		username, email, int64s(excludedIDs),
	)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return errors.Wrap(err, "checking username uniqueness")
	case found.Username == username:
		return user.ErrUsernameExists
	default:
		return user.ErrEmailExists
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, email, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		usr.Username, usr.Email, usr.Role, usr.PasswordHash, usr.CreatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, userError(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "id = $1", filter.ID
	case filter.Email != "":
		where, arg = "email = $1", filter.Email
	case filter.UsernameOrEmail != "":
		where, arg = "username = $1 OR email = $1", filter.UsernameOrEmail
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE users SET username = $2, email = $3, role = $4, password_hash = $5 WHERE id = $1`,
		usr.ID, usr.Username, usr.Email, usr.Role, usr.PasswordHash,
	)
	if err != nil {
		return user.User{}, userError(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

// userError maps unique violations on users to the user package errors.
func userError(err error, msg string) error {
	if pqErr, ok := pqError(err); ok && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "users_email_key":
			return user.ErrEmailExists
		case "users_username_key":
			return user.ErrUsernameExists
		}
	}
	return errors.Wrap(err, msg)
}
