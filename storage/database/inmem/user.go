package inmemdb

import (
	"context"
	"sort"

	"github.com/YounesFetouaki/edu-path/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...int) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := append([]int(nil), excludedIDs...)
	sort.Ints(excluded)

	for _, usr := range repo.db.users {
		if isExcluded(usr.ID, excluded) {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.insertUser(usr)
}

// insertUser must be called with the write lock held.
func (db *DB) insertUser(usr user.User) (user.User, error) {
	for _, u := range db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	usr.ID = db.nextID("users")
	db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	switch {
	case filter.ID != 0:
		if usr, ok := repo.db.users[filter.ID]; ok {
			return usr, nil
		}
	case filter.Email != "":
		for _, usr := range repo.db.users {
			if usr.Email == filter.Email {
				return usr, nil
			}
		}
	case filter.UsernameOrEmail != "":
		for _, usr := range repo.db.users {
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	usr.CreatedAt = orig.CreatedAt
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func isExcluded(id int, sortedIDs []int) bool {
	idx := sort.SearchInts(sortedIDs, id)
	return idx < len(sortedIDs) && sortedIDs[idx] == id
}
