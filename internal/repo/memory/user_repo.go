package memory

import (
	"context"
	"sort"

	"BakeryStore/internal/domain/user"
)

type UserRepo struct {
	store *Store
}

var _ user.UserRepo = (*UserRepo)(nil)

func NewUserRepo(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) GetUsers(_ context.Context) ([]user.User, error) {
	r.store.mu.RLock()
	users := make([]user.User, 0, len(r.store.state.Users))
	for _, u := range r.store.state.Users {
		users = append(users, u)
	}
	r.store.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinDate.Equal(users[j].JoinDate) {
			return users[i].ID < users[j].ID
		}
		return users[i].JoinDate.Before(users[j].JoinDate)
	})
	return users, nil
}

func (r *UserRepo) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.state.Users[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) CreateUser(_ context.Context, u user.User) error {
	return r.store.mutate(func(st *State) error {
		if _, taken := st.Users[u.Username]; taken {
			return user.ErrUsernameTaken
		}
		st.Users[u.Username] = u
		return nil
	})
}

func (r *UserRepo) UpdateUser(_ context.Context, u user.User) error {
	return r.store.mutate(func(st *State) error {
		if _, ok := st.Users[u.Username]; !ok {
			return user.ErrNotFound
		}
		st.Users[u.Username] = u
		return nil
	})
}

// DeleteUser removes the account and its cart.
func (r *UserRepo) DeleteUser(_ context.Context, username string) error {
	return r.store.mutate(func(st *State) error {
		u, ok := st.Users[username]
		if !ok {
			return user.ErrNotFound
		}
		delete(st.Users, username)
		delete(st.Carts, u.ID)
		return nil
	})
}
