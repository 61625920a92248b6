package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

var _ users.Store = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.Principal
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Principal),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, principal *users.Principal) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if principal.ID == "" {
		principal.ID = uuid.New().String()
	}
	ur.users[principal.ID] = principal
	ur.emailIds[principal.Email] = principal.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.Principal, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	p, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.Principal, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) SoftDelete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	p, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	p.IsDeleted = true
	p.DeletedAt = &now
	return nil
}

func (ur *FakeUserRepo) SetLastLogin(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	p, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.LastLogin = time.Now()
	return nil
}
