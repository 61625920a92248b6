package tenantrepofakes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	tenants map[string]*tenants.Tenant
	lock    sync.RWMutex
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		tenants: make(map[string]*tenants.Tenant),
	}
}

func (tr *FakeTenantRepo) Upsert(_ context.Context, tenantData *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tenantData.ID == "" {
		tenantData.ID = uuid.New().String()
	}
	tr.tenants[tenantData.ID] = tenantData
	return nil
}

func (tr *FakeTenantRepo) Get(_ context.Context, tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (tr *FakeTenantRepo) SetActive(_ context.Context, tenantID string, active bool) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.IsActive = active
	return nil
}

func (tr *FakeTenantRepo) SoftDelete(_ context.Context, tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}
