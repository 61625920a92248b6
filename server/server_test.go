package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	"github.com/L-Aguilar/microsaas-sub003/companies"
	"github.com/L-Aguilar/microsaas-sub003/internal/config"
	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/internal/utils"
	"github.com/L-Aguilar/microsaas-sub003/server"
	"github.com/L-Aguilar/microsaas-sub003/tenants"
	"github.com/L-Aguilar/microsaas-sub003/tenants/repofakes"
	"github.com/L-Aguilar/microsaas-sub003/token"
	"github.com/L-Aguilar/microsaas-sub003/users"
	"github.com/L-Aguilar/microsaas-sub003/users/repofake"
)

const testPassword = "Sup3rsecret"

// fakeCompanyRepo mirrors the row-level-security behavior of the Postgres
// repo: every query is scoped by the caller's SecurityContext.
type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies []*companies.Company
}

func (f *fakeCompanyRepo) Create(_ context.Context, sc auth.SecurityContext, company *companies.Company) error {
	if sc.TenantID == nil {
		return apperrors.ErrTenantRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	company.ID = uuid.New().String()
	company.TenantID = *sc.TenantID
	company.CreatedBy = sc.UserID
	company.CreatedAt = time.Now()
	f.companies = append(f.companies, company)
	return nil
}

func (f *fakeCompanyRepo) List(_ context.Context, sc auth.SecurityContext) ([]*companies.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*companies.Company
	for _, c := range f.companies {
		if sc.IsSuperAdmin() || (sc.TenantID != nil && c.TenantID == *sc.TenantID) {
			out = append(out, c)
		}
	}
	return out, nil
}

type serverFixture struct {
	users     *fakeuserrepo.FakeUserRepo
	tenants   *tenantrepofakes.FakeTenantRepo
	companies *fakeCompanyRepo
	registry  *token.InMemoryRegistry
	srv       *server.Server
	handler   http.Handler
}

func newServerFixture(t *testing.T, attemptLimit int) *serverFixture {
	t.Helper()

	keyring, err := token.NewKeyring("v1", map[string]string{"v1": "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	codec, err := token.NewCodec(keyring, "com.testissuer", time.Hour)
	require.NoError(t, err)

	f := &serverFixture{
		users:     fakeuserrepo.NewFakeUserRepo(),
		tenants:   tenantrepofakes.NewFakeTenantRepo(),
		companies: &fakeCompanyRepo{},
		registry:  token.NewInMemoryRegistry(),
	}

	gate, err := auth.NewGatekeeper(
		auth.Stores{Users: f.users, Tenants: f.tenants},
		codec,
		f.registry,
		auth.WithAuditTrail(auth.NewAuditTrail(io.Discard)),
	)
	require.NoError(t, err)

	limiter := auth.NewRateLimiter(15*time.Minute, attemptLimit)

	f.srv, err = server.New(config.New(), zerolog.Nop(), gate, limiter, server.Repos{
		Users:     f.users,
		Tenants:   f.tenants,
		Companies: f.companies,
	})
	require.NoError(t, err)
	f.handler = f.srv.Routes()
	return f
}

func (f *serverFixture) addTenant(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.tenants.Upsert(context.Background(), &tenants.Tenant{ID: id, Name: "tenant " + id, IsActive: true}))
}

func (f *serverFixture) addUser(t *testing.T, id string, role users.RoleType, tenantID *string) {
	t.Helper()
	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, f.users.Upsert(context.Background(), &users.Principal{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
	}))
}

func (f *serverFixture) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:49152"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) login(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func errorField(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t, 10)
	rec := f.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginAndMe(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))

	bearer := f.login(t, "u1@example.com")

	rec := f.do(http.MethodGet, "/auth/me", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		UserID   string  `json:"user_id"`
		Role     string  `json:"role"`
		TenantID *string `json:"tenant_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "u1", me.UserID)
	require.Equal(t, "USER", me.Role)
	require.Equal(t, "t1", utils.Value(me.TenantID))
}

func TestLoginFailuresAreUniform(t *testing.T) {
	// A 401 must read the same whether the account is missing, the password
	// is wrong or the account is soft-deleted.
	f := newServerFixture(t, 100)
	f.addTenant(t, "t1")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))
	f.addUser(t, "u2", users.RoleUser, utils.Ptr("t1"))
	require.NoError(t, f.users.SoftDelete(context.Background(), "u2"))

	bodies := []map[string]string{
		{"email": "nobody@example.com", "password": testPassword},
		{"email": "u1@example.com", "password": "wrong"},
		{"email": "u2@example.com", "password": testPassword},
	}
	for _, body := range bodies {
		rec := f.do(http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "unauthorized", errorField(t, rec))
	}
}

func TestLoginValidatesBody(t *testing.T) {
	f := newServerFixture(t, 10)
	rec := f.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "u1@example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	f := newServerFixture(t, 10)
	body := map[string]string{"email": "nobody@example.com", "password": "wrong0Pw"}

	for i := 0; i < 10; i++ {
		rec := f.do(http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := f.do(http.MethodPost, "/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "too_many_attempts", errorField(t, rec))
}

func TestAPIRejectsMissingAndGarbageTokens(t *testing.T) {
	f := newServerFixture(t, 10)

	rec := f.do(http.MethodGet, "/api/companies/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", errorField(t, rec))

	rec = f.do(http.MethodGet, "/api/companies/", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", errorField(t, rec))
}

func TestAPIRejectsTokenAfterTenantDeactivation(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))
	bearer := f.login(t, "u1@example.com")

	rec := f.do(http.MethodGet, "/api/companies/", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, f.tenants.SetActive(context.Background(), "t1", false))

	rec = f.do(http.MethodGet, "/api/companies/", bearer, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Reactivation does not resurrect the token: the denial revoked it.
	require.NoError(t, f.tenants.SetActive(context.Background(), "t1", true))
	rec = f.do(http.MethodGet, "/api/companies/", bearer, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTenant(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addUser(t, "sa1", users.RoleSuperAdmin, nil)
	f.addUser(t, "drifter", users.RoleUser, nil)

	// The platform role passes with no tenant at all.
	saToken := f.login(t, "sa1@example.com")
	rec := f.do(http.MethodGet, "/api/companies/", saToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A regular principal without a business account is authenticated but
	// not authorized for tenant-scoped resources.
	driftToken := f.login(t, "drifter@example.com")
	rec = f.do(http.MethodGet, "/api/companies/", driftToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", errorField(t, rec))
}

func TestCompanyCreateAndTenantScopedList(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addTenant(t, "t2")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))
	f.addUser(t, "u2", users.RoleUser, utils.Ptr("t2"))

	t1Token := f.login(t, "u1@example.com")
	t2Token := f.login(t, "u2@example.com")

	rec := f.do(http.MethodPost, "/api/companies/", t1Token, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created companies.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "t1", created.TenantID)
	require.Equal(t, "u1", created.CreatedBy)

	// The other tenant's view is empty.
	rec = f.do(http.MethodGet, "/api/companies/", t2Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*companies.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Empty(t, list)

	rec = f.do(http.MethodGet, "/api/companies/", t1Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Acme", list[0].Name)
}

func TestCompanyCreateValidatesName(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))
	bearer := f.login(t, "u1@example.com")

	rec := f.do(http.MethodPost, "/api/companies/", bearer, map[string]string{"website": "https://acme.test"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutKillsToken(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))
	bearer := f.login(t, "u1@example.com")

	rec := f.do(http.MethodPost, "/auth/logout", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/auth/me", bearer, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newServerFixture(t, 10)
	f.addTenant(t, "t1")
	f.addUser(t, "u1", users.RoleUser, utils.Ptr("t1"))
	oldToken := f.login(t, "u1@example.com")

	rec := f.do(http.MethodPost, "/auth/refresh", oldToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEqual(t, oldToken, resp.AccessToken)

	rec = f.do(http.MethodGet, "/auth/me", oldToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/auth/me", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleGatesFailClosedWithoutAuthentication(t *testing.T) {
	// Composing a role gate without the authenticate gate must deny, not
	// panic or pass.
	f := newServerFixture(t, 10)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for name, gate := range map[string]http.Handler{
		"super admin":  f.srv.RequireSuperAdmin(okHandler),
		"role":         f.srv.RequireRole(users.RoleAdmin)(okHandler),
		"tenant bound": f.srv.RequireTenant(okHandler),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			gate.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoleForbidsWrongRole(t *testing.T) {
	f := newServerFixture(t, 10)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gate := f.srv.RequireSuperAdmin(okHandler)

	sc := auth.SecurityContext{UserID: "u1", Role: users.RoleAdmin, TenantID: utils.Ptr("t1")}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithSecurityContext(req.Context(), sc))
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBootstrapSuperAdmin(t *testing.T) {
	f := newServerFixture(t, 10)

	password, err := f.srv.BootstrapSuperAdmin(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, password)

	admin, err := f.users.GetByEmail(context.Background(), server.DefaultSuperAdminEmail)
	require.NoError(t, err)
	require.Equal(t, users.RoleSuperAdmin, admin.Role)
	require.True(t, users.CheckPasswordHash(password, admin.PasswordHash))

	// The id column is a UUID: bootstrap must never hand the store an
	// empty or non-UUID identifier.
	_, err = uuid.Parse(admin.ID)
	require.NoError(t, err)

	// Second run is a no-op.
	again, err := f.srv.BootstrapSuperAdmin(context.Background())
	require.NoError(t, err)
	require.Empty(t, again)
}
