package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"footfall-data/internal/analytics"
	"footfall-data/internal/config"
	"footfall-data/internal/domain"
	"footfall-data/internal/repository"
	"footfall-data/internal/service"
	"footfall-data/internal/store"
)

// fakeReadings 内存读数仓库
type fakeReadings struct {
	readings []domain.SensorReading
	slots    []repository.TimeSlot
}

func (f *fakeReadings) Query(_ context.Context, filter analytics.ReadingFilter) ([]domain.SensorReading, error) {
	var out []domain.SensorReading
	for _, r := range f.readings {
		if r.StartTime.Before(filter.Start) || r.EndTime.After(filter.End) {
			continue
		}
		if len(filter.Cameras) > 0 {
			found := false
			for _, c := range filter.Cameras {
				if c == r.CameraID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReadings) DistinctTimeSlots(_ context.Context, _, _ string) ([]repository.TimeSlot, error) {
	return f.slots, nil
}

// fakeUsers 内存用户仓库
type fakeUsers struct {
	users map[int]*domain.User
	next  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int]*domain.User), next: 1}
}

func (f *fakeUsers) add(username, password, role string) *domain.User {
	u := &domain.User{ID: f.next, Username: username, PasswordHash: service.HashPassword(password), Role: role}
	f.users[u.ID] = u
	f.next++
	return u
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for id := 1; id < f.next; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) UsernameTaken(_ context.Context, username string, excludeID int) (bool, error) {
	for _, u := range f.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) FirstAdminHash(_ context.Context) (string, error) {
	for id := 1; id < f.next; id++ {
		if u, ok := f.users[id]; ok && u.Role == domain.RoleAdmin {
			return u.PasswordHash, nil
		}
	}
	return "", repository.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, username, passwordHash, role string) error {
	u := &domain.User{ID: f.next, Username: username, PasswordHash: passwordHash, Role: role}
	f.users[u.ID] = u
	f.next++
	return nil
}

func (f *fakeUsers) Update(_ context.Context, id int, update repository.UserUpdate) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLogin.Valid = true
	u.LastLogin.Time = at
	return nil
}

var _ repository.UsersRepository = (*fakeUsers)(nil)

// fakeSessions 内存会话 KV
type fakeSessions struct {
	data map[string]string
}

func (f *fakeSessions) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeSessions) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeSessions) Del(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

type testEnv struct {
	router *Router
	users  *fakeUsers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	users := newFakeUsers()
	users.add("root", "admin-pass", domain.RoleAdmin)
	users.add("alice", "secret-1", domain.RoleUser)

	readings := &fakeReadings{
		readings: []domain.SensorReading{
			hourReading("A1", 2026, time.August, 1, 10, 10, 10, 2, 5, 5, 0, 0),
			hourReading("A6", 2026, time.August, 1, 10, 10, 3, 7, 4, 4, 0, 2),
			hourReading("A7", 2026, time.August, 1, 10, 10, 8, 2, 6, 4, 0, 0),
		},
		slots: []repository.TimeSlot{{Start: "10:00:00", End: "11:00:00"}},
	}

	authSvc := service.NewAuthService(users, &fakeSessions{data: make(map[string]string)}, time.Hour, logger)
	dashSvc, err := service.NewDashboardService(readings, config.DefaultAreas(), logger)
	require.NoError(t, err)
	distSvc := service.NewDistributionService(readings)
	userSvc := service.NewUserService(users, logger)

	router := NewRouter(logger)
	authHandler := NewAuthHandler(authSvc, logger)
	router.RegisterAuthRoutes(authHandler)
	router.RegisterDashboardRoutes(authHandler, NewDashboardHandler(dashSvc, distSvc, readings, logger))
	router.RegisterAdminRoutes(authHandler, NewUsersHandler(userSvc, logger))

	return &testEnv{router: router, users: users}
}

func hourReading(camera string, year int, month time.Month, day, hour, total, in, out, male, female, minor, unknown int) domain.SensorReading {
	start := time.Date(year, month, day, hour, 0, 0, 0, time.Local)
	return domain.SensorReading{
		CameraID:           camera,
		StartTime:          start,
		EndTime:            start.Add(time.Hour),
		TotalCount:         total,
		InCount:            in,
		OutCount:           out,
		MaleCount:          male,
		FemaleCount:        female,
		MinorCount:         minor,
		UnknownGenderCount: unknown,
	}
}

func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login 走完整登录流程拿会话 Cookie
func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.do(http.MethodPost, "/api/login", map[string]string{
		"username": username, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "secret-1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "Never", body["last_login"])

	rec = env.do(http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect password.", decodeBody(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/login", map[string]string{
		"username": "nobody", "password": "x",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Username does not exist.", decodeBody(t, rec)["error"])

	rec = env.do(http.MethodPost, "/api/login", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/login", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/check-session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["authenticated"])

	cookie := env.login(t, "alice", "secret-1")
	rec = env.do(http.MethodGet, "/api/check-session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, domain.RoleUser, body["role"])
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "alice", "secret-1")

	rec := env.do(http.MethodGet, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/check-session", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{
		"date_start":     "2026-08-01",
		"date_end":       "2026-08-02",
		"ref_date_start": "2026-07-01",
		"ref_date_end":   "2026-07-02",
	}

	rec := env.do(http.MethodPost, "/api/dashboard", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := env.login(t, "alice", "secret-1")
	rec = env.do(http.MethodPost, "/api/dashboard", payload, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 21, resp.Part1.TotalIn)
	assert.Equal(t, "0.0", resp.Part1.PercentChange)
	// part7 冷库：A7 进 8 + A6 出 7
	assert.Equal(t, 15, resp.Part7.ValueIn)
}

func TestDashboardEndpoint_BadDates(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "alice", "secret-1")

	rec := env.do(http.MethodPost, "/api/dashboard", map[string]string{
		"date_start": "bogus", "date_end": "2026-08-02",
		"ref_date_start": "2026-07-01", "ref_date_end": "2026-07-02",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDistributionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "alice", "secret-1")

	rec := env.do(http.MethodGet, "/api/footfall-distribution", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.DistributionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.WeeklyCurrent.Male, 7)
	assert.Len(t, resp.YearlyHistorical.Unknown, 4)
}

func TestAllTimeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "alice", "secret-1")

	rec := env.do(http.MethodGet, "/api/alltime?date_start=2026-08-01&date_end=2026-08-02", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var slots []repository.TimeSlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, "10:00:00", slots[0].Start)
}

func TestAdminLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/admin-login", map[string]string{
		"username": "root", "password": "admin-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, domain.RoleAdmin, body["role"])

	// 普通用户拒绝进入
	rec = env.do(http.MethodPost, "/api/admin-login", map[string]string{
		"username": "alice", "password": "secret-1",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied.", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPost, "/api/admin-login", map[string]string{
		"username": "root", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password.", decodeBody(t, rec)["message"])
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/register", map[string]string{
		"username": "carol", "password": "secret-1", "adminPassword": "admin-pass",
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/register", map[string]string{
		"username": "carol", "password": "secret-1", "adminPassword": "admin-pass",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/register", map[string]string{
		"username": "dave", "password": "secret-1", "adminPassword": "wrong",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/api/register", map[string]string{
		"username": "dave", "password": "secret-1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUsersEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// 普通用户拒绝访问
	userCookie := env.login(t, "alice", "secret-1")
	rec := env.do(http.MethodGet, "/api/admin/users", nil, userCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminCookie := env.login(t, "root", "admin-pass")
	rec = env.do(http.MethodGet, "/api/admin/users", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["users"], 2)
}

func TestAdminUserUpdateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	adminCookie := env.login(t, "root", "admin-pass")

	rec := env.do(http.MethodPut, "/api/admin/users/2", map[string]string{
		"username": "alice2", "role": "user",
	}, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice2", env.users.users[2].Username)

	// 不能修改自己
	rec = env.do(http.MethodPut, "/api/admin/users/1", map[string]string{
		"username": "root2", "role": "admin",
	}, adminCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, "/api/admin/users/2", map[string]string{
		"username": "alice3", "role": "superuser",
	}, adminCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/admin/users/nope", nil, adminCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUserDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	adminCookie := env.login(t, "root", "admin-pass")

	rec := env.do(http.MethodDelete, "/api/admin/users/1", nil, adminCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodDelete, "/api/admin/users/2", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok := env.users.users[2]
	assert.False(t, ok)
}
