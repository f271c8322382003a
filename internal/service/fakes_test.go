package service

import (
	"context"
	"sync"
	"time"

	"footfall-data/internal/analytics"
	"footfall-data/internal/domain"
	"footfall-data/internal/repository"
	"footfall-data/internal/store"
)

// fakeSource 内存读数源，按仓库的过滤口径筛选
type fakeSource struct {
	readings []domain.SensorReading
	err      error
}

func (f *fakeSource) Query(_ context.Context, filter analytics.ReadingFilter) ([]domain.SensorReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.SensorReading
	for _, r := range f.readings {
		if r.StartTime.Before(filter.Start) || r.EndTime.After(filter.End) {
			continue
		}
		if len(filter.Cameras) > 0 && !containsCamera(filter.Cameras, r.CameraID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func containsCamera(cameras []string, id string) bool {
	for _, c := range cameras {
		if c == id {
			return true
		}
	}
	return false
}

// reading 构造一条一小时时段的读数
func reading(camera string, year int, month time.Month, day, hour, total, in, out, male, female, minor, unknown int) domain.SensorReading {
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

// fakeUsersRepo 内存用户仓库
type fakeUsersRepo struct {
	mu     sync.Mutex
	users  map[int]*domain.User
	nextID int
	err    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[int]*domain.User), nextID: 1}
}

func (f *fakeUsersRepo) add(username, passwordHash, role string) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &domain.User{ID: f.nextID, Username: username, PasswordHash: passwordHash, Role: role}
	f.users[u.ID] = u
	f.nextID++
	return u
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsersRepo) List(_ context.Context) ([]domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for id := 1; id < f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsersRepo) UsernameTaken(_ context.Context, username string, excludeID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) FirstAdminHash(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := 1; id < f.nextID; id++ {
		if u, ok := f.users[id]; ok && u.Role == domain.RoleAdmin {
			return u.PasswordHash, nil
		}
	}
	return "", repository.ErrUserNotFound
}

func (f *fakeUsersRepo) Create(_ context.Context, username, passwordHash, role string) error {
	f.add(username, passwordHash, role)
	return nil
}

func (f *fakeUsersRepo) Update(_ context.Context, id int, update repository.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *fakeUsersRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUsersRepo) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLogin.Valid = true
	u.LastLogin.Time = at
	return nil
}

var _ repository.UsersRepository = (*fakeUsersRepo)(nil)

// fakeKV 内存 KV，记录最近一次 Set 的 TTL
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	lastTTL time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.lastTTL = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

var _ store.KV = (*fakeKV)(nil)
