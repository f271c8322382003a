package repository

import (
	"context"
	"errors"
	"time"

	"footfall-data/internal/domain"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// UserUpdate 用户更新字段，nil 表示不修改
type UserUpdate struct {
	Username     *string
	PasswordHash *string
	Role         *string
}

// UsersRepository 用户表仓库
// 写操作都是单语句事务：任何错误回滚，只有全部成功才提交
type UsersRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error)
	FirstAdminHash(ctx context.Context) (string, error)

	Create(ctx context.Context, username, passwordHash, role string) error
	Update(ctx context.Context, id int, update UserUpdate) error
	Delete(ctx context.Context, id int) error
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
}
