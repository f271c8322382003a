package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"footfall-data/internal/domain"
	"footfall-data/internal/repository"
)

var (
	ErrSelfModify  = errors.New("You cannot modify your own account.")
	ErrSelfDelete  = errors.New("You cannot delete your own account.")
	ErrInvalidRole = errors.New("Invalid role.")
	ErrNameTaken   = errors.New("Username already exists.")
)

// UserView 管理界面的用户列表条目
type UserView struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	LastLogin string `json:"lastLogin"`
}

// UserUpdateRequest 用户更新请求，空串表示不修改
type UserUpdateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserService 管理员的用户管理操作
type UserService struct {
	users  repository.UsersRepository
	logger *zap.Logger
}

func NewUserService(users repository.UsersRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List 按 id 排序返回全部用户
func (s *UserService) List(ctx context.Context) ([]UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		lastLogin := "Never"
		if u.LastLogin.Valid {
			lastLogin = u.LastLogin.Time.Format("2006/01/02 15:04:05")
		}
		views = append(views, UserView{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			LastLogin: lastLogin,
		})
	}
	return views, nil
}

// Update 修改用户，操作者不能修改自己的账号
func (s *UserService) Update(ctx context.Context, actorID, targetID int, req UserUpdateRequest) error {
	if targetID == actorID {
		return ErrSelfModify
	}
	if req.Role != domain.RoleAdmin && req.Role != domain.RoleUser {
		return ErrInvalidRole
	}
	if req.Username != "" && (len(req.Username) < 3 || len(req.Username) > 20) {
		return ErrBadUsername
	}
	if req.Password != "" && (len(req.Password) < 6 || len(req.Password) > 20) {
		return ErrBadPassword
	}

	taken, err := s.users.UsernameTaken(ctx, req.Username, targetID)
	if err != nil {
		return err
	}
	if taken {
		return ErrNameTaken
	}

	update := repository.UserUpdate{Role: &req.Role}
	if req.Username != "" {
		update.Username = &req.Username
	}
	if req.Password != "" {
		hash := HashPassword(req.Password)
		update.PasswordHash = &hash
	}
	if err := s.users.Update(ctx, targetID, update); err != nil {
		return err
	}
	s.logger.Info("user updated", zap.Int("user_id", targetID), zap.Int("actor_id", actorID))
	return nil
}

// Delete 删除用户，操作者不能删除自己的账号
func (s *UserService) Delete(ctx context.Context, actorID, targetID int) error {
	if targetID == actorID {
		return ErrSelfDelete
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int("user_id", targetID), zap.Int("actor_id", actorID))
	return nil
}
