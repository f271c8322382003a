package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"footfall-data/internal/domain"
	"footfall-data/internal/repository"
	"footfall-data/internal/store"
)

// 认证相关错误，错误文案直接作为接口返回给前端
var (
	ErrUnknownUser        = errors.New("Username does not exist.")
	ErrWrongPassword      = errors.New("Incorrect password.")
	ErrInvalidCredentials = errors.New("Invalid username or password.")
	ErrAccessDenied       = errors.New("Access denied.")
	ErrInvalidAdminPass   = errors.New("Invalid admin password.")
	ErrNoAdminAccount     = errors.New("Admin password not found.")
	ErrUserExists         = errors.New("User already exists.")
	ErrBadUsername        = errors.New("Username must be between 3 and 20 characters long.")
	ErrBadPassword        = errors.New("Password must be between 6 and 20 characters long.")
	ErrSessionExpired     = errors.New("session expired")
)

// Session 保存在 KV 里的会话载荷，LastLogin 取本次登录之前的值
type Session struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	LastLogin string `json:"last_login"`
}

// AuthService 登录、注册与会话管理
type AuthService struct {
	users  repository.UsersRepository
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UsersRepository, kv store.KV, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		kv:     kv,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// HashPassword SHA-256 十六进制摘要，与 users 表里的存储格式一致
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login 校验用户名密码，刷新 last_login 并创建会话。
// 返回的 token 是会话标识，会话里的 LastLogin 保留上一次登录时间。
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrUnknownUser
		}
		return nil, "", err
	}
	if HashPassword(password) != user.PasswordHash {
		return nil, "", ErrWrongPassword
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, "", err
	}

	lastLogin := "Never"
	if user.LastLogin.Valid {
		lastLogin = user.LastLogin.Time.Format("2006-01-02 15:04:05")
	}
	sess := &Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		LastLogin: lastLogin,
	}
	token, err := s.saveSession(ctx, sess)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", zap.String("username", username))
	return sess, token, nil
}

// AdminLogin 管理员登录，不区分用户不存在和密码错误，不刷新 last_login
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*Session, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if HashPassword(password) != user.PasswordHash {
		return nil, "", ErrInvalidCredentials
	}
	if user.Role != domain.RoleAdmin {
		return nil, "", ErrAccessDenied
	}

	sess := &Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	token, err := s.saveSession(ctx, sess)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("admin logged in", zap.String("username", username))
	return sess, token, nil
}

// Register 注册普通用户，需要第一个管理员账号的密码作为注册口令
func (s *AuthService) Register(ctx context.Context, username, password, adminPassword string) error {
	adminHash, err := s.users.FirstAdminHash(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNoAdminAccount
		}
		return err
	}
	if HashPassword(adminPassword) != adminHash {
		return ErrInvalidAdminPass
	}

	taken, err := s.users.UsernameTaken(ctx, username, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrUserExists
	}

	if len(username) < 3 || len(username) > 20 {
		return ErrBadUsername
	}
	if len(password) < 6 || len(password) > 20 {
		return ErrBadPassword
	}

	if err := s.users.Create(ctx, username, HashPassword(password), domain.RoleUser); err != nil {
		return err
	}
	s.logger.Info("user registered", zap.String("username", username))
	return nil
}

// CheckSession 按 token 取回会话
func (s *AuthService) CheckSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionExpired
	}
	raw, err := s.kv.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, store.ErrCacheMiss) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// UpdateLastLogin 把会话用户的 last_login 刷新为当前时间
func (s *AuthService) UpdateLastLogin(ctx context.Context, sess *Session) error {
	return s.users.TouchLastLogin(ctx, sess.UserID, s.now())
}

// Logout 删除会话，token 不存在也视为成功
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.kv.Del(ctx, sessionKey(token))
}

func (s *AuthService) saveSession(ctx context.Context, sess *Session) (string, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	token := uuid.NewString()
	if err := s.kv.Set(ctx, sessionKey(token), string(payload), s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func sessionKey(token string) string {
	return "session:" + token
}
