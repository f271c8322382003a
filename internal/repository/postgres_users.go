package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"footfall-data/internal/domain"
)

// PostgresUsersRepository 基于 users 表的用户仓库实现
type PostgresUsersRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresUsersRepository(db *sql.DB, logger *zap.Logger) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, logger: logger}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *PostgresUsersRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *PostgresUsersRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, last_login FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.LastLogin)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUsersRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, username, password_hash, role, last_login FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.LastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UsernameTaken 用户名是否被 excludeID 之外的用户占用（excludeID 为 0 表示不排除）
func (r *PostgresUsersRepository) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	var id int
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = $1 AND id != $2", username, excludeID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return true, nil
}

// FirstAdminHash 取第一个管理员账号的密码哈希，注册时用作管理员口令校验
func (r *PostgresUsersRepository) FirstAdminHash(ctx context.Context) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE role = $1 LIMIT 1", domain.RoleAdmin,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query admin hash: %w", err)
	}
	return hash, nil
}

func (r *PostgresUsersRepository) Create(ctx context.Context, username, passwordHash, role string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)",
			username, passwordHash, role)
		return err
	})
}

// Update 按字段更新用户，所有语句在同一事务内
func (r *PostgresUsersRepository) Update(ctx context.Context, id int, update UserUpdate) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if update.Username != nil {
			if _, err := tx.ExecContext(ctx,
				"UPDATE users SET username = $1 WHERE id = $2", *update.Username, id); err != nil {
				return err
			}
		}
		if update.PasswordHash != nil {
			if _, err := tx.ExecContext(ctx,
				"UPDATE users SET password_hash = $1 WHERE id = $2", *update.PasswordHash, id); err != nil {
				return err
			}
		}
		if update.Role != nil {
			if _, err := tx.ExecContext(ctx,
				"UPDATE users SET role = $1 WHERE id = $2", *update.Role, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresUsersRepository) Delete(ctx context.Context, id int) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
		return err
	})
}

func (r *PostgresUsersRepository) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE users SET last_login = $1 WHERE id = $2", at, id)
		return err
	})
}

// inTx 出错回滚、成功提交，不留部分写入
func (r *PostgresUsersRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}
