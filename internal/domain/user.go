package domain

import "database/sql"

// User 仪表盘用户（对应 users 表）
type User struct {
	ID           int    `db:"id"` // SERIAL
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"` // sha256 hex，与历史数据兼容
	Role         string `db:"role"`          // 'admin' 或 'user'

	LastLogin sql.NullTime `db:"last_login"` // nullable
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
