// Package store 提供数据库读写的封装与基础约束，保证业务层只处理领域语义而不是 SQL 细节。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		dialect: DialectMySQL,
	}
}

func (s *Store) SetDialect(d Dialect) {
	if strings.TrimSpace(string(d)) == "" {
		return
	}
	s.dialect = d
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("统计用户失败: %w", err)
	}
	return n, nil
}

func (s *Store) CreateUser(ctx context.Context, email string) (int64, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return 0, errors.New("邮箱不能为空")
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO users(email, created_at, updated_at)
	VALUES(?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, email)
	if err != nil {
		return 0, fmt.Errorf("创建用户失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取用户 id 失败: %w", err)
	}
	return id, nil
}

// EnsureUserByEmail 按邮箱原子地 find-or-create：先 INSERT IGNORE（依赖 email 唯一索引），
// 再回查取行。两个并发登录同一新邮箱时最多只会产生一行。
func (s *Store) EnsureUserByEmail(ctx context.Context, email string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return User{}, errors.New("邮箱不能为空")
	}
	_, err := s.db.ExecContext(ctx, insertIgnoreVerb(s.dialect)+`
	INTO users(email, created_at, updated_at)
	VALUES(?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, email)
	if err != nil {
		return User{}, fmt.Errorf("创建用户失败: %w", err)
	}
	return s.GetUserByEmail(ctx, email)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
	SELECT id, email, created_at, updated_at
	FROM users
	WHERE email=?
	`, NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sql.ErrNoRows
		}
		return User{}, fmt.Errorf("查询用户失败: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
	SELECT id, email, created_at, updated_at
	FROM users
	WHERE id=?
	`, userID).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sql.ErrNoRows
		}
		return User{}, fmt.Errorf("查询用户失败: %w", err)
	}
	return u, nil
}

// NormalizeEmail 统一小写并去除首尾空白；邮箱是用户的唯一业务键。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
