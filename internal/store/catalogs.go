// Package store 提供 catalog 的数据库读写封装。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (s *Store) CreateCatalog(ctx context.Context, name string, userID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("catalog 名称不能为空")
	}
	if userID <= 0 {
		return 0, errors.New("user_id 不合法")
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO catalogs(name, user_id, created_at, updated_at)
	VALUES(?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, name, userID)
	if err != nil {
		return 0, fmt.Errorf("创建 catalog 失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取 catalog id 失败: %w", err)
	}
	return id, nil
}

func (s *Store) GetCatalog(ctx context.Context, catalogID int64) (CatalogWithOwner, error) {
	var c CatalogWithOwner
	err := s.db.QueryRowContext(ctx, `
	SELECT c.id, c.name, c.user_id, c.created_at, c.updated_at, u.email
	FROM catalogs c
	JOIN users u ON u.id = c.user_id
	WHERE c.id=?
	`, catalogID).Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.UpdatedAt, &c.OwnerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CatalogWithOwner{}, sql.ErrNoRows
		}
		return CatalogWithOwner{}, fmt.Errorf("查询 catalog 失败: %w", err)
	}
	return c, nil
}

func (s *Store) ListCatalogs(ctx context.Context) ([]CatalogWithOwner, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.id, c.name, c.user_id, c.created_at, c.updated_at, u.email
	FROM catalogs c
	JOIN users u ON u.id = c.user_id
	ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("查询 catalog 列表失败: %w", err)
	}
	defer rows.Close()

	var out []CatalogWithOwner
	for rows.Next() {
		var c CatalogWithOwner
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.UpdatedAt, &c.OwnerEmail); err != nil {
			return nil, fmt.Errorf("读取 catalog 行失败: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历 catalog 列表失败: %w", err)
	}
	return out, nil
}

func (s *Store) ListCatalogsOwnedBy(ctx context.Context, userID int64) ([]CatalogWithOwner, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.id, c.name, c.user_id, c.created_at, c.updated_at, u.email
	FROM catalogs c
	JOIN users u ON u.id = c.user_id
	WHERE c.user_id=?
	ORDER BY c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户 catalog 列表失败: %w", err)
	}
	defer rows.Close()

	var out []CatalogWithOwner
	for rows.Next() {
		var c CatalogWithOwner
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.UpdatedAt, &c.OwnerEmail); err != nil {
			return nil, fmt.Errorf("读取 catalog 行失败: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历用户 catalog 列表失败: %w", err)
	}
	return out, nil
}

// CatalogOwner 仅返回所有者 id，供 authz 判定使用；不存在时返回 sql.ErrNoRows。
func (s *Store) CatalogOwner(ctx context.Context, catalogID int64) (int64, error) {
	var ownerID int64
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM catalogs WHERE id=?`, catalogID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("查询 catalog 所有者失败: %w", err)
	}
	return ownerID, nil
}

func (s *Store) UpdateCatalogName(ctx context.Context, catalogID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("catalog 名称不能为空")
	}
	res, err := s.db.ExecContext(ctx, `
	UPDATE catalogs
	SET name=?, updated_at=CURRENT_TIMESTAMP
	WHERE id=?
	`, name, catalogID)
	if err != nil {
		return fmt.Errorf("更新 catalog 失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCatalog 级联删除：同一事务内先删 items 再删 catalog，保证不留悬挂引用。
// schema 中的 ON DELETE CASCADE 是二道保险，绕过本方法的直连 SQL 也不会破坏不变式。
func (s *Store) DeleteCatalog(ctx context.Context, catalogID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE catalog_id=?`, catalogID); err != nil {
		return fmt.Errorf("删除 catalog 下的 items 失败: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM catalogs WHERE id=?`, catalogID)
	if err != nil {
		return fmt.Errorf("删除 catalog 失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
