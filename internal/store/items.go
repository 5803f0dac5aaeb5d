package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateItem 会先确认 catalog 存在；不存在时返回 sql.ErrNoRows。
func (s *Store) CreateItem(ctx context.Context, name string, description *string, catalogID, userID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("item 名称不能为空")
	}
	if userID <= 0 {
		return 0, errors.New("user_id 不合法")
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM catalogs WHERE id=?`, catalogID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("查询 catalog 失败: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO items(name, description, catalog_id, user_id, created_at, updated_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, name, description, catalogID, userID)
	if err != nil {
		return 0, fmt.Errorf("创建 item 失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取 item id 失败: %w", err)
	}
	return id, nil
}

func (s *Store) GetItem(ctx context.Context, itemID int64) (ItemWithRefs, error) {
	var it ItemWithRefs
	err := s.db.QueryRowContext(ctx, `
	SELECT i.id, i.name, i.description, i.catalog_id, i.user_id, i.created_at, i.updated_at,
	       c.name, u.email
	FROM items i
	JOIN catalogs c ON c.id = i.catalog_id
	JOIN users u ON u.id = i.user_id
	WHERE i.id=?
	`, itemID).Scan(&it.ID, &it.Name, &it.Description, &it.CatalogID, &it.UserID,
		&it.CreatedAt, &it.UpdatedAt, &it.CatalogName, &it.CreatorEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ItemWithRefs{}, sql.ErrNoRows
		}
		return ItemWithRefs{}, fmt.Errorf("查询 item 失败: %w", err)
	}
	return it, nil
}

func (s *Store) ListItems(ctx context.Context) ([]ItemWithRefs, error) {
	return s.listItemsWhere(ctx, "", nil)
}

func (s *Store) ListItemsByCatalog(ctx context.Context, catalogID int64) ([]ItemWithRefs, error) {
	return s.listItemsWhere(ctx, "WHERE i.catalog_id=?", []any{catalogID})
}

func (s *Store) listItemsWhere(ctx context.Context, where string, args []any) ([]ItemWithRefs, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT i.id, i.name, i.description, i.catalog_id, i.user_id, i.created_at, i.updated_at,
	       c.name, u.email
	FROM items i
	JOIN catalogs c ON c.id = i.catalog_id
	JOIN users u ON u.id = i.user_id
	`+where+`
	ORDER BY i.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("查询 item 列表失败: %w", err)
	}
	defer rows.Close()

	var out []ItemWithRefs
	for rows.Next() {
		var it ItemWithRefs
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.CatalogID, &it.UserID,
			&it.CreatedAt, &it.UpdatedAt, &it.CatalogName, &it.CreatorEmail); err != nil {
			return nil, fmt.Errorf("读取 item 行失败: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历 item 列表失败: %w", err)
	}
	return out, nil
}

// ItemCreator 仅返回创建者 id，供 authz 判定使用；不存在时返回 sql.ErrNoRows。
func (s *Store) ItemCreator(ctx context.Context, itemID int64) (int64, error) {
	var creatorID int64
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM items WHERE id=?`, itemID).Scan(&creatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("查询 item 创建者失败: %w", err)
	}
	return creatorID, nil
}

// ItemFieldPatch 描述局部更新；nil 字段表示不修改。
type ItemFieldPatch struct {
	Name        *string
	Description *string
}

func (p ItemFieldPatch) empty() bool {
	return p.Name == nil && p.Description == nil
}

func (s *Store) UpdateItemFields(ctx context.Context, itemID int64, patch ItemFieldPatch) error {
	if patch.empty() {
		return errors.New("没有需要更新的字段")
	}
	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return errors.New("item 名称不能为空")
		}
		sets = append(sets, "name=?")
		args = append(args, name)
	}
	if patch.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *patch.Description)
	}
	sets = append(sets, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, itemID)

	res, err := s.db.ExecContext(ctx, `UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return fmt.Errorf("更新 item 失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, itemID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id=?`, itemID)
	if err != nil {
		return fmt.Errorf("删除 item 失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
