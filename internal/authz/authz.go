// Package authz 实现行级所有权判定：仅创建者可以改写自己的 catalog/item。
// 判定是纯谓词，不做任何写入；必须在 CSRF 校验与登录校验之后调用。
package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示目标行不存在；与 ErrNotAuthorized 区分，调用方按 404 处理。
	ErrNotFound = errors.New("记录不存在")
	// ErrNotAuthorized 表示已登录但不是行所有者。
	ErrNotAuthorized = errors.New("NOT_AUTHORIZED")
)

// Gateway 是判定所需的最小持久层视图。
type Gateway interface {
	CatalogOwner(ctx context.Context, catalogID int64) (int64, error)
	ItemCreator(ctx context.Context, itemID int64) (int64, error)
}

// CanMutateCatalog 在 catalog 不存在或所有者不等于 userID 时拒绝（fail closed）。
func CanMutateCatalog(ctx context.Context, g Gateway, userID int64, catalogID int64) error {
	if userID <= 0 {
		return ErrNotAuthorized
	}
	ownerID, err := g.CatalogOwner(ctx, catalogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("查询 catalog 所有者失败: %w", err)
	}
	if ownerID != userID {
		return ErrNotAuthorized
	}
	return nil
}

// CanMutateItem 与 CanMutateCatalog 对称，按 item 的创建者判定。
func CanMutateItem(ctx context.Context, g Gateway, userID int64, itemID int64) error {
	if userID <= 0 {
		return ErrNotAuthorized
	}
	creatorID, err := g.ItemCreator(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("查询 item 创建者失败: %w", err)
	}
	if creatorID != userID {
		return ErrNotAuthorized
	}
	return nil
}
