// Package store 定义数据库层的核心数据结构，避免在 handler 中散落 SQL 字段细节。
package store

import (
	"time"
)

type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Catalog struct {
	ID        int64
	Name      string
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogWithOwner 是只读序列化视图：附带所有者邮箱。
type CatalogWithOwner struct {
	Catalog
	OwnerEmail string
}

type Item struct {
	ID          int64
	Name        string
	Description *string
	CatalogID   int64
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemWithRefs 是只读序列化视图：附带所属 catalog 名称与创建者邮箱。
type ItemWithRefs struct {
	Item
	CatalogName  string
	CreatorEmail string
}
