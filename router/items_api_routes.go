package router

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalogd/internal/authz"
	"catalogd/internal/obs"
	"catalogd/internal/store"
)

type itemCreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CatalogID   int64   `json:"catalog_id"`
}

type itemUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func setItemAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/items", listItemsHandler(opts))
	r.POST("/items", requireSignIn(opts), createItemHandler(opts))
	r.GET("/items/:id", getItemHandler(opts))
	r.PUT("/items/:id", requireSignIn(opts), updateItemHandler(opts))
	r.DELETE("/items/:id", requireSignIn(opts), deleteItemHandler(opts))
}

func itemJSON(it store.ItemWithRefs) gin.H {
	var desc any
	if it.Description != nil {
		desc = *it.Description
	}
	return gin.H{
		"id":          it.ID,
		"name":        it.Name,
		"description": desc,
		"catalog":     it.CatalogName,
		"by":          it.CreatorEmail,
	}
}

func listItemsHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := opts.Store.ListItems(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 item 列表失败"})
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, it := range list {
			out = append(out, itemJSON(it))
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"items": out}})
	}
}

func getItemHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			respondNotFound(c)
			return
		}
		it, err := opts.Store.GetItem(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 item 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"item": itemJSON(it)}})
	}
}

func createItemHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			denyNotSignedIn(c)
			return
		}
		req, err := itemCreateFromRequest(c)
		if err != nil || strings.TrimSpace(req.Name) == "" || req.CatalogID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的参数"})
			return
		}
		id, err := opts.Store.CreateItem(c.Request.Context(), req.Name, req.Description, req.CatalogID, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "创建 item 失败"})
			return
		}
		it, err := opts.Store.GetItem(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 item 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"item": itemJSON(it)}})
	}
}

func updateItemHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			respondNotFound(c)
			return
		}
		userID, okUser := userIDFromContext(c)
		if !okUser {
			denyNotSignedIn(c)
			return
		}
		if !canMutateItem(c, opts, userID, id) {
			return
		}
		patch, err := itemPatchFromRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的参数"})
			return
		}
		if patch.Name == nil && patch.Description == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "没有需要更新的字段"})
			return
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "item 名称不能为空"})
			return
		}
		if err := opts.Store.UpdateItemFields(c.Request.Context(), id, patch); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "更新 item 失败"})
			return
		}
		it, err := opts.Store.GetItem(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 item 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"item": itemJSON(it)}})
	}
}

func deleteItemHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			respondNotFound(c)
			return
		}
		userID, okUser := userIDFromContext(c)
		if !okUser {
			denyNotSignedIn(c)
			return
		}
		if !canMutateItem(c, opts, userID, id) {
			return
		}
		if err := opts.Store.DeleteItem(c.Request.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "删除 item 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "item 已删除"})
	}
}

func canMutateItem(c *gin.Context, opts Options, userID, itemID int64) bool {
	err := authz.CanMutateItem(c.Request.Context(), opts.Store, userID, itemID)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, authz.ErrNotFound):
		respondNotFound(c)
	case errors.Is(err, authz.ErrNotAuthorized):
		obs.CountMutationDenied()
		denyNotAuthorized(c)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "所有权校验失败"})
		c.Abort()
	}
	return false
}

func itemCreateFromRequest(c *gin.Context) (itemCreateRequest, error) {
	if strings.Contains(c.ContentType(), "application/json") {
		var req itemCreateRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			return itemCreateRequest{}, err
		}
		req.Name = strings.TrimSpace(req.Name)
		return req, nil
	}
	catalogID, _ := strconv.ParseInt(strings.TrimSpace(c.PostForm("catalog_id")), 10, 64)
	req := itemCreateRequest{
		Name:      strings.TrimSpace(c.PostForm("name")),
		CatalogID: catalogID,
	}
	if desc, ok := c.GetPostForm("description"); ok {
		req.Description = &desc
	}
	return req, nil
}

func itemPatchFromRequest(c *gin.Context) (store.ItemFieldPatch, error) {
	if strings.Contains(c.ContentType(), "application/json") {
		var req itemUpdateRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			return store.ItemFieldPatch{}, err
		}
		return store.ItemFieldPatch{Name: req.Name, Description: req.Description}, nil
	}
	var patch store.ItemFieldPatch
	if name, ok := c.GetPostForm("name"); ok {
		patch.Name = &name
	}
	if desc, ok := c.GetPostForm("description"); ok {
		patch.Description = &desc
	}
	return patch, nil
}
