package router

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalogd/internal/authz"
	"catalogd/internal/obs"
	"catalogd/internal/store"
)

type catalogRequest struct {
	Name string `json:"name"`
}

func setCatalogAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/catalogs", listCatalogsHandler(opts))
	r.POST("/catalogs", requireSignIn(opts), createCatalogHandler(opts))
	r.GET("/catalogs/:id", getCatalogHandler(opts))
	r.PUT("/catalogs/:id", requireSignIn(opts), updateCatalogHandler(opts))
	r.DELETE("/catalogs/:id", requireSignIn(opts), deleteCatalogHandler(opts))
}

func catalogJSON(c store.CatalogWithOwner) gin.H {
	return gin.H{"id": c.ID, "name": c.Name, "by": c.OwnerEmail}
}

func listCatalogsHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := opts.Store.ListCatalogs(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 catalog 列表失败"})
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, item := range list {
			out = append(out, catalogJSON(item))
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"catalogs": out}})
	}
}

func getCatalogHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			respondNotFound(c)
			return
		}
		cat, err := opts.Store.GetCatalog(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 catalog 失败"})
			return
		}
		items, err := opts.Store.ListItemsByCatalog(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 item 列表失败"})
			return
		}
		itemsOut := make([]gin.H, 0, len(items))
		for _, it := range items {
			itemsOut = append(itemsOut, itemJSON(it))
		}
		data := catalogJSON(cat)
		data["items"] = itemsOut
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"catalog": data}})
	}
}

func createCatalogHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			denyNotSignedIn(c)
			return
		}
		name := catalogNameFromRequest(c)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "catalog 名称不能为空"})
			return
		}
		id, err := opts.Store.CreateCatalog(c.Request.Context(), name, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "创建 catalog 失败"})
			return
		}
		cat, err := opts.Store.GetCatalog(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 catalog 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"catalog": catalogJSON(cat)}})
	}
}

func updateCatalogHandler(opts Options) gin.HandlerFunc {
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
		if !canMutateCatalog(c, opts, userID, id) {
			return
		}
		name := catalogNameFromRequest(c)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "catalog 名称不能为空"})
			return
		}
		if err := opts.Store.UpdateCatalogName(c.Request.Context(), id, name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "更新 catalog 失败"})
			return
		}
		cat, err := opts.Store.GetCatalog(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询 catalog 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": gin.H{"catalog": catalogJSON(cat)}})
	}
}

func deleteCatalogHandler(opts Options) gin.HandlerFunc {
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
		if !canMutateCatalog(c, opts, userID, id) {
			return
		}
		if err := opts.Store.DeleteCatalog(c.Request.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondNotFound(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "删除 catalog 失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "catalog 已删除"})
	}
}

// canMutateCatalog 执行所有权判定并在失败时写好响应；调用方只需在 false 时返回。
func canMutateCatalog(c *gin.Context, opts Options, userID, catalogID int64) bool {
	err := authz.CanMutateCatalog(c.Request.Context(), opts.Store, userID, catalogID)
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

func catalogNameFromRequest(c *gin.Context) string {
	if strings.Contains(c.ContentType(), "application/json") {
		var req catalogRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			return ""
		}
		return strings.TrimSpace(req.Name)
	}
	return strings.TrimSpace(c.PostForm("name"))
}
