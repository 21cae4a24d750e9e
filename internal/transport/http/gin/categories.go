package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixcore/internal/service"
)

// @Summary  List categories
// @Tags     categories
// @Success  200  {array}  CategoryResponse
// @Router   /categories [get]
func handleListCategories(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svcs.Categories.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, mapSlice(cats, toCategory), listMaxAge)
	}
}

// @Summary  Get category
// @Tags     categories
// @Param    id  path  int  true  "Category ID"
// @Success  200  {object}  CategoryResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /categories/{id} [get]
func handleGetCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		cat, err := svcs.Categories.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toCategory(*cat))
	}
}

// @Summary  Get category by name
// @Tags     categories
// @Param    name  path  string  true  "Category name"
// @Success  200  {object}  CategoryResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /categories/name/{name} [get]
func handleGetCategoryByName(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := svcs.Categories.GetByName(c.Request.Context(), c.Param("name"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toCategory(*cat))
	}
}

// @Summary  Create category
// @Tags     categories
// @Param    req  body  CategoryRequest  true  "payload"
// @Success  201  {object}  CategoryResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /categories [post]
func handleCreateCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if !bindJSON(c, &req) {
			return
		}
		cat, err := svcs.Categories.Create(c.Request.Context(), req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toCategory(*cat))
	}
}

// @Summary  Rename category
// @Tags     categories
// @Param    id   path  int              true  "Category ID"
// @Param    req  body  CategoryRequest  true  "payload"
// @Success  200  {object}  CategoryResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /categories/{id} [put]
func handleUpdateCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CategoryRequest
		if !bindJSON(c, &req) {
			return
		}
		cat, err := svcs.Categories.Update(c.Request.Context(), id, req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toCategory(*cat))
	}
}

// @Summary  Delete category
// @Tags     categories
// @Param    id  path  int  true  "Category ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "still referenced by events"
// @Router   /categories/{id} [delete]
func handleDeleteCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		respondErr(c, svcs.Categories.Delete(c.Request.Context(), id))
	}
}
