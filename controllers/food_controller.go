package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/LenBanana/DreckFoods/models"
	"github.com/LenBanana/DreckFoods/services"

	"github.com/gin-gonic/gin"
)

type FoodController struct {
	search   *services.FoodSearchService
	editor   *services.FoodEditorService
	importer *services.DataImportService
}

func NewFoodController(
	search *services.FoodSearchService,
	editor *services.FoodEditorService,
	importer *services.DataImportService,
) *FoodController {
	return &FoodController{search: search, editor: editor, importer: importer}
}

// GET /api/food/search?q=apple&page=1&page_size=20&sort_by=name&sort_dir=asc&refresh=false
func (ctrl *FoodController) Search(c *gin.Context) {
	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := intQuery(c, "page_size", 20)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}

	req := services.FoodSearchRequest{
		Query:        c.Query("q"),
		UserID:       userIDFromContext(c),
		Page:         page,
		PageSize:     pageSize,
		SortBy:       services.ParseSortField(c.Query("sort_by")),
		SortDir:      services.ParseSortDirection(c.Query("sort_dir")),
		ForceRefresh: c.Query("refresh") == "true",
	}

	c.JSON(http.StatusOK, ctrl.search.Search(c.Request.Context(), req))
}

// GET /api/food/:id
func (ctrl *FoodController) GetFood(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	food, err := ctrl.search.FoodByID(id)
	if err != nil {
		if errors.Is(err, services.ErrFoodNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "food not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, food)
}

// GET /api/food/categories
func (ctrl *FoodController) Categories(c *gin.Context) {
	categories, err := ctrl.search.Categories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GET /api/food/eaten?page=1&page_size=20
func (ctrl *FoodController) PastEaten(c *gin.Context) {
	userID := userIDFromContext(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	resp, err := ctrl.search.PastEatenFoods(userID, intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PUT /api/food/:id
func (ctrl *FoodController) UpdateFoodInfo(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var update services.FoodInfoUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := ctrl.editor.UpdateFoodInfo(id, update); err != nil {
		respondEditorError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/food/:id/nutrition
func (ctrl *FoodController) UpdateFoodNutrition(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var info models.NutritionInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := ctrl.editor.UpdateFoodNutrition(id, info); err != nil {
		respondEditorError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/food/:id/repair
func (ctrl *FoodController) Repair(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	count, err := ctrl.importer.RepairFoodEntries(id)
	if err != nil {
		respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": count})
}

func respondEditorError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrFoodNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "food not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}

func userIDFromContext(c *gin.Context) uint {
	v, ok := c.Get("userID")
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}
