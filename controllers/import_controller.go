package controllers

import (
	"net/http"

	"github.com/LenBanana/DreckFoods/services"

	"github.com/gin-gonic/gin"
)

type ImportController struct {
	importer *services.DataImportService
}

func NewImportController(importer *services.DataImportService) *ImportController {
	return &ImportController{importer: importer}
}

// POST /api/import
func (ctrl *ImportController) Import(c *gin.Context) {
	var records []services.FoodImportRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := ctrl.importer.ImportFoods(c.Request.Context(), records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(records)})
}

// POST /api/import/cleanup
func (ctrl *ImportController) Cleanup(c *gin.Context) {
	count, err := ctrl.importer.Cleanup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleaned": count})
}

// GET /api/import/count
func (ctrl *ImportController) Count(c *gin.Context) {
	count, err := ctrl.importer.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
