package routes

import (
	"github.com/LenBanana/DreckFoods/config"
	"github.com/LenBanana/DreckFoods/controllers"
	"github.com/LenBanana/DreckFoods/middlewares"
	"github.com/LenBanana/DreckFoods/services"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	store := services.NewCatalogStore(config.DB)
	scraper := services.NewFddbScraperService(config.App)
	searchSvc := services.NewFoodSearchService(store, scraper, config.App.SearchRefreshToken, config.App.MaxSearchResults)
	importSvc := services.NewDataImportService(store, config.App.ImportBatchSize)
	editorSvc := services.NewFoodEditorService(store, importSvc)

	foodCtrl := controllers.NewFoodController(searchSvc, editorSvc, importSvc)
	importCtrl := controllers.NewImportController(importSvc)

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	food := api.Group("/food")
	{
		food.GET("/search", foodCtrl.Search)
		food.GET("/categories", foodCtrl.Categories)
		food.GET("/eaten", foodCtrl.PastEaten)
		food.GET("/:id", foodCtrl.GetFood)
		food.PUT("/:id", foodCtrl.UpdateFoodInfo)
		food.PUT("/:id/nutrition", foodCtrl.UpdateFoodNutrition)
		food.POST("/:id/repair", foodCtrl.Repair)
	}

	imp := api.Group("/import")
	{
		imp.POST("", importCtrl.Import)
		imp.POST("/cleanup", importCtrl.Cleanup)
		imp.GET("/count", importCtrl.Count)
	}

	if config.App.DevRoutes {
		r.POST("/dev/token", controllers.MintDevToken)
	}

	return r
}
