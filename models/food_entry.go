package models

import (
	"html"
	"time"

	"gorm.io/gorm"
)

// One consumed portion of a catalog food. The nutrition columns are
// already scaled to GramsConsumed, and the display metadata is a
// snapshot of the FoodItem at computation time. When the catalog record
// changes later, RecalculateFrom brings the entry back in sync.
type FoodEntry struct {
	gorm.Model
	UserID     uint `gorm:"index;not null" json:"userId"`
	FoodItemID uint `gorm:"index;not null" json:"foodItemId"`

	FoodName string `gorm:"not null" json:"foodName"`
	FoodURL  string `json:"foodUrl"`
	Brand    string `json:"brand"`
	ImageURL string `json:"imageUrl"`

	GramsConsumed float64 `gorm:"not null" json:"gramsConsumed"`

	// Scaled to GramsConsumed, not per-100g.
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugar         float64 `json:"sugar"`
	Fiber         float64 `json:"fiber"`
	Caffeine      float64 `json:"caffeine"`
	Salt          float64 `json:"salt"`

	ConsumedAt time.Time `gorm:"index;not null" json:"consumedAt"`
}

// RecalculateFrom rewrites the computed nutrition and the cached display
// metadata from the current catalog record. GramsConsumed and ConsumedAt
// are left untouched.
func (e *FoodEntry) RecalculateFrom(food *FoodItem) {
	factor := e.GramsConsumed / 100.0

	e.FoodName = html.UnescapeString(food.Name)
	e.FoodURL = food.URL
	e.Brand = food.Brand
	e.ImageURL = food.ImageURL

	n := food.Nutrition
	e.Calories = n.CaloriesValue * factor
	e.Protein = n.ProteinValue * factor
	e.Fat = n.FatValue * factor
	e.Carbohydrates = n.CarbohydratesTotalValue * factor
	e.Sugar = n.CarbohydratesSugarValue * factor
	e.Fiber = n.FiberValue * factor
	e.Caffeine = n.CaffeineValue * factor
	e.Salt = n.SaltValue * factor
}
