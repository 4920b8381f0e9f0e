package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// A canonical catalog record scraped from fddb.info or imported in bulk.
// URL and EAN are the natural keys: at most one row per non-empty value
// of either field.
type FoodItem struct {
	gorm.Model
	Name        string         `gorm:"type:varchar(500);not null" json:"name"`
	URL         string         `gorm:"type:varchar(1000);uniqueIndex" json:"url"`
	Description string         `gorm:"type:varchar(2000)" json:"description"`
	ImageURL    string         `gorm:"type:varchar(1000)" json:"imageUrl"`
	Brand       string         `gorm:"type:varchar(200)" json:"brand"`
	Ean         *string        `gorm:"type:varchar(50);uniqueIndex" json:"ean"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`

	Nutrition FoodNutrition `gorm:"foreignKey:FoodItemID;constraint:OnDelete:CASCADE" json:"nutrition"`
}

// EanValue returns the EAN or "" when the item has none.
func (f *FoodItem) EanValue() string {
	if f.Ean == nil {
		return ""
	}
	return *f.Ean
}

// Per-100-gram nutrition facts, one row per FoodItem. Stored flat so the
// columns stay sortable in SQL; the nested NutritionInfo shape is the
// JSON view.
type FoodNutrition struct {
	gorm.Model
	FoodItemID uint `gorm:"uniqueIndex"`

	KilojoulesValue float64
	KilojoulesUnit  string
	CaloriesValue   float64
	CaloriesUnit    string
	ProteinValue    float64
	ProteinUnit     string
	FatValue        float64
	FatUnit         string

	CarbohydratesTotalValue   float64
	CarbohydratesTotalUnit    string
	CarbohydratesSugarValue   float64
	CarbohydratesSugarUnit    string
	CarbohydratesPolyolsValue float64
	CarbohydratesPolyolsUnit  string

	FiberValue    float64
	FiberUnit     string
	CaffeineValue float64
	CaffeineUnit  string

	SaltValue       float64
	SaltUnit        string
	IronValue       float64
	IronUnit        string
	ZincValue       float64
	ZincUnit        string
	MagnesiumValue  float64
	MagnesiumUnit   string
	ChlorideValue   float64
	ChlorideUnit    string
	ManganeseValue  float64
	ManganeseUnit   string
	SulfurValue     float64
	SulfurUnit      string
	PotassiumValue  float64
	PotassiumUnit   string
	CalciumValue    float64
	CalciumUnit     string
	PhosphorusValue float64
	PhosphorusUnit  string
	CopperValue     float64
	CopperUnit      string
	FluorideValue   float64
	FluorideUnit    string
	IodineValue     float64
	IodineUnit      string
}
