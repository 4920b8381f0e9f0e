package services

import (
	"github.com/LenBanana/DreckFoods/models"

	"github.com/sirupsen/logrus"
)

// FoodInfoUpdate is a partial metadata update; nil fields stay unchanged.
type FoodInfoUpdate struct {
	Name        *string  `json:"name"`
	URL         *string  `json:"url"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
	Brand       *string  `json:"brand"`
	Ean         *string  `json:"ean"`
	Tags        []string `json:"tags"`
}

// FoodEditorService applies manual corrections to catalog records. Any
// correction, metadata or nutrition, triggers a repair of the dependent
// consumption entries so their snapshots never go stale.
type FoodEditorService struct {
	store    CatalogStore
	importer *DataImportService
}

func NewFoodEditorService(store CatalogStore, importer *DataImportService) *FoodEditorService {
	return &FoodEditorService{store: store, importer: importer}
}

func (s *FoodEditorService) UpdateFoodInfo(id uint, update FoodInfoUpdate) error {
	food, err := s.store.FoodByID(id)
	if err != nil {
		return err
	}
	if food == nil {
		return ErrFoodNotFound
	}

	if update.Name != nil {
		food.Name = *update.Name
	}
	if update.URL != nil {
		food.URL = *update.URL
	}
	if update.Description != nil {
		food.Description = *update.Description
	}
	if update.ImageURL != nil {
		food.ImageURL = *update.ImageURL
	}
	if update.Brand != nil {
		food.Brand = *update.Brand
	}
	if update.Ean != nil {
		food.Ean = update.Ean
	}
	if update.Tags != nil {
		food.Tags = update.Tags
	}

	if err := s.store.Upsert(food); err != nil {
		return err
	}
	return s.repair(id)
}

func (s *FoodEditorService) UpdateFoodNutrition(id uint, info models.NutritionInfo) error {
	food, err := s.store.FoodByID(id)
	if err != nil {
		return err
	}
	if food == nil {
		return ErrFoodNotFound
	}

	nutrition := models.FoodNutritionFromInfo(info)
	nutrition.ID = food.Nutrition.ID
	nutrition.CreatedAt = food.Nutrition.CreatedAt
	nutrition.FoodItemID = food.ID
	food.Nutrition = nutrition

	if err := s.store.Upsert(food); err != nil {
		return err
	}
	return s.repair(id)
}

func (s *FoodEditorService) repair(id uint) error {
	count, err := s.importer.RepairFoodEntries(id)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"foodID": id, "entries": count}).Info("food updated, entries repaired")
	return nil
}
