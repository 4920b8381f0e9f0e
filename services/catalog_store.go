package services

import (
	"errors"

	"github.com/LenBanana/DreckFoods/models"

	"gorm.io/gorm"
)

// ErrFoodNotFound signals an unknown food id to callers that need to
// distinguish "no such record" from a storage fault.
var ErrFoodNotFound = errors.New("food not found")

// CatalogStore is the persistence boundary of the catalog subsystem.
// The search orchestrator and the import propagator only ever talk to
// this interface, so both are testable with in-memory fakes.
type CatalogStore interface {
	// FindByNaturalKey looks a food up by URL or EAN. A URL match wins
	// over an EAN match when both would resolve to different rows.
	// Returns (nil, nil) when nothing matches.
	FindByNaturalKey(url, ean string) (*models.FoodItem, error)
	// FindByPredicate returns up to limit foods where every token is a
	// case-insensitive substring of name, brand, EAN or description,
	// plus the raw match count before the limit was applied.
	FindByPredicate(tokens []string, limit int) ([]models.FoodItem, int64, error)
	FoodByID(id uint) (*models.FoodItem, error)
	Upsert(item *models.FoodItem) error
	// SaveBatch persists a mixed set of new and updated foods in a
	// single transaction; it is the import chunk commit boundary.
	SaveBatch(items []*models.FoodItem) error
	AllFoods() ([]models.FoodItem, error)
	Categories() ([]string, error)
	Count() (int64, error)

	ConsumedFoodIDs(userID uint) (map[uint]struct{}, error)
	EntriesByFoodID(foodID uint) ([]models.FoodEntry, error)
	EntriesByUserID(userID uint) ([]models.FoodEntry, error)
	SaveEntry(entry *models.FoodEntry) error
}

type GormCatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db}
}

func (s *GormCatalogStore) FindByNaturalKey(url, ean string) (*models.FoodItem, error) {
	if url != "" {
		var food models.FoodItem
		err := s.db.Preload("Nutrition").Where("url = ?", url).First(&food).Error
		if err == nil {
			return &food, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if ean != "" {
		var food models.FoodItem
		err := s.db.Preload("Nutrition").Where("ean = ?", ean).First(&food).Error
		if err == nil {
			return &food, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *GormCatalogStore) FindByPredicate(tokens []string, limit int) ([]models.FoodItem, int64, error) {
	query := s.db.Model(&models.FoodItem{})
	for _, token := range tokens {
		pattern := "%" + token + "%"
		query = query.Where(
			"name ILIKE ? OR brand ILIKE ? OR ean ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var foods []models.FoodItem
	if err := query.Preload("Nutrition").Limit(limit).Find(&foods).Error; err != nil {
		return nil, 0, err
	}
	return foods, total, nil
}

func (s *GormCatalogStore) FoodByID(id uint) (*models.FoodItem, error) {
	var food models.FoodItem
	err := s.db.Preload("Nutrition").First(&food, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &food, nil
}

func (s *GormCatalogStore) Upsert(item *models.FoodItem) error {
	if item.ID != 0 {
		return s.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(item).Error
	}

	err := s.db.Create(item).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	// A concurrent writer inserted the same natural key first; fold this
	// write into the existing row instead of creating a duplicate.
	existing, lookupErr := s.FindByNaturalKey(item.URL, item.EanValue())
	if lookupErr != nil {
		return lookupErr
	}
	if existing == nil {
		return err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.Nutrition.ID = existing.Nutrition.ID
	item.Nutrition.FoodItemID = existing.ID
	return s.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(item).Error
}

func (s *GormCatalogStore) SaveBatch(items []*models.FoodItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var err error
			if item.ID == 0 {
				err = tx.Create(item).Error
			} else {
				err = tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(item).Error
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormCatalogStore) AllFoods() ([]models.FoodItem, error) {
	var foods []models.FoodItem
	if err := s.db.Preload("Nutrition").Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

func (s *GormCatalogStore) Categories() ([]string, error) {
	var tags []string
	err := s.db.
		Raw("SELECT DISTINCT unnest(tags) AS tag FROM food_items WHERE deleted_at IS NULL ORDER BY tag").
		Scan(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *GormCatalogStore) Count() (int64, error) {
	var count int64
	err := s.db.Model(&models.FoodItem{}).Count(&count).Error
	return count, err
}

func (s *GormCatalogStore) ConsumedFoodIDs(userID uint) (map[uint]struct{}, error) {
	var ids []uint
	err := s.db.Model(&models.FoodEntry{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("food_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	consumed := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		consumed[id] = struct{}{}
	}
	return consumed, nil
}

func (s *GormCatalogStore) EntriesByFoodID(foodID uint) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.Where("food_item_id = ?", foodID).Find(&entries).Error
	return entries, err
}

func (s *GormCatalogStore) EntriesByUserID(userID uint) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.Where("user_id = ?", userID).Order("consumed_at DESC").Find(&entries).Error
	return entries, err
}

func (s *GormCatalogStore) SaveEntry(entry *models.FoodEntry) error {
	return s.db.Save(entry).Error
}
