package services

import (
	"context"
	"html"
	"net/url"

	"github.com/LenBanana/DreckFoods/models"

	"github.com/sirupsen/logrus"
)

// FoodImportRecord is the raw bulk-import shape: a FoodItem without an
// id. URL or EAN must be present so the record can be deduplicated.
type FoodImportRecord struct {
	Name        string               `json:"name"`
	URL         string               `json:"url"`
	Description string               `json:"description"`
	ImageURL    string               `json:"imageUrl"`
	Brand       string               `json:"brand"`
	Ean         *string              `json:"ean"`
	Tags        []string             `json:"tags"`
	Nutrition   models.NutritionInfo `json:"nutrition"`
}

func (r *FoodImportRecord) toModel() *models.FoodItem {
	return &models.FoodItem{
		Name:        r.Name,
		URL:         r.URL,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Brand:       r.Brand,
		Ean:         r.Ean,
		Tags:        r.Tags,
		Nutrition:   models.FoodNutritionFromInfo(r.Nutrition),
	}
}

func (r *FoodImportRecord) eanValue() string {
	if r.Ean == nil {
		return ""
	}
	return *r.Ean
}

// DataImportService handles batch catalog ingestion and keeps already
// recorded consumption entries consistent with the canonical records.
type DataImportService struct {
	store     CatalogStore
	batchSize int
}

func NewDataImportService(store CatalogStore, batchSize int) *DataImportService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &DataImportService{store: store, batchSize: batchSize}
}

// ImportFoods ingests records in fixed-size chunks. Each record is
// matched against the catalog by natural key: a match overwrites every
// mutable field on the stored row (keeping its id), a miss inserts a new
// row. After a chunk commits, consumption entries of every overwritten
// food are repaired. A bad record or a failed chunk never stops the
// remaining work.
func (s *DataImportService) ImportFoods(ctx context.Context, records []FoodImportRecord) error {
	totalBatches := (len(records) + s.batchSize - 1) / s.batchSize
	logrus.WithFields(logrus.Fields{
		"foods":   len(records),
		"batches": totalBatches,
	}).Info("starting food data import")

	for batch := 0; batch < totalBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := batch * s.batchSize
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}

		items := make([]*models.FoodItem, 0, end-start)
		var changed []uint
		pendingByURL := make(map[string]*models.FoodItem)
		pendingByEan := make(map[string]*models.FoodItem)
		for i := start; i < end; i++ {
			rec := &records[i]
			if rec.URL == "" && rec.eanValue() == "" {
				logrus.WithField("name", rec.Name).Warn("skipping import record without URL or EAN")
				continue
			}

			// Records inside one chunk can share a natural key that the
			// committed store does not know about yet. Such duplicates are
			// folded onto the pending item, latest record wins, so a chunk
			// never carries two rows for one key into SaveBatch.
			if pending := lookupPending(pendingByURL, pendingByEan, rec); pending != nil {
				overwriteFood(pending, rec)
				trackPending(pendingByURL, pendingByEan, pending)
				continue
			}

			existing, err := s.store.FindByNaturalKey(rec.URL, rec.eanValue())
			if err != nil {
				logrus.WithError(err).WithField("url", rec.URL).Error("natural key lookup failed, skipping record")
				continue
			}
			if existing == nil {
				item := rec.toModel()
				items = append(items, item)
				trackPending(pendingByURL, pendingByEan, item)
				continue
			}

			overwriteFood(existing, rec)
			items = append(items, existing)
			changed = append(changed, existing.ID)
			trackPending(pendingByURL, pendingByEan, existing)
		}

		if len(items) == 0 {
			continue
		}
		if err := s.store.SaveBatch(items); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"batch": batch + 1,
				"total": totalBatches,
			}).Error("import batch failed, continuing with next batch")
			continue
		}

		for _, id := range changed {
			if _, err := s.RepairFoodEntries(id); err != nil {
				logrus.WithError(err).WithField("foodID", id).Error("failed to repair consumption entries")
			}
		}

		logrus.WithFields(logrus.Fields{
			"batch": batch + 1,
			"total": totalBatches,
			"foods": len(items),
		}).Info("imported batch")
	}

	logrus.Info("food data import completed")
	return nil
}

// overwriteFood copies every mutable field of the import record onto the
// stored row, preserving the row id and nutrition row id.
func overwriteFood(existing *models.FoodItem, rec *FoodImportRecord) {
	existing.Name = rec.Name
	if rec.URL != "" {
		existing.URL = rec.URL
	}
	existing.Description = rec.Description
	existing.ImageURL = rec.ImageURL
	existing.Brand = rec.Brand
	existing.Ean = rec.Ean
	existing.Tags = rec.Tags

	nutrition := models.FoodNutritionFromInfo(rec.Nutrition)
	nutrition.ID = existing.Nutrition.ID
	nutrition.CreatedAt = existing.Nutrition.CreatedAt
	nutrition.FoodItemID = existing.ID
	existing.Nutrition = nutrition
}

// lookupPending finds an uncommitted item of the current chunk matching
// the record's natural key. A URL match wins over an EAN match,
// mirroring the store lookup.
func lookupPending(byURL, byEan map[string]*models.FoodItem, rec *FoodImportRecord) *models.FoodItem {
	if rec.URL != "" {
		if item, ok := byURL[rec.URL]; ok {
			return item
		}
	}
	if ean := rec.eanValue(); ean != "" {
		if item, ok := byEan[ean]; ok {
			return item
		}
	}
	return nil
}

func trackPending(byURL, byEan map[string]*models.FoodItem, item *models.FoodItem) {
	if item.URL != "" {
		byURL[item.URL] = item
	}
	if ean := item.EanValue(); ean != "" {
		byEan[ean] = item
	}
}

// RepairFoodEntries re-derives the computed nutrition and the cached
// display metadata of every consumption entry referencing foodID from
// the current catalog record. GramsConsumed and ConsumedAt are never
// altered. Returns the number of entries touched; zero entries is fine.
func (s *DataImportService) RepairFoodEntries(foodID uint) (int, error) {
	food, err := s.store.FoodByID(foodID)
	if err != nil {
		return 0, err
	}
	if food == nil {
		return 0, ErrFoodNotFound
	}

	entries, err := s.store.EntriesByFoodID(foodID)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range entries {
		entry := &entries[i]
		entry.RecalculateFrom(food)
		if err := s.store.SaveEntry(entry); err != nil {
			logrus.WithError(err).WithField("entryID", entry.ID).Error("failed to save repaired entry")
			continue
		}
		repaired++
	}

	if repaired > 0 {
		logrus.WithFields(logrus.Fields{"foodID": foodID, "entries": repaired}).Info("repaired consumption entries")
	}
	return repaired, nil
}

// Cleanup normalizes stored text fields: image URLs that are not
// well-formed absolute URIs are blanked, and HTML entities in name,
// description, brand and tags are decoded. Only rows where something
// actually changed are written, so a second run reports zero.
func (s *DataImportService) Cleanup() (int, error) {
	foods, err := s.store.AllFoods()
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for i := range foods {
		food := &foods[i]
		changed := false

		if food.ImageURL != "" && !isAbsoluteURL(food.ImageURL) {
			food.ImageURL = ""
			changed = true
		}
		if decoded := html.UnescapeString(food.Name); decoded != food.Name {
			food.Name = decoded
			changed = true
		}
		if decoded := html.UnescapeString(food.Description); decoded != food.Description {
			food.Description = decoded
			changed = true
		}
		if decoded := html.UnescapeString(food.Brand); decoded != food.Brand {
			food.Brand = decoded
			changed = true
		}
		for j, tag := range food.Tags {
			if decoded := html.UnescapeString(tag); decoded != tag {
				food.Tags[j] = decoded
				changed = true
			}
		}

		if !changed {
			continue
		}
		if err := s.store.Upsert(food); err != nil {
			logrus.WithError(err).WithField("foodID", food.ID).Error("failed to save cleaned food")
			continue
		}
		cleaned++
	}

	if cleaned > 0 {
		logrus.WithField("foods", cleaned).Info("cleaned catalog records")
	}
	return cleaned, nil
}

// Count reports the catalog size.
func (s *DataImportService) Count() (int64, error) {
	return s.store.Count()
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
