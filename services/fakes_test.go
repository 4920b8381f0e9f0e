package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/LenBanana/DreckFoods/models"

	"gorm.io/gorm"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func day(n int) time.Time {
	return time.Date(2025, 1, n, 12, 0, 0, 0, time.UTC)
}

// fakeStore is an in-memory CatalogStore with the same natural-key and
// predicate semantics as the GORM implementation.
type fakeStore struct {
	foods   []models.FoodItem
	entries []models.FoodEntry
	nextID  uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) addFood(food models.FoodItem) uint {
	if food.ID == 0 {
		food.ID = s.nextID
	}
	if food.ID >= s.nextID {
		s.nextID = food.ID + 1
	}
	food.Nutrition.FoodItemID = food.ID
	s.foods = append(s.foods, food)
	return food.ID
}

func (s *fakeStore) addEntry(entry models.FoodEntry) {
	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, entry)
}

func (s *fakeStore) foodByURL(url string) *models.FoodItem {
	for i := range s.foods {
		if s.foods[i].URL == url {
			return &s.foods[i]
		}
	}
	return nil
}

func (s *fakeStore) FindByNaturalKey(url, ean string) (*models.FoodItem, error) {
	if url != "" {
		for i := range s.foods {
			if s.foods[i].URL == url {
				food := s.foods[i]
				return &food, nil
			}
		}
	}
	if ean != "" {
		for i := range s.foods {
			if s.foods[i].EanValue() == ean {
				food := s.foods[i]
				return &food, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByPredicate(tokens []string, limit int) ([]models.FoodItem, int64, error) {
	var matches []models.FoodItem
	for _, food := range s.foods {
		if matchesTokens(&food, tokens) {
			matches = append(matches, food)
		}
	}
	total := int64(len(matches))
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func matchesTokens(food *models.FoodItem, tokens []string) bool {
	fields := []string{
		strings.ToLower(food.Name),
		strings.ToLower(food.Brand),
		strings.ToLower(food.EanValue()),
		strings.ToLower(food.Description),
	}
	for _, token := range tokens {
		token = strings.ToLower(token)
		found := false
		for _, field := range fields {
			if strings.Contains(field, token) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *fakeStore) FoodByID(id uint) (*models.FoodItem, error) {
	for i := range s.foods {
		if s.foods[i].ID == id {
			food := s.foods[i]
			return &food, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Upsert(item *models.FoodItem) error {
	if item.ID == 0 {
		item.ID = s.nextID
		s.nextID++
		item.Nutrition.FoodItemID = item.ID
		s.foods = append(s.foods, *item)
		return nil
	}
	for i := range s.foods {
		if s.foods[i].ID == item.ID {
			s.foods[i] = *item
			return nil
		}
	}
	s.foods = append(s.foods, *item)
	return nil
}

func (s *fakeStore) SaveBatch(items []*models.FoodItem) error {
	for _, item := range items {
		if err := s.Upsert(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) AllFoods() ([]models.FoodItem, error) {
	foods := make([]models.FoodItem, len(s.foods))
	copy(foods, s.foods)
	return foods, nil
}

func (s *fakeStore) Categories() ([]string, error) {
	seen := make(map[string]struct{})
	var tags []string
	for _, food := range s.foods {
		for _, tag := range food.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *fakeStore) Count() (int64, error) {
	return int64(len(s.foods)), nil
}

func (s *fakeStore) ConsumedFoodIDs(userID uint) (map[uint]struct{}, error) {
	consumed := make(map[uint]struct{})
	for _, entry := range s.entries {
		if entry.UserID == userID {
			consumed[entry.FoodItemID] = struct{}{}
		}
	}
	return consumed, nil
}

func (s *fakeStore) EntriesByFoodID(foodID uint) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	for _, entry := range s.entries {
		if entry.FoodItemID == foodID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *fakeStore) EntriesByUserID(userID uint) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	for _, entry := range s.entries {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ConsumedAt.After(entries[j].ConsumedAt)
	})
	return entries, nil
}

func (s *fakeStore) SaveEntry(entry *models.FoodEntry) error {
	for i := range s.entries {
		if s.entries[i].ID == entry.ID {
			s.entries[i] = *entry
			return nil
		}
	}
	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

// fakeScraper returns a canned result and records how it was called.
type fakeScraper struct {
	items   []models.FoodItem
	calls   int
	queries []string
}

func (s *fakeScraper) FindByName(ctx context.Context, name string) []models.FoodItem {
	s.calls++
	s.queries = append(s.queries, name)
	items := make([]models.FoodItem, len(s.items))
	copy(items, s.items)
	return items
}
