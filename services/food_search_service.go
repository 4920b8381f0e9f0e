package services

import (
	"context"
	"html"
	"sort"
	"strings"

	"github.com/LenBanana/DreckFoods/models"

	"github.com/sirupsen/logrus"
)

type SortField string

const (
	SortByName     SortField = "name"
	SortByBrand    SortField = "brand"
	SortByCalories SortField = "calories"
	SortByProtein  SortField = "protein"
	SortByCarbs    SortField = "carbs"
	SortByFat      SortField = "fat"
)

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ParseSortField maps a query parameter to a sort field; anything
// unknown falls back to name.
func ParseSortField(s string) SortField {
	switch SortField(strings.ToLower(s)) {
	case SortByBrand, SortByCalories, SortByProtein, SortByCarbs, SortByFat:
		return SortField(strings.ToLower(s))
	default:
		return SortByName
	}
}

func ParseSortDirection(s string) SortDirection {
	if SortDirection(strings.ToLower(s)) == SortDescending {
		return SortDescending
	}
	return SortAscending
}

type FoodSearchRequest struct {
	Query        string
	UserID       uint // 0 = anonymous, no eaten-first ranking
	Page         int
	PageSize     int
	SortBy       SortField
	SortDir      SortDirection
	ForceRefresh bool
}

type FoodSearchItem struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	URL         string               `json:"url"`
	Description string               `json:"description"`
	ImageURL    string               `json:"imageUrl"`
	Brand       string               `json:"brand"`
	Ean         string               `json:"ean"`
	Tags        []string             `json:"tags"`
	Nutrition   models.NutritionInfo `json:"nutrition"`
	Eaten       bool                 `json:"previouslyEaten"`
}

type FoodSearchResponse struct {
	Foods      []FoodSearchItem `json:"foods"`
	TotalCount int              `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	Truncated  bool             `json:"wasTruncated"`
}

// FoodSearchService is the cache-aside search controller: local catalog
// first, scrape of the external source on a first-page miss or forced
// refresh, newly discovered items persisted for future lookups. Every
// branch degrades instead of failing, so Search always returns a result.
type FoodSearchService struct {
	store        CatalogStore
	scraper      FoodScraper
	refreshToken string
	maxResults   int
}

func NewFoodSearchService(store CatalogStore, scraper FoodScraper, refreshToken string, maxResults int) *FoodSearchService {
	if refreshToken == "" {
		refreshToken = "!refresh"
	}
	if maxResults <= 0 {
		maxResults = 10000
	}
	return &FoodSearchService{
		store:        store,
		scraper:      scraper,
		refreshToken: refreshToken,
		maxResults:   maxResults,
	}
}

func (s *FoodSearchService) Search(ctx context.Context, req FoodSearchRequest) *FoodSearchResponse {
	query := strings.TrimSpace(req.Query)
	if strings.HasSuffix(query, s.refreshToken) {
		req.ForceRefresh = true
		query = strings.TrimSpace(strings.TrimSuffix(query, s.refreshToken))
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	local, total, err := s.store.FindByPredicate(strings.Fields(query), s.maxResults)
	if err != nil {
		logrus.WithError(err).WithField("query", query).Error("local food search failed")
		local, total = nil, 0
	}
	truncated := total > int64(s.maxResults)
	if truncated {
		logrus.WithFields(logrus.Fields{
			"query":   query,
			"matches": total,
			"cap":     s.maxResults,
		}).Warn("search result set truncated")
	}

	// Refresh is only ever attempted on the first page; any other page,
	// or a non-empty local result without a forced refresh, is served
	// straight from the catalog.
	scrape := req.Page == 1 && (len(local) == 0 || req.ForceRefresh)
	if !scrape {
		return s.buildResponse(local, len(local), truncated, req)
	}

	scraped := s.scraper.FindByName(ctx, query)
	if len(scraped) == 0 {
		return s.buildResponse(local, len(local), truncated, req)
	}

	persisted := s.persistScraped(scraped)
	merged := local
	seen := make(map[uint]struct{}, len(local))
	for _, f := range local {
		seen[f.ID] = struct{}{}
	}
	for _, f := range persisted {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
	}

	return s.buildResponse(merged, len(merged), truncated, req)
}

// persistScraped writes unseen candidates to the catalog, deduplicating
// by natural key. Candidates that already exist resolve to the stored
// copy; overwriting stored fields is the importer's job, not ours.
func (s *FoodSearchService) persistScraped(scraped []models.FoodItem) []models.FoodItem {
	persisted := make([]models.FoodItem, 0, len(scraped))
	saved := 0
	for _, candidate := range scraped {
		existing, err := s.store.FindByNaturalKey(candidate.URL, candidate.EanValue())
		if err != nil {
			logrus.WithError(err).WithField("url", candidate.URL).Error("natural key lookup failed")
			continue
		}
		if existing != nil {
			persisted = append(persisted, *existing)
			continue
		}
		item := candidate
		if err := s.store.Upsert(&item); err != nil {
			logrus.WithError(err).WithField("url", item.URL).Error("failed to persist scraped food")
			continue
		}
		persisted = append(persisted, item)
		saved++
	}
	if saved > 0 {
		logrus.WithField("count", saved).Info("saved new scraped foods to catalog")
	}
	return persisted
}

func (s *FoodSearchService) buildResponse(foods []models.FoodItem, totalCount int, truncated bool, req FoodSearchRequest) *FoodSearchResponse {
	items := make([]FoodSearchItem, 0, len(foods))
	for i := range foods {
		items = append(items, toSearchItem(&foods[i]))
	}
	sortSearchItems(items, req.SortBy, req.SortDir)

	if req.UserID != 0 {
		items = s.rankEatenFirst(items, req.UserID, req.SortBy, req.SortDir)
	}

	paged := paginate(items, req.Page, req.PageSize)
	return &FoodSearchResponse{
		Foods:      paged,
		TotalCount: totalCount,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages(totalCount, req.PageSize),
		Truncated:  truncated,
	}
}

// rankEatenFirst partitions the sorted set into previously consumed and
// new items, keeping the sort order inside each partition, and puts the
// consumed partition first. This runs before pagination, so a page
// boundary may split a partition.
func (s *FoodSearchService) rankEatenFirst(items []FoodSearchItem, userID uint, sortBy SortField, dir SortDirection) []FoodSearchItem {
	consumed, err := s.store.ConsumedFoodIDs(userID)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("failed to load consumption history")
		return items
	}
	if len(consumed) == 0 {
		return items
	}

	eaten := make([]FoodSearchItem, 0, len(items))
	rest := make([]FoodSearchItem, 0, len(items))
	for _, item := range items {
		if _, ok := consumed[item.ID]; ok {
			item.Eaten = true
			eaten = append(eaten, item)
		} else {
			rest = append(rest, item)
		}
	}
	sortSearchItems(eaten, sortBy, dir)
	sortSearchItems(rest, sortBy, dir)
	return append(eaten, rest...)
}

// FoodByID returns a single catalog record or ErrFoodNotFound.
func (s *FoodSearchService) FoodByID(id uint) (*FoodSearchItem, error) {
	food, err := s.store.FoodByID(id)
	if err != nil {
		return nil, err
	}
	if food == nil {
		return nil, ErrFoodNotFound
	}
	item := toSearchItem(food)
	return &item, nil
}

// Categories lists every distinct tag across the catalog.
func (s *FoodSearchService) Categories() ([]string, error) {
	return s.store.Categories()
}

// PastEatenFoods pages through the distinct foods a user has consumed,
// most recently consumed first.
func (s *FoodSearchService) PastEatenFoods(userID uint, page, pageSize int) (*FoodSearchResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	entries, err := s.store.EntriesByUserID(userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(entries))
	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.FoodItemID]; ok {
			continue
		}
		seen[entry.FoodItemID] = struct{}{}
		ids = append(ids, entry.FoodItemID)
	}

	total := len(ids)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]FoodSearchItem, 0, end-start)
	for _, id := range ids[start:end] {
		food, err := s.store.FoodByID(id)
		if err != nil || food == nil {
			continue
		}
		item := toSearchItem(food)
		item.Eaten = true
		items = append(items, item)
	}

	return &FoodSearchResponse{
		Foods:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func toSearchItem(food *models.FoodItem) FoodSearchItem {
	return FoodSearchItem{
		ID:          food.ID,
		Name:        html.UnescapeString(food.Name),
		URL:         food.URL,
		Description: html.UnescapeString(food.Description),
		ImageURL:    food.ImageURL,
		Brand:       food.Brand,
		Ean:         food.EanValue(),
		Tags:        food.Tags,
		Nutrition:   food.Nutrition.Info(),
	}
}

func sortSearchItems(items []FoodSearchItem, field SortField, dir SortDirection) {
	less := func(a, b *FoodSearchItem) bool {
		switch field {
		case SortByBrand:
			return strings.ToLower(a.Brand) < strings.ToLower(b.Brand)
		case SortByCalories:
			return a.Nutrition.Calories.Value < b.Nutrition.Calories.Value
		case SortByProtein:
			return a.Nutrition.Protein.Value < b.Nutrition.Protein.Value
		case SortByCarbs:
			return a.Nutrition.Carbohydrates.Total.Value < b.Nutrition.Carbohydrates.Total.Value
		case SortByFat:
			return a.Nutrition.Fat.Value < b.Nutrition.Fat.Value
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if dir == SortDescending {
			return less(&items[j], &items[i])
		}
		return less(&items[i], &items[j])
	})
}

func paginate(items []FoodSearchItem, page, pageSize int) []FoodSearchItem {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []FoodSearchItem{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
