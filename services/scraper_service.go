package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/LenBanana/DreckFoods/config"
	"github.com/LenBanana/DreckFoods/models"

	"github.com/sirupsen/logrus"
)

const foodPathPrefix = "/db/de/lebensmittel/"

// Response bodies larger than this are cut off; fddb pages are well below it.
const maxPageBytes = 5 * 1024 * 1024

// FoodScraper discovers candidate catalog records for a free-text name.
// Implementations absorb all failures: the result may be empty or
// partial, but the call never fails.
type FoodScraper interface {
	FindByName(ctx context.Context, name string) []models.FoodItem
}

type FddbScraperService struct {
	baseURL    string
	userAgent  string
	client     *http.Client
	workers    int
	maxRetries int
	backoff    time.Duration
}

func NewFddbScraperService(cfg *config.Config) *FddbScraperService {
	return &FddbScraperService{
		baseURL:    strings.TrimRight(cfg.ScraperBaseURL, "/"),
		userAgent:  cfg.ScraperUserAgent,
		client:     &http.Client{Timeout: time.Duration(cfg.ScraperTimeoutSeconds) * time.Second},
		workers:    cfg.ScraperWorkers,
		maxRetries: cfg.ScraperRetries,
		backoff:    time.Second,
	}
}

// FindByName runs a source search for name and fetches every discovered
// detail page. Items that fail to fetch or parse are skipped; the order
// of the returned list follows link discovery order only loosely, since
// detail pages are fetched concurrently.
func (s *FddbScraperService) FindByName(ctx context.Context, name string) []models.FoodItem {
	logrus.WithField("query", name).Info("searching food source")

	searchURL := fmt.Sprintf("%s/db/de/suche/?search=%s", s.baseURL, url.QueryEscape(name))
	body, finalURL, status, err := s.get(ctx, searchURL)
	if err != nil {
		logrus.WithError(err).WithField("query", name).Warn("source search request failed")
		return nil
	}
	if status != http.StatusOK {
		logrus.WithFields(logrus.Fields{"query": name, "status": status}).Warn("source search returned non-OK status")
		return nil
	}

	// The source redirects straight to the item page when the search text
	// matches a single product.
	if strings.HasPrefix(finalURL.Path, foodPathPrefix) {
		item, err := parseFoodPage(body, finalURL.String())
		if err != nil {
			logrus.WithError(err).WithField("url", finalURL.String()).Warn("failed to parse redirected food page")
			return nil
		}
		return []models.FoodItem{*item}
	}

	links := extractFoodLinks(body)
	if len(links) == 0 {
		logrus.WithField("query", name).Info("no food items found on source")
		return nil
	}

	items := s.fetchAll(ctx, links)
	logrus.WithFields(logrus.Fields{"query": name, "count": len(items)}).Info("scraped food items")
	return items
}

// fetchAll fetches every detail link through a bounded worker pool.
// Collection is order-independent; cancellation stops handing out new
// links but keeps what was already collected.
func (s *FddbScraperService) fetchAll(ctx context.Context, links []string) []models.FoodItem {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(links) {
		workers = len(links)
	}

	jobs := make(chan string)
	items := make([]models.FoodItem, 0, len(links))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range jobs {
				item := s.fetchFoodPage(ctx, link)
				if item == nil {
					continue
				}
				mu.Lock()
				items = append(items, *item)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, link := range links {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- link:
		}
	}
	close(jobs)
	wg.Wait()

	return items
}

func (s *FddbScraperService) fetchFoodPage(ctx context.Context, link string) *models.FoodItem {
	pageURL := s.baseURL + link
	body, err := s.fetchWithRetry(ctx, pageURL)
	if err != nil {
		logrus.WithError(err).WithField("url", pageURL).Warn("abandoning food page")
		return nil
	}
	item, err := parseFoodPage(body, pageURL)
	if err != nil {
		logrus.WithError(err).WithField("url", pageURL).Warn("failed to parse food page")
		return nil
	}
	logrus.WithFields(logrus.Fields{"name": item.Name, "url": item.URL}).Debug("found food item")
	return item
}

// fetchWithRetry fetches url, retrying transient failures (timeouts,
// resets, 5xx) with 2^attempt seconds of backoff up to the retry
// ceiling. Terminal failures (4xx, transport errors that retrying
// cannot fix) abandon the fetch immediately.
func (s *FddbScraperService) fetchWithRetry(ctx context.Context, pageURL string) ([]byte, error) {
	attempt := 0
	for {
		body, _, status, err := s.get(ctx, pageURL)
		if err == nil && status == http.StatusOK {
			return body, nil
		}

		transient := false
		if err != nil {
			transient = isTransientFetchErr(err)
		} else {
			transient = isTransientStatus(status)
		}

		if !transient || attempt >= s.maxRetries || ctx.Err() != nil {
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("unexpected status %d fetching %s", status, pageURL)
		}

		attempt++
		delay := time.Duration(1<<uint(attempt)) * s.backoff
		logrus.WithFields(logrus.Fields{
			"url":     pageURL,
			"attempt": attempt,
			"max":     s.maxRetries,
			"delay":   delay,
		}).Warn("transient fetch failure, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// get issues a single GET and returns the body, the final resolved URL
// (after redirects) and the status code.
func (s *FddbScraperService) get(ctx context.Context, rawURL string) ([]byte, *url.URL, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, nil, 0, err
	}
	return body, resp.Request.URL, resp.StatusCode, nil
}

// isTransientFetchErr classifies transport errors. Timeouts, resets and
// broken pipes are worth retrying; everything else is terminal.
func isTransientFetchErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func isTransientStatus(status int) bool {
	return status >= 500
}
