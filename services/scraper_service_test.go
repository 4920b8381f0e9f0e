package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const detailPage = `<html><body>
<h1 id="fddb-headline1">Haferflocken kernig</h1>
<p class="lidesc2012">Zarte Vollkornflocken aus Hafer</p>
<img class="imagesimpleborder" src="https://img.fddb.info/haferflocken.jpg">
<p><span>Hersteller:</span> <a href="/producer/koelln">K&ouml;lln</a></p>
<p>EAN: 4000540000108</p>
<h2 id="fddb-headline2"><a href="/tag/getreide">Getreide</a> <a href="/tag/fruehstueck">Fr&uuml;hst&uuml;ck</a></h2>
<div><div><a href="#">Brennwert</a></div><div>1567 kJ</div></div>
<div><div><a href="#">Kalorien</a></div><div>372 kcal</div></div>
<div><div><span>Protein</span></div><div>13,5 g</div></div>
<div><div><span>Fett</span></div><div>7 g</div></div>
<div><div><a href="#">Kohlenhydrate</a></div><div>58,7 g</div></div>
<div><div><a href="#">davon Zucker</a></div><div>0,7 g</div></div>
<div><div><a href="#">Polyole</a></div><div>k.A.</div></div>
<div><div><a href="#">Ballaststoffe</a></div><div>10 g</div></div>
<div><div><a href="#">Salz</a></div><div>0,02 g</div></div>
<div><div><a href="#">Eisen</a></div><div>4,2 mg</div></div>
</body></html>`

const listingPage = `<html><body>
<div onclick="window.location.href='/db/de/lebensmittel/hafer_a/index.html'">A</div>
<div onclick="window.location.href='/db/de/lebensmittel/hafer_b/index.html'">B</div>
<div onclick="window.location.href='/db/de/lebensmittel/hafer_a/index.html'">A again</div>
</body></html>`

func newTestScraper(srv *httptest.Server, retries int) *FddbScraperService {
	return &FddbScraperService{
		baseURL:    srv.URL,
		userAgent:  "fooddb-test",
		client:     srv.Client(),
		workers:    2,
		maxRetries: retries,
		backoff:    time.Millisecond,
	}
}

func TestFetchRetryCeilingOnServerError(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestScraper(srv, 3)
	if _, err := s.fetchWithRetry(context.Background(), srv.URL+"/item"); err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if got := atomic.LoadInt32(&attempts); got != 4 {
		t.Errorf("expected 4 attempts (1 initial + 3 retries), got %d", got)
	}
}

func TestFetchTerminalStatusNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestScraper(srv, 3)
	if _, err := s.fetchWithRetry(context.Background(), srv.URL+"/item"); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("expected exactly 1 attempt for 404, got %d", got)
	}
}

func TestFetchRecoversAfterTransientError(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	s := newTestScraper(srv, 3)
	body, err := s.fetchWithRetry(context.Background(), srv.URL+"/item")
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestFindByNameParsesListing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/db/de/suche/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/db/de/lebensmittel/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(srv, 3)
	items := s.FindByName(context.Background(), "haferflocken")

	// Duplicate links are collapsed during discovery.
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	item := items[0]
	if item.Name != "Haferflocken kernig" {
		t.Errorf("name = %q", item.Name)
	}
	if item.Brand != "Kölln" {
		t.Errorf("brand = %q", item.Brand)
	}
	if item.EanValue() != "4000540000108" {
		t.Errorf("ean = %q", item.EanValue())
	}
	if len(item.Tags) != 2 || item.Tags[0] != "Getreide" {
		t.Errorf("tags = %v", item.Tags)
	}

	n := item.Nutrition
	if n.CaloriesValue != 372 || n.CaloriesUnit != "kcal" {
		t.Errorf("calories = %v %q", n.CaloriesValue, n.CaloriesUnit)
	}
	if n.ProteinValue != 13.5 {
		t.Errorf("comma decimal not normalized: protein = %v", n.ProteinValue)
	}
	if n.CarbohydratesPolyolsValue != 0 || n.CarbohydratesPolyolsUnit != "" {
		t.Errorf("k.A. should map to zero value, got %v %q",
			n.CarbohydratesPolyolsValue, n.CarbohydratesPolyolsUnit)
	}
	if n.IronValue != 4.2 || n.IronUnit != "mg" {
		t.Errorf("iron = %v %q", n.IronValue, n.IronUnit)
	}
}

func TestFindByNameFollowsDirectRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/db/de/suche/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/db/de/lebensmittel/hafer_a/index.html", http.StatusFound)
	})
	mux.HandleFunc("/db/de/lebensmittel/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(srv, 3)
	items := s.FindByName(context.Background(), "haferflocken kernig")

	if len(items) != 1 {
		t.Fatalf("expected single item from redirect, got %d", len(items))
	}
	if items[0].URL != srv.URL+"/db/de/lebensmittel/hafer_a/index.html" {
		t.Errorf("item url = %q", items[0].URL)
	}
}

func TestFindByNameEmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Keine Ergebnisse</body></html>"))
	}))
	defer srv.Close()

	s := newTestScraper(srv, 3)
	if items := s.FindByName(context.Background(), "nichts"); len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestFindByNameSkipsBrokenDetailPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/db/de/suche/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/db/de/lebensmittel/hafer_a/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	})
	mux.HandleFunc("/db/de/lebensmittel/hafer_b/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(srv, 3)
	items := s.FindByName(context.Background(), "haferflocken")

	if len(items) != 1 {
		t.Fatalf("expected the broken page to be skipped, got %d items", len(items))
	}
	if items[0].Name != "Haferflocken kernig" {
		t.Errorf("unexpected surviving item %q", items[0].Name)
	}
}

func TestFindByNameCancellationKeepsCollected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listing := `<html><body>
<div onclick="window.location.href='/db/de/lebensmittel/hafer_a/index.html'">A</div>
<div onclick="window.location.href='/db/de/lebensmittel/hafer_b/index.html'">B</div>
<div onclick="window.location.href='/db/de/lebensmittel/hafer_c/index.html'">C</div>
</body></html>`

	var fetchedLast int32
	mux := http.NewServeMux()
	mux.HandleFunc("/db/de/suche/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listing))
	})
	mux.HandleFunc("/db/de/lebensmittel/hafer_a/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	})
	mux.HandleFunc("/db/de/lebensmittel/hafer_b/", func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/db/de/lebensmittel/hafer_c/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetchedLast, 1)
		w.Write([]byte(detailPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScraper(srv, 3)
	s.workers = 1

	items := s.FindByName(ctx, "haferflocken")

	if len(items) != 1 {
		t.Fatalf("items collected before cancellation must survive, got %d", len(items))
	}
	if items[0].Name != "Haferflocken kernig" {
		t.Errorf("unexpected surviving item %q", items[0].Name)
	}
	if got := atomic.LoadInt32(&fetchedLast); got != 0 {
		t.Errorf("no new fetches may start after cancellation, got %d", got)
	}
}

func TestFetchCancellationAbortsRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestScraper(srv, 3)
	if _, err := s.fetchWithRetry(ctx, srv.URL+"/item"); err == nil {
		t.Fatal("expected error after cancellation")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("cancellation must stop retrying, got %d attempts", got)
	}
}

func TestParseNutritionText(t *testing.T) {
	cases := []struct {
		raw   string
		value float64
		unit  string
	}{
		{"52 kcal", 52, "kcal"},
		{"0,3 g", 0.3, "g"},
		{"12,5", 12.5, ""},
		{"k.A.", 0, ""},
		{"K. A.", 0, ""},
		{"", 0, ""},
		{"1.567 kJ", 1.567, "kj"},
	}
	for _, tc := range cases {
		got := parseNutritionText(tc.raw)
		if got.Value != tc.value || got.Unit != tc.unit {
			t.Errorf("parseNutritionText(%q) = %v %q, want %v %q",
				tc.raw, got.Value, got.Unit, tc.value, tc.unit)
		}
	}
}

func TestTransientStatusClassification(t *testing.T) {
	if !isTransientStatus(500) || !isTransientStatus(503) {
		t.Error("5xx must be transient")
	}
	if isTransientStatus(404) || isTransientStatus(400) || isTransientStatus(200) {
		t.Error("non-5xx must not be transient")
	}
}
