package adapter

import (
	"net/url"
	"reflect"
	"testing"
)

const listingMarkup = `<!DOCTYPE html>
<html><body>
<ul>
  <li class="app-card" data-app-id="9nkx70bbcdrn">
    <a href="https://www.microsoft.com/en-us/p/halo-infinite/9nkx70bbcdrn">Halo Infinite</a>
    <span class="platform-badge">Xbox Series X|S</span>
    <span class="platform-badge">Windows</span>
    <span class="note">Released 2021</span>
  </li>
  <li class="app-card" data-app-id="9pnqkqklvp8d">
    <a href="/redirect/out?x=1">not a product</a>
    <a href="https://apps.microsoft.com/detail/9pnqkqklvp8d">Sea of Thieves</a>
    <span class="tag">Cloud enabled</span>
  </li>
  <li class="app-card">
    <a href="https://example.com/elsewhere">Off-catalog link</a>
  </li>
</ul>
<nav><a class="pagination-next" href="?page=2">Next</a></nav>
</body></html>`

func TestParseListingPage(t *testing.T) {
	entries, hasNext := parseListingPage([]byte(listingMarkup), "https://appagg.com/search/@gamepass:xbox/")
	if !hasNext {
		t.Error("expected a next-page link")
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	halo, ok := entries["9nkx70bbcdrn"]
	if !ok {
		t.Fatal("missing entry for 9nkx70bbcdrn")
	}
	if halo.title != "Halo Infinite" {
		t.Errorf("unexpected title: %q", halo.title)
	}
	if got := SortPlatforms(halo.platforms); !reflect.DeepEqual(got, []string{"console", "pc"}) {
		t.Errorf("unexpected platforms: %v", got)
	}
	if halo.year != 2021 {
		t.Errorf("expected year 2021, got %d", halo.year)
	}

	sot, ok := entries["9pnqkqklvp8d"]
	if !ok {
		t.Fatal("missing entry for 9pnqkqklvp8d")
	}
	if sot.title != "Sea of Thieves" {
		t.Errorf("unexpected title: %q", sot.title)
	}
	if got := SortPlatforms(sot.platforms); !reflect.DeepEqual(got, []string{"cloud"}) {
		t.Errorf("unexpected platforms: %v", got)
	}
}

func TestParseListingPageNoNext(t *testing.T) {
	markup := `<html><body>
<div class="app-card"><a href="https://www.microsoft.com/p/grounded/9x1">Grounded</a></div>
</body></html>`
	entries, hasNext := parseListingPage([]byte(markup), "https://appagg.com/")
	if hasNext {
		t.Error("did not expect a next-page link")
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestMergeScrapedUnionsAcrossPages(t *testing.T) {
	merged := make(map[string]*scrapedEntry)
	mergeScraped(merged, "9x1", &scrapedEntry{
		title:     "Grounded",
		platforms: map[string]struct{}{"console": {}},
	})
	mergeScraped(merged, "9x1", &scrapedEntry{
		title:     "Grounded",
		platforms: map[string]struct{}{"pc": {}},
		year:      2022,
	})

	entry := merged["9x1"]
	if got := SortPlatforms(entry.platforms); !reflect.DeepEqual(got, []string{"console", "pc"}) {
		t.Errorf("unexpected merged platforms: %v", got)
	}
	if entry.year != 2022 {
		t.Errorf("expected later sighting to fill the year, got %d", entry.year)
	}
}

func TestProductID(t *testing.T) {
	tests := []struct {
		rawURL string
		title  string
		want   string
	}{
		{"https://www.microsoft.com/en-us/p/halo-infinite/9nkx70bbcdrn", "Halo Infinite", "9nkx70bbcdrn"},
		{"https://apps.microsoft.com/detail/9pnqkqklvp8d/", "Sea of Thieves", "9pnqkqklvp8d"},
		{"https://www.microsoft.com/", "Forza Horizon 5", "ForzaHorizon5"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.rawURL)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.rawURL, err)
		}
		if got := productID(u, tt.title); got != tt.want {
			t.Errorf("productID(%q, %q) = %q, want %q", tt.rawURL, tt.title, got, tt.want)
		}
	}
}
