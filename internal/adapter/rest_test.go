package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/config"
	"github.com/rs/zerolog"
)

func newRESTTestAdapter(t *testing.T, handler http.HandlerFunc) *RESTAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		RESTBaseURL:    srv.URL,
		RequestTimeout: 5 * time.Second,
	}
	return NewRESTAdapter(cfg, zerolog.Nop())
}

func TestRESTFetchFollowsTokenPagination(t *testing.T) {
	adapter := newRESTTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("market") != "US" {
			http.Error(w, "missing market", http.StatusBadRequest)
			return
		}
		switch r.URL.Query().Get("page_token") {
		case "":
			fmt.Fprint(w, `{
				"items": [
					{"id": "p1", "title": "Halo Infinite", "platforms": ["xbox", "windows"]},
					{"id": "p1", "title": "Halo Infinite duplicate"}
				],
				"nextPageToken": "t2"
			}`)
		case "t2":
			fmt.Fprint(w, `{
				"data": [
					{"productId": "p2", "name": "Sea of Thieves", "cloud": true, "notes": "Xbox Series consoles"}
				]
			}`)
		default:
			http.NotFound(w, r)
		}
	})

	entries, err := adapter.Fetch(context.Background(), "US")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries across pages, got %d: %+v", len(entries), entries)
	}

	if entries[0].Title != "Halo Infinite" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if !reflect.DeepEqual(entries[0].Platforms, []string{"console", "pc"}) {
		t.Errorf("unexpected platforms: %v", entries[0].Platforms)
	}

	if entries[1].Title != "Sea of Thieves" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if !reflect.DeepEqual(entries[1].Platforms, []string{"console", "cloud"}) {
		t.Errorf("unexpected platforms: %v", entries[1].Platforms)
	}
}

func TestRESTFetchAcceptsBareArray(t *testing.T) {
	calls := 0
	adapter := newRESTTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[{"slug": "grounded", "title": "Grounded", "pc": true}]`)
	})

	entries, err := adapter.Fetch(context.Background(), "US")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 1 {
		t.Errorf("a bare array ends pagination, expected 1 request, got %d", calls)
	}
	if len(entries) != 1 || entries[0].Title != "Grounded" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestRESTFetchSkipsMalformedItems(t *testing.T) {
	adapter := newRESTTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [
			{"id": "bad", "title": "Bad Platforms", "platforms": {"shape": "wrong"}},
			{"id": "blank", "title": "   "},
			{"id": "good", "title": "Gears 5", "platforms": "xbox, windows"}
		]}`)
	})

	entries, err := adapter.Fetch(context.Background(), "US")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the well-formed item, got %+v", entries)
	}
	if entries[0].Title != "Gears 5" {
		t.Errorf("unexpected title: %q", entries[0].Title)
	}
	if !reflect.DeepEqual(entries[0].Platforms, []string{"console", "pc"}) {
		t.Errorf("unexpected platforms: %v", entries[0].Platforms)
	}
}

func TestDecodePageFieldPriority(t *testing.T) {
	body := []byte(`{"items": [{"id": "a", "title": "A"}], "data": [{"id": "b", "title": "B"}], "next": "u", "nextPageToken": "tok"}`)
	items, next, err := decodePage(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("items should win over data, got %+v", items)
	}
	if next != "u" {
		t.Errorf("next should win over nextPageToken, got %q", next)
	}
}

func TestRestReleaseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`2020`, 2020},
		{`"2020"`, 2020},
		{`"Holiday 2021"`, 2021},
		{`3050`, 0},
		{`null`, 0},
		{``, 0},
	}
	for _, tt := range tests {
		if got := restReleaseYear(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("restReleaseYear(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
