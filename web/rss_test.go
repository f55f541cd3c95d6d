package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reveriehq/reverie/domain"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/util"
)

func testConf() *util.AppConfig {
	return &util.AppConfig{
		Conf: util.Conf{
			Host:     "localhost",
			HttpPort: 8080,
		},
	}
}

func seededFeed() *store.FeedStore {
	fs := store.NewFeedStore(nil, nil, 10)

	now := time.Now()
	earlier := now.Add(-time.Hour)
	fs.Prepend(domain.Post{
		Id:       "p1",
		Author:   domain.User{Id: "alice", Username: "alice"},
		Caption:  "morning walk",
		ImageURL: "http://x/uploads/p1.jpg",
		CreatedAt: &earlier,
	})
	fs.Prepend(domain.Post{
		Id:       "p2",
		Author:   domain.User{Id: "bob", Username: "bob"},
		Caption:  "city lights",
		ImageURL: "http://x/uploads/p2.jpg",
		CreatedAt: &now,
	})
	return fs
}

func TestGetRSS(t *testing.T) {
	rss, err := GetRSS(testConf(), seededFeed(), "")
	if err != nil {
		t.Fatalf("GetRSS failed: %v", err)
	}

	if !strings.Contains(rss, "All Reverie Reflections") {
		t.Error("Expected feed title in RSS output")
	}
	if !strings.Contains(rss, "morning walk") || !strings.Contains(rss, "city lights") {
		t.Error("Expected both captions in RSS output")
	}
	if !strings.Contains(rss, "http://localhost:8080/feed/p1") {
		t.Error("Expected item link in RSS output")
	}
}

func TestGetRSSByAuthor(t *testing.T) {
	rss, err := GetRSS(testConf(), seededFeed(), "alice")
	if err != nil {
		t.Fatalf("GetRSS failed: %v", err)
	}

	if !strings.Contains(rss, "morning walk") {
		t.Error("Expected alice's caption in RSS output")
	}
	if strings.Contains(rss, "city lights") {
		t.Error("Did not expect bob's caption in alice's feed")
	}

	if _, err := GetRSS(testConf(), seededFeed(), "nobody"); err == nil {
		t.Error("Expected an error for an author with no cached posts")
	}
}

func TestGetRSSEmptyCache(t *testing.T) {
	empty := store.NewFeedStore(nil, nil, 10)
	if _, err := GetRSS(testConf(), empty, ""); err == nil {
		t.Error("Expected an error for an empty cache")
	}
}

func TestGetRSSItem(t *testing.T) {
	rss, err := GetRSSItem(testConf(), seededFeed(), "p1")
	if err != nil {
		t.Fatalf("GetRSSItem failed: %v", err)
	}
	if !strings.Contains(rss, "morning walk") {
		t.Error("Expected the post caption in RSS output")
	}

	if _, err := GetRSSItem(testConf(), seededFeed(), "missing"); err == nil {
		t.Error("Expected an error for an uncached post")
	}
}

func TestFeedRoutes(t *testing.T) {
	router := NewRouter(testConf(), seededFeed())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /feed, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Errorf("Expected XML content type, got %s", ct)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/feed/p2", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /feed/p2, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/feed/missing", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an uncached post, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /healthz, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "\"cached\":2") {
		t.Errorf("Expected cache size in health output, got %s", w.Body.String())
	}
}
