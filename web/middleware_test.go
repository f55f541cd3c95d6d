package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	// 1 req/sec, burst of 2: the third immediate request must be rejected
	g.Use(RateLimitMiddleware(NewRateLimiter(rate.Limit(1), 2)))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		g.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected the burst to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected 429 past the burst, got %v", codes)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(RateLimitMiddleware(NewRateLimiter(rate.Limit(1), 1)))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Exhaust the budget for one IP
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	g.ServeHTTP(w, req)

	// A different IP still has its own budget
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	g.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected a fresh budget for a different IP, got %d", w.Code)
	}
}

func TestMaxBytesMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(MaxBytesMiddleware(16))
	g.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
	g.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected a small body to pass, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	g.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for an oversized body, got %d", w.Code)
	}
}
