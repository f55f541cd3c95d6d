package web

import (
	"fmt"
	"log"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/time/rate"

	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/util"
)

// NewRouter builds the read-only web surface over the cached feed.
func NewRouter(conf *util.AppConfig, feedStore *store.FeedStore) *gin.Engine {
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	g.GET("/feed", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")

		username := c.Query("username")
		rss, err := GetRSS(conf, feedStore, username)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	g.GET("/feed/:id", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")

		rssItem, err := GetRSSItem(conf, feedStore, c.Param("id"))
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rssItem})
		}
	})

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "cached": feedStore.Len()})
	})

	return g
}

// Router starts the web server and blocks until it fails.
func Router(conf *util.AppConfig, feedStore *store.FeedStore) error {
	log.Printf("Starting RSS feed server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	return NewRouter(conf, feedStore).Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
}
