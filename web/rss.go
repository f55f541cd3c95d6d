package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"github.com/reveriehq/reverie/domain"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/util"
)

// GetRSS renders the locally cached feed as RSS. With a non-empty username
// only that author's posts are included. The cache is what the terminal
// client last saw; nothing is fetched here.
func GetRSS(conf *util.AppConfig, feedStore *store.FeedStore, username string) (string, error) {
	link := fmt.Sprintf("http://%s:%d/feed", conf.Conf.Host, conf.Conf.HttpPort)

	var posts []domain.Post
	var title string
	var createdBy string

	if username != "" {
		posts = feedStore.PostsByAuthor(domain.User{Id: username})
		if len(posts) == 0 {
			return "", errors.New("no cached posts for that author")
		}
		title = fmt.Sprintf("Reverie Reflections - %s", username)
		createdBy = username
		link = fmt.Sprintf("%s?username=%s", link, username)
	} else {
		posts = feedStore.Posts()
		if len(posts) == 0 {
			return "", errors.New("no cached posts")
		}
		title = "All Reverie Reflections"
		createdBy = "everyone"
	}

	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: "locally cached reverie feed",
		Author:      &feeds.Author{Name: createdBy, Email: fmt.Sprintf("%s@reverie", createdBy)},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, post := range posts {
		feedItems = append(feedItems, rssItem(conf, post))
	}

	feed.Items = feedItems
	return feed.ToRss()
}

// GetRSSItem renders a single cached post as a one-item RSS feed.
func GetRSSItem(conf *util.AppConfig, feedStore *store.FeedStore, postId string) (string, error) {
	post, ok := feedStore.Post(postId)
	if !ok {
		return "", errors.New("post not in the local cache")
	}

	url := fmt.Sprintf("http://%s:%d/feed/%s", conf.Conf.Host, conf.Conf.HttpPort, post.Id)

	feed := &feeds.Feed{
		Title:       "Single Reverie Reflection",
		Link:        &feeds.Link{Href: url},
		Description: "locally cached reverie post",
		Author:      &feeds.Author{Name: post.Author.Username, Email: fmt.Sprintf("%s@reverie", post.Author.Username)},
		Created:     time.Now(),
	}

	feed.Items = []*feeds.Item{rssItem(conf, post)}
	return feed.ToRss()
}

func rssItem(conf *util.AppConfig, post domain.Post) *feeds.Item {
	created := time.Now()
	title := post.Id
	if post.CreatedAt != nil {
		created = *post.CreatedAt
		title = post.CreatedAt.Format(util.DateTimeFormat())
	}

	return &feeds.Item{
		Id:        post.Id,
		Title:     title,
		Link:      &feeds.Link{Href: fmt.Sprintf("http://%s:%d/feed/%s", conf.Conf.Host, conf.Conf.HttpPort, post.Id)},
		Content:   post.Caption,
		Author:    &feeds.Author{Name: post.Author.Username, Email: fmt.Sprintf("%s@reverie", post.Author.Username)},
		Created:   created,
		Enclosure: &feeds.Enclosure{Url: post.ImageURL, Type: "image/jpeg", Length: "0"},
	}
}
