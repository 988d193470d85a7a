// Package twitter is a minimal REST client for the v2 recent-search endpoint.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fkoller/threatfeed/internal/models"
)

const defaultBaseURL = "https://api.twitter.com"

// Config holds the client settings.
type Config struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
}

// Client calls the recent-search API with bearer auth.
type Client struct {
	baseURL     string
	bearerToken string
	http        *http.Client
}

// NewClient creates a Client. BaseURL defaults to the public API host.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		bearerToken: cfg.BearerToken,
		http:        &http.Client{Timeout: timeout},
	}
}

// Page is one page of search results with the continuation token for the
// next call. NextToken is empty on the last page.
type Page struct {
	Tweets    []models.TweetDocument
	NextToken string
}

type searchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
			LikeCount    int `json:"like_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Name     string `json:"name"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

// SearchRecent fetches one page of tweets matching query. nextToken is the
// continuation token from a previous page, or empty for the first page.
func (c *Client) SearchRecent(ctx context.Context, query string, maxResults int, nextToken string) (Page, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("tweet.fields", "created_at,public_metrics")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username,name")
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	endpoint := fmt.Sprintf("%s/2/tweets/search/recent?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("recent search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Page{}, fmt.Errorf("recent search: %s: %s", resp.Status, body)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Page{}, fmt.Errorf("decode response: %w", err)
	}

	return Page{
		Tweets:    joinAuthors(parsed),
		NextToken: parsed.Meta.NextToken,
	}, nil
}

// joinAuthors matches tweets with their expanded author objects. Tweets
// whose author is missing from the expansion keep the bare author id.
func joinAuthors(resp searchResponse) []models.TweetDocument {
	users := make(map[string]models.User, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		users[u.ID] = models.User{ID: u.ID, Username: u.Username, Name: u.Name}
	}

	docs := make([]models.TweetDocument, 0, len(resp.Data))
	for _, t := range resp.Data {
		user, ok := users[t.AuthorID]
		if !ok {
			user = models.User{ID: t.AuthorID}
		}
		docs = append(docs, models.TweetDocument{
			Tweet: models.Tweet{
				ID:        t.ID,
				Text:      t.Text,
				CreatedAt: t.CreatedAt,
				Metrics: models.TweetMetrics{
					Retweets: t.PublicMetrics.RetweetCount,
					Replies:  t.PublicMetrics.ReplyCount,
					Likes:    t.PublicMetrics.LikeCount,
					Quotes:   t.PublicMetrics.QuoteCount,
				},
			},
			User: user,
		})
	}
	return docs
}
