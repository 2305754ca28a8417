// Package reddit is the thin platform client: it pulls submission listings
// for tracked users and boards. The pipeline itself only ever sees the
// resulting submission batches.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/entity"
)

const defaultBaseURL = "https://www.reddit.com"

type Client struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter

	// BaseURL is overridable for tests.
	BaseURL string
}

func NewClient(client *http.Client, userAgent string) *Client {
	return &Client{
		client:    client,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		BaseURL:   defaultBaseURL,
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				Author     string  `json:"author"`
				Subreddit  string  `json:"subreddit"`
				URL        string  `json:"url"`
				IsSelf     bool    `json:"is_self"`
				SelfText   string  `json:"selftext"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch returns the entity's newest submissions, bounded by its post limit
// and date-limit watermark: submissions at or before the watermark are
// dropped, so a pass only sees what the previous pass has not covered.
func (c *Client) Fetch(ctx context.Context, e *entity.Entity) ([]content.Submission, error) {
	var path string
	switch e.Kind {
	case entity.KindBoard:
		path = fmt.Sprintf("/r/%s/new.json?limit=%d", e.Name, e.PostLimit)
	default:
		path = fmt.Sprintf("/user/%s/submitted.json?limit=%d", e.Name, e.PostLimit)
	}

	listing, err := c.getListing(ctx, c.BaseURL+path)
	if err != nil {
		return nil, err
	}

	watermark := e.DateLimit()
	var submissions []content.Submission
	for _, child := range listing.Data.Children {
		d := child.Data
		created := time.Unix(int64(d.CreatedUTC), 0).UTC()
		if watermark != 0 && created.Unix() <= watermark {
			continue
		}
		submissions = append(submissions, content.Submission{
			ID:        d.ID,
			Title:     d.Title,
			Author:    d.Author,
			Board:     d.Subreddit,
			URL:       d.URL,
			SelfPost:  d.IsSelf,
			SelfText:  d.SelfText,
			CreatedAt: &created,
		})
	}
	return submissions, nil
}

func (c *Client) getListing(ctx context.Context, url string) (*listingResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	return &listing, nil
}
