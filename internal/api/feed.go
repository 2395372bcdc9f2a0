package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"quest-tracker/internal/config"
	"quest-tracker/internal/constants"
	"quest-tracker/internal/domain"
	"time"

	"github.com/valyala/fasthttp"
)

// FeedEntry is one activity from the external per-player feed, newest
// first. Date is the feed-native timestamp string and is also the dedup
// marker for incremental polling.
type FeedEntry struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

type profileResponse struct {
	Activities []FeedEntry `json:"activities"`
}

type FeedClient struct {
	baseURL  string
	pageSize int
	client   *fasthttp.Client
}

func NewFeedClient(cfg *config.Config) *FeedClient {
	return &FeedClient{
		baseURL:  cfg.FeedBaseURL,
		pageSize: cfg.FeedPageSize,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// RecentActivities fetches the newest feed entries for one player. A
// response without an activities field is a valid empty result, not an
// error. Any transport, status or parse failure wraps
// domain.ErrFeedUnavailable so callers keep the player's cursor untouched.
func (c *FeedClient) RecentActivities(ctx context.Context, rsn string) ([]FeedEntry, error) {
	requestURL := fmt.Sprintf("%s/runemetrics/profile/profile?user=%s&activities=%d",
		c.baseURL, url.QueryEscape(rsn), c.pageSize)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrFeedUnavailable, rsn, err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrFeedUnavailable, rsn, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrFeedUnavailable, rsn, resp.StatusCode())
	}

	var profile profileResponse
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFeedUnavailable, rsn, err)
	}

	return profile.Activities, nil
}
