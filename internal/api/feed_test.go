package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"quest-tracker/internal/config"
	"quest-tracker/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeedClient(baseURL string) *FeedClient {
	return NewFeedClient(&config.Config{FeedBaseURL: baseURL, FeedPageSize: 20})
}

func TestFeedClientRecentActivities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/runemetrics/profile/profile", r.URL.Path)
		assert.Equal(t, "Zez", r.URL.Query().Get("user"))
		assert.Equal(t, "20", r.URL.Query().Get("activities"))
		w.Write([]byte(`{"activities":[{"date":"01-Jan-2024 11:00","text":"I found a bones"},{"date":"01-Jan-2024 10:00","text":"Levelled up Attack."}]}`))
	}))
	defer srv.Close()

	entries, err := newTestFeedClient(srv.URL).RecentActivities(context.Background(), "Zez")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "01-Jan-2024 11:00", entries[0].Date)
	assert.Equal(t, "I found a bones", entries[0].Text)
}

func TestFeedClientMissingActivitiesField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A private or unknown profile has no activities key. This is a
		// valid empty result, not an error.
		w.Write([]byte(`{"error":"PROFILE_PRIVATE"}`))
	}))
	defer srv.Close()

	entries, err := newTestFeedClient(srv.URL).RecentActivities(context.Background(), "Zez")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFeedClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFeedClient(srv.URL).RecentActivities(context.Background(), "Zez")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeedUnavailable))
}

func TestFeedClientParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestFeedClient(srv.URL).RecentActivities(context.Background(), "Zez")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeedUnavailable))
}

func TestFeedClientUnreachable(t *testing.T) {
	_, err := newTestFeedClient("http://127.0.0.1:1").RecentActivities(context.Background(), "Zez")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeedUnavailable))
}
