package api

import (
	"quest-tracker/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(tz string) *config.Config {
	return &config.Config{
		FeedTimezone: tz,
		DropMarkers:  []string{"I found a"},
	}
}

func TestClassifierClassify(t *testing.T) {
	classifier, err := NewClassifier(testConfig("UTC"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		entry    FeedEntry
		wantDrop bool
		wantErr  bool
	}{
		{
			name:     "item find",
			entry:    FeedEntry{Date: "01-Jan-2024 10:00", Text: "I found a pair of Ragefire boots."},
			wantDrop: true,
		},
		{
			name:     "quest completion is not a drop",
			entry:    FeedEntry{Date: "01-Jan-2024 10:00", Text: "Quest complete: Cook's Assistant"},
			wantDrop: false,
		},
		{
			name:     "levelled up is not a drop",
			entry:    FeedEntry{Date: "01-Jan-2024 10:00", Text: "Levelled up Attack."},
			wantDrop: false,
		},
		{
			name:    "item find with bad timestamp",
			entry:   FeedEntry{Date: "not a date", Text: "I found a bones"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, err := classifier.Classify(tt.entry)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if !tt.wantDrop {
				assert.Nil(t, candidate)
				return
			}
			require.NotNil(t, candidate)
			assert.Equal(t, tt.entry.Text, candidate.Message)
			assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), candidate.Timestamp)
		})
	}
}

func TestClassifierLocalizesFeedTimezone(t *testing.T) {
	classifier, err := NewClassifier(testConfig("Europe/London"))
	require.NoError(t, err)

	// BST is UTC+1 in July.
	candidate, err := classifier.Classify(FeedEntry{Date: "01-Jul-2024 10:00", Text: "I found a bones"})
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), candidate.Timestamp)
	assert.Equal(t, time.UTC, candidate.Timestamp.Location())
}

func TestClassifierCustomMarkers(t *testing.T) {
	cfg := testConfig("UTC")
	cfg.DropMarkers = []string{"I found a", "I found some"}
	classifier, err := NewClassifier(cfg)
	require.NoError(t, err)

	candidate, err := classifier.Classify(FeedEntry{Date: "01-Jan-2024 10:00", Text: "I found some coins"})
	require.NoError(t, err)
	assert.NotNil(t, candidate)
}
