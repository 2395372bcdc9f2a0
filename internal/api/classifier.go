package api

import (
	"fmt"
	"quest-tracker/internal/config"
	"quest-tracker/internal/constants"
	"strings"
	"time"
)

// DropCandidate is a feed entry classified as an item find, with its
// timestamp canonicalized to UTC.
type DropCandidate struct {
	Message   string
	Timestamp time.Time
}

// Classifier decides whether a feed entry is an item-find event. The
// test is textual and brittle by design: the upstream message format may
// change, so the marker phrases live in configuration.
type Classifier struct {
	markers []string
	loc     *time.Location
}

func NewClassifier(cfg *config.Config) (*Classifier, error) {
	loc, err := time.LoadLocation(cfg.FeedTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed timezone: %w", err)
	}
	return &Classifier{markers: cfg.DropMarkers, loc: loc}, nil
}

// Classify returns the drop candidate for an entry, or nil when the entry
// is not an item find. A recognized entry with an unparsable timestamp is
// an error.
func (c *Classifier) Classify(entry FeedEntry) (*DropCandidate, error) {
	if !c.isDrop(entry.Text) {
		return nil, nil
	}

	ts, err := time.ParseInLocation(constants.FeedTimeFormat, entry.Date, c.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed timestamp %q: %w", entry.Date, err)
	}

	return &DropCandidate{Message: entry.Text, Timestamp: ts.UTC()}, nil
}

func (c *Classifier) isDrop(text string) bool {
	for _, marker := range c.markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
