package domain

import (
	"time"
)

type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Lives     int       `json:"lives"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Eliminated reports whether the team has run out of lives.
func (t *Team) Eliminated() bool {
	return t.Lives <= 0
}

type Player struct {
	ID        int64     `json:"id"`
	RSN       string    `json:"rsn"`
	TeamID    int64     `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeedCursor is the per-player bookmark into the external activity feed.
// LastSeen holds the feed-native date string of the newest entry already
// processed, or "" if the player has never been polled. It is opaque:
// compared only for equality against incoming entries, never parsed.
type FeedCursor struct {
	PlayerID  int64
	LastSeen  string
	UpdatedAt time.Time
}

// Drop is an immutable item-find event attributed to a player.
type Drop struct {
	ID        string    `json:"id"` // nanoid
	PlayerID  int64     `json:"player_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"` // canonical UTC instant
	CreatedAt time.Time `json:"created_at"`
}

// DropWithPlayer is a drop joined with its owning player, as evaluation
// and notification paths need the RSN and team.
type DropWithPlayer struct {
	Drop
	RSN    string
	TeamID int64
}

type Task struct {
	ID             int64  `json:"id"`
	DayDate        string `json:"day_date"` // canonical YYYY-MM-DD key of the owning day
	Description    string `json:"description"`
	Pattern        string `json:"pattern"` // regexp searched within the drop message
	NumberRequired int    `json:"number_required"`
}

type Day struct {
	Date        string `json:"date"` // canonical YYYY-MM-DD, primary key
	AllRequired bool   `json:"all_required"`
	Password    string `json:"password,omitempty"`
	Tasks       []Task `json:"tasks"`
}

// DropNotification is the plain-data payload handed to the external
// presentation layer when a fresh drop matches one of today's tasks.
type DropNotification struct {
	RSN    string `json:"rsn"`
	Header string `json:"header"` // "<rsn> found a ... for <team>"
	Body   string `json:"body"`   // "<description>: <count>/<required>"
}

// TeamScore is the rendered progress of a single team for a day.
type TeamScore struct {
	Lines        []string `json:"lines"`
	AllCompleted bool     `json:"all_completed"`
}

// DayProgress maps team name to score for one day.
type DayProgress struct {
	Date        string               `json:"date"`
	AllRequired bool                 `json:"all_required"`
	Scores      map[string]TeamScore `json:"scores"`
}

// RolloverOutcome is the per-team result of closing out a day.
type RolloverOutcome struct {
	TeamName   string
	Lives      int
	Completed  bool
	Eliminated bool
}

// NewDaySummary is emitted once per calendar-day transition.
type NewDaySummary struct {
	Day             string
	TaskDescription string
	Outcomes        []RolloverOutcome
}
