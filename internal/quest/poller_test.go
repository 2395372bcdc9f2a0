package quest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"quest-tracker/internal/api"
	"quest-tracker/internal/config"
	"quest-tracker/internal/constants"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedStub serves per-player activity feeds and counts requests.
type feedStub struct {
	mu     sync.Mutex
	bodies map[string]string
	status map[string]int
	hits   map[string]int
}

func newFeedStub() *feedStub {
	return &feedStub{
		bodies: make(map[string]string),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
}

func (s *feedStub) set(rsn, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[rsn] = body
}

func (s *feedStub) fail(rsn string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[rsn] = status
}

func (s *feedStub) requests(rsn string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[rsn]
}

func (s *feedStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rsn := r.URL.Query().Get("user")
	s.mu.Lock()
	s.hits[rsn]++
	body, ok := s.bodies[rsn]
	status := s.status[rsn]
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		body = `{}`
	}
	w.Write([]byte(body))
}

func newTestPoller(t *testing.T, f *fixture, stub *feedStub, notifier Notifier) *Poller {
	t.Helper()

	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		FeedBaseURL:     srv.URL,
		FeedTimezone:    "UTC",
		FeedPageSize:    20,
		PollInterval:    time.Minute,
		PollConcurrency: 2,
		DropMarkers:     []string{"I found a"},
		InactivePrefix:  "-",
		DefaultLives:    2,
	}

	classifier, err := api.NewClassifier(cfg)
	require.NoError(t, err)

	return NewPoller(cfg, api.NewFeedClient(cfg), classifier,
		f.players, f.cursors, f.drops, f.schedule, f.teams,
		f.evaluator, f.rollover, notifier, zerolog.Nop())
}

func today() string {
	return time.Now().UTC().Format(constants.DayKeyFormat)
}

func feedTime(hour int) string {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC).
		Format(constants.FeedTimeFormat)
}

func TestPollerIngestsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	zez := f.addPlayer(t, "Zez", alpha.ID)
	f.addTask(t, today(), "Find 2 bones", "bones?", 2)

	stub := newFeedStub()
	stub.set("Zez", fmt.Sprintf(`{"activities":[
		{"date":"%s","text":"I found a bones"},
		{"date":"%s","text":"Levelled up Attack."}]}`, feedTime(10), feedTime(9)))

	notifier := &captureNotifier{}
	poller := newTestPoller(t, f, stub, notifier)
	poller.RunCycle(ctx)

	start, end, err := DayWindow(today())
	require.NoError(t, err)
	drops, err := f.drops.ListForTeamWindow(ctx, alpha.ID, start, end)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, "I found a bones", drops[0].Message)

	cursor, err := f.cursors.Get(ctx, zez.ID)
	require.NoError(t, err)
	assert.Equal(t, feedTime(10), cursor.LastSeen)

	require.Len(t, notifier.drops, 1)
	assert.Equal(t, "Zez found a bones for Alpha", notifier.drops[0].Header)
	assert.Equal(t, "Find 2 bones: 1/2", notifier.drops[0].Body)
}

func TestPollerIdempotentWithStableFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	zez := f.addPlayer(t, "Zez", alpha.ID)
	f.addTask(t, today(), "Find 2 bones", "bones?", 2)

	stub := newFeedStub()
	stub.set("Zez", fmt.Sprintf(`{"activities":[{"date":"%s","text":"I found a bones"}]}`, feedTime(10)))

	notifier := &captureNotifier{}
	poller := newTestPoller(t, f, stub, notifier)
	poller.RunCycle(ctx)
	poller.RunCycle(ctx)

	start, end, err := DayWindow(today())
	require.NoError(t, err)
	drops, err := f.drops.ListForTeamWindow(ctx, alpha.ID, start, end)
	require.NoError(t, err)
	assert.Len(t, drops, 1, "second cycle with no new entries adds nothing")

	cursor, err := f.cursors.Get(ctx, zez.ID)
	require.NoError(t, err)
	assert.Equal(t, feedTime(10), cursor.LastSeen)
	assert.Len(t, notifier.drops, 1)
}

func TestPollerAdvancesCursorForNewEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	zez := f.addPlayer(t, "Zez", alpha.ID)
	f.addTask(t, today(), "Find 2 bones", "bones?", 2)

	stub := newFeedStub()
	stub.set("Zez", fmt.Sprintf(`{"activities":[{"date":"%s","text":"I found a bones"}]}`, feedTime(10)))

	poller := newTestPoller(t, f, stub, &captureNotifier{})
	poller.RunCycle(ctx)

	// A newer entry appears above the one already processed.
	stub.set("Zez", fmt.Sprintf(`{"activities":[
		{"date":"%s","text":"I found a rune scimitar"},
		{"date":"%s","text":"I found a bones"}]}`, feedTime(12), feedTime(10)))
	poller.RunCycle(ctx)

	start, end, err := DayWindow(today())
	require.NoError(t, err)
	drops, err := f.drops.ListForTeamWindow(ctx, alpha.ID, start, end)
	require.NoError(t, err)
	assert.Len(t, drops, 2, "only the entry above the dedup boundary is ingested")

	cursor, err := f.cursors.Get(ctx, zez.ID)
	require.NoError(t, err)
	assert.Equal(t, feedTime(12), cursor.LastSeen)
}

func TestPollerEmptyFeedLeavesCursorUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	zez := f.addPlayer(t, "Zez", alpha.ID)

	stub := newFeedStub()
	stub.set("Zez", `{"activities":[]}`)

	notifier := &captureNotifier{}
	poller := newTestPoller(t, f, stub, notifier)
	poller.RunCycle(ctx)

	cursor, err := f.cursors.Get(ctx, zez.ID)
	require.NoError(t, err)
	assert.Equal(t, "", cursor.LastSeen)
	assert.Empty(t, notifier.drops)
}

func TestPollerSkipsInactivePlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	inactive := f.addPlayer(t, "-Zez", alpha.ID)

	stub := newFeedStub()
	poller := newTestPoller(t, f, stub, &captureNotifier{})
	poller.RunCycle(ctx)

	assert.Equal(t, 0, stub.requests("-Zez"), "no fetch for inactive player")

	cursor, err := f.cursors.Get(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Equal(t, "", cursor.LastSeen)
}

func TestPollerIsolatesFeedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	zez := f.addPlayer(t, "Zez", alpha.ID)
	kex := f.addPlayer(t, "Kex", alpha.ID)
	f.addTask(t, today(), "Find 2 bones", "bones?", 2)

	stub := newFeedStub()
	stub.fail("Zez", http.StatusBadGateway)
	stub.set("Kex", fmt.Sprintf(`{"activities":[{"date":"%s","text":"I found bones"}]}`, feedTime(11)))

	poller := newTestPoller(t, f, stub, &captureNotifier{})
	poller.RunCycle(ctx)

	// Zez's cursor stays untouched for a retry next cycle.
	zezCursor, err := f.cursors.Get(ctx, zez.ID)
	require.NoError(t, err)
	assert.Equal(t, "", zezCursor.LastSeen)

	// Kex was still processed.
	kexCursor, err := f.cursors.Get(ctx, kex.ID)
	require.NoError(t, err)
	assert.Equal(t, feedTime(11), kexCursor.LastSeen)
}

func TestPollerDropMatchingNoTaskEmitsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTeam(t, "Alpha", 2)
	f.addPlayer(t, "Zez", alpha.ID)
	f.addTask(t, today(), "Find 2 bones", "bones?", 2)

	stub := newFeedStub()
	stub.set("Zez", fmt.Sprintf(`{"activities":[{"date":"%s","text":"I found a rune scimitar"}]}`, feedTime(10)))

	notifier := &captureNotifier{}
	poller := newTestPoller(t, f, stub, notifier)
	poller.RunCycle(ctx)

	start, end, err := DayWindow(today())
	require.NoError(t, err)
	drops, err := f.drops.ListForTeamWindow(ctx, alpha.ID, start, end)
	require.NoError(t, err)
	assert.Len(t, drops, 1, "drop persisted even though no task matched")
	assert.Empty(t, notifier.drops, "no notification for an unmatched drop")
}
