package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/logging"
)

// CallStore is the surface both implementations share; the tests run against
// each.
type CallStore interface {
	PutWindow(ctx context.Context, w domain.Window) error
	WindowsBefore(ctx context.Context, callID string, windowNum int) ([]domain.Window, error)
	AllWindows(ctx context.Context, callID string) ([]domain.Window, error)
	PutAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error
	LatestAnalytics(ctx context.Context, clientEmail string) (*domain.AnalyticsRecord, error)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func runCallStoreTests(t *testing.T, open func(t *testing.T) CallStore) {
	ctx := context.Background()

	window := func(callID string, n int) domain.Window {
		return domain.Window{
			CallID:    callID,
			WindowNum: n,
			Turns: []domain.Turn{
				{Speaker: domain.SpeakerCustomer, Transcript: "turn in window"},
			},
			AiTips: []domain.AiTip{
				{Tag: "Info", Content: "tip"},
			},
			CreatedAt: time.Date(2026, 3, 1, 10, n, 0, 0, time.UTC),
		}
	}

	t.Run("windows ordered by number", func(t *testing.T) {
		s := open(t)
		// Insert out of order.
		require.NoError(t, s.PutWindow(ctx, window("call-1", 3)))
		require.NoError(t, s.PutWindow(ctx, window("call-1", 1)))
		require.NoError(t, s.PutWindow(ctx, window("call-1", 2)))

		all, err := s.AllWindows(ctx, "call-1")
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, w := range all {
			assert.Equal(t, i+1, w.WindowNum)
		}
	})

	t.Run("windows before is exclusive", func(t *testing.T) {
		s := open(t)
		for n := 1; n <= 4; n++ {
			require.NoError(t, s.PutWindow(ctx, window("call-2", n)))
		}

		prior, err := s.WindowsBefore(ctx, "call-2", 3)
		require.NoError(t, err)
		require.Len(t, prior, 2)
		assert.Equal(t, 1, prior[0].WindowNum)
		assert.Equal(t, 2, prior[1].WindowNum)

		prior, err = s.WindowsBefore(ctx, "call-2", 1)
		require.NoError(t, err)
		assert.Empty(t, prior)
	})

	t.Run("put window is idempotent", func(t *testing.T) {
		s := open(t)
		w := window("call-3", 1)
		require.NoError(t, s.PutWindow(ctx, w))

		w.AiTips = []domain.AiTip{{Tag: "Urgent", Content: "replaced"}}
		require.NoError(t, s.PutWindow(ctx, w))

		all, err := s.AllWindows(ctx, "call-3")
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Len(t, all[0].AiTips, 1)
		assert.Equal(t, "replaced", all[0].AiTips[0].Content)
	})

	t.Run("calls are isolated", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.PutWindow(ctx, window("call-a", 1)))
		require.NoError(t, s.PutWindow(ctx, window("call-b", 1)))

		all, err := s.AllWindows(ctx, "call-a")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "call-a", all[0].CallID)
	})

	t.Run("unknown call yields nothing", func(t *testing.T) {
		s := open(t)
		all, err := s.AllWindows(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("round trips window content", func(t *testing.T) {
		s := open(t)
		w := domain.Window{
			CallID:    "call-rt",
			WindowNum: 1,
			Turns: []domain.Turn{
				{Speaker: domain.SpeakerAgent, Transcript: "Thanks for calling."},
				{Speaker: domain.SpeakerCustomer, Transcript: "My order is late."},
			},
			AiTips: []domain.AiTip{{Tag: "Suggestion", Content: "Offer expedited shipping."}},
			ActivityFeed: []domain.ToolCallRecord{{
				Name:   domain.ToolGetContactByEmail,
				Input:  `{"email":"amy@example.com"}`,
				Output: "found",
				Status: domain.ToolStatusSuccess,
			}},
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		require.NoError(t, s.PutWindow(ctx, w))

		all, err := s.AllWindows(ctx, "call-rt")
		require.NoError(t, err)
		require.Len(t, all, 1)
		got := all[0]
		assert.Equal(t, w.Turns, got.Turns)
		assert.Equal(t, w.AiTips, got.AiTips)
		assert.Equal(t, w.ActivityFeed, got.ActivityFeed)
		assert.True(t, w.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("latest analytics wins by recency", func(t *testing.T) {
		s := open(t)
		older := domain.AnalyticsRecord{
			ClientEmail: "amy@example.com",
			CallID:      "call-old",
			CreatedAt:   time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
			Memory:      domain.MemoryBox{Deliverables: []string{"old deliverable"}},
		}
		newer := older
		newer.CallID = "call-new"
		newer.CreatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		newer.Memory = domain.MemoryBox{Deliverables: []string{"new deliverable"}}

		require.NoError(t, s.PutAnalytics(ctx, newer))
		require.NoError(t, s.PutAnalytics(ctx, older))

		got, err := s.LatestAnalytics(ctx, "amy@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "call-new", got.CallID)
		assert.Equal(t, []string{"new deliverable"}, got.Memory.Deliverables)
	})

	t.Run("no analytics yields nil", func(t *testing.T) {
		s := open(t)
		got, err := s.LatestAnalytics(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSQLiteCallStore(t *testing.T) {
	runCallStoreTests(t, func(t *testing.T) CallStore {
		return NewSQLiteCallStore(openTestDB(t))
	})
}

func TestMemoryCallStore(t *testing.T) {
	runCallStoreTests(t, func(t *testing.T) CallStore {
		return NewMemoryCallStore()
	})
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calls.db")
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "calls.db")
	log := logging.New(nil, "silent")

	db, err := Open(path, log)
	require.NoError(t, err)
	s := NewSQLiteCallStore(db)
	require.NoError(t, s.PutWindow(ctx, domain.Window{
		CallID:    "call-p",
		WindowNum: 1,
		Turns:     []domain.Turn{{Speaker: domain.SpeakerAgent, Transcript: "hello"}},
	}))
	require.NoError(t, db.Close())

	db, err = Open(path, log)
	require.NoError(t, err)
	defer db.Close()

	all, err := NewSQLiteCallStore(db).AllWindows(ctx, "call-p")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "hello", all[0].Turns[0].Transcript)
}
