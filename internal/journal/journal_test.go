package journal

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relay-ai/relay/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func decision(target model.Target, m *model.Model, score float64, reason string, tags ...string) *model.Decision {
	return &model.Decision{
		ID:     uuid.NewString(),
		Target: target,
		Model:  m,
		Score:  score,
		Reason: reason,
		Tags:   tags,
	}
}

func TestRecordAndSummarize(t *testing.T) {
	s := openStore(t)

	local := &model.Model{Provider: "ollama", ID: "functiongemma"}
	text := &model.Model{Provider: "ollama", ID: "gemma3"}
	cloud := &model.Model{Provider: "anthropic", ID: "claude-sonnet-4-5"}

	require.NoError(t, s.Record(decision(model.TargetLocal, local, 0.0, "force-local")))
	require.NoError(t, s.Record(decision(model.TargetLocal, local, 0.1, "simple+tool", "file-read")))
	require.NoError(t, s.Record(decision(model.TargetLocalText, text, 0.2, "simple+text")))
	require.NoError(t, s.Record(decision(model.TargetCloud, cloud, 0.9, "complex+cloud", "implementation", "multi-signal")))

	sum, err := s.Summarize()
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Total)
	assert.Equal(t, int64(2), sum.Local)
	assert.Equal(t, int64(1), sum.LocalText)
	assert.Equal(t, int64(1), sum.Cloud)
	assert.InDelta(t, 75.0, sum.LocalRate, 1e-9)
	assert.InDelta(t, 0.3, sum.AvgScore, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := openStore(t)

	sum, err := s.Summarize()
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.Total)
	assert.Equal(t, 0.0, sum.LocalRate)
}

func TestRecent(t *testing.T) {
	s := openStore(t)
	cloud := &model.Model{Provider: "anthropic", ID: "claude-sonnet-4-5"}

	require.NoError(t, s.Record(decision(model.TargetCloud, cloud, 0.75, "cloud-capability", "real-time", "multi-signal")))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cloud", entries[0].Target)
	assert.Equal(t, "anthropic", entries[0].Provider)
	assert.Equal(t, []string{"real-time", "multi-signal"}, entries[0].Tags)
	assert.InDelta(t, 0.75, entries[0].Score, 1e-9)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestDuplicateIDRejected(t *testing.T) {
	s := openStore(t)
	local := &model.Model{Provider: "ollama", ID: "functiongemma"}

	d := decision(model.TargetLocal, local, 0.0, "force-local")
	require.NoError(t, s.Record(d))
	assert.Error(t, s.Record(d))
}
