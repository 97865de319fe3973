package jsonl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userID string, msgIndex int) *core.InteractionRecord {
	return &core.InteractionRecord{
		Timestamp:        time.Now().UTC(),
		UserID:           userID,
		MsgIndex:         msgIndex,
		UserInput:        "something with dragons",
		UserVec:          []float32{0.6, 0.8},
		CandidateIndices: []int{3, 1},
		CandidateScores:  []float32{0.9, 0.7},
		FinalK:           5,
	}
}

func TestAppendAndScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec_log.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(record("7", 0)))
	require.NoError(t, log.Append(record("7", 1)))
	require.NoError(t, log.Append(record("8", 0)))

	t.Run("one json object per line", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 3)

		var parsed core.InteractionRecord
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &parsed))
		assert.Equal(t, "7", parsed.UserID)
		assert.Equal(t, 1, parsed.MsgIndex)
		assert.Equal(t, []float32{0.6, 0.8}, parsed.UserVec)
	})

	t.Run("last indices per user", func(t *testing.T) {
		indices, err := log.LastIndices()
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"7": 1, "8": 0}, indices)
	})
}

func TestScanSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec_log.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(record("7", 4)))
	require.NoError(t, log.Close())

	// Reopen appends, never truncates.
	log, err = Open(path)
	require.NoError(t, err)
	defer log.Close()
	require.NoError(t, log.Append(record("7", 5)))

	indices, err := log.LastIndices()
	require.NoError(t, err)
	assert.Equal(t, 5, indices["7"])
}

func TestScanSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec_log.jsonl")
	contents := `{"user_id":"7","msg_index":2}` + "\n" +
		"this is not json\n" +
		"\n" +
		`{"user_id":"8","msg_index":0}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	indices, err := log.LastIndices()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7": 2, "8": 0}, indices)
}

func TestEmptyLog(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "rec_log.jsonl"))
	require.NoError(t, err)
	defer log.Close()

	indices, err := log.LastIndices()
	require.NoError(t, err)
	assert.Empty(t, indices)
}

func TestClosedLogRejected(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "rec_log.jsonl"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	assert.ErrorIs(t, log.Append(record("7", 0)), storage.ErrStorageClosed)
	_, err = log.LastIndices()
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.NoError(t, log.Close())
}
