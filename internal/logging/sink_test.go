package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) *Record {
	return &Record{
		Timestamp: time.Now().UTC(),
		RequestID: id,
		KeyID:     "key-456",
		Owner:     "developer_user",
		Domain:    "chat",
		Provider:  "openai",
		Outcome:   "ok",
		LatencyMs: 12,
	}
}

func TestNoopSink(t *testing.T) {
	sink := NewNoopSink()
	assert.NoError(t, sink.Enqueue(testRecord("req-1")))
}

func TestRedisSink_CapsList(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sink := NewRedisSink(client, "nf_gateway:dispatch_log", 3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, sink.Enqueue(testRecord(id)))
	}

	length, err := client.LLen(context.Background(), "nf_gateway:dispatch_log").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	recent, err := sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e", recent[0].RequestID, "newest first")
	assert.Equal(t, "c", recent[2].RequestID)
	assert.Equal(t, "developer_user", recent[0].Owner)
}

func TestRedisSink_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	sink := NewRedisSink(client, "k", 10)
	assert.Error(t, sink.Enqueue(testRecord("x")))
}

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out = append(out, rec)
	}
	return out
}

func TestFileSink_WritesJSONLines(t *testing.T) {
	template := filepath.Join(t.TempDir(), "logs", "dispatch-%s.jsonl")

	sink, err := NewFileSink(template, 1<<20, 5, 100, 50*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, sink.Enqueue(testRecord("req-1")))
	require.NoError(t, sink.Enqueue(testRecord("req-2")))
	path := sink.CurrentFile()
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "second close is a no-op")

	records := readRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "req-1", records[0].RequestID)
	assert.Equal(t, "chat", records[1].Domain)
}

func TestFileSink_RotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "dispatch-%s.jsonl")

	// Each record is larger than maxSize, so every record after the first
	// lands in a new file.
	sink, err := NewFileSink(template, 64, 2, 100, time.Hour)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Enqueue(testRecord("req")))
	}
	require.NoError(t, sink.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "dispatch-*.jsonl"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
	assert.NotEmpty(t, matches)
}

func TestFileSink_KeepsFileWhenRotationFails(t *testing.T) {
	template := filepath.Join(t.TempDir(), "dispatch-%s.jsonl")
	sink, err := NewFileSink(template, 64, 5, 100, time.Hour)
	require.NoError(t, err)
	first := sink.CurrentFile()

	sink.mu.Lock()
	sink.create = func(string) (*os.File, error) { return nil, errors.New("no space left on device") }
	sink.mu.Unlock()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, sink.Enqueue(testRecord(id)))
	}
	require.NoError(t, sink.Close())

	assert.Equal(t, first, sink.CurrentFile())
	records := readRecords(t, first)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[2].RequestID)
}

func TestFileSink_DropsWhenFull(t *testing.T) {
	template := filepath.Join(t.TempDir(), "dispatch-%s.jsonl")
	sink, err := NewFileSink(template, 1<<20, 5, 0, time.Hour)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	// No writer is left to take from the unbuffered queue
	assert.ErrorIs(t, sink.Enqueue(testRecord("req")), ErrSinkFull)
}

func TestConfigure(t *testing.T) {
	t.Setenv("LOCAL", "")
	defer SetLogLevel(Warning)

	require.NoError(t, Configure("info", "json"))
	assert.Equal(t, Info, LogLevel)

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Infof("dispatch %s", "ok")
	Debugf("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "dispatch ok", line["msg"])
	assert.Equal(t, "info", line["level"])

	assert.Error(t, Configure("verbose", "text"))
	assert.Error(t, Configure("info", "xml"))
	require.NoError(t, Configure("debug", "text"))
	assert.Equal(t, Debug, LogLevel)
}
