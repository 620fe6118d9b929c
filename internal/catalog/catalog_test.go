package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/flowlog/internal/filter"
	"github.com/dyluth/flowlog/pkg/datasvc"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) *datasvc.Client {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := datasvc.NewClient(&redis.Options{Addr: mr.Addr()}, "test-ns")
	require.NoError(t, err)
	client.SetRetryPolicy(datasvc.RetryPolicy{MaxAttempts: 1})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestListRecords(t *testing.T) {
	ctx := context.Background()
	client := setupTestClient(t)

	nb, err := client.CreateRecord(ctx, "runs", "train.ipynb", nil, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = client.CreateRecord(ctx, "runs", "epoch-1", map[string]any{"loss": 0.4}, datasvc.DerivedFrom(nb))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = client.CreateRecord(ctx, "other", "epoch-1", nil, nil)
	require.NoError(t, err)

	t.Run("default table lists all records oldest first", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ListRecords(ctx, client, "test-ns", OutputFormatDefault, nil, &buf))

		out := buf.String()
		assert.Contains(t, out, "Records in namespace 'test-ns'")
		assert.Contains(t, out, "3 records found")
		assert.Less(t, strings.Index(out, "train.ipynb"), strings.Index(out, "epoch-1"))
	})

	t.Run("jsonl honours filters", func(t *testing.T) {
		var buf bytes.Buffer
		criteria := &filter.Criteria{TitleGlob: "epoch-*", Collection: "runs"}
		require.NoError(t, ListRecords(ctx, client, "test-ns", OutputFormatJSONL, criteria, &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var r datasvc.Record
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &r))
		assert.Equal(t, "epoch-1", r.Title)
		assert.Equal(t, []string{nb}, r.DependencyIDs())
	})

	t.Run("empty result", func(t *testing.T) {
		var buf bytes.Buffer
		criteria := &filter.Criteria{TitleGlob: "nothing"}
		require.NoError(t, ListRecords(ctx, client, "test-ns", OutputFormatDefault, criteria, &buf))
		assert.Contains(t, buf.String(), "No records found in namespace 'test-ns'")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := ListRecords(ctx, client, "test-ns", OutputFormat("xml"), nil, &bytes.Buffer{})
		assert.ErrorContains(t, err, "unknown output format")
	})
}

func TestGetRecord(t *testing.T) {
	ctx := context.Background()
	client := setupTestClient(t)
	id, err := client.CreateRecord(ctx, "runs", "epoch-1", map[string]any{"loss": 0.4}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, GetRecord(ctx, client, id, &buf))
	assert.Contains(t, buf.String(), `"title": "epoch-1"`)

	err = GetRecord(ctx, client, "not-an-id", &buf)
	assert.ErrorContains(t, err, "invalid record ID format")

	err = GetRecord(ctx, client, datasvc.NewRecordID(), &buf)
	assert.True(t, IsNotFound(err))
}

func TestGetLineage(t *testing.T) {
	ctx := context.Background()
	client := setupTestClient(t)

	ds, err := client.CreateRecord(ctx, "runs", "train.csv", nil, nil)
	require.NoError(t, err)
	ck1, err := client.CreateRecord(ctx, "runs", "epoch-1", nil, datasvc.DerivedFrom(ds))
	require.NoError(t, err)
	ck2, err := client.CreateRecord(ctx, "runs", "epoch-2", nil, datasvc.DerivedFrom(ck1, ds))
	require.NoError(t, err)

	l, err := GetLineage(ctx, client, ck1)
	require.NoError(t, err)
	require.Len(t, l.Upstream, 1)
	assert.Equal(t, ds, l.Upstream[0].ID)
	require.Len(t, l.Downstream, 1)
	assert.Equal(t, ck2, l.Downstream[0].ID)

	var buf bytes.Buffer
	FormatLineage(&buf, l)
	assert.Contains(t, buf.String(), "↑ "+ds+"  train.csv")
	assert.Contains(t, buf.String(), "↓ "+ck2+"  epoch-2")

	_, err = GetLineage(ctx, client, datasvc.NewRecordID())
	assert.True(t, IsNotFound(err))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1a2b3c4d", formatID("d/1a2b3c4d-0000-4000-8000-000000000001"))
	assert.Equal(t, "short", formatID("short"))
	assert.Equal(t, "-", formatDeps(0))
	assert.Equal(t, "2", formatDeps(2))
	assert.Equal(t, "-", formatFile("", 0))
	assert.Equal(t, "model.ckpt (1.5 KB)", formatFile("model.ckpt", 1536))
	assert.Equal(t, "12 B", formatSize(12))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
	assert.Equal(t, "-", formatTimestamp(0))
	assert.Equal(t, "5m ago", formatTimestamp(time.Now().Add(-5*time.Minute-time.Second).UnixMilli()))
	assert.Equal(t, strings.Repeat("a", 29)+"...", formatTitle(strings.Repeat("a", 40)))
}
