package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vemoji/common"
)

func TestSQLiteStore(t *testing.T) {
	common.DataFolder = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	wait := StartDatabase(ctx)
	defer func() {
		cancel()
		wait.Wait()
	}()

	store := NewSQLiteStore()

	t.Run("RoundTrip", func(t *testing.T) {
		err := store.Put(ctx, "1f600", Record{Content: "<svg/>", Source: "jsdelivr", Timestamp: 1234})
		require.NoError(t, err)

		rec, err := store.Get(ctx, "1f600")
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, "<svg/>", rec.Content)
		require.Equal(t, "jsdelivr", rec.Source)
		require.Equal(t, int64(1234), rec.Timestamp)
	})

	t.Run("AbsentIsNil", func(t *testing.T) {
		rec, err := store.Get(ctx, "ffff")
		require.NoError(t, err)
		require.Nil(t, rec)
	})

	t.Run("OverwriteReplaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "1f600", Record{Content: "<svg>2</svg>", Source: "unpkg", Timestamp: 5678}))

		rec, err := store.Get(ctx, "1f600")
		require.NoError(t, err)
		require.Equal(t, "<svg>2</svg>", rec.Content)
		require.Equal(t, int64(5678), rec.Timestamp)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("KeysAndDelete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "1f601", Record{Content: "<svg/>", Timestamp: 1}))
		require.NoError(t, store.Put(ctx, "1f602", Record{Content: "<svg/>", Timestamp: 2}))

		stamps, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Len(t, stamps, 3)

		require.NoError(t, store.Delete(ctx, []string{"1f601", "1f602"}))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("NullTimestampReadsZero", func(t *testing.T) {
		conn, err := OpenDatabase(ctx)
		require.NoError(t, err)

		stmt, err := conn.Prepare(`INSERT INTO emoji_cache(codepoint, content, source, created_at) VALUES ('bad', '<svg/>', '', NULL);`)
		require.NoError(t, err)
		_, err = stmt.Step()
		require.NoError(t, err)
		stmt.Reset()
		CloseDatabase(conn)

		rec, err := store.Get(ctx, "bad")
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, int64(0), rec.Timestamp)
	})
}
