package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndOpen(t *testing.T) {
	called := false
	Register("test-kind", func(ctx context.Context, cfg Config) (Store, error) {
		called = true
		require.Equal(t, "dsn", cfg.DSN)
		return nil, nil
	})

	_, err := Open(context.Background(), Config{Kind: "test-kind", DSN: "dsn"})
	require.NoError(t, err)
	require.True(t, called)
	require.Contains(t, Kinds(), "test-kind")

	require.Panics(t, func() {
		Register("test-kind", func(context.Context, Config) (Store, error) { return nil, nil })
	})
	require.Panics(t, func() { Register("", nil) })
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(context.Background(), Config{Kind: "oracle"})
	require.Error(t, err)

	_, err = Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestDurationBinExpr(t *testing.T) {
	expr := DurationBinExpr("d")
	require.Contains(t, expr, "CASE WHEN d < 1800 THEN 0 WHEN d < 3600 THEN 1")
	require.Contains(t, expr, "WHEN d < 259200 THEN 12 ELSE 13 END")
}

func TestBinCounts(t *testing.T) {
	counts := BinCounts(map[int]int64{0: 2, 13: 5, 99: 1})
	require.Len(t, counts, 14)
	require.Equal(t, int64(2), counts[0])
	require.Equal(t, int64(5), counts[13])
}

func TestChunks(t *testing.T) {
	require.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, Chunks(5, 2))
	require.Empty(t, Chunks(0, 2))
}
