package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLServerInsertStatementNumbersPlaceholders(t *testing.T) {
	s := &Store{dialect: SQLServer}

	query, args := s.insertStatement("data_records", []string{"name", "value"}, [][]any{{"a", 1.0}, {"b", 2.0}})
	require.Equal(t, "INSERT INTO data_records (name, value) VALUES (@p1, @p2), (@p3, @p4)", query)
	require.Equal(t, []any{"a", 1.0, "b", 2.0}, args)
}

func TestSQLitePageAndTimeEncoding(t *testing.T) {
	require.Equal(t, " LIMIT 10 OFFSET 20", SQLite.Page(20, 10))
	require.Equal(t, " OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", SQLServer.Page(20, 10))

	at := time.Date(2024, time.June, 1, 12, 30, 0, 5, time.FixedZone("X", 3600))
	require.Equal(t, "2024-06-01 11:30:00.000000005", SQLite.EncodeTime(at))
}

func TestDecodeTime(t *testing.T) {
	want := time.Date(2024, time.June, 1, 11, 30, 0, 0, time.UTC)
	for _, src := range []any{
		"2024-06-01 11:30:00.000000000",
		[]byte("2024-06-01T11:30:00Z"),
		"2024-06-01 11:30:00",
		want,
	} {
		got, err := decodeTime(src)
		require.NoError(t, err)
		require.True(t, want.Equal(got), "%v", src)
	}

	_, err := decodeTime("yesterday")
	require.Error(t, err)
	_, err = decodeTime(42)
	require.Error(t, err)
}
