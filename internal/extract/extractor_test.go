package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
	"github.com/weitweety/biking-data-analyzer/internal/logging"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDirMissingDirectory(t *testing.T) {
	ex := New(logging.Discard())

	_, err := ex.Dir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirWithoutCSVFilesIsNoData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "hello")
	ex := New(logging.Discard())

	batch, err := ex.Dir(context.Background(), dir)
	require.ErrorIs(t, err, domain.ErrNoData)
	require.Empty(t, batch.Files)
}

func TestDirConcatenatesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	second := writeFile(t, dir, "b.csv", "tripduration,bikeid\n20,7\n")
	first := writeFile(t, dir, "a.csv", "\ufefftripduration,usertype\n10,Subscriber\n11,Customer\n")
	writeFile(t, dir, "ignored.CSV.bak", "x\n1\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))
	ex := New(logging.Discard())

	batch, err := ex.Dir(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, []string{first, second}, batch.Files)
	require.Equal(t, []string{"tripduration", "usertype", "bikeid"}, batch.Table.Columns)
	require.Equal(t, [][]string{
		{"10", "Subscriber", ""},
		{"11", "Customer", ""},
		{"20", "", "7"},
	}, batch.Table.Rows)
}

func TestFileMissing(t *testing.T) {
	ex := New(logging.Discard())

	_, err := ex.File(context.Background(), filepath.Join(t.TempDir(), "x.csv"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadCSVPadsShortRows(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(" a , b ,c\n1,2\n4,5,6,7\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, table.Columns)
	require.Equal(t, [][]string{{"1", "2", ""}, {"4", "5", "6"}}, table.Rows)
}

func TestReadCSVEmptyInput(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	require.Zero(t, table.Len())
}

func TestValidate(t *testing.T) {
	table := Table{Columns: []string{"name", "value"}, Rows: [][]string{{"x", "1"}}}

	require.NoError(t, Validate(table, "name"))
	require.ErrorIs(t, Validate(table, "name", "category"), domain.ErrValidation)
	require.ErrorIs(t, Validate(Table{Columns: []string{"name"}}, "name"), domain.ErrValidation)
}
