package report_test

import (
	"logogrouper/internal/report"
	"logogrouper/pkg/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestWriter_WriteFetch(t *testing.T) {
	dir := t.TempDir()
	w := report.NewWriter(dir)

	err := w.WriteFetch(domain.FetchSummary{
		Total:      3,
		Successful: 1,
		Failed:     []domain.Domain{"b.com", "a.com"},
	})
	require.NoError(t, err)

	require.Equal(t, "Downloaded logos for 1 domains out of 3 (33.33%)\n",
		readFile(t, filepath.Join(dir, report.ScrapeResultsFile)))
	require.Equal(t, "b.com\na.com\n", readFile(t, filepath.Join(dir, report.FailedDomainsFile)))
}

func TestWriter_WriteFetch_noFailuresRemovesStaleFile(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, report.FailedDomainsFile)
	require.NoError(t, os.WriteFile(stale, []byte("old.com\n"), 0o600))

	w := report.NewWriter(dir)
	require.NoError(t, w.WriteFetch(domain.FetchSummary{Total: 2, Successful: 2}))

	require.Equal(t, "Downloaded logos for 2 domains out of 2 (100.00%)\n",
		readFile(t, filepath.Join(dir, report.ScrapeResultsFile)))
	_, err := os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriter_WriteFetch_empty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := report.NewWriter(dir)

	require.NoError(t, w.WriteFetch(domain.FetchSummary{}))
	require.Equal(t, "Downloaded logos for 0 domains out of 0 (0.00%)\n",
		readFile(t, filepath.Join(dir, report.ScrapeResultsFile)))
}

func TestWriter_WriteClusters(t *testing.T) {
	dir := t.TempDir()
	w := report.NewWriter(dir)

	err := w.WriteClusters([]domain.Cluster{
		{ID: 0, Members: []string{"logos/a.com.png", "logos/b.com.png"}},
		{ID: 1, Members: []string{"logos/c.com.jpg"}},
	})
	require.NoError(t, err)

	require.Equal(t,
		"Group 0:\n  - logos/a.com.png\n  - logos/b.com.png\nGroup 1:\n  - logos/c.com.jpg\n",
		readFile(t, filepath.Join(dir, report.ProcessResultsFile)))
}
