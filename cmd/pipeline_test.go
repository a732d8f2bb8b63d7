package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"logogrouper/internal/config"
	"logogrouper/internal/report"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/logger"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Setup("test", ""); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg, err := config.Load(filepath.Join(root, "missing.yml"))
	require.NoError(t, err)
	cfg.Paths.LogosDir = filepath.Join(root, "logos")
	cfg.Paths.GroupsDir = filepath.Join(root, "groups")
	cfg.Paths.ReportsDir = filepath.Join(root, "reports")
	require.NoError(t, os.MkdirAll(cfg.Paths.LogosDir, 0o755))

	return cfg
}

func writeSolid(t *testing.T, path string, split int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := range 32 {
		for x := range 32 {
			c := color.RGBA{A: 255}
			if x < split {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestRunGroup(t *testing.T) {
	cfg := testConfig(t)
	a := filepath.Join(cfg.Paths.LogosDir, "a.com.png")
	b := filepath.Join(cfg.Paths.LogosDir, "b.com.png")
	writeSolid(t, a, 16)
	writeSolid(t, b, 16)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.LogosDir, "c.com.svg"), []byte("<svg/>"), 0o600))

	clusters, err := runGroup(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	require.Equal(t, []string{a, b}, clusters[0].Members)

	_, err = os.Stat(filepath.Join(cfg.Paths.GroupsDir, "group_0", "b.com.png"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Paths.ReportsDir, report.ProcessResultsFile))
	require.NoError(t, err)
}

func TestRunGroup_missingLogos(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.LogosDir = filepath.Join(t.TempDir(), "nope")

	_, err := runGroup(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestRunFetch_emptyList(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Input = filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(cfg.Paths.Input, []byte("# nothing yet\n"), 0o600))

	summary, err := runFetch(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Zero(t, summary.Total)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.ReportsDir, report.ScrapeResultsFile))
	require.NoError(t, err)
	require.Equal(t, "Downloaded logos for 0 domains out of 0 (0.00%)\n", string(data))
}

func TestRunGroup_onlyGivenPaths(t *testing.T) {
	cfg := testConfig(t)
	a := filepath.Join(cfg.Paths.LogosDir, "a.com.png")
	b := filepath.Join(cfg.Paths.LogosDir, "b.com.png")
	writeSolid(t, a, 16)
	writeSolid(t, b, 16)
	// left over from an earlier run
	writeSolid(t, filepath.Join(cfg.Paths.LogosDir, "stale.com.png"), 16)

	clusters, err := runGroup(context.Background(), cfg, []string{b, a})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	require.Equal(t, []string{a, b}, clusters[0].Members)

	_, err = os.Stat(filepath.Join(cfg.Paths.GroupsDir, "group_0", "stale.com.png"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunGroup_nothingSaved(t *testing.T) {
	cfg := testConfig(t)
	writeSolid(t, filepath.Join(cfg.Paths.LogosDir, "stale.com.png"), 16)

	clusters, err := runGroup(context.Background(), cfg, savedPaths(domain.FetchSummary{Total: 1}))
	require.NoError(t, err)
	require.Empty(t, clusters)
}

func TestRunFetch_countsRejectedRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Input = filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(cfg.Paths.Input, []byte("bad domain!\n\n# comment\n"), 0o600))

	summary, err := runFetch(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, []domain.Domain{"bad domain!"}, summary.Failed)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.ReportsDir, report.ScrapeResultsFile))
	require.NoError(t, err)
	require.Equal(t, "Downloaded logos for 0 domains out of 1 (0.00%)\n", string(data))

	data, err = os.ReadFile(filepath.Join(cfg.Paths.ReportsDir, report.FailedDomainsFile))
	require.NoError(t, err)
	require.Equal(t, "bad domain!\n", string(data))
}
