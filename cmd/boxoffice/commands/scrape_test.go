package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/runlog"
	"boxoffice-tracker/lib/summary"

	"github.com/stretchr/testify/require"
)

func TestScrapeDemo(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	configFile := filepath.Join(dir, "boxoffice.json5")
	require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(`{
		storage: { dir: %q },
		demo: { enabled: true, venues: 2, shows_per_venue: 3, date: "2025-09-24" },
	}`, dataDir)), 0644))
	t.Setenv("BOXOFFICE_STORAGE", "")
	t.Setenv("BOXOFFICE_DATA_DIR", "")
	t.Setenv("BOXOFFICE_CONCURRENCY", "")

	previous := configPath
	t.Cleanup(func() { configPath = previous })

	ctx := context.Background()
	for _, args := range [][]string{
		{"--config", configFile, "scrape"},
		{"--config", configFile, "scrape", "demo"},
		{"--config", configFile, "summary", "demo", "2025-09-24"},
		{"--config", configFile, "logs", "demo"},
	} {
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.ExecuteContext(ctx), args)
	}

	backend, err := docstore.NewFS(dataDir)
	require.NoError(t, err)
	entries, err := runlog.Load(ctx, backend, runlog.Key("demo"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, found, err := summary.NewStore(backend, "demo").Load(ctx, "2025-09-24")
	require.NoError(t, err)
	require.True(t, found)

	rootCmd.SetArgs([]string{"--config", configFile, "summary", "demo", "2001-01-01"})
	require.Error(t, rootCmd.ExecuteContext(ctx))
}
