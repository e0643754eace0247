package commands

import (
	"os"
	"path/filepath"
	"testing"

	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/scrapers/hoyts"
	"boxoffice-tracker/lib/scrapers/kinola"
	"boxoffice-tracker/lib/scrapers/omniweb"
	"boxoffice-tracker/lib/telemetry"
	"boxoffice-tracker/lib/timezone"

	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "boxoffice.json5")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	previous := configPath
	configPath = path
	t.Cleanup(func() { configPath = previous })
}

func TestReadConfig(t *testing.T) {
	withConfig(t, `{
		// shared defaults
		concurrency: 6,
		timezone: "Asia/Kolkata",
		storage: { kind: "fs", dir: "out" },
		identity: { user_agent: "tracker/1.0", requests_per_second: 2 },
		hoyts: { enabled: true, all_movies: true },
		omniweb: { enabled: false, venues: ["https://omniwebticketing5.com/orleans/"] },
		kinola: { enabled: true, language: "en" },
	}`)
	t.Setenv("BOXOFFICE_CONCURRENCY", "")
	t.Setenv("BOXOFFICE_STORAGE", "")
	t.Setenv("BOXOFFICE_DATA_DIR", "")

	cfg, err := readConfig()
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Concurrency)
	require.Equal(t, docstore.KindFS, cfg.Storage.Kind)
	require.Equal(t, "out", cfg.Storage.Dir)
	require.Equal(t, "tracker/1.0", cfg.Identity.UserAgent)
	require.True(t, cfg.Hoyts.AllMovies)
	require.Equal(t, "en", cfg.Kinola.Language)
	require.Equal(t, []string{hoyts.Name, kinola.Name}, cfg.EnabledSources())
}

func TestReadConfigEnv(t *testing.T) {
	withConfig(t, `{ concurrency: 6, storage: { dir: "out" } }`)
	t.Setenv("BOXOFFICE_CONCURRENCY", "3")
	t.Setenv("BOXOFFICE_DATA_DIR", "/var/lib/boxoffice")
	t.Setenv("BOXOFFICE_STORAGE", "")

	cfg, err := readConfig()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Concurrency)
	require.Equal(t, "/var/lib/boxoffice", cfg.Storage.Dir)
}

func TestReadConfigMissing(t *testing.T) {
	previous := configPath
	configPath = filepath.Join(t.TempDir(), "absent.json5")
	t.Cleanup(func() { configPath = previous })

	cfg, err := readConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.EnabledSources())
}

func TestNewSource(t *testing.T) {
	cfg := Config{
		Omniweb: OmniwebConfig{Config: omniweb.Config{
			Venues: []string{"https://omniwebticketing5.com/orleans"},
			Date:   "2025-09-24",
		}},
	}
	clock := timezone.FixedClock{}
	tel := &telemetry.Recorder{}

	for _, name := range SourceNames {
		src, err := cfg.NewSource(name, clock, tel, nil)
		require.NoError(t, err, name)
		require.Equal(t, name, src.Name())
	}

	_, err := cfg.NewSource("fandango", clock, tel, nil)
	require.ErrorContains(t, err, "unknown source")
}
