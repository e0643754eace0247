package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"boxoffice-tracker/lib/configutil"
	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/restyutil"
	"boxoffice-tracker/lib/scrapers/demo"
	"boxoffice-tracker/lib/scrapers/hoyts"
	"boxoffice-tracker/lib/scrapers/identity"
	"boxoffice-tracker/lib/scrapers/kinola"
	"boxoffice-tracker/lib/scrapers/omniweb"
	"boxoffice-tracker/lib/telemetry"
	"boxoffice-tracker/lib/timezone"
	"boxoffice-tracker/services/tracker"
)

type HoytsConfig struct {
	Enabled bool `json:"enabled"`
	hoyts.Config
}

type OmniwebConfig struct {
	Enabled bool `json:"enabled"`
	omniweb.Config
}

type KinolaConfig struct {
	Enabled bool `json:"enabled"`
	kinola.Config
}

type DemoConfig struct {
	Enabled bool `json:"enabled"`
	demo.Config
}

type Config struct {
	Concurrency int             `json:"concurrency"`
	Timezone    string          `json:"timezone"`
	Storage     docstore.Config `json:"storage"`
	// Identity holds the defaults every source identity falls back to.
	Identity identity.Identity `json:"identity"`

	Hoyts   HoytsConfig   `json:"hoyts"`
	Omniweb OmniwebConfig `json:"omniweb"`
	Kinola  KinolaConfig  `json:"kinola"`
	Demo    DemoConfig    `json:"demo"`
}

// readConfig reads the configuration file, a missing file means an
// empty configuration.
func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no configuration file found, using defaults", "path", configPath)
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg.Storage = cfg.Storage.WithEnv()
	cfg.Concurrency = configutil.EnvInt("BOXOFFICE_CONCURRENCY", cfg.Concurrency)
	return cfg, nil
}

func (c Config) Clock() (timezone.StandardClock, error) {
	return timezone.NewStandardClock(c.Timezone)
}

func (c Config) OpenStorage(ctx context.Context) (docstore.Backend, error) {
	return docstore.Open(ctx, c.Storage)
}

// SourceNames lists every known source in a stable order.
var SourceNames = []string{hoyts.Name, omniweb.Name, kinola.Name, demo.Name}

func (c Config) enabled(name string) bool {
	switch name {
	case hoyts.Name:
		return c.Hoyts.Enabled
	case omniweb.Name:
		return c.Omniweb.Enabled
	case kinola.Name:
		return c.Kinola.Enabled
	case demo.Name:
		return c.Demo.Enabled
	}
	return false
}

// EnabledSources lists the names of the sources enabled in the config.
func (c Config) EnabledSources() []string {
	var out []string
	for _, name := range SourceNames {
		if c.enabled(name) {
			out = append(out, name)
		}
	}
	return out
}

// NewSource constructs the named source with its identity merged over
// the shared identity defaults.
func (c Config) NewSource(name string, clock timezone.Clock, tel telemetry.API, dump restyutil.Output) (tracker.Source, error) {
	opts := identity.Options{Name: name, Tel: tel, Dump: dump}
	switch name {
	case hoyts.Name:
		cfg := c.Hoyts.Config
		cfg.Identity = cfg.Identity.Merge(c.Identity)
		return hoyts.NewSource(cfg, opts)
	case omniweb.Name:
		cfg := c.Omniweb.Config
		cfg.Identity = cfg.Identity.Merge(c.Identity)
		return omniweb.NewSource(cfg, clock, opts)
	case kinola.Name:
		cfg := c.Kinola.Config
		cfg.Identity = cfg.Identity.Merge(c.Identity)
		return kinola.NewSource(cfg, opts)
	case demo.Name:
		return demo.NewSource(c.Demo.Config, clock, tel)
	}
	return nil, fmt.Errorf("unknown source %q, expected one of %v", name, SourceNames)
}
