// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/actx/internal/config"
	"github.com/invowk/actx/pkg/actx"
	"github.com/invowk/actx/pkg/loader"
)

type (
	// App wires CLI services and shared dependencies. All Cobra handlers
	// receive an App and build their provider through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlags holds the persistent flags shared by every subcommand.
	rootFlags struct {
		configPath string
		verbose    bool
		baseDir    string
		locations  []string
		exclude    string
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads the configuration named by the --config flag, or the
// default lookup when it is empty.
func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
}

// newLogger creates the CLI logger. --verbose forces debug output; otherwise
// the configured level applies.
func (a *App) newLogger(flags *rootFlags, cfg *config.Config) *log.Logger {
	level := cfg.LogLevel.Level()
	if flags.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// newLoader returns the module loader: shell scripts and CUE modules, with
// script warnings going to logger.
func newLoader(logger *log.Logger) actx.Loader {
	return loader.NewMux().
		Handle(".sh", &loader.Shell{Logger: logger}).
		Handle(".cue", loader.NewCUE())
}

// openProvider loads configuration, applies flag overrides and runs
// discovery. --location replaces the configured locations; --base-dir and
// --exclude replace their configured counterparts.
func (a *App) openProvider(ctx context.Context, flags *rootFlags) (*actx.Provider, *log.Logger, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, nil, err
	}
	logger := a.newLogger(flags, cfg)

	locations, err := cfg.ActxLocations()
	if err != nil {
		return nil, nil, err
	}
	if len(flags.locations) > 0 {
		locations = make([]actx.Location, 0, len(flags.locations))
		for i, raw := range flags.locations {
			loc, parseErr := parseLocationFlag(raw)
			if parseErr != nil {
				return nil, nil, fmt.Errorf("--location #%d: %w", i+1, parseErr)
			}
			locations = append(locations, loc)
		}
	}

	opts, err := cfg.ActxOptions()
	if err != nil {
		return nil, nil, err
	}
	if flags.baseDir != "" {
		opts = append(opts, actx.WithBaseDir(flags.baseDir))
	}
	if flags.exclude != "" {
		spec, parseErr := actx.ParseSpec(flags.exclude)
		if parseErr != nil {
			return nil, nil, fmt.Errorf("--exclude: %w", parseErr)
		}
		opts = append(opts, actx.WithFileFilter(spec))
	}
	opts = append(opts, actx.WithLoader(newLoader(logger)), actx.WithLogger(logger))

	logger.Debug("discovering actions", "locations", len(locations), "config", cfg.Source)
	p, err := actx.Setup(ctx, locations, opts...)
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}

// parseLocationFlag reads "SOURCE" or "SOURCE=FILTER", both tagged
// references.
func parseLocationFlag(raw string) (actx.Location, error) {
	source, filter, hasFilter := strings.Cut(raw, "=")
	lc := config.LocationConfig{Source: source, Filter: filter}
	if hasFilter && filter == "" {
		return actx.Location{}, fmt.Errorf("empty filter in %q", raw)
	}
	if valid, errs := lc.IsValid(); !valid {
		return actx.Location{}, errs[0]
	}
	return lc.Spec()
}
