// Package cli implements the phasehull command-line interface.
//
// # Commands
//
//   - hull: stable phases, decompositions and the phase diagram of a dataset
//   - sweep: rebuild a temperature series and report invariant points
//   - chempot: chemical-potential polytope of a dataset
//   - serve: run the JSON HTTP API
//   - cache: manage the local result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context and into the pipeline runner.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phasehull/pkg/buildinfo"
	"github.com/matzehuels/phasehull/pkg/cache"
	"github.com/matzehuels/phasehull/pkg/config"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool
	noCache    bool
	cpuProfile bool
	profileDir string
	stopProf   func()
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config:     config.Defaults(),
		profileDir: ".",
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Phasehull computes phase stability from formation energies",
		Long: `Phasehull builds the lower convex hull of formation energies over a
composition simplex. It reports stable phases, decomposition products and
energies above the hull, derives phase regions and tie-lines, sweeps
temperature series for invariant points and projects the hull into
chemical-potential space.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the result cache")
	flags.BoolVar(&c.cpuProfile, "cpuprofile", false, "write a CPU profile to the working directory")

	root.AddCommand(c.hullCommand())
	root.AddCommand(c.sweepCommand())
	root.AddCommand(c.chempotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config, applies the log level and starts profiling.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	c.SetLogLevel(levelFor(cfg.Log.Level, c.verbose))
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))

	if c.cpuProfile {
		c.stopProf = profile.Start(profile.CPUProfile, profile.ProfilePath(c.profileDir), profile.Quiet).Stop
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

func (c *CLI) teardown() {
	if c.stopProf != nil {
		c.stopProf()
		c.stopProf = nil
		printDetail("CPU profile written to %s", filepath.Join(c.profileDir, "cpu.pprof"))
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.Config.Cache.Keyer(), c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := cache.Open(ctx, c.Config.Cache.Options())
	if err != nil {
		// A broken cache should not prevent a local computation.
		c.Logger.Warn("cache disabled", "backend", c.Config.Cache.Backend, "err", err)
		return cache.NewNullCache(), nil
	}
	return cc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// engineFlags are the numerical flags shared by the compute commands.
type engineFlags struct {
	tolerance  float64
	warnFactor float64
	refresh    bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "relative predicate tolerance (default from config)")
	cmd.Flags().Float64Var(&f.warnFactor, "warn-factor", 0, "precision warning band as a multiple of the tolerance")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if a cached result exists")
}

// options layers the flags over the config.
func (c *CLI) options(f engineFlags) pipeline.Options {
	opts := pipeline.Options{
		Tolerance:  c.Config.Engine.Tolerance,
		WarnFactor: c.Config.Engine.WarnFactor,
		TTL:        c.Config.Cache.TTL,
		Refresh:    f.refresh,
		Logger:     c.Logger,
	}
	if f.tolerance != 0 {
		opts.Tolerance = f.tolerance
	}
	if f.warnFactor != 0 {
		opts.WarnFactor = f.warnFactor
	}
	return opts
}

// parseFloats parses a comma-separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, perr.Wrap(perr.ErrCodeInvalidInput, err, "parse %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// parseAxes resolves three comma-separated axes given as indices or
// component names.
func parseAxes(s string, components []string) (*[3]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, perr.New(perr.ErrCodeInvalidInput, "need exactly 3 axes, got %d", len(parts))
	}
	var axes [3]int
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if n, err := strconv.Atoi(p); err == nil {
			axes[i] = n
			continue
		}
		found := false
		for j, name := range components {
			if name == p {
				axes[i], found = j, true
				break
			}
		}
		if !found {
			return nil, perr.New(perr.ErrCodeInvalidInput, "unknown component: %s", p)
		}
	}
	return &axes, nil
}
