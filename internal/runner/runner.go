// Package runner executes a run file against a new simulation.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/banshee-data/micromag/internal/config"
	"github.com/banshee-data/micromag/internal/engine"
	"github.com/banshee-data/micromag/internal/fsutil"
	"github.com/banshee-data/micromag/internal/monitoring"
	"github.com/banshee-data/micromag/internal/output"
	"github.com/banshee-data/micromag/internal/physics"
	"github.com/banshee-data/micromag/internal/region"
	"github.com/banshee-data/micromag/internal/region/luaclass"
	"github.com/banshee-data/micromag/internal/storage/sqlite"
	"github.com/banshee-data/micromag/internal/timeutil"
)

// ErrNoDatabase reports a preload without a snapshot database.
var ErrNoDatabase = errors.New("no snapshot database")

// Options holds the collaborators of a run.
type Options struct {
	// BaseDir resolves relative image and script paths, usually the
	// directory of the run file.
	BaseDir string
	// FS receives output files. Nil means the OS filesystem.
	FS fsutil.FileSystem
	// DB stores snapshots saved in the "db" format and serves preloads.
	DB    *sqlite.DB
	Clock timeutil.Clock
}

// Result describes a finished run.
type Result struct {
	Stats        engine.Stats
	RegionReport *region.BuildReport
	InitReports  []*region.InitReport
}

// Run builds a simulation from cfg, steps it and writes the configured
// outputs. Tables are plotted even when stepping fails.
func Run(ctx context.Context, cfg *config.RunConfig, opts Options) (*Result, error) {
	sim, err := Prepare(cfg, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if res.RegionReport, res.InitReports, err = buildRegions(sim, cfg, opts); err != nil {
		return nil, err
	}
	if err := setCells(sim, cfg); err != nil {
		return nil, err
	}
	if cfg.Dt != nil {
		if err := sim.SetDt(cfg.GetDt()); err != nil {
			return nil, err
		}
	}
	if err := schedule(sim, cfg); err != nil {
		return nil, err
	}

	var runErr error
	if cfg.RunUntil != nil {
		runErr = sim.RunUntil(ctx, *cfg.RunUntil)
	} else {
		runErr = sim.Run(ctx, cfg.GetSteps())
	}
	if runErr == nil {
		for _, s := range cfg.Saves {
			if err := sim.Save(s.Quantity, s.Format, s.Options, s.Path); err != nil {
				runErr = err
				break
			}
		}
	}
	flushErr := sim.Flush()
	res.Stats = sim.Stats()
	if err := errors.Join(runErr, flushErr); err != nil {
		return res, err
	}
	monitoring.Logf("run %s: %d steps to t=%g in %v", res.Stats.RunID, res.Stats.Steps, res.Stats.Time, res.Stats.Wall)
	return res, nil
}

// Prepare creates the simulation, sizes the grid, loads modules and sets
// the uniform quantities and preloads of cfg.
func Prepare(cfg *config.RunConfig, opts Options) (*engine.Simulation, error) {
	ecfg := engine.Config{
		OutputDir: cfg.GetOutputDir(),
		FS:        opts.FS,
		Modules:   physics.Modules(),
		Clock:     opts.Clock,
		RunID:     uuid.New(),
	}
	var store *sqlite.SnapshotStore
	if opts.DB != nil {
		store = sqlite.NewSnapshotStore(opts.DB, ecfg.RunID, opts.Clock)
		ecfg.Persisters = map[string]output.Persister{sqlite.Format: store}
	}
	sim := engine.New(ecfg)

	size, cell := cfg.Grid.Size, cfg.Grid.CellSize
	if err := sim.SetGridSize(size[0], size[1], size[2]); err != nil {
		return nil, err
	}
	if err := sim.SetCellSize(cell[0], cell[1], cell[2]); err != nil {
		return nil, err
	}
	if store != nil {
		err := store.StartRun(&sqlite.Run{
			Label: cfg.GetLabel(),
			NX:    size[0], NY: size[1], NZ: size[2],
			DX: cell[0], DY: cell[1], DZ: cell[2],
		})
		if err != nil {
			return nil, err
		}
	}

	for _, m := range cfg.Modules {
		if err := sim.LoadModule(m); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(cfg.Scalars) {
		if err := sim.SetScalar(name, cfg.Scalars[name]); err != nil {
			return nil, fmt.Errorf("scalar %s: %w", name, err)
		}
	}
	for _, name := range sortedKeys(cfg.Vectors) {
		if err := sim.SetValue(name, cfg.Vectors[name]); err != nil {
			return nil, fmt.Errorf("vector %s: %w", name, err)
		}
	}
	for _, p := range cfg.Preload {
		if opts.DB == nil {
			return nil, fmt.Errorf("preload %s: %w", p.Quantity, ErrNoDatabase)
		}
		_, rec, err := opts.DB.LoadSnapshot(p.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("preload %s: %w", p.Quantity, err)
		}
		if err := sim.SetField(p.Quantity, rec.Field); err != nil {
			return nil, fmt.Errorf("preload %s from %s: %w", p.Quantity, p.Snapshot, err)
		}
	}
	return sim, nil
}

func buildRegions(sim *engine.Simulation, cfg *config.RunConfig, opts Options) (*region.BuildReport, []*region.InitReport, error) {
	rc := cfg.Regions
	if rc == nil {
		return nil, nil, nil
	}
	var report *region.BuildReport
	switch {
	case rc.Image != "":
		palette, err := region.ParsePalette(rc.Colors)
		if err != nil {
			return nil, nil, err
		}
		report, err = sim.BuildRegionsFromImageFile(resolve(opts.BaseDir, rc.Image), palette, region.ImageOptions{Strict: rc.GetStrict()})
		if err != nil {
			return nil, nil, err
		}
	default:
		cls, err := luaclass.Load(resolve(opts.BaseDir, rc.Script))
		if err != nil {
			return nil, nil, err
		}
		if err := sim.BuildRegionsFromScript(cls, region.Params(rc.Params)); err != nil {
			return nil, nil, err
		}
	}

	var inits []*region.InitReport
	for _, rv := range cfg.RegionValues {
		var rep *region.InitReport
		var err error
		if rv.Scalar != nil {
			rep, err = sim.InitUniformRegionScalarQuant(rv.Quantity, rv.Scalar)
		} else {
			rep, err = sim.InitUniformRegionVectorQuant(rv.Quantity, rv.Vector)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("region values for %s: %w", rv.Quantity, err)
		}
		if gap := rep.Err(); gap != nil {
			monitoring.Logf("warning: %v", gap)
		}
		inits = append(inits, rep)
	}
	return report, inits, nil
}

func setCells(sim *engine.Simulation, cfg *config.RunConfig) error {
	for _, c := range cfg.Cells {
		if err := sim.SetCell(c.Quantity, c.Index[0], c.Index[1], c.Index[2], c.Value); err != nil {
			return fmt.Errorf("cell %s%v: %w", c.Quantity, c.Index, err)
		}
	}
	return nil
}

func schedule(sim *engine.Simulation, cfg *config.RunConfig) error {
	for _, a := range cfg.Autosaves {
		if _, err := sim.Autosave(a.Quantity, a.Format, a.Options, a.Period); err != nil {
			return fmt.Errorf("autosave %s: %w", a.Quantity, err)
		}
	}
	for _, t := range cfg.Tables {
		if _, err := sim.Tabulate(t.Quantities, t.Path, t.Period); err != nil {
			return fmt.Errorf("table %s: %w", t.Path, err)
		}
	}
	return nil
}

func resolve(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
