// Package engine ties the grid, quantity store, region map, physics hooks
// and output schedule of one simulation together.
//
// A Simulation is configured (grid, cell size, quantities, regions) and then
// stepped. The quantity store is created the first time a quantity, region
// map or module needs it, which freezes the grid. Simulation time is the
// read-only scalar quantity "t" and the time step is the scalar "dt".
package engine

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/micromag/internal/autosave"
	"github.com/banshee-data/micromag/internal/fsutil"
	"github.com/banshee-data/micromag/internal/grid"
	"github.com/banshee-data/micromag/internal/output"
	"github.com/banshee-data/micromag/internal/quant"
	"github.com/banshee-data/micromag/internal/region"
	"github.com/banshee-data/micromag/internal/table"
	"github.com/banshee-data/micromag/internal/timeutil"
)

// Names of the quantities every simulation owns.
const (
	TimeQuantity = "t"
	DtQuantity   = "dt"
)

// State is the lifecycle state of a simulation.
type State int

const (
	// Configured means no step has completed yet.
	Configured State = iota
	// Running means at least one step has completed.
	Running
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the collaborators of a simulation. The zero value writes
// files to the working directory and knows no physics modules.
type Config struct {
	// OutputDir is the directory relative output paths resolve against.
	OutputDir string
	// FS receives saved files and tables. Nil means the OS filesystem.
	FS fsutil.FileSystem
	// Persisters adds or replaces persisters by format, next to the file
	// formats txt, bin, png and html.
	Persisters map[string]output.Persister
	// Modules are the physics modules LoadModule can load.
	Modules []Module
	// Clock measures wall time. Nil means the real clock.
	Clock timeutil.Clock
	// RunID identifies the run. The zero value draws a new random ID.
	RunID uuid.UUID
}

// Simulation is one independent simulation instance. It is not safe for
// concurrent use.
type Simulation struct {
	id      uuid.UUID
	grid    *grid.Grid
	store   *quant.Store
	regions *region.Map

	modules     map[string]Module
	loaded      map[string]bool
	loadedOrder []string
	hooks       []hook

	sched    *autosave.Scheduler
	files    *output.FileWriter
	fs       fsutil.FileSystem
	router   output.Router
	tables   []*table.Table
	outputID int

	steps   int
	state   State
	clock   timeutil.Clock
	created time.Time
}

// New returns a configured, empty simulation with a fresh run ID.
func New(cfg Config) *Simulation {
	fs := cfg.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	files := output.NewFileWriter(cfg.OutputDir, fs)
	router := output.Router{}
	for _, f := range output.Formats() {
		router[f] = files
	}
	for f, p := range cfg.Persisters {
		router[f] = p
	}
	modules := make(map[string]Module, len(cfg.Modules))
	for _, m := range cfg.Modules {
		modules[m.Name] = m
	}
	id := cfg.RunID
	if id == uuid.Nil {
		id = uuid.New()
	}
	s := &Simulation{
		id:      id,
		grid:    grid.New(),
		modules: modules,
		loaded:  make(map[string]bool),
		sched:   autosave.New(),
		files:   files,
		fs:      fs,
		router:  router,
		clock:   clock,
		created: clock.Now(),
	}
	diagf("new simulation %s", s.id)
	return s
}

// RunID identifies this simulation in logs and the snapshot database.
func (s *Simulation) RunID() uuid.UUID { return s.id }

// Grid returns the simulation grid.
func (s *Simulation) Grid() *grid.Grid { return s.grid }

// Store returns the quantity store, creating it if the grid is ready.
func (s *Simulation) Store() (*quant.Store, error) { return s.ensureStore() }

// ensureStore creates the store on first use. The grid must be fully
// configured and cannot change afterwards.
func (s *Simulation) ensureStore() (*quant.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	if err := s.grid.Ready(); err != nil {
		return nil, err
	}
	store := quant.NewStore(s.grid.GridSize())
	if err := store.Register(TimeQuantity, quant.Scalar, true, "s", "simulation time"); err != nil {
		return nil, err
	}
	s.grid.Freeze()
	s.store = store
	c := s.grid.CellSize()
	diagf("grid %v with cells %gx%gx%g m frozen", s.grid.GridSize(), c.DX, c.DY, c.DZ)
	return store, nil
}

// SetGridSize sets the number of cells. It fails once the grid is frozen.
func (s *Simulation) SetGridSize(nx, ny, nz int) error { return s.grid.SetGridSize(nx, ny, nz) }

// GridSize returns the number of cells along x, y and z.
func (s *Simulation) GridSize() (nx, ny, nz int) {
	size := s.grid.GridSize()
	return size.NX, size.NY, size.NZ
}

// SetCellSize sets the cell dimensions in metres. It fails once the grid is
// frozen.
func (s *Simulation) SetCellSize(dx, dy, dz float64) error { return s.grid.SetCellSize(dx, dy, dz) }

// CellSize returns the cell dimensions.
func (s *Simulation) CellSize() (dx, dy, dz float64) {
	c := s.grid.CellSize()
	return c.DX, c.DY, c.DZ
}

// SetDt sets the time step used by the next step. Zero is allowed.
func (s *Simulation) SetDt(dt float64) error {
	if err := checkDt(dt); err != nil {
		return err
	}
	return s.SetScalar(DtQuantity, dt)
}

// Dt returns the current time step.
func (s *Simulation) Dt() (float64, error) { return s.Scalar(DtQuantity) }

func checkDt(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt must be finite and non-negative, got %g", grid.ErrConfiguration, dt)
	}
	return nil
}

// Time returns the simulation time in seconds.
func (s *Simulation) Time() float64 {
	if s.store == nil {
		return 0
	}
	t, _ := s.store.Scalar(TimeQuantity)
	return t
}

// Steps returns the number of completed steps.
func (s *Simulation) Steps() int { return s.steps }

// State returns the lifecycle state.
func (s *Simulation) State() State { return s.state }

// SetScalar sets a uniform scalar quantity.
func (s *Simulation) SetScalar(name string, v float64) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	return store.SetScalar(name, v)
}

// Scalar returns a scalar quantity. Per-cell quantities report the value
// of cell (0,0,0).
func (s *Simulation) Scalar(name string) (float64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("%w: %q", quant.ErrUnknownQuantity, name)
	}
	return s.store.Scalar(name)
}

// SetValue sets a uniform value with one or three components.
func (s *Simulation) SetValue(name string, v []float64) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	return store.SetValue(name, v)
}

// Value returns the uniform value of a quantity. Per-cell quantities report
// the value of cell (0,0,0).
func (s *Simulation) Value(name string) ([]float64, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: %q", quant.ErrUnknownQuantity, name)
	}
	return s.store.Value(name)
}

// SetField installs a per-cell array, copying it.
func (s *Simulation) SetField(name string, a *quant.Array) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	return store.SetField(name, a)
}

// SetArray installs a per-cell array given as [comp][i][j][k].
func (s *Simulation) SetArray(name string, nested [][][][]float64) error {
	a, err := quant.ArrayFromNested(nested)
	if err != nil {
		return err
	}
	return s.SetField(name, a)
}

// Field returns a copy of the per-cell data of a quantity.
func (s *Simulation) Field(name string) (*quant.Array, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: %q", quant.ErrUnknownQuantity, name)
	}
	return s.store.Field(name)
}

// Cell returns the value of one cell.
func (s *Simulation) Cell(name string, i, j, k int) ([]float64, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: %q", quant.ErrUnknownQuantity, name)
	}
	return s.store.Cell(name, i, j, k)
}

// SetCell sets the value of one cell.
func (s *Simulation) SetCell(name string, i, j, k int, v []float64) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	return store.SetCell(name, i, j, k, v)
}

// SetMask scales the uniform value of a quantity per cell.
func (s *Simulation) SetMask(name string, mask *quant.Array) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	return store.SetMask(name, mask)
}

// Regions returns the current region map, or nil before one is built.
func (s *Simulation) Regions() *region.Map { return s.regions }

// BuildRegionsFromImage labels the grid from an image and publishes the
// result as the regionDefinition quantity.
func (s *Simulation) BuildRegionsFromImage(img image.Image, palette region.Palette, opts region.ImageOptions) (*region.BuildReport, error) {
	store, err := s.ensureStore()
	if err != nil {
		return nil, err
	}
	m, report, err := region.BuildFromImage(s.grid, img, palette, opts)
	if err != nil {
		return nil, err
	}
	if err := s.installRegions(store, m); err != nil {
		return nil, err
	}
	return report, nil
}

// BuildRegionsFromImageFile decodes the image at path and labels the grid
// from it.
func (s *Simulation) BuildRegionsFromImageFile(path string, palette region.Palette, opts region.ImageOptions) (*region.BuildReport, error) {
	img, err := region.DecodeImage(path)
	if err != nil {
		return nil, err
	}
	return s.BuildRegionsFromImage(img, palette, opts)
}

// BuildRegionsFromScript labels the grid by classifying every cell centre.
func (s *Simulation) BuildRegionsFromScript(c region.Classifier, params region.Params) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	m, err := region.BuildFromScript(s.grid, c, params)
	if err != nil {
		return err
	}
	return s.installRegions(store, m)
}

func (s *Simulation) installRegions(store *quant.Store, m *region.Map) error {
	if err := m.Publish(store); err != nil {
		return err
	}
	s.regions = m
	return nil
}

// InitUniformRegionScalarQuant writes one value per named region into a
// scalar quantity. Gaps in the table are reported, not fatal.
func (s *Simulation) InitUniformRegionScalarQuant(name string, values map[string]float64) (*region.InitReport, error) {
	store, err := s.ensureStore()
	if err != nil {
		return nil, err
	}
	return region.InitScalar(store, s.regions, name, values)
}

// InitUniformRegionVectorQuant writes one vector per named region into a
// vector quantity.
func (s *Simulation) InitUniformRegionVectorQuant(name string, values map[string][]float64) (*region.InitReport, error) {
	store, err := s.ensureStore()
	if err != nil {
		return nil, err
	}
	return region.InitVector(store, s.regions, name, values)
}
