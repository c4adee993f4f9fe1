// Package config loads run files: the grid, quantities, regions, outputs
// and stepping of one simulation, in JSON or YAML.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxFileSize bounds the size of a run file.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// RunConfig is the root of a run file. Optional scalars are pointers so
// the Get* methods can tell "unset" from zero.
type RunConfig struct {
	Label *string    `json:"label,omitempty" yaml:"label,omitempty"`
	Grid  GridConfig `json:"grid" yaml:"grid"`

	// Physics modules loaded before anything else is set.
	Modules []string `json:"modules,omitempty" yaml:"modules,omitempty"`

	Scalars map[string]float64   `json:"scalars,omitempty" yaml:"scalars,omitempty"`
	Vectors map[string][]float64 `json:"vectors,omitempty" yaml:"vectors,omitempty"`
	Cells   []CellConfig         `json:"cells,omitempty" yaml:"cells,omitempty"`
	Preload []PreloadConfig      `json:"preload,omitempty" yaml:"preload,omitempty"`

	Regions      *RegionsConfig      `json:"regions,omitempty" yaml:"regions,omitempty"`
	RegionValues []RegionValueConfig `json:"region_values,omitempty" yaml:"region_values,omitempty"`

	Dt       *float64 `json:"dt,omitempty" yaml:"dt,omitempty"`
	Steps    *int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	RunUntil *float64 `json:"run_until,omitempty" yaml:"run_until,omitempty"`

	Autosaves []AutosaveConfig `json:"autosaves,omitempty" yaml:"autosaves,omitempty"`
	Tables    []TableConfig    `json:"tables,omitempty" yaml:"tables,omitempty"`
	// Saves are written once the run has finished.
	Saves []SaveConfig `json:"saves,omitempty" yaml:"saves,omitempty"`

	OutputDir *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Database  *string `json:"database,omitempty" yaml:"database,omitempty"`
}

// GridConfig holds the cell counts and the cell size in metres.
type GridConfig struct {
	Size     []int     `json:"size" yaml:"size"`
	CellSize []float64 `json:"cell_size" yaml:"cell_size"`
}

// CellConfig sets a single cell.
type CellConfig struct {
	Quantity string    `json:"quantity" yaml:"quantity"`
	Index    []int     `json:"index" yaml:"index"`
	Value    []float64 `json:"value" yaml:"value"`
}

// PreloadConfig restores a quantity from a stored snapshot.
type PreloadConfig struct {
	Quantity string `json:"quantity" yaml:"quantity"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

// RegionsConfig builds the region map from either an image and a colour
// table or a Lua classifier script.
type RegionsConfig struct {
	Image  string             `json:"image,omitempty" yaml:"image,omitempty"`
	Colors map[string]string  `json:"colors,omitempty" yaml:"colors,omitempty"`
	Strict *bool              `json:"strict,omitempty" yaml:"strict,omitempty"`
	Script string             `json:"script,omitempty" yaml:"script,omitempty"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// RegionValueConfig writes one value per region into a quantity. Exactly
// one of Scalar and Vector is set.
type RegionValueConfig struct {
	Quantity string               `json:"quantity" yaml:"quantity"`
	Scalar   map[string]float64   `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Vector   map[string][]float64 `json:"vector,omitempty" yaml:"vector,omitempty"`
}

// SaveConfig writes a quantity once.
type SaveConfig struct {
	Quantity string   `json:"quantity" yaml:"quantity"`
	Format   string   `json:"format" yaml:"format"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
}

// AutosaveConfig writes a quantity every Period seconds of simulation time.
type AutosaveConfig struct {
	Quantity string   `json:"quantity" yaml:"quantity"`
	Format   string   `json:"format" yaml:"format"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
	Period   float64  `json:"period" yaml:"period"`
}

// TableConfig tabulates quantities every Period seconds of simulation time.
type TableConfig struct {
	Quantities []string `json:"quantities" yaml:"quantities"`
	Path       string   `json:"path" yaml:"path"`
	Period     float64  `json:"period" yaml:"period"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// LoadRunConfig loads a run file. The extension selects the parser: .json,
// .yaml or .yml.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("run file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat run file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("run file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	cfg := &RunConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run file: %w", err)
	}
	return cfg, nil
}

// Validate checks the structure of the run file. Quantity names, formats
// and region names are checked when the run executes.
func (c *RunConfig) Validate() error {
	if len(c.Grid.Size) != 3 {
		return fmt.Errorf("grid.size needs 3 values, got %d", len(c.Grid.Size))
	}
	for _, n := range c.Grid.Size {
		if n <= 0 {
			return fmt.Errorf("grid.size must be positive, got %v", c.Grid.Size)
		}
	}
	if len(c.Grid.CellSize) != 3 {
		return fmt.Errorf("grid.cell_size needs 3 values, got %d", len(c.Grid.CellSize))
	}
	for _, d := range c.Grid.CellSize {
		if !finite(d) || d <= 0 {
			return fmt.Errorf("grid.cell_size must be positive, got %v", c.Grid.CellSize)
		}
	}

	if c.Dt != nil && (!finite(*c.Dt) || *c.Dt < 0) {
		return fmt.Errorf("dt must be finite and non-negative, got %g", *c.Dt)
	}
	if c.Steps != nil && *c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", *c.Steps)
	}
	if c.RunUntil != nil {
		if c.Steps != nil {
			return fmt.Errorf("set steps or run_until, not both")
		}
		if c.GetDt() <= 0 {
			return fmt.Errorf("run_until needs a positive dt")
		}
	}

	for name, v := range c.Vectors {
		if len(v) != 3 {
			return fmt.Errorf("vectors.%s needs 3 values, got %d", name, len(v))
		}
	}
	for i, cell := range c.Cells {
		if cell.Quantity == "" {
			return fmt.Errorf("cells[%d]: quantity is required", i)
		}
		if len(cell.Index) != 3 {
			return fmt.Errorf("cells[%d]: index needs 3 values, got %d", i, len(cell.Index))
		}
		if len(cell.Value) != 1 && len(cell.Value) != 3 {
			return fmt.Errorf("cells[%d]: value needs 1 or 3 values, got %d", i, len(cell.Value))
		}
	}
	for i, p := range c.Preload {
		if p.Quantity == "" || p.Snapshot == "" {
			return fmt.Errorf("preload[%d]: quantity and snapshot are required", i)
		}
	}

	if r := c.Regions; r != nil {
		if (r.Image == "") == (r.Script == "") {
			return fmt.Errorf("regions: set exactly one of image and script")
		}
		if r.Image != "" && len(r.Colors) == 0 {
			return fmt.Errorf("regions: image needs a colors table")
		}
	}
	for i, rv := range c.RegionValues {
		if c.Regions == nil {
			return fmt.Errorf("region_values[%d]: no regions configured", i)
		}
		if rv.Quantity == "" {
			return fmt.Errorf("region_values[%d]: quantity is required", i)
		}
		if (rv.Scalar == nil) == (rv.Vector == nil) {
			return fmt.Errorf("region_values[%d]: set exactly one of scalar and vector", i)
		}
		for name, v := range rv.Vector {
			if len(v) != 3 {
				return fmt.Errorf("region_values[%d]: %s needs 3 values, got %d", i, name, len(v))
			}
		}
	}

	for i, s := range c.Saves {
		if s.Quantity == "" || s.Format == "" {
			return fmt.Errorf("saves[%d]: quantity and format are required", i)
		}
	}
	for i, a := range c.Autosaves {
		if a.Quantity == "" || a.Format == "" {
			return fmt.Errorf("autosaves[%d]: quantity and format are required", i)
		}
		if !finite(a.Period) || a.Period <= 0 {
			return fmt.Errorf("autosaves[%d]: period must be positive, got %g", i, a.Period)
		}
	}
	for i, t := range c.Tables {
		if t.Path == "" || len(t.Quantities) == 0 {
			return fmt.Errorf("tables[%d]: path and quantities are required", i)
		}
		if !finite(t.Period) || t.Period <= 0 {
			return fmt.Errorf("tables[%d]: period must be positive, got %g", i, t.Period)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// GetLabel returns the run label or the empty string.
func (c *RunConfig) GetLabel() string {
	if c.Label == nil {
		return ""
	}
	return *c.Label
}

// GetDt returns the time step, 0 when unset.
func (c *RunConfig) GetDt() float64 {
	if c.Dt == nil {
		return 0
	}
	return *c.Dt
}

// GetSteps returns the number of steps, 0 when unset.
func (c *RunConfig) GetSteps() int {
	if c.Steps == nil {
		return 0
	}
	return *c.Steps
}

// GetOutputDir returns the output directory or the default ".".
func (c *RunConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "."
	}
	return *c.OutputDir
}

// GetDatabase returns the snapshot database path, empty when snapshots are
// disabled.
func (c *RunConfig) GetDatabase() string {
	if c.Database == nil {
		return ""
	}
	return *c.Database
}

// GetStrict reports whether unknown image colours fail the region build.
func (r *RegionsConfig) GetStrict() bool {
	if r.Strict == nil {
		return false
	}
	return *r.Strict
}
