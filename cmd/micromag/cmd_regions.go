package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/micromag/internal/engine"
	"github.com/banshee-data/micromag/internal/region"
)

func newRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions <image>",
		Short: "Show the regions an image produces on a grid",
		Example: `  micromag regions disk.png --grid 64,64,1 --color disk=black --color hole=white
  micromag regions layers.bmp --grid 32,8,4 --color top=#ff0000 --color bottom=blue --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetIntSlice("grid")
			if len(size) != 3 {
				return fmt.Errorf("--grid needs 3 values, got %v", size)
			}
			colors, _ := cmd.Flags().GetStringArray("color")
			entries := make(map[string]string, len(colors))
			for _, c := range colors {
				name, value, ok := strings.Cut(c, "=")
				if !ok || name == "" {
					return fmt.Errorf("--color %q: want name=colour", c)
				}
				entries[name] = value
			}
			palette, err := region.ParsePalette(entries)
			if err != nil {
				return err
			}
			strict, _ := cmd.Flags().GetBool("strict")

			sim := engine.New(engine.Config{})
			if err := sim.SetGridSize(size[0], size[1], size[2]); err != nil {
				return err
			}
			if err := sim.SetCellSize(1, 1, 1); err != nil {
				return err
			}
			report, err := sim.BuildRegionsFromImageFile(args[0], palette, region.ImageOptions{Strict: strict})
			if err != nil {
				return err
			}

			counts := sim.Regions().Counts()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"counts":         counts,
					"unknown_colors": report.UnknownColors,
					"unknown_cells":  report.UnknownCells,
					"missing":        report.Missing,
				})
			}

			out := cmd.OutOrStdout()
			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				label := name
				if label == "" {
					label = "(background)"
				}
				fmt.Fprintf(out, "%-16s %d cells\n", label, counts[name])
			}
			if report.UnknownCells > 0 {
				fmt.Fprintf(out, "unknown colours: %v (%d cells)\n", report.UnknownColors, report.UnknownCells)
			}
			if len(report.Missing) > 0 {
				fmt.Fprintf(out, "not in image: %v\n", report.Missing)
			}
			return nil
		},
	}
	cmd.Flags().IntSlice("grid", []int{64, 64, 1}, "Grid size nx,ny,nz")
	cmd.Flags().StringArray("color", nil, "Region colour as name=colour (repeatable)")
	cmd.Flags().Bool("strict", false, "Fail on colours missing from the palette")
	return cmd
}
