package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/micromag/internal/config"
	"github.com/banshee-data/micromag/internal/engine"
	"github.com/banshee-data/micromag/internal/runner"
	"github.com/banshee-data/micromag/internal/storage/sqlite"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run the simulation described by a run file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadRunConfig(args[0])
			if err != nil {
				return err
			}
			env, err := config.ParseEnv()
			if err != nil {
				return err
			}
			cfg.ApplyEnv(env)
			if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
				cfg.OutputDir = &dir
			}
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				cfg.Database = &db
			}

			opts := runner.Options{BaseDir: filepath.Dir(args[0])}
			if path := cfg.GetDatabase(); path != "" {
				db, err := sqlite.Open(path)
				if err != nil {
					return err
				}
				defer db.Close()
				opts.DB = db
			}

			res, err := runner.Run(cmd.Context(), cfg, opts)
			if res != nil {
				jsonOut, _ := cmd.Flags().GetBool("json")
				if perr := printStats(cmd.OutOrStdout(), res.Stats, jsonOut); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
	cmd.Flags().String("output-dir", "", "Directory for saved files (overrides the run file and MICROMAG_OUTPUT_DIR)")
	cmd.Flags().String("db", "", "Snapshot database (overrides the run file and MICROMAG_DB)")
	return cmd
}

func printStats(w io.Writer, st engine.Stats, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(w, "run %s: %s, %d steps, t=%g s, wall %v\n", st.RunID, st.State, st.Steps, st.Time, st.Wall)
	if len(st.Modules) > 0 {
		fmt.Fprintf(w, "modules: %v\n", st.Modules)
	}
	for _, q := range st.Quantities {
		fmt.Fprintf(w, "  %-18s %-7s %-7s", q.Name, q.Arity, q.Kind)
		for _, c := range q.Components {
			fmt.Fprintf(w, " [%g %g %g]", c.Min, c.Mean, c.Max)
		}
		fmt.Fprintln(w)
	}
	for _, d := range st.Schedule {
		fmt.Fprintf(w, "  %s: every %g s, fired %d, failed %d\n", d.Label, d.Period, d.Fired, d.Failures)
	}
	return nil
}
