package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/micromag/internal/config"
	"github.com/banshee-data/micromag/internal/quant"
	"github.com/banshee-data/micromag/internal/storage/sqlite"
)

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect runs and snapshots in a snapshot database",
	}
	cmd.PersistentFlags().String("db", "", "Snapshot database (default MICROMAG_DB)")
	cmd.AddCommand(newSnapshotsListCmd(), newSnapshotsShowCmd())
	return cmd
}

func openSnapshotDB(cmd *cobra.Command) (*sqlite.DB, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		env, err := config.ParseEnv()
		if err != nil {
			return nil, err
		}
		path = env.Database
	}
	if path == "" {
		return nil, fmt.Errorf("no database: pass --db or set MICROMAG_DB")
	}
	return sqlite.Open(path)
}

func newSnapshotsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs and their snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSnapshotDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			runID, _ := cmd.Flags().GetString("run")
			snaps, err := db.ListSnapshots(runID)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snaps)
			}

			runs, err := db.ListRuns()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				if runID != "" && r.RunID != runID {
					continue
				}
				fmt.Fprintf(out, "run %s %q %dx%dx%d started %s\n", r.RunID, r.Label, r.NX, r.NY, r.NZ, r.StartedAt.Format("2006-01-02 15:04:05"))
				for _, s := range snaps {
					if s.RunID == r.RunID {
						fmt.Fprintf(out, "  %s %-12s t=%-12g step %-6d %d comp\n", s.SnapshotID, s.Name, s.SimTime, s.Step, s.Components)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().String("run", "", "Only list snapshots of this run ID")
	return cmd
}

func newSnapshotsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Decode a snapshot and summarise its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSnapshotDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			snap, rec, err := db.LoadSnapshot(args[0])
			if err != nil {
				return err
			}
			store := quant.NewStore(rec.Field.Size)
			if err := store.SetField(rec.Name, rec.Field); err != nil {
				return err
			}
			sum, err := store.Summary(rec.Name)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"snapshot":   snap,
					"grid":       rec.Field.Size.String(),
					"components": sum.Components,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) run %s\n", snap.Name, snap.Unit, snap.RunID)
			fmt.Fprintf(out, "t=%g step %d grid %v\n", snap.SimTime, snap.Step, rec.Field.Size)
			for c, st := range sum.Components {
				fmt.Fprintf(out, "  comp %d: min %g mean %g max %g std %g\n", c, st.Min, st.Mean, st.Max, st.StdDev)
			}
			return nil
		},
	}
}
