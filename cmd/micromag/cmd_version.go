package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/micromag/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"version": version.Version,
					"commit":  version.GitSHA,
					"date":    version.BuildTime,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "micromag version %s (commit: %s, built: %s)\n", version.Version, version.GitSHA, version.BuildTime)
			}
		},
	}
}
