package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <input>...",
	Short: "Append CSV/JSON exports to the raw snapshot table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		worker, _, _, err := startWorker(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer worker.Close()

		n, err := worker.LoadData(cmd.Context(), args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d raw matches\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
