package main

import (
	"fmt"

	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the selected staging models as CSV files",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var exportFlags struct {
	selectModels []string
	exclude      []string
	dir          string
}

func init() {
	exportCmd.Flags().StringSliceVarP(&exportFlags.selectModels, "select", "s", nil, "models or glob patterns to export (default all)")
	exportCmd.Flags().StringSliceVarP(&exportFlags.exclude, "exclude", "x", nil, "models or glob patterns to skip")
	exportCmd.Flags().StringVarP(&exportFlags.dir, "dir", "d", "", "output directory (default export_dir)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	worker, _, _, err := startWorker(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer worker.Close()

	paths, err := worker.ExtractData(cmd.Context(),
		staging.Selection{Include: exportFlags.selectModels, Exclude: exportFlags.exclude},
		exportFlags.dir)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
