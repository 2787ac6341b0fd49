package main

import (
	"fmt"
	"sort"

	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/brendontj/lol-staging/pkg/staging/services"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the selected staging models",
	Long: `Build the selected staging models from the raw snapshot table, or from the given
inputs (local CSV/JSON files, directories, gs://bucket/object or gs://bucket/prefix/).`,
	Args: cobra.NoArgs,
	RunE: runStaging,
}

var runFlags struct {
	selectModels []string
	exclude      []string
	inputs       []string
	source       string
	dryRun       bool
}

func init() {
	runCmd.Flags().StringSliceVarP(&runFlags.selectModels, "select", "s", nil, "models or glob patterns to build (default all)")
	runCmd.Flags().StringSliceVarP(&runFlags.exclude, "exclude", "x", nil, "models or glob patterns to skip")
	runCmd.Flags().StringSliceVarP(&runFlags.inputs, "input", "i", nil, "read these inputs instead of the raw table")
	runCmd.Flags().StringVar(&runFlags.source, "source", "", "value stamped into _source (default from config)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "build rows without writing them")

	rootCmd.AddCommand(runCmd)
}

func runStaging(cmd *cobra.Command, _ []string) error {
	worker, _, _, err := startWorker(cmd.Context(), metrics.New())
	if err != nil {
		return err
	}
	defer worker.Close()

	result, err := worker.TransformData(cmd.Context(), services.RunRequest{
		Selection: staging.Selection{Include: runFlags.selectModels, Exclude: runFlags.exclude},
		Inputs:    runFlags.inputs,
		Metadata:  staging.RunMetadata{Source: runFlags.source},
		DryRun:    runFlags.dryRun,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s (%d matches)\n", result.RunID, result.Summary.Matches)
	for _, m := range result.Models {
		verb := "wrote"
		if !m.Written {
			verb = "built"
		}
		fmt.Fprintf(out, "  %-24s %s %d rows in %s\n", m.Model, verb, m.Rows, m.Duration)
	}
	regions := make([]string, 0, len(result.Summary.ByRegion))
	for r := range result.Summary.ByRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	for _, r := range regions {
		fmt.Fprintf(out, "  region %-8s %d\n", r, result.Summary.ByRegion[r])
	}
	return nil
}
