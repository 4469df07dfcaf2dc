package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/model"
	"github.com/muni-gis/geocode-cli/internal/table"
)

var (
	runInput  string
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Geocode a batch file (CSV or XLSX) and write results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tbl, err := table.Read(runInput)
		if err != nil {
			return eris.Wrapf(err, "run: read %s", runInput)
		}
		cols := table.ResolveColumns(tbl.Header)
		rows, err := tbl.BuildRows(cols)
		if err != nil {
			return eris.Wrap(err, "run: build rows")
		}

		stats, perr := env.Pipeline.Process(ctx, rows)
		if perr != nil {
			// partial results are still written out below
			zap.L().Warn("batch interrupted", zap.Error(perr))
		}

		out := tbl.Result(cols, rows)
		if err := out.Write(runOutput); err != nil {
			return eris.Wrapf(err, "run: write %s", runOutput)
		}

		fmt.Printf("processed %d rows: %d confirmed, %d updated, %d need review, %d not found, %d skipped\n",
			stats.Total,
			stats.ByStatus[model.StatusConfirmed],
			stats.ByStatus[model.StatusUpdated],
			stats.ByStatus[model.StatusNeedsReview],
			stats.ByStatus[model.StatusNotFound],
			stats.ByStatus[model.StatusSkipped],
		)
		fmt.Printf("success rate: %.1f%%\n", stats.SuccessRate()*100)
		fmt.Printf("results written to %s\n", runOutput)
		return perr
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input file (.csv or .xlsx)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output file (.csv or .xlsx)")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(runCmd)
}
