package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/kpseq/kpseq/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored evaluation runs, or the scores of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := store.Open(ctx, store.Config{DSN: cfg.Store.DSN}, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			reports, err := st.Scores(ctx, id)
			if err != nil {
				return err
			}
			printReports(out, reports)
			return nil
		}

		runs, err := st.Runs(ctx, runsLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %-12s  %s  stem_mode=%v\n",
				r.ID, r.Profile, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Params["stem_mode"])
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
}
