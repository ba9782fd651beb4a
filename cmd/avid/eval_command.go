package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"avid/internal/evaluation"
)

func newEvalCommand(ctx *commandContext) *cobra.Command {
	var thresholdMS int64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "eval <predicted-timeline> <reference-timeline>",
		Short: "Score an exported timeline against a reference edit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			predicted, err := absolutePath(args[0])
			if err != nil {
				return err
			}
			reference, err := absolutePath(args[1])
			if err != nil {
				return err
			}

			threshold := thresholdMS
			if threshold == 0 {
				threshold = cfg.Evaluation.OverlapThresholdMS
			}

			report, err := evaluation.CompareFiles(predicted, reference, threshold)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(report)
			}
			fmt.Fprint(out, evaluation.FormatReport(report))
			return nil
		},
	}

	cmd.Flags().Int64Var(&thresholdMS, "threshold", 0, "Minimum overlap in milliseconds to match cuts (defaults to config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
	return cmd
}
