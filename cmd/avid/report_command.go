package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"avid/internal/export"
	"avid/internal/project"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report <project-file>",
		Short: "Summarize a project's edit decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absolutePath(args[0])
			if err != nil {
				return err
			}
			p, err := project.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				format := export.ReportMarkdown
				if jsonOutput {
					format = export.ReportJSON
				}
				written, err := export.WriteReportFile(p, outputPath, format)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Report written to %s\n", written)
				return nil
			}

			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(export.BuildReportJSON(p))
			}
			fmt.Fprint(out, export.BuildReport(p))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
	return cmd
}
