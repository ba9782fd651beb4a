package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"avid/internal/project"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "merge <project-file> [project-file...]",
		Short: "Merge project files into one multi-angle project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			paths := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := absolutePath(arg)
				if err != nil {
					return err
				}
				paths = append(paths, path)
			}

			merged, err := project.LoadAndMerge(paths, logger)
			if err != nil {
				return err
			}

			target := outputPath
			if target == "" {
				target = paths[0]
			} else if target, err = absolutePath(target); err != nil {
				return err
			}
			if err := merged.Save(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d projects: %d sources, %d tracks, %d decisions\n",
				len(paths), len(merged.SourceFiles), len(merged.Tracks), len(merged.EditDecisions))
			fmt.Fprintf(out, "Project written to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination project file (defaults to the first input)")
	return cmd
}
