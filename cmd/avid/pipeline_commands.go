package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"avid/internal/media/ffprobe"
	"avid/internal/queue"
	"avid/internal/services/ffmpeg"
	"avid/internal/stages"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <media-file>",
		Short: "Inspect a media file's streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := absolutePath(args[0])
			if err != nil {
				return err
			}

			info, err := ffprobe.New(cfg.FFmpeg.FFprobeBinary).Probe(cmd.Context(), path)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Duration", fmt.Sprintf("%.3fs", float64(info.DurationMS)/1000)},
				{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
				{"Frame rate", strconv.FormatFloat(info.FPS, 'f', -1, 64)},
				{"Sample rate", strconv.Itoa(info.SampleRate)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Property", "Value"}, rows,
				[]columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var subtitlePath string

	cmd := &cobra.Command{
		Use:   "detect <media-file>",
		Short: "Run silence detection and write a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source, err := absolutePath(args[0])
			if err != nil {
				return err
			}
			subtitle := subtitlePath
			if subtitle != "" {
				if subtitle, err = absolutePath(subtitle); err != nil {
					return err
				}
			}

			detect := stages.NewDetect(cfg,
				ffprobe.New(cfg.FFmpeg.FFprobeBinary),
				ffmpeg.NewService(cfg.FFmpeg.Binary),
				logger)
			item := &queue.Item{SourcePath: source, SubtitlePath: subtitle}
			if err := detect.Prepare(cmd.Context(), item); err != nil {
				return err
			}
			if err := detect.Execute(cmd.Context(), item); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", item.ProgressMessage)
			fmt.Fprintf(out, "Project written to %s\n", item.ProjectPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&subtitlePath, "srt", "", "Subtitle file used for gap detection and transcription")
	return cmd
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <project-file>",
		Short: "Run AI providers over the project transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			path, err := absolutePath(args[0])
			if err != nil {
				return err
			}

			analyze := stages.NewAnalyze(cfg, stages.NewAnalysisService(cfg, logger), logger)
			item := &queue.Item{ProjectPath: path}
			if err := analyze.Prepare(cmd.Context(), item); err != nil {
				return err
			}
			if err := analyze.Execute(cmd.Context(), item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", item.ProgressMessage)
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "export <project-file>",
		Short: "Export the project as an NLE timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			path, err := absolutePath(args[0])
			if err != nil {
				return err
			}

			exportCfg := *cfg
			if formatFlag != "" {
				exportCfg.Export.Format = formatFlag
			}
			if modeFlag != "" {
				exportCfg.Export.Mode = modeFlag
			}

			export := stages.NewExport(&exportCfg, logger)
			item := &queue.Item{ProjectPath: path}
			if err := export.Prepare(cmd.Context(), item); err != nil {
				return err
			}
			if err := export.Execute(cmd.Context(), item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Timeline written to %s\n", item.ExportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "Timeline format (fcpxml or premiere)")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Export mode (cut or review)")
	return cmd
}
