package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"avid/internal/daemon"
	"avid/internal/media/ffprobe"
	"avid/internal/queue"
	"avid/internal/services/ffmpeg"
	"avid/internal/stages"
	"avid/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run and inspect the background pipeline",
	}

	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))

	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			d, store, err := buildDaemon(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			<-signalCtx.Done()
			d.Stop()
			return nil
		},
	}
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline readiness and queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, store, err := buildDaemon(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			status, err := d.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon running: %s\n", yesNo(instanceRunning(d.LockPath())))
			fmt.Fprintf(out, "Queue database: %s\n", status.QueueDBPath)
			fmt.Fprintf(out, "Lock file: %s\n", status.LockFilePath)
			if status.LastError != "" {
				fmt.Fprintf(out, "Last error: %s\n", colorize(statusError, status.LastError))
			}

			stageRows := make([][]string, 0, len(status.Stages))
			for _, check := range status.Stages {
				ready := colorize(statusOK, "ready")
				if !check.Ready {
					ready = colorize(statusError, "not ready")
				}
				stageRows = append(stageRows, []string{check.Name, ready, check.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "State", "Detail"},
				stageRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))

			fmt.Fprintf(out,
				"Queue: %d total, %d pending, %d processing, %d failed, %d review, %d completed\n",
				status.Queue.Total,
				status.Queue.Pending,
				status.Queue.Processing,
				status.Queue.Failed,
				status.Queue.Review,
				status.Queue.Completed,
			)
			return nil
		},
	}
}

func buildDaemon(ctx *commandContext) (*daemon.Daemon, *queue.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	set := workflow.StageSet{
		Detect: stages.NewDetect(cfg,
			ffprobe.New(cfg.FFmpeg.FFprobeBinary),
			ffmpeg.NewService(cfg.FFmpeg.Binary),
			logger),
		Analyze: stages.NewAnalyze(cfg, stages.NewAnalysisService(cfg, logger), logger),
		Export:  stages.NewExport(cfg, logger),
	}
	mgr := workflow.NewManager(cfg, store, logger, set)

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return d, store, nil
}

// instanceRunning reports whether another process holds the daemon lock.
func instanceRunning(lockPath string) bool {
	probe := flock.New(lockPath)
	ok, err := probe.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = probe.Unlock()
		return false
	}
	return true
}
