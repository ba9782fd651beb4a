package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"avid/internal/config"
	"avid/internal/export"
	"avid/internal/logging"
	"avid/internal/project"
	"avid/internal/queue"
	"avid/internal/services"
	"avid/internal/stage"
)

// Export renders the project's decisions as an NLE timeline document.
type Export struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewExport constructs the export stage.
func NewExport(cfg *config.Config, logger *slog.Logger) *Export {
	return &Export{cfg: cfg, logger: logging.WithComponent(logger, "export")}
}

func (e *Export) Prepare(ctx context.Context, item *queue.Item) error {
	if item.ProjectPath == "" {
		return services.Wrap(services.ErrValidation, "export", "prepare", "item has no project file", nil)
	}
	item.SetProgress("export", "loading project")
	return nil
}

func (e *Export) Execute(ctx context.Context, item *queue.Item) error {
	p, err := project.Load(item.ProjectPath)
	if err != nil {
		return err
	}

	mode, err := parseExportMode(e.cfg.Export.Mode)
	if err != nil {
		return err
	}

	var exportPath string
	switch e.cfg.Export.Format {
	case "fcpxml":
		exportPath = filepath.Join(e.cfg.Paths.ExportDir, p.Name+".fcpxml")
		if err := export.NewFCPXML(e.logger).ExportFile(p, mode, exportPath); err != nil {
			return err
		}
	case "premiere":
		exportPath = filepath.Join(e.cfg.Paths.ExportDir, p.Name+".xml")
		if err := export.NewPremiere(e.logger).ExportFile(p, mode, exportPath); err != nil {
			return err
		}
	default:
		return services.Wrap(services.ErrConfiguration, "export", "format", e.cfg.Export.Format, nil)
	}

	item.ExportPath = exportPath
	item.SetProgress("export", fmt.Sprintf("wrote %s (%s mode)", filepath.Base(exportPath), e.cfg.Export.Mode))
	e.logger.Info("export complete",
		logging.String("path", exportPath),
		logging.String("format", e.cfg.Export.Format),
		logging.String("mode", e.cfg.Export.Mode),
		logging.Int("decisions", len(p.EditDecisions)))
	return nil
}

func (e *Export) HealthCheck(ctx context.Context) stage.Health {
	if err := os.MkdirAll(e.cfg.Paths.ExportDir, 0o755); err != nil {
		return stage.Unhealthy("export", "export directory not writable: "+err.Error())
	}
	return stage.Healthy("export")
}

func parseExportMode(value string) (export.Mode, error) {
	switch value {
	case "cut":
		return export.ModeCut, nil
	case "review":
		return export.ModeReview, nil
	default:
		return export.ModeCut, services.Wrap(services.ErrConfiguration, "export", "mode", value, nil)
	}
}
