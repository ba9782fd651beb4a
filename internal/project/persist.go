package project

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"avid/internal/media"
	"avid/internal/services"
	"avid/internal/timeline"
)

// Save writes the project as a JSON document, creating parent directories as
// needed. The document is the project's only durable state.
func (p *Project) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "project", "save", "encode "+p.Name, err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrTransient, "project", "save", "ensure directory "+dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "project", "save", "write "+path, err)
	}
	return nil
}

// Load reads a persisted project document.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "project", "load", path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "project", "load", "read "+path, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, services.Wrap(services.ErrValidation, "project", "load", "decode "+path, err)
	}
	if p.SourceFiles == nil {
		p.SourceFiles = []media.File{}
	}
	if p.Tracks == nil {
		p.Tracks = []Track{}
	}
	if p.EditDecisions == nil {
		p.EditDecisions = []timeline.EditDecision{}
	}
	return &p, nil
}
