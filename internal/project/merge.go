package project

import (
	"log/slog"

	"avid/internal/logging"
	"avid/internal/media"
	"avid/internal/services"
)

// MergeFrom absorbs another project's sources, tracks, and decisions.
//
// Sources are consolidated by absolute path: a file already present under the
// same path is never duplicated, its foreign ID is remapped to the local one.
// Tracks of consolidated sources are consolidated by (source, type). Decisions
// are copied with their track references rewritten through the map; an
// unmapped reference is kept as-is since it points at a genuinely new track.
// Overlapping decisions are preserved verbatim, conflict handling belongs to
// the exporter. The base project's transcription is retained; the incoming
// one is discarded.
func (p *Project) MergeFrom(other *Project) {
	if other == nil {
		return
	}

	sourceIDMap := make(map[string]string, len(other.SourceFiles))
	for _, incoming := range other.SourceFiles {
		if local, ok := p.sourceByPath(incoming.Path); ok {
			sourceIDMap[incoming.ID] = local.ID
			continue
		}
		if _, ok := p.SourceFile(incoming.ID); ok {
			// Same project merged twice; nothing to add.
			sourceIDMap[incoming.ID] = incoming.ID
			continue
		}
		p.SourceFiles = append(p.SourceFiles, incoming)
		sourceIDMap[incoming.ID] = incoming.ID
	}

	trackIDMap := make(map[string]string, len(other.Tracks))
	for _, incoming := range other.Tracks {
		mappedSource, consolidated := sourceIDMap[incoming.SourceFileID]
		if !consolidated {
			mappedSource = incoming.SourceFileID
		}
		if local, ok := p.trackBySourceAndType(mappedSource, incoming.TrackType); ok {
			trackIDMap[incoming.ID] = local.ID
			continue
		}
		appended := incoming
		appended.SourceFileID = mappedSource
		p.Tracks = append(p.Tracks, appended)
		trackIDMap[incoming.ID] = appended.ID
	}

	for _, decision := range other.EditDecisions {
		copied := decision
		copied.ActiveVideoTrackID = remapID(trackIDMap, decision.ActiveVideoTrackID)
		if len(decision.ActiveAudioTrackIDs) > 0 {
			copied.ActiveAudioTrackIDs = make([]string, len(decision.ActiveAudioTrackIDs))
			for i, id := range decision.ActiveAudioTrackIDs {
				copied.ActiveAudioTrackIDs[i] = remapID(trackIDMap, id)
			}
		}
		p.EditDecisions = append(p.EditDecisions, copied)
	}

	p.touch()
}

// LoadAndMerge loads the first path as the base and folds every following
// project into it. At least one path is required.
func LoadAndMerge(paths []string, logger *slog.Logger) (*Project, error) {
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrValidation, "project", "merge", "at least one project path required", nil)
	}
	log := logging.WithComponent(logger, "merge")

	base, err := Load(paths[0])
	if err != nil {
		return nil, err
	}
	for _, path := range paths[1:] {
		next, err := Load(path)
		if err != nil {
			return nil, err
		}
		before := len(base.EditDecisions)
		base.MergeFrom(next)
		log.Info("merged project",
			logging.String("path", path),
			logging.Int("decisions_added", len(base.EditDecisions)-before),
			logging.Int("sources_total", len(base.SourceFiles)))
	}
	return base, nil
}

func (p *Project) sourceByPath(path string) (media.File, bool) {
	for _, file := range p.SourceFiles {
		if file.Path == path {
			return file, true
		}
	}
	return media.File{}, false
}

func (p *Project) trackBySourceAndType(sourceID string, trackType TrackType) (Track, bool) {
	for _, track := range p.Tracks {
		if track.SourceFileID == sourceID && track.TrackType == trackType {
			return track, true
		}
	}
	return Track{}, false
}

func remapID(trackIDMap map[string]string, id string) string {
	if id == "" {
		return ""
	}
	if mapped, ok := trackIDMap[id]; ok {
		return mapped
	}
	return id
}
