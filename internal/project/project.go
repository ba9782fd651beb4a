// Package project owns the aggregate editing model: source files, derived
// tracks, transcription, and accumulated edit decisions, plus JSON
// persistence and the merge engine that folds independently produced
// projects together.
package project

import (
	"time"

	"avid/internal/media"
	"avid/internal/services"
	"avid/internal/timeline"
)

// TrackType distinguishes picture from sound tracks.
type TrackType string

const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
)

// Track binds one stream of a source file into the project timeline.
// OffsetMS is a signed sync correction applied at export time; a positive
// offset means this track starts later than the reference track.
type Track struct {
	ID           string    `json:"id"`
	SourceFileID string    `json:"source_file_id"`
	TrackType    TrackType `json:"track_type"`
	OffsetMS     int64     `json:"offset_ms"`
}

// TranscriptSegment is one caption with its speaker attribution.
type TranscriptSegment struct {
	Range   timeline.TimeRange `json:"range"`
	Text    string             `json:"text"`
	Speaker string             `json:"speaker,omitempty"`
}

// Transcription is the speech-to-text result attached to a project.
type Transcription struct {
	Language string              `json:"language,omitempty"`
	Segments []TranscriptSegment `json:"segments"`
}

// Project is the aggregate root for one editing session.
type Project struct {
	Name          string                  `json:"name"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	SourceFiles   []media.File            `json:"source_files"`
	Tracks        []Track                 `json:"tracks"`
	Transcription *Transcription          `json:"transcription,omitempty"`
	EditDecisions []timeline.EditDecision `json:"edit_decisions"`
}

// New creates an empty project.
func New(name string) *Project {
	now := time.Now().UTC()
	return &Project{
		Name:          name,
		CreatedAt:     now,
		UpdatedAt:     now,
		SourceFiles:   []media.File{},
		Tracks:        []Track{},
		EditDecisions: []timeline.EditDecision{},
	}
}

// VideoTrackID derives the deterministic video track ID for a source file.
func VideoTrackID(fileID string) string { return fileID + "_video" }

// AudioTrackID derives the deterministic audio track ID for a source file.
func AudioTrackID(fileID string) string { return fileID + "_audio" }

// AddSourceFile appends the file and derives its tracks: one video track when
// the source has picture, one audio track when it has sound. Track IDs are
// derived from the file ID so re-import of the same path is referenceable
// without a lookup table. Returns the tracks created by this call.
func (p *Project) AddSourceFile(file media.File) ([]Track, error) {
	if file.ID == "" || file.Path == "" {
		return nil, services.Wrap(services.ErrValidation, "project", "add source", "file missing identity", nil)
	}
	for _, existing := range p.SourceFiles {
		if existing.ID == file.ID {
			return nil, services.Wrap(services.ErrValidation, "project", "add source", "source already registered: "+file.Path, nil)
		}
	}

	p.SourceFiles = append(p.SourceFiles, file)

	var created []Track
	if file.Info.IsVideo() {
		created = append(created, Track{
			ID:           VideoTrackID(file.ID),
			SourceFileID: file.ID,
			TrackType:    TrackVideo,
		})
	}
	if file.Info.SampleRate > 0 {
		created = append(created, Track{
			ID:           AudioTrackID(file.ID),
			SourceFileID: file.ID,
			TrackType:    TrackAudio,
		})
	}
	p.Tracks = append(p.Tracks, created...)
	p.touch()
	return created, nil
}

// SetTrackOffset adjusts a track's sync offset. Returns false when the track
// does not exist.
func (p *Project) SetTrackOffset(trackID string, offsetMS int64) bool {
	for i := range p.Tracks {
		if p.Tracks[i].ID == trackID {
			p.Tracks[i].OffsetMS = offsetMS
			p.touch()
			return true
		}
	}
	return false
}

// AddDecision appends a validated edit decision.
func (p *Project) AddDecision(decision timeline.EditDecision) error {
	if err := decision.Validate(); err != nil {
		return err
	}
	p.EditDecisions = append(p.EditDecisions, decision)
	p.touch()
	return nil
}

// SourceFile resolves a source by ID.
func (p *Project) SourceFile(id string) (media.File, bool) {
	for _, file := range p.SourceFiles {
		if file.ID == id {
			return file, true
		}
	}
	return media.File{}, false
}

// Track resolves a track by ID.
func (p *Project) Track(id string) (Track, bool) {
	for _, track := range p.Tracks {
		if track.ID == id {
			return track, true
		}
	}
	return Track{}, false
}

// PrimaryVideoTrack returns the first video track, or the first track of any
// type when the project is audio-only.
func (p *Project) PrimaryVideoTrack() (Track, bool) {
	for _, track := range p.Tracks {
		if track.TrackType == TrackVideo {
			return track, true
		}
	}
	if len(p.Tracks) > 0 {
		return p.Tracks[0], true
	}
	return Track{}, false
}

// DurationMS computes the project span: the maximum over tracks of track
// offset plus source duration. A project with no tracks has duration 0.
func (p *Project) DurationMS() int64 {
	var max int64
	for _, track := range p.Tracks {
		source, ok := p.SourceFile(track.SourceFileID)
		if !ok {
			continue
		}
		if end := track.OffsetMS + source.Info.DurationMS; end > max {
			max = end
		}
	}
	return max
}

func (p *Project) touch() {
	p.UpdatedAt = time.Now().UTC()
}
