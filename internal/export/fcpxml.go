package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"avid/internal/logging"
	"avid/internal/media"
	"avid/internal/project"
	"avid/internal/services"
	"avid/internal/subtitles"
)

const fcpxmlVersion = "1.9"

// Document is the FCPXML tree. Fields are exported so evaluation can parse
// emitted files back with the same types.
type Document struct {
	XMLName   xml.Name  `xml:"fcpxml"`
	Version   string    `xml:"version,attr"`
	Resources Resources `xml:"resources"`
	Library   Library   `xml:"library"`
}

type Resources struct {
	Formats []Format `xml:"format"`
	Assets  []Asset  `xml:"asset"`
}

type Format struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr"`
	FrameDuration string `xml:"frameDuration,attr"`
	Width         int    `xml:"width,attr,omitempty"`
	Height        int    `xml:"height,attr,omitempty"`
}

type Asset struct {
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	Src      string   `xml:"src,attr"`
	Format   string   `xml:"format,attr,omitempty"`
	MediaRep MediaRep `xml:"media-rep"`
}

type MediaRep struct {
	Kind string `xml:"kind,attr"`
	Src  string `xml:"src,attr"`
}

type Library struct {
	Event Event `xml:"event"`
}

type Event struct {
	Name    string       `xml:"name,attr"`
	Project ProjectEntry `xml:"project"`
}

type ProjectEntry struct {
	Name     string   `xml:"name,attr"`
	Sequence Sequence `xml:"sequence"`
}

type Sequence struct {
	Format   string `xml:"format,attr"`
	Duration string `xml:"duration,attr"`
	Spine    Spine  `xml:"spine"`
}

type Spine struct {
	Clips []AssetClip `xml:"asset-clip"`
}

type AssetClip struct {
	Ref      string      `xml:"ref,attr"`
	Lane     int         `xml:"lane,attr,omitempty"`
	Offset   string      `xml:"offset,attr"`
	Duration string      `xml:"duration,attr"`
	Start    string      `xml:"start,attr"`
	Format   string      `xml:"format,attr,omitempty"`
	Enabled  string      `xml:"enabled,attr,omitempty"`
	Children []AssetClip `xml:"asset-clip"`
}

// FCPXML renders projects as Final Cut interchange documents.
type FCPXML struct {
	logger *slog.Logger
}

// NewFCPXML builds the exporter.
func NewFCPXML(logger *slog.Logger) *FCPXML {
	return &FCPXML{logger: logging.WithComponent(logger, "export")}
}

// Export writes the document for the project's primary track.
func (e *FCPXML) Export(p *project.Project, mode Mode, w io.Writer) error {
	doc, _, err := e.build(p, mode)
	if err != nil {
		return err
	}
	return writeDocument(w, doc, "<!DOCTYPE fcpxml>\n")
}

// ExportFile writes the document to path. In cut mode a project carrying a
// transcription also gets a re-timed caption file next to the export.
func (e *FCPXML) ExportFile(p *project.Project, mode Mode, path string) error {
	doc, segments, err := e.build(p, mode)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "fcpxml", "create "+path, err)
	}
	defer file.Close()
	if err := writeDocument(file, doc, "<!DOCTYPE fcpxml>\n"); err != nil {
		return err
	}

	if mode == ModeCut && p.Transcription != nil && len(p.Transcription.Segments) > 0 {
		captions := make([]subtitles.Caption, 0, len(p.Transcription.Segments))
		for _, seg := range p.Transcription.Segments {
			captions = append(captions, subtitles.Caption{Range: seg.Range, Text: seg.Text})
		}
		retimed := subtitles.Retime(captions, CutRanges(segments, primaryDuration(p)))
		srtPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".srt"
		if err := subtitles.WriteFile(srtPath, retimed); err != nil {
			return err
		}
		e.logger.Info("wrote re-timed captions",
			logging.String("path", srtPath),
			logging.Int("captions", len(retimed)))
	}
	return nil
}

func (e *FCPXML) build(p *project.Project, mode Mode) (*Document, []Segment, error) {
	primaryTrack, ok := p.PrimaryVideoTrack()
	if !ok {
		return nil, nil, services.Wrap(services.ErrValidation, "export", "fcpxml", "project has no tracks", nil)
	}
	primarySource, ok := p.SourceFile(primaryTrack.SourceFileID)
	if !ok {
		return nil, nil, services.Wrap(services.ErrNotFound, "export", "fcpxml", "primary track source "+primaryTrack.SourceFileID, nil)
	}
	durationMS := primarySource.Info.DurationMS

	segments := BuildSegments(p.EditDecisions, durationMS, mode, e.logger)
	if len(segments) == 0 {
		// A failed or empty segmentation still yields a valid document
		// spanning the full source.
		segments = []Segment{{StartMS: 0, EndMS: durationMS, Enabled: true}}
	}

	formats, assets, formatBySource, assetBySource := buildResources(p, primarySource)
	tb := NewTimebase(primarySource.Info.FPS)

	extras := extraSources(p, primarySource.ID)

	var clips []AssetClip
	var timelineMS int64
	for _, seg := range segments {
		offsetMS := seg.StartMS
		if mode == ModeCut {
			offsetMS = timelineMS
		}
		clip := AssetClip{
			Ref:      assetBySource[primarySource.ID],
			Offset:   tb.Time(offsetMS),
			Duration: tb.Time(seg.EndMS - seg.StartMS),
			Start:    tb.Time(seg.StartMS),
			Format:   formatBySource[primarySource.ID],
		}
		if !seg.Enabled {
			clip.Enabled = "0"
		}
		for lane, extra := range extras {
			extraStart := seg.StartMS - extra.offsetMS
			if extraStart < 0 {
				extraStart = 0
			}
			child := AssetClip{
				Ref:      assetBySource[extra.source.ID],
				Lane:     -(lane + 1),
				Offset:   clip.Offset,
				Duration: clip.Duration,
				Start:    tb.Time(extraStart),
				Format:   formatBySource[extra.source.ID],
			}
			if !seg.Enabled {
				child.Enabled = "0"
			}
			clip.Children = append(clip.Children, child)
		}
		clips = append(clips, clip)
		timelineMS += seg.EndMS - seg.StartMS
	}

	totalMS := durationMS
	if mode == ModeCut {
		totalMS = timelineMS
	}

	doc := &Document{
		Version:   fcpxmlVersion,
		Resources: Resources{Formats: formats, Assets: assets},
		Library: Library{Event: Event{
			Name: p.Name,
			Project: ProjectEntry{
				Name: p.Name,
				Sequence: Sequence{
					Format:   formatBySource[primarySource.ID],
					Duration: tb.Time(totalMS),
					Spine:    Spine{Clips: clips},
				},
			},
		}},
	}
	return doc, segments, nil
}

// buildResources allocates format resources deduplicated by
// (fps, width, height) and one asset per source file.
func buildResources(p *project.Project, primary media.File) ([]Format, []Asset, map[string]string, map[string]string) {
	type formatKey struct {
		fps    float64
		width  int
		height int
	}

	ordered := orderedSources(p, primary)

	var formats []Format
	formatIDs := make(map[formatKey]string)
	formatBySource := make(map[string]string)
	for _, source := range ordered {
		if !source.Info.IsVideo() {
			continue
		}
		key := formatKey{fps: source.Info.FPS, width: source.Info.Width, height: source.Info.Height}
		id, ok := formatIDs[key]
		if !ok {
			tb := NewTimebase(source.Info.FPS)
			id = fmt.Sprintf("r%d", len(formats)+1)
			formatIDs[key] = id
			formats = append(formats, Format{
				ID:            id,
				Name:          fmt.Sprintf("FFVideoFormat%dp%s", source.Info.Height, tb.RateCode()),
				FrameDuration: tb.FrameDuration(),
				Width:         source.Info.Width,
				Height:        source.Info.Height,
			})
		}
		formatBySource[source.ID] = id
	}

	var assets []Asset
	assetBySource := make(map[string]string)
	for _, source := range ordered {
		id := fmt.Sprintf("r%d", len(formats)+len(assets)+1)
		assetBySource[source.ID] = id
		assets = append(assets, Asset{
			ID:       id,
			Name:     source.OriginalName,
			Src:      "file://" + source.Path,
			Format:   formatBySource[source.ID],
			MediaRep: MediaRep{Kind: "original-media", Src: "file://" + source.Path},
		})
	}
	return formats, assets, formatBySource, assetBySource
}

// orderedSources lists the primary source first, then the rest in project
// order, so resource IDs are stable for a given project.
func orderedSources(p *project.Project, primary media.File) []media.File {
	out := []media.File{primary}
	for _, source := range p.SourceFiles {
		if source.ID != primary.ID {
			out = append(out, source)
		}
	}
	return out
}

type extraSource struct {
	source   media.File
	offsetMS int64
}

// extraSources collapses every non-primary source to one connected-clip
// entry, lanes assigned in first-seen track order. A source's video track
// offset wins over its audio track offset when both exist.
func extraSources(p *project.Project, primaryID string) []extraSource {
	var out []extraSource
	seen := make(map[string]int)
	for _, track := range p.Tracks {
		if track.SourceFileID == primaryID {
			continue
		}
		source, ok := p.SourceFile(track.SourceFileID)
		if !ok {
			continue
		}
		if idx, dup := seen[track.SourceFileID]; dup {
			if track.TrackType == project.TrackVideo {
				out[idx].offsetMS = track.OffsetMS
			}
			continue
		}
		seen[track.SourceFileID] = len(out)
		out = append(out, extraSource{source: source, offsetMS: track.OffsetMS})
	}
	return out
}

func primaryDuration(p *project.Project) int64 {
	if track, ok := p.PrimaryVideoTrack(); ok {
		if source, ok := p.SourceFile(track.SourceFileID); ok {
			return source.Info.DurationMS
		}
	}
	return 0
}

func writeDocument(w io.Writer, doc any, doctype string) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write", "header", err)
	}
	if doctype != "" {
		if _, err := io.WriteString(w, doctype); err != nil {
			return services.Wrap(services.ErrTransient, "export", "write", "doctype", err)
		}
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "    ")
	if err := encoder.Encode(doc); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write", "encode document", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ParseFCPXML decodes an exported document, for evaluation round trips.
func ParseFCPXML(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "export", "parse", "decode fcpxml", err)
	}
	return &doc, nil
}
