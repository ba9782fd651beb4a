package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"avid/internal/logging"
	"avid/internal/project"
	"avid/internal/services"
)

// Premiere renders the same segmentation as the FCPXML exporter against the
// legacy xmeml grammar.
type Premiere struct {
	logger *slog.Logger
}

// NewPremiere builds the exporter.
func NewPremiere(logger *slog.Logger) *Premiere {
	return &Premiere{logger: logging.WithComponent(logger, "export")}
}

type xmeml struct {
	XMLName xml.Name      `xml:"xmeml"`
	Version string        `xml:"version,attr"`
	Seq     xmemlSequence `xml:"sequence"`
}

type xmemlSequence struct {
	UUID     string        `xml:"uuid"`
	Name     string        `xml:"name"`
	Duration int64         `xml:"duration"`
	Rate     xmemlRate     `xml:"rate"`
	Timecode xmemlTimecode `xml:"timecode"`
	Media    xmemlMedia    `xml:"media"`
}

type xmemlRate struct {
	Timebase int64  `xml:"timebase"`
	NTSC     string `xml:"ntsc"`
}

type xmemlTimecode struct {
	Rate          xmemlRate `xml:"rate"`
	String        string    `xml:"string"`
	Frame         int64     `xml:"frame"`
	DisplayFormat string    `xml:"displayformat"`
}

type xmemlMedia struct {
	Video xmemlTrackGroup `xml:"video"`
	Audio xmemlTrackGroup `xml:"audio"`
}

type xmemlTrackGroup struct {
	Tracks []xmemlTrack `xml:"track"`
}

type xmemlTrack struct {
	Clips []xmemlClipItem `xml:"clipitem"`
}

type xmemlClipItem struct {
	ID       string     `xml:"id,attr"`
	Name     string     `xml:"name"`
	Enabled  string     `xml:"enabled"`
	Duration int64      `xml:"duration"`
	Rate     xmemlRate  `xml:"rate"`
	Start    int64      `xml:"start"`
	End      int64      `xml:"end"`
	In       int64      `xml:"in"`
	Out      int64      `xml:"out"`
	File     *xmemlFile `xml:"file"`
}

type xmemlFile struct {
	ID       string          `xml:"id,attr"`
	Name     string          `xml:"name,omitempty"`
	PathURL  string          `xml:"pathurl,omitempty"`
	Rate     *xmemlRate      `xml:"rate,omitempty"`
	Duration int64           `xml:"duration,omitempty"`
	Media    *xmemlFileMedia `xml:"media,omitempty"`
}

type xmemlFileMedia struct {
	Video *xmemlFileVideo `xml:"video,omitempty"`
	Audio *xmemlFileAudio `xml:"audio,omitempty"`
}

type xmemlFileVideo struct {
	Width  int `xml:"samplecharacteristics>width"`
	Height int `xml:"samplecharacteristics>height"`
}

type xmemlFileAudio struct {
	SampleRate int `xml:"samplecharacteristics>samplerate"`
}

// Export writes the xmeml document for the project's primary track.
func (e *Premiere) Export(p *project.Project, mode Mode, w io.Writer) error {
	primaryTrack, ok := p.PrimaryVideoTrack()
	if !ok {
		return services.Wrap(services.ErrValidation, "export", "premiere", "project has no tracks", nil)
	}
	source, ok := p.SourceFile(primaryTrack.SourceFileID)
	if !ok {
		return services.Wrap(services.ErrNotFound, "export", "premiere", "primary track source "+primaryTrack.SourceFileID, nil)
	}
	durationMS := source.Info.DurationMS

	segments := BuildSegments(p.EditDecisions, durationMS, mode, e.logger)
	if len(segments) == 0 {
		segments = []Segment{{StartMS: 0, EndMS: durationMS, Enabled: true}}
	}

	tb := NewTimebase(source.Info.FPS)
	rate := xmemlRate{Timebase: tb.TimebaseInt(), NTSC: ntscString(tb)}

	fileRef := &xmemlFile{
		ID:       "file-1",
		Name:     source.OriginalName,
		PathURL:  "file://localhost" + source.Path,
		Rate:     &xmemlRate{Timebase: rate.Timebase, NTSC: rate.NTSC},
		Duration: tb.Frames(durationMS),
		Media:    &xmemlFileMedia{},
	}
	if source.Info.IsVideo() {
		fileRef.Media.Video = &xmemlFileVideo{Width: source.Info.Width, Height: source.Info.Height}
	}
	if source.Info.SampleRate > 0 {
		fileRef.Media.Audio = &xmemlFileAudio{SampleRate: source.Info.SampleRate}
	}

	buildTrack := func(prefix string) xmemlTrack {
		var track xmemlTrack
		var timelineFrames int64
		for i, seg := range segments {
			in := tb.Frames(seg.StartMS)
			out := tb.Frames(seg.EndMS)
			start := timelineFrames
			if mode == ModeReview {
				start = in
			}
			clip := xmemlClipItem{
				ID:       fmt.Sprintf("%s-%d", prefix, i+1),
				Name:     source.OriginalName,
				Enabled:  boolString(seg.Enabled),
				Duration: out - in,
				Rate:     rate,
				Start:    start,
				End:      start + (out - in),
				In:       in,
				Out:      out,
			}
			if i == 0 {
				clip.File = fileRef
			} else {
				clip.File = &xmemlFile{ID: "file-1"}
			}
			track.Clips = append(track.Clips, clip)
			timelineFrames += out - in
		}
		return track
	}

	var totalFrames int64
	for _, seg := range segments {
		totalFrames += tb.Frames(seg.EndMS) - tb.Frames(seg.StartMS)
	}
	if mode == ModeReview {
		totalFrames = tb.Frames(durationMS)
	}

	doc := &xmeml{
		Version: "5",
		Seq: xmemlSequence{
			UUID:     uuid.NewString(),
			Name:     p.Name,
			Duration: totalFrames,
			Rate:     rate,
			Timecode: xmemlTimecode{
				Rate:          rate,
				String:        "00:00:00:00",
				Frame:         0,
				DisplayFormat: "NDF",
			},
			Media: xmemlMedia{},
		},
	}
	if source.Info.IsVideo() {
		doc.Seq.Media.Video.Tracks = []xmemlTrack{buildTrack("clipitem-v")}
	}
	if source.Info.SampleRate > 0 {
		doc.Seq.Media.Audio.Tracks = []xmemlTrack{buildTrack("clipitem-a")}
	}

	return writeDocument(w, doc, "<!DOCTYPE xmeml>\n")
}

// ExportFile writes the xmeml document to path.
func (e *Premiere) ExportFile(p *project.Project, mode Mode, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "premiere", "create "+path, err)
	}
	defer file.Close()
	return e.Export(p, mode, file)
}

func ntscString(tb Timebase) string {
	if tb.IsNTSC() {
		return "TRUE"
	}
	return "FALSE"
}

func boolString(enabled bool) string {
	if enabled {
		return "TRUE"
	}
	return "FALSE"
}
