package analysis

import (
	"avid/internal/project"
	"avid/internal/timeline"
)

// Segment is one indexed transcript span shown to providers. The index space
// is shared by every provider in a run so their verdicts can be voted on.
type Segment struct {
	Index   int                `json:"index"`
	Range   timeline.TimeRange `json:"range"`
	Text    string             `json:"text"`
	Speaker string             `json:"speaker,omitempty"`
}

// SegmentsFromTranscription numbers a transcription's segments for analysis.
func SegmentsFromTranscription(tr *project.Transcription) []Segment {
	if tr == nil {
		return nil
	}
	out := make([]Segment, 0, len(tr.Segments))
	for i, seg := range tr.Segments {
		out = append(out, Segment{
			Index:   i,
			Range:   seg.Range,
			Text:    seg.Text,
			Speaker: seg.Speaker,
		})
	}
	return out
}

// Decisions converts a consensus into cut decisions over the segment ranges.
// Cuts referencing indices outside the segment list are dropped.
func Decisions(consensus Consensus, segments []Segment, videoTrackID string, audioTrackIDs []string) []timeline.EditDecision {
	byIndex := make(map[int]Segment, len(segments))
	for _, seg := range segments {
		byIndex[seg.Index] = seg
	}

	out := make([]timeline.EditDecision, 0, len(consensus.Cuts))
	for _, cut := range consensus.Cuts {
		seg, ok := byIndex[cut.Index]
		if !ok {
			continue
		}
		out = append(out, timeline.EditDecision{
			Range:               seg.Range,
			EditType:            timeline.EditCut,
			Reason:              timeline.NormalizeReason(cut.Reason),
			Confidence:          cut.Confidence,
			Note:                seg.Text,
			ActiveVideoTrackID:  videoTrackID,
			ActiveAudioTrackIDs: append([]string(nil), audioTrackIDs...),
		})
	}
	return out
}
