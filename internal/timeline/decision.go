package timeline

import (
	"strings"

	"avid/internal/services"
)

// EditType classifies what an edit decision does to its range.
type EditType string

const (
	EditCut     EditType = "cut"
	EditSpeedup EditType = "speedup"
	EditMute    EditType = "mute"
)

// ParseEditType normalizes a stored edit type value.
func ParseEditType(value string) (EditType, error) {
	switch EditType(strings.ToLower(strings.TrimSpace(value))) {
	case EditCut:
		return EditCut, nil
	case EditSpeedup:
		return EditSpeedup, nil
	case EditMute:
		return EditMute, nil
	default:
		return "", services.Wrap(services.ErrValidation, "timeline", "edit type", "unknown value "+value, nil)
	}
}

// EditReason records why a range was flagged. Cut reasons come from the
// detection and analysis stages; keep reasons annotate content a provider
// explicitly voted to retain.
type EditReason string

const (
	ReasonSilence    EditReason = "silence"
	ReasonDuplicate  EditReason = "duplicate"
	ReasonFiller     EditReason = "filler"
	ReasonManual     EditReason = "manual"
	ReasonIncomplete EditReason = "incomplete"
	ReasonBoring     EditReason = "boring"
	ReasonTangent    EditReason = "tangent"
	ReasonRepetitive EditReason = "repetitive"
	ReasonLongPause  EditReason = "long_pause"
	ReasonCrosstalk  EditReason = "crosstalk"
	ReasonIrrelevant EditReason = "irrelevant"

	ReasonFunny     EditReason = "funny"
	ReasonWitty     EditReason = "witty"
	ReasonChemistry EditReason = "chemistry"
	ReasonReaction  EditReason = "reaction"
	ReasonCallback  EditReason = "callback"
	ReasonClimax    EditReason = "climax"
	ReasonEngaging  EditReason = "engaging"
	ReasonEmotional EditReason = "emotional"
)

var knownReasons = map[EditReason]struct{}{
	ReasonSilence: {}, ReasonDuplicate: {}, ReasonFiller: {}, ReasonManual: {},
	ReasonIncomplete: {}, ReasonBoring: {}, ReasonTangent: {}, ReasonRepetitive: {},
	ReasonLongPause: {}, ReasonCrosstalk: {}, ReasonIrrelevant: {},
	ReasonFunny: {}, ReasonWitty: {}, ReasonChemistry: {}, ReasonReaction: {},
	ReasonCallback: {}, ReasonClimax: {}, ReasonEngaging: {}, ReasonEmotional: {},
}

// NormalizeReason maps free-form provider reasons onto the known vocabulary.
// Unknown values fall back to manual rather than failing the whole decision.
func NormalizeReason(value string) EditReason {
	reason := EditReason(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := knownReasons[reason]; ok {
		return reason
	}
	return ReasonManual
}

// EditDecision flags one range on the primary timeline for cutting, muting,
// or speed adjustment. Ranges are in the primary track's native timeline and
// may overlap other decisions; the exporter resolves conflicts.
type EditDecision struct {
	Range               TimeRange  `json:"range"`
	EditType            EditType   `json:"edit_type"`
	Reason              EditReason `json:"reason"`
	Confidence          float64    `json:"confidence"`
	Note                string     `json:"note,omitempty"`
	ActiveVideoTrackID  string     `json:"active_video_track_id,omitempty"`
	ActiveAudioTrackIDs []string   `json:"active_audio_track_ids,omitempty"`
	SpeedFactor         float64    `json:"speed_factor,omitempty"`
}

// Validate checks the parts of a decision the export pipeline depends on.
func (d EditDecision) Validate() error {
	if err := d.Range.Validate(); err != nil {
		return err
	}
	if _, err := ParseEditType(string(d.EditType)); err != nil {
		return err
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return services.Wrap(services.ErrValidation, "timeline", "decision", "confidence out of range", nil)
	}
	return nil
}
