package silence

import (
	"strings"

	"avid/internal/services"
)

// Tempo names how aggressively the automatic threshold reaches into the
// source's dynamic range.
type Tempo string

const (
	TempoTight   Tempo = "tight"
	TempoNormal  Tempo = "normal"
	TempoRelaxed Tempo = "relaxed"
)

var tempoFactors = map[Tempo]float64{
	TempoTight:   0.3,
	TempoNormal:  0.5,
	TempoRelaxed: 0.8,
}

// ParseTempo normalizes a configured tempo preset.
func ParseTempo(value string) (Tempo, error) {
	tempo := Tempo(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := tempoFactors[tempo]; ok {
		return tempo, nil
	}
	return "", services.Wrap(services.ErrValidation, "silence", "tempo", "unknown value "+value, nil)
}

// AutoThresholdDB derives a silencedetect noise floor from the measured
// volume statistics. The threshold sits factor-deep inside the dynamic range
// below the mean level, clamped to [-60, -20] dB so degenerate measurements
// never produce a useless floor.
func AutoThresholdDB(meanVolumeDB, maxVolumeDB float64, tempo Tempo) float64 {
	factor, ok := tempoFactors[tempo]
	if !ok {
		factor = tempoFactors[TempoNormal]
	}
	dynamicRange := maxVolumeDB - meanVolumeDB
	if dynamicRange < 0 {
		dynamicRange = 0
	}
	threshold := meanVolumeDB - dynamicRange*factor
	if threshold < -60 {
		threshold = -60
	}
	if threshold > -20 {
		threshold = -20
	}
	return threshold
}
