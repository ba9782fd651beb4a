// Package timeline holds the time primitives and edit-decision types shared
// by the detection, analysis, merge, and export layers. All times are integer
// milliseconds on the owning track's native timeline.
package timeline

import (
	"encoding/json"
	"fmt"

	"avid/internal/services"
)

// TimeRange is an immutable half-open interval [StartMS, EndMS).
type TimeRange struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// NewTimeRange validates and constructs a range. EndMS must be strictly
// greater than StartMS and both must be non-negative.
func NewTimeRange(startMS, endMS int64) (TimeRange, error) {
	r := TimeRange{StartMS: startMS, EndMS: endMS}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate reports whether the range satisfies the construction invariant.
func (r TimeRange) Validate() error {
	if r.StartMS < 0 || r.EndMS < 0 {
		return services.Wrap(services.ErrValidation, "timeline", "range",
			fmt.Sprintf("negative bounds %d..%d", r.StartMS, r.EndMS), nil)
	}
	if r.EndMS <= r.StartMS {
		return services.Wrap(services.ErrValidation, "timeline", "range",
			fmt.Sprintf("end %d must be after start %d", r.EndMS, r.StartMS), nil)
	}
	return nil
}

// DurationMS returns the span length in milliseconds.
func (r TimeRange) DurationMS() int64 {
	return r.EndMS - r.StartMS
}

// Overlaps reports half-open interval overlap with other.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.StartMS < other.EndMS && other.StartMS < r.EndMS
}

// Contains reports whether the timestamp falls inside the half-open range.
func (r TimeRange) Contains(timestampMS int64) bool {
	return timestampMS >= r.StartMS && timestampMS < r.EndMS
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%d..%d)", r.StartMS, r.EndMS)
}

// UnmarshalJSON enforces the range invariant on decode so malformed persisted
// documents fail fast instead of producing inverted intervals.
func (r *TimeRange) UnmarshalJSON(data []byte) error {
	type plain TimeRange
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	restored := TimeRange(decoded)
	if err := restored.Validate(); err != nil {
		return err
	}
	*r = restored
	return nil
}
