package timeline_test

import (
	"encoding/json"
	"errors"
	"testing"

	"avid/internal/services"
	"avid/internal/timeline"
)

func TestNewTimeRangeRejectsInvertedBounds(t *testing.T) {
	cases := []struct {
		name       string
		start, end int64
	}{
		{"equal", 1000, 1000},
		{"inverted", 2000, 1000},
		{"negative start", -1, 100},
		{"negative end", 0, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := timeline.NewTimeRange(tc.start, tc.end); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error for %d..%d, got %v", tc.start, tc.end, err)
			}
		})
	}
}

func TestTimeRangeQueries(t *testing.T) {
	r, err := timeline.NewTimeRange(1000, 3000)
	if err != nil {
		t.Fatalf("NewTimeRange: %v", err)
	}
	if got := r.DurationMS(); got != 2000 {
		t.Fatalf("duration = %d, want 2000", got)
	}
	if !r.Contains(1000) || !r.Contains(2999) {
		t.Fatal("expected half-open containment at start and before end")
	}
	if r.Contains(3000) {
		t.Fatal("end bound must be exclusive")
	}
}

func TestOverlapSymmetry(t *testing.T) {
	cases := []struct {
		a, b timeline.TimeRange
		want bool
	}{
		{timeline.TimeRange{StartMS: 0, EndMS: 100}, timeline.TimeRange{StartMS: 50, EndMS: 150}, true},
		{timeline.TimeRange{StartMS: 0, EndMS: 100}, timeline.TimeRange{StartMS: 100, EndMS: 200}, false},
		{timeline.TimeRange{StartMS: 0, EndMS: 100}, timeline.TimeRange{StartMS: 20, EndMS: 40}, true},
		{timeline.TimeRange{StartMS: 500, EndMS: 600}, timeline.TimeRange{StartMS: 0, EndMS: 100}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Fatalf("%v overlaps %v = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		if tc.a.Overlaps(tc.b) != tc.b.Overlaps(tc.a) {
			t.Fatalf("overlap not symmetric for %v, %v", tc.a, tc.b)
		}
	}
}

func TestTimeRangeUnmarshalValidates(t *testing.T) {
	var r timeline.TimeRange
	if err := json.Unmarshal([]byte(`{"start_ms":5000,"end_ms":2000}`), &r); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"start_ms":0,"end_ms":250}`), &r); err != nil {
		t.Fatalf("unmarshal valid range: %v", err)
	}
	if r.StartMS != 0 || r.EndMS != 250 {
		t.Fatalf("unexpected range %v", r)
	}
}

func TestNormalizeReason(t *testing.T) {
	cases := map[string]timeline.EditReason{
		"silence":    timeline.ReasonSilence,
		"Long_Pause": timeline.ReasonLongPause,
		"funny":      timeline.ReasonFunny,
		"gibberish":  timeline.ReasonManual,
		"":           timeline.ReasonManual,
	}
	for input, want := range cases {
		if got := timeline.NormalizeReason(input); got != want {
			t.Fatalf("NormalizeReason(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDecisionValidate(t *testing.T) {
	good := timeline.EditDecision{
		Range:      timeline.TimeRange{StartMS: 100, EndMS: 400},
		EditType:   timeline.EditCut,
		Reason:     timeline.ReasonSilence,
		Confidence: 0.8,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid decision rejected: %v", err)
	}

	bad := good
	bad.EditType = "trim"
	if err := bad.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for edit type, got %v", err)
	}

	bad = good
	bad.Confidence = 1.5
	if err := bad.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for confidence, got %v", err)
	}
}
