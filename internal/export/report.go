package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"avid/internal/project"
	"avid/internal/timeline"
)

// ReportFormat selects how the edit report is rendered.
type ReportFormat string

const (
	ReportMarkdown ReportFormat = "markdown"
	ReportJSON     ReportFormat = "json"
)

var reasonLabels = map[timeline.EditReason]string{
	timeline.ReasonSilence:    "Silence",
	timeline.ReasonDuplicate:  "Duplicate",
	timeline.ReasonFiller:     "Filler",
	timeline.ReasonManual:     "Manual",
	timeline.ReasonIncomplete: "Incomplete",
	timeline.ReasonBoring:     "Boring",
	timeline.ReasonTangent:    "Tangent",
	timeline.ReasonRepetitive: "Repetitive",
	timeline.ReasonLongPause:  "Long pause",
	timeline.ReasonCrosstalk:  "Crosstalk",
	timeline.ReasonIrrelevant: "Irrelevant",
	timeline.ReasonFunny:      "Funny",
	timeline.ReasonWitty:      "Witty",
	timeline.ReasonChemistry:  "Chemistry",
	timeline.ReasonReaction:   "Reaction",
	timeline.ReasonCallback:   "Callback",
	timeline.ReasonClimax:     "Climax",
	timeline.ReasonEngaging:   "Engaging",
	timeline.ReasonEmotional:  "Emotional",
}

var editTypeLabels = map[timeline.EditType]string{
	timeline.EditCut:     "cut",
	timeline.EditSpeedup: "speed up",
	timeline.EditMute:    "mute",
}

func reasonLabel(reason timeline.EditReason) string {
	if label, ok := reasonLabels[reason]; ok {
		return label
	}
	return string(reason)
}

func editTypeLabel(editType timeline.EditType) string {
	if label, ok := editTypeLabels[editType]; ok {
		return label
	}
	return string(editType)
}

// reportTimestamp renders milliseconds as MM:SS.mmm, with an hours field only
// when the position reaches one.
func reportTimestamp(ms int64) string {
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
	}
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}

// reasonGroup holds one reason's decisions sorted by start position.
type reasonGroup struct {
	reason    timeline.EditReason
	decisions []timeline.EditDecision
}

// groupByReason buckets decisions by reason, groups ordered by the earliest
// decision they contain so the report reads chronologically.
func groupByReason(decisions []timeline.EditDecision) []reasonGroup {
	index := make(map[timeline.EditReason]int)
	var groups []reasonGroup
	for _, decision := range decisions {
		i, ok := index[decision.Reason]
		if !ok {
			i = len(groups)
			index[decision.Reason] = i
			groups = append(groups, reasonGroup{reason: decision.Reason})
		}
		groups[i].decisions = append(groups[i].decisions, decision)
	}
	for i := range groups {
		sort.Slice(groups[i].decisions, func(a, b int) bool {
			return groups[i].decisions[a].Range.StartMS < groups[i].decisions[b].Range.StartMS
		})
	}
	sort.Slice(groups, func(a, b int) bool {
		return groups[a].decisions[0].Range.StartMS < groups[b].decisions[0].Range.StartMS
	})
	return groups
}

// BuildReport renders the project's edit decisions as a Markdown report:
// a per-reason summary table followed by every decision with its timestamps,
// edit type, confidence, and note.
func BuildReport(p *project.Project) string {
	var b strings.Builder
	b.WriteString("# Edit Report\n\n")
	fmt.Fprintf(&b, "**Project**: %s\n", p.Name)
	fmt.Fprintf(&b, "**Created**: %s\n\n", p.CreatedAt.Format("2006-01-02 15:04"))

	if len(p.EditDecisions) == 0 {
		b.WriteString("No edit decisions.\n")
		return b.String()
	}

	groups := groupByReason(p.EditDecisions)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Reason | Count | Total |\n")
	b.WriteString("|--------|-------|-------|\n")
	var totalCount int
	var totalMS int64
	for _, group := range groups {
		var groupMS int64
		for _, decision := range group.decisions {
			groupMS += decision.Range.DurationMS()
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n",
			reasonLabel(group.reason), len(group.decisions), reportTimestamp(groupMS))
		totalCount += len(group.decisions)
		totalMS += groupMS
	}
	fmt.Fprintf(&b, "| **Total** | **%d** | **%s** |\n\n", totalCount, reportTimestamp(totalMS))

	for _, group := range groups {
		fmt.Fprintf(&b, "## %s (%d)\n\n", reasonLabel(group.reason), len(group.decisions))
		for i, decision := range group.decisions {
			fmt.Fprintf(&b, "### %d. %s - %s (%s)\n\n", i+1,
				reportTimestamp(decision.Range.StartMS),
				reportTimestamp(decision.Range.EndMS),
				reportTimestamp(decision.Range.DurationMS()))
			fmt.Fprintf(&b, "- **Edit type**: %s\n", editTypeLabel(decision.EditType))
			fmt.Fprintf(&b, "- **Confidence**: %.0f%%\n", decision.Confidence*100)
			if decision.Note != "" {
				fmt.Fprintf(&b, "- **Note**: %s\n", decision.Note)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ReportDecision is one decision entry in the JSON report.
type ReportDecision struct {
	StartMS    int64   `json:"start_ms"`
	EndMS      int64   `json:"end_ms"`
	DurationMS int64   `json:"duration_ms"`
	EditType   string  `json:"edit_type"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}

// ReasonSummary counts one reason's decisions in the JSON report.
type ReasonSummary struct {
	Count      int   `json:"count"`
	DurationMS int64 `json:"duration_ms"`
}

// Report is the structured form of the edit report.
type Report struct {
	ProjectName string                      `json:"project_name"`
	CreatedAt   string                      `json:"created_at"`
	Summary     ReportSummary               `json:"summary"`
	Decisions   map[string][]ReportDecision `json:"decisions"`
}

// ReportSummary aggregates counts and removed time across all reasons.
type ReportSummary struct {
	TotalCount      int                      `json:"total_count"`
	TotalDurationMS int64                    `json:"total_duration_ms"`
	ByReason        map[string]ReasonSummary `json:"by_reason"`
}

// BuildReportJSON assembles the structured report.
func BuildReportJSON(p *project.Project) Report {
	report := Report{
		ProjectName: p.Name,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Summary: ReportSummary{
			ByReason: make(map[string]ReasonSummary),
		},
		Decisions: make(map[string][]ReportDecision),
	}
	for _, group := range groupByReason(p.EditDecisions) {
		key := string(group.reason)
		var groupMS int64
		for _, decision := range group.decisions {
			groupMS += decision.Range.DurationMS()
			report.Decisions[key] = append(report.Decisions[key], ReportDecision{
				StartMS:    decision.Range.StartMS,
				EndMS:      decision.Range.EndMS,
				DurationMS: decision.Range.DurationMS(),
				EditType:   string(decision.EditType),
				Confidence: decision.Confidence,
				Note:       decision.Note,
			})
		}
		report.Summary.ByReason[key] = ReasonSummary{
			Count:      len(group.decisions),
			DurationMS: groupMS,
		}
		report.Summary.TotalCount += len(group.decisions)
		report.Summary.TotalDurationMS += groupMS
	}
	return report
}

// WriteReportFile writes the report to path, appending the conventional
// extension when path has none. Returns the path actually written.
func WriteReportFile(p *project.Project, path string, format ReportFormat) (string, error) {
	var content []byte
	switch format {
	case ReportJSON:
		if filepath.Ext(path) == "" {
			path += ".json"
		}
		encoded, err := json.MarshalIndent(BuildReportJSON(p), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode report: %w", err)
		}
		content = append(encoded, '\n')
	default:
		if filepath.Ext(path) == "" {
			path += ".md"
		}
		content = []byte(BuildReport(p))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
