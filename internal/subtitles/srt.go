// Package subtitles parses SRT caption files, derives speech gaps from them,
// and re-times captions after cuts are removed from a timeline.
package subtitles

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"avid/internal/services"
	"avid/internal/silence"
	"avid/internal/timeline"
)

// Caption is one subtitle entry.
type Caption struct {
	Range timeline.TimeRange
	Text  string
}

var (
	timestampRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
)

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]Caption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "subtitles", "parse", path, err)
	}
	captions, err := Parse(string(data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "parse", path, err)
	}
	return captions, nil
}

// Parse decodes SRT content. Blocks with unparseable timestamps are skipped;
// an input yielding zero valid captions is an error. Output is sorted by
// start time.
func Parse(content string) ([]Caption, error) {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var captions []Caption
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 {
			continue
		}

		// The numeric index line is optional; find the timestamp line.
		tsLine := -1
		var match []string
		for i, line := range lines {
			if m := timestampRe.FindStringSubmatch(line); m != nil {
				tsLine = i
				match = m
				break
			}
		}
		if tsLine < 0 {
			continue
		}

		startMS := timestampMS(match[1], match[2], match[3], match[4])
		endMS := timestampMS(match[5], match[6], match[7], match[8])
		if endMS <= startMS {
			continue
		}

		text := strings.TrimSpace(htmlTagRe.ReplaceAllString(strings.Join(lines[tsLine+1:], "\n"), ""))
		captions = append(captions, Caption{
			Range: timeline.TimeRange{StartMS: startMS, EndMS: endMS},
			Text:  text,
		})
	}

	if len(captions) == 0 {
		return nil, fmt.Errorf("no valid subtitle entries")
	}
	sort.SliceStable(captions, func(i, j int) bool {
		return captions[i].Range.StartMS < captions[j].Range.StartMS
	})
	return captions, nil
}

// Gaps derives silence candidates from the pauses between captions. Gaps
// shorter than minGapMS are ignored. When totalDurationMS is positive, the
// leading span before the first caption and the trailing span after the last
// one count as gaps too.
func Gaps(captions []Caption, minGapMS, totalDurationMS int64) []silence.Region {
	var out []silence.Region
	appendGap := func(startMS, endMS int64) {
		if endMS > startMS && endMS-startMS >= minGapMS {
			out = append(out, silence.Region{
				Range:      timeline.TimeRange{StartMS: startMS, EndMS: endMS},
				Source:     silence.SourceSRT,
				Confidence: 0.7,
			})
		}
	}

	var cursor int64
	for i, caption := range captions {
		if i == 0 {
			if totalDurationMS > 0 {
				appendGap(0, caption.Range.StartMS)
			}
		} else {
			appendGap(cursor, caption.Range.StartMS)
		}
		if caption.Range.EndMS > cursor {
			cursor = caption.Range.EndMS
		}
	}
	if totalDurationMS > 0 && len(captions) > 0 {
		appendGap(cursor, totalDurationMS)
	}
	return out
}

// Retime shifts captions left by the cumulative duration of the removed cut
// ranges before them and drops captions that fall wholly inside a cut. Cuts
// must be disjoint; they are sorted internally.
func Retime(captions []Caption, cuts []timeline.TimeRange) []Caption {
	sorted := append([]timeline.TimeRange(nil), cuts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMS < sorted[j].StartMS })

	var out []Caption
	for _, caption := range captions {
		var shift int64
		swallowed := false
		for _, cut := range sorted {
			if caption.Range.StartMS >= cut.StartMS && caption.Range.EndMS <= cut.EndMS {
				swallowed = true
				break
			}
			if cut.EndMS <= caption.Range.StartMS {
				shift += cut.DurationMS()
			}
		}
		if swallowed {
			continue
		}
		moved := caption
		moved.Range = timeline.TimeRange{
			StartMS: caption.Range.StartMS - shift,
			EndMS:   caption.Range.EndMS - shift,
		}
		out = append(out, moved)
	}
	return out
}

// Format renders captions back to SRT text.
func Format(captions []Caption) string {
	var b strings.Builder
	for i, caption := range captions {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTimestamp(caption.Range.StartMS),
			formatTimestamp(caption.Range.EndMS),
			caption.Text)
	}
	return b.String()
}

// WriteFile persists captions as an SRT file.
func WriteFile(path string, captions []Caption) error {
	if err := os.WriteFile(path, []byte(Format(captions)), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "subtitles", "write", path, err)
	}
	return nil
}

func timestampMS(hh, mm, ss, ms string) int64 {
	h, _ := strconv.ParseInt(hh, 10, 64)
	m, _ := strconv.ParseInt(mm, 10, 64)
	s, _ := strconv.ParseInt(ss, 10, 64)
	frac, _ := strconv.ParseInt(ms, 10, 64)
	return ((h*60+m)*60+s)*1000 + frac
}

func formatTimestamp(ms int64) string {
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, frac)
}
