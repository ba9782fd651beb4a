package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"avid/internal/analysis"
)

// systemPrompt instructs the model to grade numbered transcript segments and
// answer with the verdict JSON the aggregator consumes.
const systemPrompt = `You are an experienced podcast editor. You receive a numbered list of transcript segments from a recording. Decide which segments should be removed from the final edit and which must stay.

Cut reasons: silence, duplicate, filler, manual, incomplete, boring, tangent, repetitive, long_pause, crosstalk, irrelevant.
Keep reasons: funny, witty, chemistry, reaction, callback, climax, engaging, emotional.

Respond with JSON only, in this exact shape:
{"cuts":[{"index":0,"reason":"filler"}],"keeps":[1,2]}

Every segment index must appear in exactly one of the two lists. Never invent indices that were not given.`

func buildUserPrompt(segments []analysis.Segment) string {
	var b strings.Builder
	b.WriteString("Transcript segments:\n")
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "?"
		}
		fmt.Fprintf(&b, "[%d] (%d-%dms, %s) %s\n",
			seg.Index, seg.Range.StartMS, seg.Range.EndMS, speaker, seg.Text)
	}
	return b.String()
}

func decodeResult(payload string) (analysis.ProviderResult, error) {
	var result analysis.ProviderResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return analysis.ProviderResult{}, err
	}
	return result, nil
}
