// Package analysis queries AI providers about removable transcript segments
// and folds their verdicts into one consensus via decision-maker priority
// plus majority voting.
package analysis

import (
	"sort"
)

// SegmentVerdict flags one transcript segment index for cutting.
type SegmentVerdict struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ProviderResult is one provider's full answer.
type ProviderResult struct {
	Cuts  []SegmentVerdict `json:"cuts"`
	Keeps []int            `json:"keeps"`
}

// ConsensusCut is a segment the vote decided to remove.
type ConsensusCut struct {
	Index      int     `json:"index"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Consensus is the aggregated verdict over all providers.
type Consensus struct {
	Cuts     []ConsensusCut `json:"cuts"`
	Keeps    []int          `json:"keeps"`
	Strategy string         `json:"strategy"`
	Votes    map[int]int    `json:"per_segment_votes,omitempty"`
}

// Aggregate merges per-provider verdicts. A segment is cut when the
// decision-maker flagged it or strictly more than half of all providers did;
// exactly half is not a majority. Confidence is votes over provider count.
// The recorded reason is the first seen, replaced by the decision-maker's own
// framing when present. Keeps are the complement over the observed index
// range.
func Aggregate(results map[string]ProviderResult, decisionMaker string) Consensus {
	switch len(results) {
	case 0:
		return Consensus{Strategy: "empty"}
	case 1:
		for _, result := range results {
			return singleProvider(result)
		}
	}

	total := len(results)
	votes := make(map[int]int)
	reasons := make(map[int]string)
	decisionMakerCuts := make(map[int]string)
	maxIndex := -1

	names := make([]string, 0, total)
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := results[name]
		for _, cut := range result.Cuts {
			votes[cut.Index]++
			if _, seen := reasons[cut.Index]; !seen {
				reasons[cut.Index] = cut.Reason
			}
			if name == decisionMaker {
				decisionMakerCuts[cut.Index] = cut.Reason
			}
			if cut.Index > maxIndex {
				maxIndex = cut.Index
			}
		}
		for _, keep := range result.Keeps {
			if keep > maxIndex {
				maxIndex = keep
			}
		}
	}

	consensus := Consensus{Strategy: "voting", Votes: votes}
	cutSet := make(map[int]struct{})
	for index, count := range votes {
		_, fromDecisionMaker := decisionMakerCuts[index]
		if !fromDecisionMaker && count*2 <= total {
			continue
		}
		reason := reasons[index]
		if dmReason, ok := decisionMakerCuts[index]; ok && dmReason != "" {
			reason = dmReason
		}
		cutSet[index] = struct{}{}
		consensus.Cuts = append(consensus.Cuts, ConsensusCut{
			Index:      index,
			Reason:     reason,
			Confidence: float64(count) / float64(total),
		})
	}
	sort.Slice(consensus.Cuts, func(i, j int) bool {
		return consensus.Cuts[i].Index < consensus.Cuts[j].Index
	})

	for index := 0; index <= maxIndex; index++ {
		if _, cut := cutSet[index]; !cut {
			consensus.Keeps = append(consensus.Keeps, index)
		}
	}
	return consensus
}

func singleProvider(result ProviderResult) Consensus {
	consensus := Consensus{Strategy: "single_provider"}
	for _, cut := range result.Cuts {
		consensus.Cuts = append(consensus.Cuts, ConsensusCut{
			Index:      cut.Index,
			Reason:     cut.Reason,
			Confidence: 1.0,
		})
	}
	sort.Slice(consensus.Cuts, func(i, j int) bool {
		return consensus.Cuts[i].Index < consensus.Cuts[j].Index
	})
	consensus.Keeps = append(consensus.Keeps, result.Keeps...)
	sort.Ints(consensus.Keeps)
	return consensus
}
