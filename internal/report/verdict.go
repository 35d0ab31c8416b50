// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import "github.com/pdiddy/paper-assessor/pkg/types"

// Verdict thresholds over the mean stage score.
const (
	strongAcceptFloor = 0.80
	weakAcceptFloor   = 0.65
	borderlineFloor   = 0.50
	weakRejectFloor   = 0.35
)

// verdictForScores averages every numeric score the stages emitted and
// maps the mean onto the five-point scale. No scores at all means
// borderline.
func verdictForScores(scores []float64) types.Verdict {
	if len(scores) == 0 {
		return types.VerdictBorderline
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return verdictForMean(sum / float64(len(scores)))
}

func verdictForMean(mean float64) types.Verdict {
	switch {
	case mean >= strongAcceptFloor:
		return types.VerdictStrongAccept
	case mean >= weakAcceptFloor:
		return types.VerdictWeakAccept
	case mean >= borderlineFloor:
		return types.VerdictBorderline
	case mean >= weakRejectFloor:
		return types.VerdictWeakReject
	default:
		return types.VerdictReject
	}
}
