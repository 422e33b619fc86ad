package quality

import (
	"strconv"
	"strings"

	"cxr-learning/internal/measure"
)

const (
	InspirationAdequate   = "adequate"
	InspirationSuboptimal = "suboptimal"
	InspirationPoor       = "poor"
)

const fieldPosteriorRibs = "posterior_rib_count"

// InspirationQuality >=8 后肋且横膈位置正常为 adequate
func InspirationQuality(anteriorRib string, posteriorRibs int, diaphragm string) string {
	positionOK := strings.Contains(anteriorRib, "optimal") || strings.Contains(diaphragm, "Normal")
	switch {
	case posteriorRibs >= 8 && positionOK:
		return InspirationAdequate
	case posteriorRibs >= 7:
		return InspirationSuboptimal
	default:
		return InspirationPoor
	}
}

func evaluateInspiration(answers map[string]string) Result {
	ribs := measure.ParseRibCount(answers[fieldPosteriorRibs])
	q := InspirationQuality(answers["anterior_rib"], ribs, answers["diaphragm_position"])
	r := Result{Quality: q, Score: scoreInspiration(q), Diagnostic: true}
	if q == InspirationPoor {
		r.Issues = []string{concernInspiration}
	}
	// 报告行总是需要一个数字
	answers[fieldPosteriorRibs] = strconv.Itoa(ribs)
	return r
}
