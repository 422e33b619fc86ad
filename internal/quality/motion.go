package quality

import "strings"

const (
	MotionNone     = "no_motion"
	MotionMild     = "mild_motion"
	MotionModerate = "moderate_motion"
	MotionSevere   = "severe_motion"
)

var motionFields = []string{"ribs", "vessels", "diaphragm", "heart"}

// MotionQuality 统计 "blurred"/"Severely" 出现次数
func MotionQuality(answers ...string) (quality string, diagnostic bool) {
	blurred, severe := 0, 0
	for _, a := range answers {
		if strings.Contains(a, "blurred") {
			blurred++
		}
		if strings.Contains(a, "Severely") {
			severe++
		}
	}
	switch {
	case severe >= 2:
		return MotionSevere, false
	case blurred >= 3:
		return MotionModerate, false
	case blurred >= 1:
		return MotionMild, true
	default:
		return MotionNone, true
	}
}

func evaluateMotion(answers map[string]string) Result {
	texts := make([]string, 0, len(motionFields))
	for _, f := range motionFields {
		texts = append(texts, answers[f])
	}
	q, diagnostic := MotionQuality(texts...)
	r := Result{Quality: q, Score: scoreMotion(q), Diagnostic: diagnostic}
	if !diagnostic {
		r.Issues = []string{concernMotion}
	}
	return r
}
