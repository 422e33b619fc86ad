package quality

import (
	"strings"

	"cxr-learning/internal/domain"
)

// positioning 关键词按顺序匹配，第一个命中即计分（满分 3）
var positioningKeywords = []struct {
	keyword string
	value   int
}{
	{"no rotation", 3},
	{"Midway", 3},
	{"<1cm", 2},
	{"Slightly", 2},
	{">1cm", 1},
	{"Obviously", 1},
	{"Partially", 1},
	{"asymmetric", 1},
	{"Severely", 0},
	{"Heavily", 0},
	{"Markedly", 0},
	{"non-diagnostic", 0},
}

var positioningFields = []string{"rotation", "scapulae", "clavicles"}

// PositioningQuality 三项答案的关键词得分比例 -> 质量等级
// 未命中任何关键词的答案不计入分母；全部未命中时为 non_diagnostic
func PositioningQuality(answers ...string) domain.QualityLevel {
	score, total := 0, 0
	for _, text := range answers {
		for _, kw := range positioningKeywords {
			if strings.Contains(text, kw.keyword) {
				score += kw.value
				total += 3
				break
			}
		}
	}
	var ratio float64
	if total > 0 {
		ratio = float64(score) / float64(total)
	}
	switch {
	case ratio >= 0.9:
		return domain.QualityOptimal
	case ratio >= 0.7:
		return domain.QualityAcceptable
	case ratio >= 0.4:
		return domain.QualitySuboptimal
	default:
		return domain.QualityNonDiagnostic
	}
}

func evaluatePositioning(answers map[string]string) Result {
	texts := make([]string, 0, len(positioningFields))
	for _, f := range positioningFields {
		texts = append(texts, answers[f])
	}
	q := PositioningQuality(texts...)
	r := Result{
		Quality:    string(q),
		Score:      scorePositioning(string(q)),
		Diagnostic: q != domain.QualityNonDiagnostic,
	}
	if !r.Diagnostic {
		r.Issues = []string{concernPositioning}
	}
	return r
}
