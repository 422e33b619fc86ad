// Package report 报告文本组装与 Excel 导出
package report

import (
	"fmt"
	"strconv"
	"strings"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/measure"
)

// 缺省短语
const (
	DefaultQuality  = "not assessed"
	DefaultFindings = "No significant issues"
)

const TechnicalHeader = "TECHNICAL QUALITY:"

// Technical 技术质量段落：首行为标题，之后按固定顺序每个已评估 section 一行
func Technical(state domain.AssessmentState) string {
	lines := []string{TechnicalHeader}
	for _, s := range state.Assessed() {
		lines = append(lines, technicalLine(state, s))
	}
	return strings.Join(lines, "\n")
}

func technicalLine(state domain.AssessmentState, s domain.Section) string {
	q := state.Field(s, domain.FieldQuality, DefaultQuality)
	findings := state.Field(s, domain.FieldFindings, DefaultFindings)

	switch s {
	case domain.SectionMotion:
		desc := q + " present"
		if q == "no_motion" {
			desc = "No significant motion"
		}
		return fmt.Sprintf("Motion: %s. %s", desc, findings)
	case domain.SectionInspiration:
		ribs := measure.ParseRibCount(state.Field(s, "posterior_rib_count", ""))
		return fmt.Sprintf("Inspiration: %s (%s posterior ribs). %s", q, strconv.Itoa(ribs), findings)
	case domain.SectionArtifacts:
		severity := state.Field(s, "severity", "None")
		if severity == "None" {
			return "Artifacts: None significant."
		}
		return fmt.Sprintf("Artifacts: %s. %s", severity, findings)
	default:
		return fmt.Sprintf("%s: %s. %s", s.Title(), q, findings)
	}
}
