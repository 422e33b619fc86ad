package report

import (
	"fmt"
	"strings"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/quality"
)

const (
	ReportTitle  = "CHEST RADIOGRAPH REPORT"
	noImpression = "No impression recorded."
)

// Full 完整报告：技术质量、整体评级、测量、结构化所见、模式分析、印象
func Full(s *domain.Session) string {
	overall := quality.Summarize(s.Technical)

	blocks := []string{ReportTitle}

	tech := Technical(s.Technical)
	tech += fmt.Sprintf("\nOverall quality: %s (%s)", overall.Label, overall.ScoreText())
	if len(overall.Concerns) > 0 {
		tech += "\nConcerns: " + strings.Join(overall.Concerns, "; ")
	}
	blocks = append(blocks, tech)

	if s.CTR != nil {
		blocks = append(blocks, "MEASUREMENTS:\n"+ctrLine(s.CTR))
	}

	if f := Findings(s.Anatomy); f != FindingsHeader {
		blocks = append(blocks, f)
	}

	if p := s.Pattern; p != nil {
		lines := []string{"PATTERN ANALYSIS:"}
		title := p.Title
		if len(p.Inputs) > 0 {
			title += ": " + strings.Join(p.Inputs, ", ")
		}
		lines = append(lines, title)
		if len(p.Differentials) > 0 {
			lines = append(lines, "Differential: "+strings.Join(p.Differentials, ", "))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	impression := strings.TrimSpace(s.Impression)
	if impression == "" {
		impression = noImpression
	}
	blocks = append(blocks, "IMPRESSION:\n"+impression)

	return strings.Join(blocks, "\n\n")
}

func ctrLine(m *domain.CTRMeasurement) string {
	if m.Interpretation == "" {
		return fmt.Sprintf("CTR: not measurable (%s)", m.Status)
	}
	return fmt.Sprintf("CTR: %.1f%% (%s)", m.Ratio, m.Interpretation)
}
