package report

import (
	"strings"

	"cxr-learning/internal/domain"
)

const FindingsHeader = "STRUCTURED FINDINGS:"

// Findings 解剖复核段落，按区域顺序，跳过没有文字的区域
func Findings(anatomy map[domain.Region]domain.RegionReview) string {
	lines := []string{FindingsHeader}
	for _, r := range domain.RegionOrder {
		text := strings.TrimSpace(anatomy[r].Findings)
		if text == "" {
			continue
		}
		lines = append(lines, r.Title()+": "+text)
	}
	return strings.Join(lines, "\n")
}
