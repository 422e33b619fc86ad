package pattern

import "cxr-learning/internal/knowledge"

// FallbackDifferential 查不到组合时的默认结果
const FallbackDifferential = "Consider clinical correlation"

// Differential (pattern, distribution) -> 鉴别诊断列表，查不到时返回兜底项
func Differential(kb *knowledge.Base, pattern, distribution string) []string {
	if kb != nil {
		if dx, ok := kb.Differential(pattern, distribution); ok {
			return dx
		}
	}
	return []string{FallbackDifferential}
}
