package domain

// QualityLevel 体位质量等级
type QualityLevel string

const (
	QualityOptimal       QualityLevel = "optimal"
	QualityAcceptable    QualityLevel = "acceptable"
	QualitySuboptimal    QualityLevel = "suboptimal"
	QualityNonDiagnostic QualityLevel = "non_diagnostic"
)

// OverallRating 整体技术质量（3 分制汇总）
type OverallRating string

const (
	RatingOptimal       OverallRating = "OPTIMAL"
	RatingAcceptable    OverallRating = "ACCEPTABLE"
	RatingSuboptimal    OverallRating = "SUBOPTIMAL"
	RatingNonDiagnostic OverallRating = "NON-DIAGNOSTIC"
)

// Label 带建议的显示文本
func (r OverallRating) Label() string {
	switch r {
	case RatingSuboptimal:
		return "SUBOPTIMAL - Interpret with caution"
	case RatingNonDiagnostic:
		return "NON-DIAGNOSTIC - Repeat recommended"
	default:
		return string(r)
	}
}

// Color summary card color
func (r OverallRating) Color() string {
	switch r {
	case RatingOptimal:
		return "green"
	case RatingAcceptable:
		return "blue"
	case RatingSuboptimal:
		return "orange"
	default:
		return "red"
	}
}
