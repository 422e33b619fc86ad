package quality

import "strings"

const fieldSeverity = "severity"

const (
	SeverityNone     = "None"
	SeverityMinimal  = "Minimal (no impact)"
	SeverityMild     = "Mild (minor impact)"
	SeverityModerate = "Moderate (significant impact)"
	SeveritySevere   = "Severe (non-diagnostic)"
)

// ArtifactFlags 复选框字段
var ArtifactFlags = []string{
	"grid_lines", "detector_faults", "processing",
	"clothing", "jewelry", "medical",
	"noise", "saturation", "stitching",
}

// 只有设备/图像质量问题才需要评估严重程度，异物不算
var severityFlags = []string{"grid_lines", "detector_faults", "processing", "noise", "saturation"}

func severityOf(answers map[string]string) string {
	relevant := false
	for _, f := range severityFlags {
		if checked(answers[f]) {
			relevant = true
			break
		}
	}
	if !relevant {
		return SeverityNone
	}
	switch s := strings.TrimSpace(answers[fieldSeverity]); s {
	case SeverityMinimal, SeverityMild, SeverityModerate, SeveritySevere:
		return s
	default:
		return SeverityMinimal
	}
}

// AffectsDiagnosis Moderate/Severe 影响诊断
func AffectsDiagnosis(severity string) bool {
	return severity == SeverityModerate || severity == SeveritySevere
}

func evaluateArtifacts(answers map[string]string) Result {
	severity := severityOf(answers)
	r := Result{
		Quality:    severity,
		Score:      scoreArtifacts(severity),
		Diagnostic: !AffectsDiagnosis(severity),
	}
	if !r.Diagnostic {
		r.Issues = []string{artifactConcern(severity)}
	}
	return r
}
