package quality

import (
	"fmt"

	"cxr-learning/internal/domain"
)

const (
	concernPositioning = "Positioning: Non-diagnostic rotation"
	concernMotion      = "Motion: Non-diagnostic blur"
	concernInspiration = "Inspiration: Poor effort may obscure findings"
)

func artifactConcern(severity string) string {
	return "Artifacts: " + severity
}

// SectionScore 汇总表中的一行
type SectionScore struct {
	Section domain.Section `json:"section"`
	Quality string         `json:"quality"`
	Score   int            `json:"score"`
}

// Overall 整体技术质量
type Overall struct {
	Score    float64              `json:"score"`
	Rating   domain.OverallRating `json:"rating"`
	Label    string               `json:"label"`
	Concerns []string             `json:"concerns"`
	Sections []SectionScore       `json:"sections"`
}

// ScoreText "2.4/3.0"
func (o Overall) ScoreText() string {
	return fmt.Sprintf("%.1f/3.0", o.Score)
}

// Rate 平均分 -> 整体等级
func Rate(avg float64) domain.OverallRating {
	switch {
	case avg >= 2.5:
		return domain.RatingOptimal
	case avg >= 1.8:
		return domain.RatingAcceptable
	case avg >= 1.2:
		return domain.RatingSuboptimal
	default:
		return domain.RatingNonDiagnostic
	}
}

// Summarize 汇总已评估的 sections（不会失败；没有 section 时得分 0）
func Summarize(state domain.AssessmentState) Overall {
	o := Overall{Concerns: []string{}, Sections: []SectionScore{}}
	total := 0
	for _, s := range state.Assessed() {
		q := state.Field(s, domain.FieldQuality, "")
		if q == "" {
			// 只有原始答案时重新推导
			if r, err := Evaluate(s, state[s]); err == nil {
				q = r.Quality
			}
		}
		score := sectionScore(s, q)
		total += score
		o.Sections = append(o.Sections, SectionScore{Section: s, Quality: q, Score: score})
		o.Concerns = append(o.Concerns, concerns(s, q)...)
	}
	if n := len(o.Sections); n > 0 {
		o.Score = float64(total) / float64(n)
	}
	o.Rating = Rate(o.Score)
	o.Label = o.Rating.Label()
	return o
}

func sectionScore(s domain.Section, q string) int {
	switch s {
	case domain.SectionPositioning:
		return scorePositioning(q)
	case domain.SectionPenetration:
		return scorePenetration(q)
	case domain.SectionMotion:
		return scoreMotion(q)
	case domain.SectionInspiration:
		return scoreInspiration(q)
	case domain.SectionArtifacts:
		return scoreArtifacts(q)
	}
	return 1
}

func concerns(s domain.Section, q string) []string {
	switch s {
	case domain.SectionPositioning:
		if q == string(domain.QualityNonDiagnostic) {
			return []string{concernPositioning}
		}
	case domain.SectionPenetration:
		return penetrationIssues(q)
	case domain.SectionMotion:
		if q == MotionModerate || q == MotionSevere {
			return []string{concernMotion}
		}
	case domain.SectionInspiration:
		if q == InspirationPoor {
			return []string{concernInspiration}
		}
	case domain.SectionArtifacts:
		if AffectsDiagnosis(q) {
			return []string{artifactConcern(q)}
		}
	}
	return nil
}

func scorePositioning(q string) int {
	switch domain.QualityLevel(q) {
	case domain.QualityOptimal:
		return 3
	case domain.QualityAcceptable:
		return 2
	}
	return 1
}

func scorePenetration(q string) int {
	if q == PenetrationOptimal {
		return 3
	}
	return 1
}

func scoreMotion(q string) int {
	switch q {
	case MotionNone:
		return 3
	case MotionMild:
		return 2
	}
	return 1
}

func scoreInspiration(q string) int {
	switch q {
	case InspirationAdequate:
		return 3
	case InspirationSuboptimal:
		return 2
	}
	return 1
}

func scoreArtifacts(severity string) int {
	switch severity {
	case SeverityNone, SeverityMinimal, "":
		return 3
	case SeverityMild:
		return 2
	}
	return 1
}
