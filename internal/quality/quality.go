// Package quality 技术质量评估：五个 section 的表单推导与 3 分制汇总
package quality

import (
	"strconv"
	"strings"

	"cxr-learning/internal/domain"
)

// Result 单个 section 的评估结果
type Result struct {
	Section    domain.Section    `json:"section"`
	Quality    string            `json:"quality"`
	Score      int               `json:"score"`
	Diagnostic bool              `json:"diagnostic"`
	Issues     []string          `json:"issues,omitempty"`
	Fields     map[string]string `json:"fields"`
}

type evaluator func(answers map[string]string) Result

var evaluators = map[domain.Section]evaluator{
	domain.SectionPositioning: evaluatePositioning,
	domain.SectionPenetration: evaluatePenetration,
	domain.SectionMotion:      evaluateMotion,
	domain.SectionInspiration: evaluateInspiration,
	domain.SectionArtifacts:   evaluateArtifacts,
}

// Evaluate 根据表单答案推导 quality/score
// 返回的 Fields 包含原始答案以及派生字段，可直接写入 AssessmentState
func Evaluate(section domain.Section, answers map[string]string) (Result, error) {
	s, err := domain.ParseSection(string(section))
	if err != nil {
		return Result{}, err
	}
	fields := make(map[string]string, len(answers)+3)
	for k, v := range answers {
		fields[k] = strings.TrimSpace(v)
	}
	r := evaluators[s](fields)
	r.Section = s

	fields[domain.FieldQuality] = r.Quality
	fields[domain.FieldScore] = strconv.Itoa(r.Score)
	if s == domain.SectionArtifacts {
		fields[fieldSeverity] = r.Quality
	}
	r.Fields = fields
	return r, nil
}

// Record 评估并写入 state
func Record(state domain.AssessmentState, section domain.Section, answers map[string]string) (Result, error) {
	r, err := Evaluate(section, answers)
	if err != nil {
		return Result{}, err
	}
	if err := state.Set(r.Section, r.Fields); err != nil {
		return Result{}, err
	}
	return r, nil
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes", "checked":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}
