package casestudy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cxr-learning/internal/domain"
)

// MaxCustomCases 每个会话最多保存的自定义病例数
const MaxCustomCases = 50

var ErrTooManyCustomCases = fmt.Errorf("custom case limit reached (%d per session)", MaxCustomCases)

// CustomCaseInput 自定义病例表单（多行文本每行一项）
type CustomCaseInput struct {
	Title                   string            `json:"title"`
	Difficulty              string            `json:"difficulty"`
	PatientHistory          string            `json:"patient_history"`
	ClinicalContext         string            `json:"clinical_context"`
	ImageDescription        string            `json:"image_description"`
	Findings                map[string]string `json:"findings"`
	KeyFindings             []string          `json:"key_findings"`
	Diagnosis               string            `json:"diagnosis"`
	TeachingPoints          []string          `json:"teaching_points"`
	DifferentialsConsidered []string          `json:"differentials_considered"`
	References              []string          `json:"references"`
}

// NewCustomCase 构造并校验；不完整的病例被拒绝
func NewCustomCase(in CustomCaseInput) (domain.CaseRecord, error) {
	difficulty, ok := domain.ParseDifficulty(in.Difficulty)
	if !ok {
		return domain.CaseRecord{}, fmt.Errorf("%w: difficulty %q", domain.ErrInvalidCase, in.Difficulty)
	}
	findings := make(map[string]string, len(in.Findings))
	for region, text := range in.Findings {
		r, err := domain.ParseRegion(region)
		key := region
		if err == nil {
			key = string(r)
		}
		findings[strings.TrimSpace(key)] = strings.TrimSpace(text)
	}
	c := domain.CaseRecord{
		ID:                      "custom_" + uuid.NewString()[:8],
		Title:                   strings.TrimSpace(in.Title),
		Difficulty:              difficulty,
		PatientHistory:          strings.TrimSpace(in.PatientHistory),
		ClinicalContext:         strings.TrimSpace(in.ClinicalContext),
		ImageDescription:        strings.TrimSpace(in.ImageDescription),
		Findings:                findings,
		KeyFindings:             Lines(in.KeyFindings...),
		Diagnosis:               strings.TrimSpace(in.Diagnosis),
		TeachingPoints:          Lines(in.TeachingPoints...),
		DifferentialsConsidered: Lines(in.DifferentialsConsidered...),
		References:              Lines(in.References...),
	}
	if err := c.Validate(); err != nil {
		return domain.CaseRecord{}, err
	}
	return c, nil
}

// AddCustomCase 只保存在会话中，超过 MaxCustomCases 时拒绝
func AddCustomCase(s *domain.Session, c domain.CaseRecord) error {
	if len(s.CustomCases) >= MaxCustomCases {
		return ErrTooManyCustomCases
	}
	s.CustomCases = append(s.CustomCases, c)
	return nil
}

// Lines 拆分多行文本并去掉空行
func Lines(texts ...string) []string {
	var out []string
	for _, t := range texts {
		for _, line := range strings.Split(t, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}
