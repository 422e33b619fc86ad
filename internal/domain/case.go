package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCase = errors.New("invalid case record")

// Difficulty 病例难度
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyBeginner:
		return DifficultyBeginner, true
	case DifficultyIntermediate:
		return DifficultyIntermediate, true
	case DifficultyAdvanced:
		return DifficultyAdvanced, true
	default:
		return "", false
	}
}

// CaseRecord 教学病例（静态，只读）
type CaseRecord struct {
	ID                      string            `json:"case_id"`
	Title                   string            `json:"title"`
	Difficulty              Difficulty        `json:"difficulty"`
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

// Validate 构造时所有字段必须非空（不允许不完整的病例）
func (c CaseRecord) Validate() error {
	required := map[string]string{
		"case_id":           c.ID,
		"title":             c.Title,
		"patient_history":   c.PatientHistory,
		"clinical_context":  c.ClinicalContext,
		"image_description": c.ImageDescription,
		"diagnosis":         c.Diagnosis,
	}
	for _, name := range []string{"case_id", "title", "patient_history", "clinical_context", "image_description", "diagnosis"} {
		if strings.TrimSpace(required[name]) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidCase, name)
		}
	}
	if _, ok := ParseDifficulty(string(c.Difficulty)); !ok {
		return fmt.Errorf("%w: difficulty %q", ErrInvalidCase, c.Difficulty)
	}
	if len(c.Findings) == 0 {
		return fmt.Errorf("%w: findings is empty", ErrInvalidCase)
	}
	for region, text := range c.Findings {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: finding %q is empty", ErrInvalidCase, region)
		}
	}
	lists := []struct {
		name  string
		items []string
	}{
		{"key_findings", c.KeyFindings},
		{"teaching_points", c.TeachingPoints},
		{"differentials_considered", c.DifferentialsConsidered},
		{"references", c.References},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidCase, l.name)
		}
		for i, item := range l.items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidCase, l.name, i)
			}
		}
	}
	return nil
}
