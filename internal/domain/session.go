package domain

import "time"

// CaseAttempt 学员对单个病例的作答
type CaseAttempt struct {
	Observations string          `json:"observations"`
	Checklist    map[string]bool `json:"checklist,omitempty"`
	Diagnosis    string          `json:"diagnosis"`
	Submitted    bool            `json:"submitted"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
}

// Session 单个学员会话的全部状态（每个请求显式加载/保存，不跨会话共享）
type Session struct {
	ID          string                  `json:"session_id"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Technical   AssessmentState         `json:"technical"`
	Anatomy     map[Region]RegionReview `json:"anatomy"`
	Pattern     *PatternSelection       `json:"pattern,omitempty"`
	CTR         *CTRMeasurement         `json:"ctr,omitempty"`
	Cases       map[string]CaseAttempt  `json:"cases"`
	CustomCases []CaseRecord            `json:"custom_cases,omitempty"`
	Impression  string                  `json:"impression,omitempty"`
}

// NewSession 创建空会话
func NewSession(id string, now time.Time) *Session {
	s := &Session{ID: id, CreatedAt: now, UpdatedAt: now}
	s.ensure()
	return s
}

// Normalize 反序列化后补齐 nil map
func (s *Session) Normalize() {
	s.ensure()
}

func (s *Session) ensure() {
	if s.Technical == nil {
		s.Technical = AssessmentState{}
	}
	if s.Anatomy == nil {
		s.Anatomy = map[Region]RegionReview{}
	}
	if s.Cases == nil {
		s.Cases = map[string]CaseAttempt{}
	}
}
