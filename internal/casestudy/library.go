// Package casestudy 教学病例：筛选、作答记录、学习进度、自定义病例
package casestudy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
)

var ErrCaseNotFound = errors.New("case not found")

// 筛选条件中表示“不限”的取值
const (
	AllDifficulties = "All"
	AllCategories   = "All Categories"
)

// Library 病例库（知识库中的静态病例 + 会话内的自定义病例）
type Library struct {
	kb *knowledge.Base
}

func NewLibrary(kb *knowledge.Base) *Library {
	return &Library{kb: kb}
}

// Checklist 系统阅片检查清单
func (l *Library) Checklist() []string {
	return append([]string(nil), l.kb.CaseChecklist...)
}

// Pool 静态病例在前，自定义病例在后
func (l *Library) Pool(custom []domain.CaseRecord) []domain.CaseRecord {
	out := make([]domain.CaseRecord, 0, len(l.kb.Cases)+len(custom))
	out = append(out, l.kb.Cases...)
	return append(out, custom...)
}

// Filter 按难度与分类筛选；结果为空时返回全部病例
func (l *Library) Filter(difficulty, category string, custom []domain.CaseRecord) []domain.CaseRecord {
	pool := l.Pool(custom)

	var want domain.Difficulty
	if !isAll(difficulty) {
		want, _ = domain.ParseDifficulty(difficulty)
	}
	var keywords []string
	filterCategory := !isAll(category)
	if filterCategory {
		if c, ok := l.kb.Category(category); ok {
			keywords = c.Keywords
		}
	}

	out := make([]domain.CaseRecord, 0, len(pool))
	for _, c := range pool {
		if !isAll(difficulty) && c.Difficulty != want {
			continue
		}
		if filterCategory && !matchesAny(c, keywords) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return pool
	}
	return out
}

// Get 按 id 查找（包括自定义病例）
func (l *Library) Get(id string, custom []domain.CaseRecord) (domain.CaseRecord, error) {
	for _, c := range l.Pool(custom) {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.CaseRecord{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
}

// AttemptInput 学员提交的内容
type AttemptInput struct {
	Observations string   `json:"observations"`
	Checked      []string `json:"checked"`
	Diagnosis    string   `json:"diagnosis"`
	Submit       bool     `json:"submit"`
}

// RecordAttempt 保存作答；清单中未知的条目被忽略
// 已提交的作答再次保存时保持 submitted 状态
func (l *Library) RecordAttempt(s *domain.Session, caseID string, in AttemptInput, now time.Time) (domain.CaseAttempt, error) {
	if _, err := l.Get(caseID, s.CustomCases); err != nil {
		return domain.CaseAttempt{}, err
	}
	s.Normalize()
	prev := s.Cases[caseID]

	known := make(map[string]bool, len(l.kb.CaseChecklist))
	for _, item := range l.kb.CaseChecklist {
		known[item] = true
	}
	checklist := make(map[string]bool, len(in.Checked))
	for _, item := range in.Checked {
		if known[item] {
			checklist[item] = true
		}
	}

	a := domain.CaseAttempt{
		Observations: strings.TrimSpace(in.Observations),
		Checklist:    checklist,
		Diagnosis:    strings.TrimSpace(in.Diagnosis),
		Submitted:    prev.Submitted,
		SubmittedAt:  prev.SubmittedAt,
	}
	if in.Submit && !a.Submitted {
		t := now.UTC()
		a.Submitted = true
		a.SubmittedAt = &t
	}
	s.Cases[caseID] = a
	return a, nil
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllDifficulties) || strings.EqualFold(v, AllCategories)
}

// matchesAny 关键词匹配标题或诊断（小写）
func matchesAny(c domain.CaseRecord, keywords []string) bool {
	title := strings.ToLower(c.Title)
	dx := strings.ToLower(c.Diagnosis)
	for _, kw := range keywords {
		if strings.Contains(title, kw) || strings.Contains(dx, kw) {
			return true
		}
	}
	return false
}
