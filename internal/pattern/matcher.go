// Package pattern 规则模式匹配、鉴别诊断查表与五类影像模式分析
package pattern

import (
	"sort"

	"cxr-learning/internal/domain"
)

// Matcher 基于特征重叠的模式匹配器（纯函数，无状态）
type Matcher struct {
	patterns []domain.PatternDefinition
}

// NewMatcher 复制定义，之后只读
func NewMatcher(defs []domain.PatternDefinition) *Matcher {
	patterns := make([]domain.PatternDefinition, 0, len(defs))
	for _, d := range defs {
		patterns = append(patterns, domain.PatternDefinition{
			Name:          d.Name,
			Features:      dedupe(d.Features),
			Distributions: append([]string(nil), d.Distributions...),
		})
	}
	return &Matcher{patterns: patterns}
}

// Score 单个模式得分
type Score struct {
	Pattern string  `json:"pattern"`
	Score   float64 `json:"score"`
}

// Match 返回每个已知模式的得分，范围 [0,1]
// score = (|observed ∩ features| + [distribution 命中]) / (|features| + 1)
func (m *Matcher) Match(features []string, distribution string) map[string]float64 {
	observed := make(map[string]struct{}, len(features))
	for _, f := range features {
		observed[f] = struct{}{}
	}
	out := make(map[string]float64, len(m.patterns))
	for _, p := range m.patterns {
		hits := 0
		for _, f := range p.Features {
			if _, ok := observed[f]; ok {
				hits++
			}
		}
		for _, d := range p.Distributions {
			if d == distribution {
				hits++
				break
			}
		}
		out[p.Name] = float64(hits) / float64(len(p.Features)+1)
	}
	return out
}

// Ranked 得分降序，同分按名称升序
func (m *Matcher) Ranked(features []string, distribution string) []Score {
	scores := m.Match(features, distribution)
	out := make([]Score, 0, len(scores))
	for name, s := range scores {
		out = append(out, Score{Pattern: name, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

// Features 所有已知特征（排序去重），供表单使用
func (m *Matcher) Features() []string {
	var all []string
	for _, p := range m.patterns {
		all = append(all, p.Features...)
	}
	all = dedupe(all)
	sort.Strings(all)
	return all
}

// Distributions 所有已知分布
func (m *Matcher) Distributions() []string {
	var all []string
	for _, p := range m.patterns {
		all = append(all, p.Distributions...)
	}
	all = dedupe(all)
	sort.Strings(all)
	return all
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
