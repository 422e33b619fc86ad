// Package render 教学内容的 Markdown 表示
//
// 同一份 Markdown 在 Web 页面经 goldmark 转为 HTML，在 CLI 中经 glamour 渲染到终端。
package render

import (
	"fmt"
	"sort"
	"strings"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/pattern"
)

// CaseMarkdown 病例展示；reveal 为 false 时隐藏诊断与教学要点（学员先作答）
func CaseMarkdown(c domain.CaseRecord, reveal bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	fmt.Fprintf(&b, "*Difficulty: %s*\n\n", c.Difficulty)
	section(&b, "Patient History", c.PatientHistory)
	section(&b, "Clinical Context", c.ClinicalContext)
	section(&b, "Image Description", c.ImageDescription)
	if !reveal {
		return strings.TrimRight(b.String(), "\n") + "\n"
	}

	b.WriteString("## Systematic Findings\n\n")
	for _, key := range findingKeys(c.Findings) {
		fmt.Fprintf(&b, "- **%s:** %s\n", title(key), c.Findings[key])
	}
	b.WriteString("\n")
	list(&b, "Key Findings", c.KeyFindings)
	section(&b, "Diagnosis", "**"+c.Diagnosis+"**")
	list(&b, "Teaching Points", c.TeachingPoints)
	list(&b, "Differentials Considered", c.DifferentialsConsidered)
	list(&b, "References", c.References)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// CaseListMarkdown 病例列表表格
func CaseListMarkdown(cases []domain.CaseRecord) string {
	var b strings.Builder
	b.WriteString("| ID | Title | Difficulty |\n|---|---|---|\n")
	for _, c := range cases {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.ID, cell(c.Title), c.Difficulty)
	}
	return b.String()
}

// KnowledgeMarkdown 知识库页面
func KnowledgeMarkdown(kb *knowledge.Base) string {
	var b strings.Builder
	b.WriteString("# Chest X-Ray Knowledge Base\n\n")

	list(&b, "Systematic Approach", kb.SystematicComponents)

	b.WriteString("## Technical Factors\n\n")
	for _, f := range kb.TechnicalFactors {
		fmt.Fprintf(&b, "### %s\n\n", f.Name)
		for _, c := range f.Criteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Anatomic Regions\n\n")
	for _, r := range kb.Regions {
		fmt.Fprintf(&b, "- **%s:** %s\n", r.Name, r.Description)
	}
	b.WriteString("\n")

	b.WriteString("## Pattern Differentials\n\n| Pattern | Differentials |\n|---|---|\n")
	for _, p := range kb.PatternDifferentials {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(p.Pattern), cell(p.Differentials))
	}
	b.WriteString("\n")

	list(&b, "Sources", kb.Sources)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ScoresMarkdown 模式匹配得分
func ScoresMarkdown(scores []pattern.Score) string {
	var b strings.Builder
	b.WriteString("| Pattern | Score |\n|---|---|\n")
	for _, s := range scores {
		fmt.Fprintf(&b, "| %s | %.2f |\n", s.Pattern, s.Score)
	}
	return b.String()
}

// AnalysisMarkdown 模式分析结果
func AnalysisMarkdown(a pattern.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", a.Title)
	if a.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", a.Description)
	}
	if len(a.Inputs) > 0 {
		fmt.Fprintf(&b, "*Selected: %s*\n\n", strings.Join(a.Inputs, ", "))
	}
	list(&b, "Differential Diagnosis", a.Differentials)
	list(&b, "Notes", a.Notes)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func section(b *strings.Builder, heading, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", heading, body)
}

func list(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// findingKeys technical 在前，其余按解剖顺序，未知 key 排最后
func findingKeys(findings map[string]string) []string {
	keys := make([]string, 0, len(findings))
	if _, ok := findings["technical"]; ok {
		keys = append(keys, "technical")
	}
	seen := map[string]bool{"technical": true}
	for _, r := range domain.RegionOrder {
		if _, ok := findings[string(r)]; ok {
			keys = append(keys, string(r))
			seen[string(r)] = true
		}
	}
	var rest []string
	for k := range findings {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func title(key string) string {
	return domain.Region(key).Title()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
