package pattern

import (
	"errors"
	"fmt"
	"strings"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
)

var ErrUnknownFamily = errors.New("unknown pattern family")

// 五类影像模式
const (
	FamilySmallOpacities = "small_opacities"
	FamilyLargeOpacities = "large_opacities"
	FamilyLinear         = "linear"
	FamilyDestructive    = "destructive"
	FamilyVascular       = "vascular"
)

// Families 固定展示顺序
var Families = []string{
	FamilySmallOpacities,
	FamilyLargeOpacities,
	FamilyLinear,
	FamilyDestructive,
	FamilyVascular,
}

// Selection 表单输入；各类模式只读取自己需要的字段
type Selection struct {
	Shape           string   `json:"shape,omitempty"`
	Size            string   `json:"size,omitempty"`
	Profusion       int      `json:"profusion,omitempty"`
	Distributions   []string `json:"distributions,omitempty"`
	Pattern         string   `json:"pattern,omitempty"`
	AirBronchograms bool     `json:"air_bronchograms,omitempty"`
	LineType        string   `json:"line_type,omitempty"`
	Features        []string `json:"features,omitempty"`
}

// Analysis 模式分析结果
type Analysis struct {
	Family        string   `json:"family"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Differentials []string `json:"differentials"`
	Notes         []string `json:"notes,omitempty"`
	Inputs        []string `json:"inputs,omitempty"`
}

// Selection 转为会话中保存的形式
func (a Analysis) Selection() *domain.PatternSelection {
	return &domain.PatternSelection{
		Family:        a.Family,
		Title:         a.Title,
		Inputs:        append([]string(nil), a.Inputs...),
		Differentials: append([]string(nil), a.Differentials...),
	}
}

// Analyzer 单类模式分析器
type Analyzer interface {
	Family() string
	Title() string
	Analyze(sel Selection) Analysis
}

// NewAnalyzers 按 family 名称索引
func NewAnalyzers(kb *knowledge.Base) map[string]Analyzer {
	list := []Analyzer{
		&smallOpacities{kb: kb},
		&largeOpacities{kb: kb},
		&linearOpacities{kb: kb},
		&destructivePattern{kb: kb},
		&vascularPattern{kb: kb},
	}
	out := make(map[string]Analyzer, len(list))
	for _, a := range list {
		out[a.Family()] = a
	}
	return out
}

// Analyze 分析指定 family；未知选项返回空结果而不是错误
func Analyze(analyzers map[string]Analyzer, family string, sel Selection) (Analysis, error) {
	a, ok := analyzers[strings.ToLower(strings.TrimSpace(family))]
	if !ok {
		return Analysis{}, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	out := a.Analyze(sel)
	out.Family = a.Family()
	if out.Differentials == nil {
		out.Differentials = []string{}
	}
	return out, nil
}

type smallOpacities struct{ kb *knowledge.Base }

func (*smallOpacities) Family() string { return FamilySmallOpacities }
func (*smallOpacities) Title() string  { return "Small Opacity Analysis (ILO Classification)" }

func (s *smallOpacities) Analyze(sel Selection) Analysis {
	so := s.kb.SmallOpacities
	out := Analysis{Title: s.Title()}
	var list knowledge.TitledList
	switch {
	case strings.HasPrefix(sel.Shape, "Round"):
		if strings.HasPrefix(strings.TrimSpace(sel.Size), "p") {
			list = so.Micronodular
		} else {
			list = so.Nodular
		}
	case strings.HasPrefix(sel.Shape, "Irregular"):
		list = so.Reticular
	default:
		return out
	}
	out.Description = list.Title
	out.Differentials = append([]string(nil), list.Differentials...)

	profusion := sel.Profusion
	if profusion < 0 {
		profusion = 0
	}
	if profusion > 3 {
		profusion = 3
	}
	out.Inputs = []string{sel.Shape}
	if sel.Size != "" {
		out.Inputs = append(out.Inputs, "Size "+sel.Size)
	}
	out.Inputs = append(out.Inputs, fmt.Sprintf("Profusion %d", profusion))
	out.Inputs = append(out.Inputs, sel.Distributions...)

	for _, zn := range so.ZoneNotes {
		for _, d := range sel.Distributions {
			if d == zn.Zone {
				out.Notes = append(out.Notes, zn.Note)
				break
			}
		}
	}
	return out
}

type largeOpacities struct{ kb *knowledge.Base }

func (*largeOpacities) Family() string { return FamilyLargeOpacities }
func (*largeOpacities) Title() string  { return "Large Opacity (Consolidation) Analysis" }

func (l *largeOpacities) Analyze(sel Selection) Analysis {
	out := Analysis{Title: l.Title()}
	for _, p := range l.kb.Consolidation.Patterns {
		if p.Pattern == sel.Pattern {
			out.Description = p.Pattern
			out.Differentials = append([]string(nil), p.Differentials...)
			out.Inputs = []string{p.Pattern}
			break
		}
	}
	if sel.AirBronchograms {
		out.Inputs = append(out.Inputs, "Air bronchograms present")
		out.Notes = append(out.Notes, l.kb.Consolidation.AirBronchogramNote)
	}
	return out
}

type linearOpacities struct{ kb *knowledge.Base }

func (*linearOpacities) Family() string { return FamilyLinear }
func (*linearOpacities) Title() string  { return "Linear Opacity Analysis" }

func (l *linearOpacities) Analyze(sel Selection) Analysis {
	out := Analysis{Title: l.Title()}
	for _, t := range l.kb.Linear {
		if strings.EqualFold(t.Type, strings.TrimSpace(sel.LineType)) {
			out.Description = t.Description
			out.Differentials = append([]string(nil), t.Causes...)
			out.Inputs = []string{t.Type}
			break
		}
	}
	return out
}

type destructivePattern struct{ kb *knowledge.Base }

func (*destructivePattern) Family() string { return FamilyDestructive }
func (*destructivePattern) Title() string  { return "Destructive Lung Disease" }

// 病因列表不依赖具体特征，特征只记录到 Inputs
func (d *destructivePattern) Analyze(sel Selection) Analysis {
	out := Analysis{
		Title:         d.Title(),
		Description:   "Causes of Destructive Pattern",
		Differentials: append([]string(nil), d.kb.Destructive.Causes...),
	}
	known := make(map[string]bool, len(d.kb.Destructive.Features))
	for _, f := range d.kb.Destructive.Features {
		known[f] = true
	}
	for _, f := range sel.Features {
		if known[f] {
			out.Inputs = append(out.Inputs, f)
		}
	}
	return out
}

type vascularPattern struct{ kb *knowledge.Base }

func (*vascularPattern) Family() string { return FamilyVascular }
func (*vascularPattern) Title() string  { return "Vascular Pattern Analysis" }

// 接受完整的表单标签或短名，如 "Centralization (pruned tree)" / "Centralization"
func (v *vascularPattern) Analyze(sel Selection) Analysis {
	out := Analysis{Title: v.Title()}
	want := strings.TrimSpace(sel.Pattern)
	for _, p := range v.kb.Vascular {
		if want == p.Label || want == p.Pattern {
			out.Description = p.Explanation
			out.Differentials = causesIn(p.Explanation)
			out.Inputs = []string{p.Label}
			return out
		}
	}
	return out
}

// causesIn 取说明末尾括号中的病因，"... (a, b, c)" -> [a b c]
func causesIn(explanation string) []string {
	open := strings.LastIndex(explanation, "(")
	end := strings.LastIndex(explanation, ")")
	if open < 0 || end < open {
		return []string{}
	}
	var out []string
	for _, c := range strings.Split(explanation[open+1:end], ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
