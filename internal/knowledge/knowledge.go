// Package knowledge 静态教学知识库（只读）
//
// 内容随二进制嵌入 data/knowledge_base.json，启动时加载一次；
// 也可以通过 KNOWLEDGE_FILE 指定外部文件覆盖。
package knowledge

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"cxr-learning/internal/domain"
)

//go:embed data/knowledge_base.json
var embedded []byte

var ErrInvalidBase = errors.New("invalid knowledge base")

// TechnicalFactor 技术因素及判定标准
type TechnicalFactor struct {
	Name     string   `json:"name"`
	Criteria []string `json:"criteria"`
}

// RegionNote 解剖区域说明
type RegionNote struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PatternDifferential 知识库页面的模式->鉴别诊断摘要
type PatternDifferential struct {
	Pattern       string `json:"pattern"`
	Differentials string `json:"differentials"`
}

// DifferentialRule (pattern, distribution) -> 鉴别诊断
type DifferentialRule struct {
	Pattern      string   `json:"pattern"`
	Distribution string   `json:"distribution"`
	Diagnoses    []string `json:"diagnoses"`
}

type OpacityShape struct {
	Shape string   `json:"shape"`
	Sizes []string `json:"sizes"`
}

type TitledList struct {
	Title         string   `json:"title"`
	Differentials []string `json:"differentials"`
}

type ZoneNote struct {
	Zone string `json:"zone"`
	Note string `json:"note"`
}

// SmallOpacities ILO 小阴影分类
type SmallOpacities struct {
	Shapes        []OpacityShape `json:"shapes"`
	Distributions []string       `json:"distributions"`
	Micronodular  TitledList     `json:"micronodular"`
	Nodular       TitledList     `json:"nodular"`
	Reticular     TitledList     `json:"reticular"`
	ZoneNotes     []ZoneNote     `json:"zone_notes"`
}

type ConsolidationPattern struct {
	Pattern       string   `json:"pattern"`
	Differentials []string `json:"differentials"`
}

// Consolidation 大阴影（实变）
type Consolidation struct {
	Patterns           []ConsolidationPattern `json:"patterns"`
	AirBronchogramNote string                 `json:"air_bronchogram_note"`
}

// LinearType Kerley 线 / 轨道征
type LinearType struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Causes      []string `json:"causes,omitempty"`
}

type Destructive struct {
	Features []string `json:"features"`
	Causes   []string `json:"causes"`
}

// VascularPattern Pattern 为短名，Label 为表单显示文本
type VascularPattern struct {
	Pattern     string `json:"pattern"`
	Label       string `json:"label"`
	Explanation string `json:"explanation"`
}

// FormField 表单字段：单选（Options）或复选框（Checkbox）
type FormField struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Options  []string `json:"options,omitempty"`
	Checkbox bool     `json:"checkbox,omitempty"`
}

// AnatomyForm 解剖区域的检查清单与单选项
type AnatomyForm struct {
	Checklist []string    `json:"checklist,omitempty"`
	Choices   []FormField `json:"choices,omitempty"`
}

type CaseCategory struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Base 完整知识库
type Base struct {
	Version              string                        `json:"version"`
	Sources              []string                      `json:"sources"`
	SystematicComponents []string                      `json:"systematic_components"`
	TechnicalFactors     []TechnicalFactor             `json:"technical_factors"`
	Regions              []RegionNote                  `json:"regions"`
	PatternDifferentials []PatternDifferential         `json:"pattern_differentials"`
	Differentials        []DifferentialRule            `json:"differentials"`
	Patterns             []domain.PatternDefinition    `json:"patterns"`
	SmallOpacities       SmallOpacities                `json:"small_opacities"`
	Consolidation        Consolidation                 `json:"consolidation"`
	Linear               []LinearType                  `json:"linear"`
	Destructive          Destructive                   `json:"destructive"`
	Vascular             []VascularPattern             `json:"vascular"`
	TechnicalForms       map[string][]FormField        `json:"technical_forms"`
	AnatomyForms         map[domain.Region]AnatomyForm `json:"anatomy_forms"`
	CaseChecklist        []string                      `json:"case_checklist"`
	CaseCategories       []CaseCategory                `json:"case_categories"`
	Cases                []domain.CaseRecord           `json:"cases"`
}

// Load 加载嵌入的知识库
func Load() (*Base, error) {
	return Parse(embedded)
}

// LoadFile 从外部 JSON 文件加载（path 为空时回退到嵌入内容）
func LoadFile(path string) (*Base, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析并校验
func Parse(data []byte) (*Base, error) {
	var b Base
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase, err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Base) validate() error {
	if len(b.Patterns) == 0 {
		return fmt.Errorf("%w: no pattern definitions", ErrInvalidBase)
	}
	for _, p := range b.Patterns {
		if p.Name == "" || len(p.Features) == 0 {
			return fmt.Errorf("%w: pattern %q has no features", ErrInvalidBase, p.Name)
		}
	}
	seen := make(map[string]bool, len(b.Cases))
	for _, c := range b.Cases {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: case %q: %v", ErrInvalidBase, c.ID, err)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate case id %q", ErrInvalidBase, c.ID)
		}
		seen[c.ID] = true
	}
	for region := range b.AnatomyForms {
		if _, err := domain.ParseRegion(string(region)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBase, err)
		}
	}
	return nil
}

// Case 按 id 查找病例
func (b *Base) Case(id string) (domain.CaseRecord, bool) {
	for _, c := range b.Cases {
		if c.ID == id {
			return c, true
		}
	}
	return domain.CaseRecord{}, false
}

// Differential 查找 (pattern, distribution) 的鉴别诊断（大小写不敏感）
func (b *Base) Differential(pattern, distribution string) ([]string, bool) {
	p := strings.ToLower(strings.TrimSpace(pattern))
	d := strings.ToLower(strings.TrimSpace(distribution))
	for _, r := range b.Differentials {
		if r.Pattern == p && r.Distribution == d {
			return append([]string(nil), r.Diagnoses...), true
		}
	}
	return nil, false
}

// Form 技术质量 section 的表单定义
func (b *Base) Form(section domain.Section) []FormField {
	return b.TechnicalForms[string(section)]
}

// Options 某个字段的可选项
func (b *Base) Options(section domain.Section, field string) []string {
	for _, f := range b.Form(section) {
		if f.Field == field {
			return f.Options
		}
	}
	return nil
}

func (b *Base) AnatomyForm(region domain.Region) AnatomyForm {
	return b.AnatomyForms[region]
}

// Category 按名称查找病例分类
func (b *Base) Category(name string) (CaseCategory, bool) {
	for _, c := range b.CaseCategories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return CaseCategory{}, false
}

// CategoryNames 分类名称（含 "All"）
func (b *Base) CategoryNames() []string {
	names := make([]string, 0, len(b.CaseCategories)+1)
	names = append(names, "All")
	for _, c := range b.CaseCategories {
		names = append(names, c.Name)
	}
	return names
}
