package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSection = errors.New("unknown assessment section")

// Section 技术质量评估的五个部分
type Section string

const (
	SectionPositioning Section = "positioning"
	SectionPenetration Section = "penetration"
	SectionMotion      Section = "motion"
	SectionInspiration Section = "inspiration"
	SectionArtifacts   Section = "artifacts"
)

// SectionOrder 报告输出顺序（固定）
var SectionOrder = []Section{
	SectionPositioning,
	SectionPenetration,
	SectionMotion,
	SectionInspiration,
	SectionArtifacts,
}

// Title 显示名称，如 "Positioning"
func (s Section) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseSection 解析 section 名称（大小写不敏感）
func ParseSection(name string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range SectionOrder {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// Derived fields written next to the raw answers when a section is recorded.
const (
	FieldQuality  = "quality"
	FieldScore    = "score"
	FieldFindings = "findings"
)

// AssessmentState section -> field -> 选中值或自由文本
// 每个 session 一份，随 session 过期而丢弃
type AssessmentState map[Section]map[string]string

// Set 写入一个 section 的全部字段（整体替换）
func (a AssessmentState) Set(section Section, fields map[string]string) error {
	if _, err := ParseSection(string(section)); err != nil {
		return err
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	a[section] = copied
	return nil
}

// Field 读取字段，不存在时返回 def
func (a AssessmentState) Field(section Section, field, def string) string {
	fields, ok := a[section]
	if !ok {
		return def
	}
	if v, ok := fields[field]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// Has 是否已评估该 section
func (a AssessmentState) Has(section Section) bool {
	_, ok := a[section]
	return ok
}

// Assessed 按固定顺序返回已评估的 sections
func (a AssessmentState) Assessed() []Section {
	out := make([]Section, 0, len(a))
	for _, s := range SectionOrder {
		if a.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
