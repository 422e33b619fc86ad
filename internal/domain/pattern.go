package domain

// PatternDefinition 规则匹配用的影像模式定义（静态，只读）
type PatternDefinition struct {
	Name          string   `json:"name"`
	Features      []string `json:"features"`
	Distributions []string `json:"distributions"`
}

// PatternSelection 最近一次模式分析的选择，写入报告
type PatternSelection struct {
	Family        string   `json:"family"`
	Title         string   `json:"title"`
	Inputs        []string `json:"inputs,omitempty"`
	Differentials []string `json:"differentials,omitempty"`
}

// CTRMeasurement 最近一次 CTR 测量
type CTRMeasurement struct {
	CardiacWidth   float64 `json:"cardiac_width"`
	ThoracicWidth  float64 `json:"thoracic_width"`
	Ratio          float64 `json:"ctr"`
	Status         string  `json:"status"`
	Interpretation string  `json:"interpretation,omitempty"`
}
