package casestudy

import "cxr-learning/internal/domain"

// CategoryProgress 单个分类的完成度
type CategoryProgress struct {
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// Progress 学习进度，只统计已提交的作答
type Progress struct {
	Completed  int                `json:"completed"`
	Total      int                `json:"total"`
	Categories []CategoryProgress `json:"categories"`
}

func (l *Library) Progress(s *domain.Session) Progress {
	pool := l.Pool(s.CustomCases)
	done := func(id string) bool {
		a, ok := s.Cases[id]
		return ok && a.Submitted
	}

	p := Progress{Total: len(pool), Categories: make([]CategoryProgress, 0, len(l.kb.CaseCategories))}
	for _, c := range pool {
		if done(c.ID) {
			p.Completed++
		}
	}
	for _, cat := range l.kb.CaseCategories {
		cp := CategoryProgress{Name: cat.Name}
		for _, c := range pool {
			if !matchesAny(c, cat.Keywords) {
				continue
			}
			cp.Total++
			if done(c.ID) {
				cp.Completed++
			}
		}
		if cp.Total > 0 {
			cp.Percent = cp.Completed * 100 / cp.Total
		}
		p.Categories = append(p.Categories, cp)
	}
	return p
}
