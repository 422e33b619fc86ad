package service

import (
	"context"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/pattern"
)

// PatternService 模式识别与鉴别诊断
type PatternService struct {
	kb        *knowledge.Base
	matcher   *pattern.Matcher
	analyzers map[string]pattern.Analyzer
	logger    *zap.Logger
}

func NewPatternService(kb *knowledge.Base, logger *zap.Logger) *PatternService {
	return &PatternService{
		kb:        kb,
		matcher:   pattern.NewMatcher(kb.Patterns),
		analyzers: pattern.NewAnalyzers(kb),
		logger:    logger,
	}
}

// Match 按得分降序
func (s *PatternService) Match(features []string, distribution string) []pattern.Score {
	return s.matcher.Ranked(features, distribution)
}

func (s *PatternService) Features() []string      { return s.matcher.Features() }
func (s *PatternService) Distributions() []string { return s.matcher.Distributions() }

func (s *PatternService) Differential(p, distribution string) []string {
	return pattern.Differential(s.kb, p, distribution)
}

// Analyze 分析并把结果保存到会话，供报告使用
func (s *PatternService) Analyze(ctx context.Context, sess *domain.Session, family string, sel pattern.Selection) (pattern.Analysis, error) {
	a, err := pattern.Analyze(s.analyzers, family, sel)
	if err != nil {
		return pattern.Analysis{}, err
	}
	sess.Pattern = a.Selection()
	s.logger.Debug("Pattern analyzed",
		zap.String("session_id", sess.ID),
		zap.String("family", a.Family),
		zap.Int("differentials", len(a.Differentials)),
	)
	return a, nil
}
