package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/domain"
)

// CaseService 病例学习
type CaseService struct {
	lib    *casestudy.Library
	logger *zap.Logger
	now    func() time.Time
}

func NewCaseService(lib *casestudy.Library, logger *zap.Logger, now func() time.Time) *CaseService {
	if now == nil {
		now = time.Now
	}
	return &CaseService{lib: lib, logger: logger, now: now}
}

// CaseView 病例 + 学员作答
type CaseView struct {
	Case      domain.CaseRecord  `json:"case"`
	Attempt   domain.CaseAttempt `json:"attempt"`
	Checklist []string           `json:"checklist"`
}

func (s *CaseService) List(sess *domain.Session, difficulty, category string) []domain.CaseRecord {
	return s.lib.Filter(difficulty, category, sess.CustomCases)
}

func (s *CaseService) Get(sess *domain.Session, id string) (CaseView, error) {
	c, err := s.lib.Get(id, sess.CustomCases)
	if err != nil {
		return CaseView{}, err
	}
	return CaseView{Case: c, Attempt: sess.Cases[c.ID], Checklist: s.lib.Checklist()}, nil
}

func (s *CaseService) Attempt(ctx context.Context, sess *domain.Session, id string, in casestudy.AttemptInput) (domain.CaseAttempt, error) {
	a, err := s.lib.RecordAttempt(sess, id, in, s.now())
	if err != nil {
		return domain.CaseAttempt{}, err
	}
	s.logger.Info("Case attempt saved",
		zap.String("session_id", sess.ID),
		zap.String("case_id", id),
		zap.Bool("submitted", a.Submitted),
	)
	return a, nil
}

func (s *CaseService) Progress(sess *domain.Session) casestudy.Progress {
	return s.lib.Progress(sess)
}

// AddCustom 自定义病例只保存在会话中
func (s *CaseService) AddCustom(ctx context.Context, sess *domain.Session, in casestudy.CustomCaseInput) (domain.CaseRecord, error) {
	c, err := casestudy.NewCustomCase(in)
	if err != nil {
		return domain.CaseRecord{}, err
	}
	if err := casestudy.AddCustomCase(sess, c); err != nil {
		s.logger.Warn("Custom case rejected", zap.String("session_id", sess.ID), zap.Int("custom_cases", len(sess.CustomCases)))
		return domain.CaseRecord{}, err
	}
	s.logger.Info("Custom case added", zap.String("session_id", sess.ID), zap.String("case_id", c.ID))
	return c, nil
}
