package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/quality"
)

var ErrInvalidAnswer = errors.New("invalid answer")

// QualityService 技术质量评估
type QualityService struct {
	kb     *knowledge.Base
	logger *zap.Logger
}

func NewQualityService(kb *knowledge.Base, logger *zap.Logger) *QualityService {
	return &QualityService{kb: kb, logger: logger}
}

// SectionForm 表单定义 + 会话中已保存的答案
type SectionForm struct {
	Section domain.Section        `json:"section"`
	Title   string                `json:"title"`
	Fields  []knowledge.FormField `json:"fields"`
	Answers map[string]string     `json:"answers,omitempty"`
}

// Forms 按固定顺序返回五个 section
func (s *QualityService) Forms(sess *domain.Session) []SectionForm {
	out := make([]SectionForm, 0, len(domain.SectionOrder))
	for _, sec := range domain.SectionOrder {
		out = append(out, SectionForm{
			Section: sec,
			Title:   sec.Title(),
			Fields:  s.kb.Form(sec),
			Answers: sess.Technical[sec],
		})
	}
	return out
}

// Record 校验单选值后评估并写入会话
func (s *QualityService) Record(ctx context.Context, sess *domain.Session, section string, answers map[string]string) (quality.Result, error) {
	sec, err := domain.ParseSection(section)
	if err != nil {
		return quality.Result{}, err
	}
	if err := s.validate(sec, answers); err != nil {
		return quality.Result{}, err
	}
	r, err := quality.Record(sess.Technical, sec, answers)
	if err != nil {
		return quality.Result{}, err
	}
	s.logger.Debug("Recorded technical section",
		zap.String("session_id", sess.ID),
		zap.String("section", string(sec)),
		zap.String("quality", r.Quality),
		zap.Int("score", r.Score),
	)
	return r, nil
}

// Summary 整体质量（3 分制）
func (s *QualityService) Summary(sess *domain.Session) quality.Overall {
	return quality.Summarize(sess.Technical)
}

func (s *QualityService) validate(sec domain.Section, answers map[string]string) error {
	for _, f := range s.kb.Form(sec) {
		v := strings.TrimSpace(answers[f.Field])
		if v == "" || len(f.Options) == 0 {
			continue
		}
		if !contains(f.Options, v) {
			return fmt.Errorf("%w: %s.%s = %q", ErrInvalidAnswer, sec, f.Field, v)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
