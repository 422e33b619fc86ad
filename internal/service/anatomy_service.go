package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/report"
)

// AnatomyService 系统解剖复核
type AnatomyService struct {
	kb     *knowledge.Base
	logger *zap.Logger
}

func NewAnatomyService(kb *knowledge.Base, logger *zap.Logger) *AnatomyService {
	return &AnatomyService{kb: kb, logger: logger}
}

// RegionForm 区域表单 + 已保存的复核
type RegionForm struct {
	Region      domain.Region         `json:"region"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Form        knowledge.AnatomyForm `json:"form"`
	Review      domain.RegionReview   `json:"review"`
}

// ReviewRequest 区域提交内容
type ReviewRequest struct {
	Findings string            `json:"findings"`
	Checked  []string          `json:"checked"`
	Choices  map[string]string `json:"choices"`
}

func (s *AnatomyService) Regions(sess *domain.Session) []RegionForm {
	out := make([]RegionForm, 0, len(domain.RegionOrder))
	for _, r := range domain.RegionOrder {
		out = append(out, RegionForm{
			Region:      r,
			Title:       r.Title(),
			Description: s.description(r),
			Form:        s.kb.AnatomyForm(r),
			Review:      sess.Anatomy[r],
		})
	}
	return out
}

// Review 保存一个区域；未知清单项忽略，单选值必须是表单选项之一
func (s *AnatomyService) Review(ctx context.Context, sess *domain.Session, region string, req ReviewRequest) (domain.RegionReview, error) {
	r, err := domain.ParseRegion(region)
	if err != nil {
		return domain.RegionReview{}, err
	}
	form := s.kb.AnatomyForm(r)

	picked := make(map[string]bool, len(req.Checked))
	for _, item := range req.Checked {
		picked[strings.TrimSpace(item)] = true
	}
	var checked []string
	for _, item := range form.Checklist {
		if picked[item] {
			checked = append(checked, item)
		}
	}

	var choices map[string]string
	for _, f := range form.Choices {
		v := strings.TrimSpace(req.Choices[f.Field])
		if v == "" {
			continue
		}
		if !contains(f.Options, v) {
			return domain.RegionReview{}, fmt.Errorf("%w: %s.%s = %q", ErrInvalidAnswer, r, f.Field, v)
		}
		if choices == nil {
			choices = make(map[string]string, len(form.Choices))
		}
		choices[f.Field] = v
	}

	review := domain.RegionReview{
		Findings: strings.TrimSpace(req.Findings),
		Checked:  checked,
		Choices:  choices,
	}
	sess.Normalize()
	sess.Anatomy[r] = review
	s.logger.Debug("Recorded region review",
		zap.String("session_id", sess.ID),
		zap.String("region", string(r)),
		zap.Int("checked", len(checked)),
	)
	return review, nil
}

// Findings STRUCTURED FINDINGS 文本
func (s *AnatomyService) Findings(sess *domain.Session) string {
	return report.Findings(sess.Anatomy)
}

func (s *AnatomyService) description(r domain.Region) string {
	for _, n := range s.kb.Regions {
		if strings.EqualFold(n.Name, r.Title()) {
			return n.Description
		}
	}
	return ""
}
