package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/report"
)

type ReportService struct {
	logger *zap.Logger
}

func NewReportService(logger *zap.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Technical 仅技术质量部分
func (s *ReportService) Technical(sess *domain.Session) string {
	return report.Technical(sess.Technical)
}

func (s *ReportService) Text(sess *domain.Session) string {
	return report.Full(sess)
}

func (s *ReportService) SetImpression(ctx context.Context, sess *domain.Session, impression string) {
	sess.Impression = strings.TrimSpace(impression)
}

func (s *ReportService) Workbook(ctx context.Context, sess *domain.Session) ([]byte, error) {
	b, err := report.Workbook(sess)
	if err != nil {
		s.logger.Error("Failed to build report workbook", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, err
	}
	return b, nil
}
