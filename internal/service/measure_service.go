package service

import (
	"context"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/measure"
)

type MeasureService struct {
	logger *zap.Logger
}

func NewMeasureService(logger *zap.Logger) *MeasureService {
	return &MeasureService{logger: logger}
}

// CTR 计算并保存到会话；胸廓宽度为 0 时返回 status 而不是错误
func (s *MeasureService) CTR(ctx context.Context, sess *domain.Session, cardiac, thoracic float64) domain.CTRMeasurement {
	m := measure.CalculateCTR(cardiac, thoracic)
	sess.CTR = &m
	if m.Status != measure.StatusOK {
		s.logger.Warn("CTR not measurable", zap.String("session_id", sess.ID), zap.String("status", m.Status))
	}
	return m
}

func (s *MeasureService) Distance(p1, p2 measure.Point, pixelsPerCm float64) measure.Distance {
	return measure.MeasureDistance(p1, p2, pixelsPerCm)
}
