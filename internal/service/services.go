// Package service 业务服务层：每个教学模块一个服务，操作显式传入的会话对象
//
// 服务本身无状态（知识库只读），会话的加载与保存由 HTTP 层负责。
package service

import (
	"time"

	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/knowledge"
)

// Services 所有模块服务
type Services struct {
	Quality *QualityService
	Anatomy *AnatomyService
	Pattern *PatternService
	Cases   *CaseService
	Measure *MeasureService
	Image   *ImageService
	Report  *ReportService
}

// Option 服务构造选项
type Option func(*options)

type options struct {
	maxImagePixels int
}

// WithMaxImagePixels 上传影像的像素上限
func WithMaxImagePixels(n int) Option {
	return func(o *options) { o.maxImagePixels = n }
}

// New 基于同一份知识库创建全部服务
func New(kb *knowledge.Base, logger *zap.Logger, opts ...Option) *Services {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Services{
		Quality: NewQualityService(kb, logger),
		Anatomy: NewAnatomyService(kb, logger),
		Pattern: NewPatternService(kb, logger),
		Cases:   NewCaseService(casestudy.NewLibrary(kb), logger, time.Now),
		Measure: NewMeasureService(logger),
		Image:   NewImageService(logger, o.maxImagePixels),
		Report:  NewReportService(logger),
	}
}
