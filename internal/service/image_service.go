package service

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"cxr-learning/internal/measure"
	"cxr-learning/internal/radiograph"
)

const previewSize = 512

// ImageRequest 上传的影像与处理选项
type ImageRequest struct {
	Filename     string                 `json:"filename"`
	Data         []byte                 `json:"-"`
	Adjustments  radiograph.Adjustments `json:"adjustments"`
	Equalize     bool                   `json:"equalize"`
	Stretch      bool                   `json:"stretch"`
	Edges        bool                   `json:"edges"`
	Invert       bool                   `json:"invert"`
	WindowCenter int                    `json:"window_center"`
	WindowWidth  int                    `json:"window_width"`
	Overlay      string                 `json:"overlay"` // "" | standard | zones
	Compare      bool                   `json:"compare"` // 原图与处理后并排
	Annotations  []Annotation           `json:"annotations,omitempty"`
}

// Annotation 标注：measure 画测量线并写像素长度，highlight 框选区域，text 写文字
type Annotation struct {
	Kind  string `json:"kind"`
	X1    int    `json:"x1"`
	Y1    int    `json:"y1"`
	X2    int    `json:"x2"`
	Y2    int    `json:"y2"`
	Text  string `json:"text,omitempty"`
	Style string `json:"style,omitempty"`
	Color string `json:"color,omitempty"`
}

// ImageAnalysis 启发式结果（仅供教学演示）
type ImageAnalysis struct {
	Metadata    radiograph.Metadata          `json:"metadata"`
	Rotation    radiograph.RotationResult    `json:"rotation"`
	Penetration radiograph.PenetrationResult `json:"penetration"`
	Grid        radiograph.GridResult        `json:"grid"`
	Preview     string                       `json:"preview"`
}

type ImageService struct {
	maxPixels int
	logger    *zap.Logger
}

// NewImageService maxPixels <= 0 时使用 radiograph.DefaultMaxPixels
func NewImageService(logger *zap.Logger, maxPixels int) *ImageService {
	if maxPixels <= 0 {
		maxPixels = radiograph.DefaultMaxPixels
	}
	return &ImageService{maxPixels: maxPixels, logger: logger}
}

// Analyze 解码失败返回 radiograph.ErrDecode（调用方展示给用户，不重试）
func (s *ImageService) Analyze(ctx context.Context, req ImageRequest) (*ImageAnalysis, error) {
	meta := radiograph.ReadMetadata(req.Data, req.Filename)
	img, err := radiograph.Load(bytes.NewReader(req.Data), req.Filename, s.maxPixels)
	if err != nil {
		s.logger.Warn("Image rejected", zap.String("filename", req.Filename), zap.Error(err))
		return nil, err
	}

	out := &ImageAnalysis{
		Metadata:    meta,
		Rotation:    radiograph.DetectRotation(img),
		Penetration: radiograph.AssessPenetration(img),
		Grid:        radiograph.DetectGridLines(img),
	}

	processed := s.process(img, req)
	preview, err := radiograph.DataURI(radiograph.Thumbnail(processed, previewSize, previewSize))
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	out.Preview = preview

	s.logger.Info("Image analyzed",
		zap.String("filename", req.Filename),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.String("rotation", out.Rotation.Quality),
		zap.String("penetration", out.Penetration.Penetration),
	)
	return out, nil
}

func (s *ImageService) process(img image.Image, req ImageRequest) image.Image {
	out := image.Image(radiograph.Preprocess(img, req.Adjustments))
	if req.Equalize {
		out = radiograph.Equalize(out)
	}
	if req.Stretch {
		out = radiograph.LinearStretch(out)
	}
	if req.Edges {
		out = radiograph.EnhanceEdges(out)
	}
	if req.WindowWidth > 0 {
		out = radiograph.WindowLevel(out, req.WindowCenter, req.WindowWidth)
	}
	if req.Invert {
		out = radiograph.Invert(out)
	}
	switch req.Overlay {
	case "standard", "zones":
		out = radiograph.Overlay(out, req.Overlay)
	}
	for _, a := range req.Annotations {
		out = annotate(out, a)
	}
	if req.Compare {
		out = radiograph.SideBySide(img, out, "Original", "Processed")
	}
	return out
}

// annotate 坐标先限制到图像附近，测量长度按限制后的端点计算
func annotate(img image.Image, a Annotation) image.Image {
	c := radiograph.Color(a.Color)
	p1 := radiograph.ClampPoint(img.Bounds(), image.Pt(a.X1, a.Y1))
	p2 := radiograph.ClampPoint(img.Bounds(), image.Pt(a.X2, a.Y2))
	switch a.Kind {
	case "measure":
		text := a.Text
		if text == "" {
			d := measure.MeasureDistance(measure.Point{X: float64(p1.X), Y: float64(p1.Y)}, measure.Point{X: float64(p2.X), Y: float64(p2.Y)}, 0)
			text = fmt.Sprintf("%.0f px", d.Pixels)
		}
		return radiograph.DrawMeasurement(img, p1, p2, text, c)
	case "highlight":
		return radiograph.Highlight(img, image.Rectangle{Min: p1, Max: p2}.Canon(), a.Style, a.Text, c)
	case "text":
		return radiograph.Annotate(img, a.Text, p1, c)
	default:
		return img
	}
}
