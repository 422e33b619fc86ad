// Package measure 测量工具：CTR、距离、肋骨计数、文件格式校验
package measure

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cxr-learning/internal/domain"
)

const (
	StatusOK                   = "ok"
	StatusInvalidThoracicWidth = "invalid_thoracic_width"
	StatusInvalidCardiacWidth  = "invalid_cardiac_width"
)

const (
	InterpretationNormal     = "Normal heart size"
	InterpretationBorderline = "Borderline cardiomegaly"
	InterpretationEnlarged   = "Cardiomegaly"
)

// SupportedFormats 允许上传的影像扩展名
var SupportedFormats = []string{".dcm", ".jpg", ".jpeg", ".png", ".tiff"}

// CalculateCTR 心胸比（百分比，保留一位小数）
// 胸廓宽度 <= 0 或心影宽度 < 0 时返回 0 和 invalid 状态，不报错
func CalculateCTR(cardiacWidth, thoracicWidth float64) domain.CTRMeasurement {
	m := domain.CTRMeasurement{CardiacWidth: cardiacWidth, ThoracicWidth: thoracicWidth}
	if thoracicWidth <= 0 {
		m.Status = StatusInvalidThoracicWidth
		return m
	}
	if cardiacWidth < 0 {
		m.Status = StatusInvalidCardiacWidth
		return m
	}
	m.Ratio = math.Round(cardiacWidth/thoracicWidth*1000) / 10
	m.Status = StatusOK
	m.Interpretation = InterpretCTR(m.Ratio)
	return m
}

// InterpretCTR <=50 正常，<55 临界，否则心脏增大
func InterpretCTR(ratio float64) string {
	switch {
	case ratio <= 50:
		return InterpretationNormal
	case ratio < 55:
		return InterpretationBorderline
	default:
		return InterpretationEnlarged
	}
}

// ValidateImageFormat 扩展名校验（大小写不敏感）
func ValidateImageFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range SupportedFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// IsDICOM .dcm 只做格式校验，不做像素分析
func IsDICOM(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".dcm")
}

var firstInt = regexp.MustCompile(`\d+`)

// ParseRibCount 取文本中的第一个整数，如 "6th (optimal)" -> 6；没有时返回 0
func ParseRibCount(text string) int {
	m := firstInt.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Point 像素坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance 测量结果；Calibrated 为 false 时 Centimeters 无意义
type Distance struct {
	Pixels      float64 `json:"pixels"`
	Centimeters float64 `json:"centimeters,omitempty"`
	Calibrated  bool    `json:"calibrated"`
}

// MeasureDistance calibration 为每厘米像素数，<=0 表示未校准
func MeasureDistance(p1, p2 Point, pixelsPerCm float64) Distance {
	d := Distance{Pixels: math.Hypot(p2.X-p1.X, p2.Y-p1.Y)}
	if pixelsPerCm > 0 {
		d.Centimeters = d.Pixels / pixelsPerCm
		d.Calibrated = true
	}
	return d
}
