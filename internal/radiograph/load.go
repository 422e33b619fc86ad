// Package radiograph 教学用影像工具：解码、调整、简单质量启发式、标注
//
// 这些启发式（对称性、强度阈值）没有临床价值，只用于演示。
package radiograph

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"cxr-learning/internal/measure"
)

var (
	ErrDecode      = errors.New("could not decode image")
	ErrUnsupported = errors.New("DICOM files are accepted but pixel analysis is not supported")
	ErrFormat      = errors.New("unsupported file format")
	ErrTooLarge    = errors.New("image dimensions exceed the limit")
)

// DefaultMaxPixels 解码前的像素上限（宽 x 高）
const DefaultMaxPixels = 40_000_000

// Load 解码为灰度图（R=G=B）
// 先读头部检查尺寸，超过 maxPixels（<=0 时取 DefaultMaxPixels）返回 ErrTooLarge，不分配像素
func Load(r io.Reader, filename string, maxPixels int) (*image.NRGBA, error) {
	if filename != "" {
		if !measure.ValidateImageFormat(filename) {
			return nil, fmt.Errorf("%w: %s", ErrFormat, filepath.Ext(filename))
		}
		if measure.IsDICOM(filename) {
			return nil, ErrUnsupported
		}
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return imaging.Grayscale(img), nil
}

// Metadata 上传文件信息
type Metadata struct {
	Filename  string `json:"filename"`
	SizeBytes int    `json:"size_bytes"`
	Format    string `json:"format,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReadMetadata 只读取头部，解码失败时记录在 Error 字段
func ReadMetadata(data []byte, filename string) Metadata {
	m := Metadata{Filename: filename, SizeBytes: len(data)}
	if measure.IsDICOM(filename) {
		m.Format = "dicom"
		return m
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		m.Error = err.Error()
		return m
	}
	m.Format = strings.ToUpper(format)
	m.Width, m.Height = cfg.Width, cfg.Height
	return m
}
