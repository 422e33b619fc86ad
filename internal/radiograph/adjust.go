package radiograph

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Adjustments 1.0 表示不变
type Adjustments struct {
	Contrast   float64 `json:"contrast"`
	Brightness float64 `json:"brightness"`
	Sharpness  float64 `json:"sharpness"`
}

// DefaultAdjustments 不做任何调整
var DefaultAdjustments = Adjustments{Contrast: 1, Brightness: 1, Sharpness: 1}

// Preprocess 依次应用对比度、亮度、锐度
func Preprocess(img image.Image, adj Adjustments) *image.NRGBA {
	out := imaging.Clone(img)
	if adj.Contrast > 0 && adj.Contrast != 1 {
		out = imaging.AdjustContrast(out, clamp((adj.Contrast-1)*100, -100, 100))
	}
	if adj.Brightness > 0 && adj.Brightness != 1 {
		f := adj.Brightness
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{R: scale(c.R, f), G: scale(c.G, f), B: scale(c.B, f), A: c.A}
		})
	}
	switch {
	case adj.Sharpness > 1:
		out = imaging.Sharpen(out, adj.Sharpness-1)
	case adj.Sharpness > 0 && adj.Sharpness < 1:
		out = imaging.Blur(out, 1-adj.Sharpness)
	}
	return out
}

// EnhanceEdges 反锐化
func EnhanceEdges(img image.Image) *image.NRGBA {
	return imaging.Sharpen(img, 2)
}

func Invert(img image.Image) *image.NRGBA {
	return imaging.Invert(img)
}

// Thumbnail 等比缩小到 maxW x maxH 以内（不放大）
func Thumbnail(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// Equalize 全局直方图均衡
func Equalize(img image.Image) *image.NRGBA {
	g := imaging.Grayscale(img)
	var hist [256]int
	forEach(g, func(v uint8) { hist[v]++ })

	total, cdfMin := 0, 0
	var cdf [256]int
	for i, n := range hist {
		total += n
		cdf[i] = total
		if cdfMin == 0 && total > 0 {
			cdfMin = total
		}
	}
	if total == cdfMin {
		return g
	}
	var lut [256]uint8
	for i := range lut {
		if cdf[i] <= cdfMin {
			continue
		}
		lut[i] = uint8(math.Round(float64(cdf[i]-cdfMin) / float64(total-cdfMin) * 255))
	}
	return mapGray(g, lut)
}

// LinearStretch 把 [min,max] 拉伸到 [0,255]；平坦图像原样返回
func LinearStretch(img image.Image) *image.NRGBA {
	g := imaging.Grayscale(img)
	lo, hi := uint8(255), uint8(0)
	forEach(g, func(v uint8) {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	})
	if hi <= lo {
		return g
	}
	var lut [256]uint8
	for i := int(lo); i <= int(hi); i++ {
		lut[i] = uint8(float64(i-int(lo)) / float64(hi-lo) * 255)
	}
	for i := int(hi) + 1; i < 256; i++ {
		lut[i] = 255
	}
	return mapGray(g, lut)
}

// WindowLevel 窗宽窗位（center/width 以 0-255 灰度计）
func WindowLevel(img image.Image, center, width int) *image.NRGBA {
	if width < 1 {
		width = 1
	}
	lo := center - width/2
	hi := center + width/2
	var lut [256]uint8
	for i := range lut {
		switch {
		case i <= lo:
			lut[i] = 0
		case i >= hi:
			lut[i] = 255
		default:
			lut[i] = uint8(float64(i-lo) / float64(hi-lo) * 255)
		}
	}
	return mapGray(imaging.Grayscale(img), lut)
}

func mapGray(g *image.NRGBA, lut [256]uint8) *image.NRGBA {
	out := imaging.Clone(g)
	for i := 0; i < len(out.Pix); i += 4 {
		v := lut[out.Pix[i]]
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
	}
	return out
}

// forEach 遍历灰度图的每个像素（取 R 通道）
func forEach(g *image.NRGBA, fn func(v uint8)) {
	b := g.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			fn(row[x])
		}
	}
}

func scale(v uint8, f float64) uint8 {
	return uint8(clamp(math.Round(float64(v)*f), 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
