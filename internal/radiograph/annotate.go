package radiograph

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var palette = map[string]color.NRGBA{
	"red":     {R: 255, A: 255},
	"green":   {G: 255, A: 255},
	"blue":    {B: 255, A: 255},
	"yellow":  {R: 255, G: 255, A: 255},
	"cyan":    {G: 255, B: 255, A: 255},
	"magenta": {R: 255, B: 255, A: 255},
	"black":   {A: 255},
	"white":   {R: 255, G: 255, B: 255, A: 255},
}

// Color 颜色名 -> NRGBA，未知名称用红色
func Color(name string) color.NRGBA {
	if c, ok := palette[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return palette["red"]
}

const (
	annotationPad  = 64  // 标注可超出图像边界的像素数
	maxLabelLength = 120 // 标签最多字符数
)

// ClampPoint 坐标限制在图像边界外扩 annotationPad 的范围内
func ClampPoint(bounds image.Rectangle, p image.Point) image.Point {
	r := bounds.Inset(-annotationPad)
	return image.Pt(min(max(p.X, r.Min.X), r.Max.X), min(max(p.Y, r.Min.Y), r.Max.Y))
}

// Highlight styles
const (
	StyleRectangle = "rectangle"
	StyleCircle    = "circle"
	StyleArrow     = "arrow"
)

// Annotate 在 pt 处写带黄色底色的文字
func Annotate(img image.Image, text string, pt image.Point, c color.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	label(out, text, ClampPoint(out.Bounds(), pt), c)
	return out
}

// DrawMeasurement 测量线 + 端点 + 可选标签
func DrawMeasurement(img image.Image, start, end image.Point, text string, c color.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	start, end = ClampPoint(out.Bounds(), start), ClampPoint(out.Bounds(), end)
	line(out, start, end, 2, c)
	disc(out, start, 3, c)
	disc(out, end, 3, c)
	if text != "" {
		mid := image.Pt((start.X+end.X)/2, (start.Y+end.Y)/2-20)
		label(out, text, mid, c)
	}
	return out
}

// Highlight 用矩形/圆/箭头标出感兴趣区域
func Highlight(img image.Image, r image.Rectangle, style, text string, c color.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	r = image.Rectangle{Min: ClampPoint(out.Bounds(), r.Min), Max: ClampPoint(out.Bounds(), r.Max)}.Canon()
	switch style {
	case StyleCircle:
		center := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
		radius := max(r.Dx(), r.Dy()) / 2
		circle(out, center, radius, 3, c)
	case StyleArrow:
		tip := r.Min
		line(out, tip.Add(image.Pt(-50, -50)), tip, 3, c)
		line(out, tip, tip.Add(image.Pt(-10, -5)), 3, c)
		line(out, tip, tip.Add(image.Pt(-5, -10)), 3, c)
	default:
		rect(out, r, 3, c)
	}
	if text != "" {
		label(out, text, r.Min.Add(image.Pt(0, -25)), c)
	}
	return out
}

// Overlay 教学用解剖参考线："standard"（气管/肺门/心影）或 "zones"（上中下肺野）
func Overlay(img image.Image, kind string) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	switch kind {
	case "zones":
		zones := []struct{ name, color string }{
			{"Upper", "cyan"}, {"Middle", "magenta"}, {"Lower", "yellow"},
		}
		for i, z := range zones {
			y := (h/4)*i + 50
			line(out, image.Pt(0, y), image.Pt(w, y), 2, Color(z.color))
			label(out, z.name, image.Pt(10, y+10), Color(z.color))
		}
	default:
		line(out, image.Pt(w/2, 50), image.Pt(w/2, h/3), 2, Color("blue"))
		for x := 0; x < w; x += 10 {
			line(out, image.Pt(x, h/2), image.Pt(x+5, h/2), 1, Color("yellow"))
		}
		cx, cy := w/2, h*2/3
		ellipse(out, image.Rect(cx-60, cy-80, cx+60, cy+40), 2, Color("red"))
	}
	return out
}

// SideBySide 左右对比图，高度对齐，中间留 20px
func SideBySide(a, b image.Image, labelA, labelB string) *image.NRGBA {
	h := max(a.Bounds().Dy(), b.Bounds().Dy())
	if a.Bounds().Dy() != h {
		a = imaging.Resize(a, 0, h, imaging.Lanczos)
	}
	if b.Bounds().Dy() != h {
		b = imaging.Resize(b, 0, h, imaging.Lanczos)
	}
	wa, wb := a.Bounds().Dx(), b.Bounds().Dx()
	out := imaging.New(wa+wb+20, h+40, color.White)
	out = imaging.Paste(out, a, image.Pt(0, 20))
	out = imaging.Paste(out, b, image.Pt(wa+20, 20))
	drawText(out, labelA, image.Pt((wa-len(labelA)*7)/2, 3), Color("black"))
	drawText(out, labelB, image.Pt(wa+20+(wb-len(labelB)*7)/2, 3), Color("black"))
	return out
}

// EncodePNG 写出 PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// DataURI 内嵌到 HTML 的 base64 PNG
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawText(dst *image.NRGBA, s string, pt image.Point, c color.NRGBA) int {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y+face.Ascent),
	}
	d.DrawString(s)
	return d.MeasureString(s).Ceil()
}

func label(dst *image.NRGBA, s string, pt image.Point, c color.NRGBA) {
	if r := []rune(s); len(r) > maxLabelLength {
		s = string(r[:maxLabelLength])
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	bg := image.Rect(pt.X, pt.Y, pt.X+w, pt.Y+face.Height)
	draw.Draw(dst, bg, image.NewUniform(Color("yellow")), image.Point{}, draw.Src)
	rect(dst, bg, 1, c)
	drawText(dst, s, pt, c)
}

func dot(dst *image.NRGBA, x, y, width int, c color.NRGBA) {
	r := width / 2
	for dy := -r; dy <= (width-1)-r; dy++ {
		for dx := -r; dx <= (width-1)-r; dx++ {
			if image.Pt(x+dx, y+dy).In(dst.Bounds()) {
				dst.SetNRGBA(x+dx, y+dy, c)
			}
		}
	}
}

// line Bresenham
func line(dst *image.NRGBA, a, b image.Point, width int, c color.NRGBA) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	e := dx + dy
	x, y := a.X, a.Y
	for {
		dot(dst, x, y, width, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func rect(dst *image.NRGBA, r image.Rectangle, width int, c color.NRGBA) {
	line(dst, r.Min, image.Pt(r.Max.X, r.Min.Y), width, c)
	line(dst, image.Pt(r.Max.X, r.Min.Y), r.Max, width, c)
	line(dst, r.Max, image.Pt(r.Min.X, r.Max.Y), width, c)
	line(dst, image.Pt(r.Min.X, r.Max.Y), r.Min, width, c)
}

func ellipse(dst *image.NRGBA, r image.Rectangle, width int, c color.NRGBA) {
	cx, cy := float64(r.Min.X+r.Max.X)/2, float64(r.Min.Y+r.Max.Y)/2
	rx, ry := float64(r.Dx())/2, float64(r.Dy())/2
	steps := int(2*math.Pi*math.Max(rx, ry)) + 8
	for i := 0; i < steps; i++ {
		t := 2 * math.Pi * float64(i) / float64(steps)
		dot(dst, int(math.Round(cx+rx*math.Cos(t))), int(math.Round(cy+ry*math.Sin(t))), width, c)
	}
}

func circle(dst *image.NRGBA, center image.Point, radius, width int, c color.NRGBA) {
	ellipse(dst, image.Rect(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius), width, c)
}

func disc(dst *image.NRGBA, center image.Point, radius int, c color.NRGBA) {
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= radius*radius {
				dot(dst, center.X+x, center.Y+y, 1, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
