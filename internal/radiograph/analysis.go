package radiograph

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// RotationResult 左右对称性评分
type RotationResult struct {
	SymmetryScore  float64 `json:"symmetry_score"`
	Status         string  `json:"rotation_status"`
	Quality        string  `json:"quality"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// DetectRotation 左半幅与水平翻转的右半幅逐像素比较
// score = 1 - mean(|L-R|)/255；>0.85 optimal，>0.70 acceptable
func DetectRotation(img image.Image) RotationResult {
	g := imaging.Grayscale(img)
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	half := w / 2

	var sum float64
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < half; x++ {
			sum += math.Abs(float64(at(g, x, y)) - float64(at(g, w-1-x, y)))
			n++
		}
	}
	score := 1.0
	if n > 0 {
		score = 1 - sum/float64(n)/255
	}

	r := RotationResult{SymmetryScore: score}
	switch {
	case score > 0.85:
		r.Status, r.Quality = "No significant rotation", "optimal"
	case score > 0.70:
		r.Status, r.Quality = "Mild rotation", "acceptable"
	default:
		r.Status, r.Quality = "Significant rotation", "suboptimal"
		r.Recommendation = "Repeat with proper positioning"
	}
	return r
}

// PenetrationResult 中心（纵隔）与周边（肺野）平均灰度
type PenetrationResult struct {
	MeanIntensity      float64 `json:"mean_intensity"`
	MediastinumDensity float64 `json:"mediastinum_density"`
	LungDensity        float64 `json:"lung_density"`
	Penetration        string  `json:"penetration"`
	Status             string  `json:"status"`
	HistogramStd       float64 `json:"histogram_std"`
}

// AssessPenetration 中心 100x100 为纵隔，[100,200) 方块为肺野
// 区域越界时裁剪；裁剪后为空则用整幅图的均值
func AssessPenetration(img image.Image) PenetrationResult {
	g := imaging.Grayscale(img)
	b := image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy())
	cx, cy := b.Dx()/2, b.Dy()/2

	mean, std := stats(g, b)
	med, ok := regionMean(g, image.Rect(cx-50, cy-50, cx+50, cy+50).Intersect(b))
	if !ok {
		med = mean
	}
	lung, ok := regionMean(g, image.Rect(100, 100, 200, 200).Intersect(b))
	if !ok {
		lung = mean
	}

	r := PenetrationResult{
		MeanIntensity:      mean,
		MediastinumDensity: med,
		LungDensity:        lung,
		HistogramStd:       std,
	}
	switch {
	case med > 120 && med < 180 && lung > 140 && lung < 200:
		r.Penetration, r.Status = "optimal", "Adequate penetration"
	case med < 120:
		r.Penetration, r.Status = "under_penetrated", "Under-penetrated"
	default:
		r.Penetration, r.Status = "over_penetrated", "Over-penetrated"
	}
	return r
}

// GridResult 相邻像素差分的方差
type GridResult struct {
	HasHorizontalLines bool    `json:"has_horizontal_lines"`
	HasVerticalLines   bool    `json:"has_vertical_lines"`
	HorizontalVariance float64 `json:"horizontal_variance"`
	VerticalVariance   float64 `json:"vertical_variance"`
	Recommendation     string  `json:"recommendation"`
}

const gridVarianceThreshold = 1000

// DetectGridLines 行间差分方差高 -> 水平线；列间差分方差高 -> 垂直线
func DetectGridLines(img image.Image) GridResult {
	g := imaging.Grayscale(img)
	w, h := g.Bounds().Dx(), g.Bounds().Dy()

	var rows, cols variance
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(at(g, x, y))
			if y+1 < h {
				rows.add(float64(at(g, x, y+1)) - v)
			}
			if x+1 < w {
				cols.add(float64(at(g, x+1, y)) - v)
			}
		}
	}
	r := GridResult{
		HorizontalVariance: rows.value(),
		VerticalVariance:   cols.value(),
	}
	r.HasHorizontalLines = r.HorizontalVariance > gridVarianceThreshold
	r.HasVerticalLines = r.VerticalVariance > gridVarianceThreshold
	if r.HasHorizontalLines || r.HasVerticalLines {
		r.Recommendation = "Check for grid artifacts"
	} else {
		r.Recommendation = "No obvious grid lines detected"
	}
	return r
}

func at(g *image.NRGBA, x, y int) uint8 {
	return g.Pix[y*g.Stride+x*4]
}

func regionMean(g *image.NRGBA, r image.Rectangle) (float64, bool) {
	if r.Empty() {
		return 0, false
	}
	m, _ := stats(g, r)
	return m, true
}

func stats(g *image.NRGBA, r image.Rectangle) (mean, std float64) {
	var v variance
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v.add(float64(at(g, x, y)))
		}
	}
	return v.mean, math.Sqrt(v.value())
}

// variance Welford 在线方差（总体方差）
type variance struct {
	n    int
	mean float64
	m2   float64
}

func (v *variance) add(x float64) {
	v.n++
	d := x - v.mean
	v.mean += d / float64(v.n)
	v.m2 += d * (x - v.mean)
}

func (v *variance) value() float64 {
	if v.n == 0 {
		return 0
	}
	return v.m2 / float64(v.n)
}
