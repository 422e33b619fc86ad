package httpapi

import (
	"net/http"

	"cxr-learning/internal/radiograph"
)

// radiographAdjustments 表单滑块，缺省为 1.0（不变）
func radiographAdjustments(r *http.Request) radiograph.Adjustments {
	adj := radiograph.DefaultAdjustments
	adj.Contrast = parseFloat(r.FormValue("contrast"), adj.Contrast)
	adj.Brightness = parseFloat(r.FormValue("brightness"), adj.Brightness)
	adj.Sharpness = parseFloat(r.FormValue("sharpness"), adj.Sharpness)
	return adj
}
