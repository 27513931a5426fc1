package layout

import (
	"math"

	"github.com/ByLCY/gradeview/grading"
)

// 手绘风格参数，仅影响渲染观感，不参与几何计算。
const (
	checkStrokeWidth   = 4
	ellipseStrokeWidth = 3
	markerRoughness    = 1.4
)

// checkPath 是单位尺寸下的对勾折线，乘以 CheckSize 后使用。
var checkPath = [11]Point{
	{0, 0}, {0.20, 0.30}, {0.45, 0.60}, {0.65, 0.80}, {0.90, 0.95},
	{1.10, 0.85}, {1.30, 0.70}, {1.60, 0.45}, {1.95, 0.05}, {2.40, -0.70},
	{3.20, -2.40},
}

// CheckSize 计算对勾尺寸：随答题框增大，但受图片宽度上下限约束。
func CheckSize(box grading.BoundingBox, imageWidth float64) float64 {
	w, h := box.Width(), box.Height()
	return 0.75 * math.Min(
		0.12*imageWidth,
		math.Max(0.2*(w+h), math.Max(0.6*math.Min(w, h), 0.04*imageWidth)),
	)
}

// EllipseScale 计算圈的放大系数，答题框越窄放大越多，取值在 [1, 2]。
func EllipseScale(boxWidth, imageWidth float64) float64 {
	limit := 0.7 * imageWidth
	if limit <= 0 {
		return 1
	}
	return 1 + math.Max(0, (limit-boxWidth)/limit)
}

// newCheckmark 以答题框中心为基准生成对勾，origin 为图片左上角。
func newCheckmark(box grading.BoundingBox, origin Point, imageWidth float64) Element {
	s := CheckSize(box, imageWidth)
	cx := origin.X + box.X1 + box.Width()/2
	cy := origin.Y + box.Y1 + box.Height()/2
	points := make([]Point, len(checkPath))
	for i, p := range checkPath {
		points[i] = Point{X: p.X * s, Y: p.Y * s}
	}
	return Element{
		Type:            KindCheckmark,
		X:               cx - s,
		Y:               cy - s,
		Width:           s * 3.2,
		Height:          s * 3.2,
		BackgroundColor: "transparent",
		StrokeWidth:     checkStrokeWidth,
		Roughness:       markerRoughness,
		Points:          points,
	}
}

// newEllipse 放大答题框后生成圈；原点随放大系数向左上偏移。
func newEllipse(box grading.BoundingBox, origin Point, imageWidth float64) Element {
	w, h := box.Width(), box.Height()
	k := EllipseScale(w, imageWidth)
	return Element{
		Type:            KindEllipse,
		X:               origin.X + box.X1 - w*k*0.2,
		Y:               origin.Y + box.Y1 - h*k*0.2,
		Width:           w * k,
		Height:          h * k,
		BackgroundColor: "transparent",
		StrokeWidth:     ellipseStrokeWidth,
		Roughness:       markerRoughness,
	}
}

// NewMarker 按分类生成标记元素，颜色取自调色板。
func NewMarker(p Policy, box grading.BoundingBox, origin Point, imageWidth float64, pal Palette) Element {
	var e Element
	if p.Marker() == KindCheckmark {
		e = newCheckmark(box, origin, imageWidth)
	} else {
		e = newEllipse(box, origin, imageWidth)
	}
	e.StrokeColor = p.Color(pal)
	e.Policy = p.String()
	return e
}
