package layout

import (
	"encoding/json"
	"fmt"
)

// 该文件定义布局结果与可视元素，供布局计算、渲染与调试 JSON 共用。

// Result 保存一页的布局结果。Elements 的顺序即绘制顺序，图片（若有）总在第 0 位。
type Result struct {
	Image    ImageInfo  `json:"image"`
	Config   TextConfig `json:"config"`
	Elements []Element  `json:"elements"`
	// Cursor 是批注栏最终的纵向游标位置，可用于估算画布高度。
	Cursor float64 `json:"cursor"`
}

// ImageInfo 描述页面图片在画布中的位置与像素尺寸。
type ImageInfo struct {
	Source string  `json:"source"`
	FileID string  `json:"fileId,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementKind 区分可视元素的种类。
type ElementKind string

const (
	KindImage     ElementKind = "image"
	KindCheckmark ElementKind = "checkmark"
	KindEllipse   ElementKind = "ellipse"
	KindText      ElementKind = "text"
	KindRectangle ElementKind = "rectangle"
)

// Element 是布局引擎的输出单元：一个已定位的基本图形。
// 坐标为画布像素坐标；Points 相对 (X, Y)。
type Element struct {
	ID              string      `json:"id"`
	Type            ElementKind `json:"type"`
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	StrokeColor     string      `json:"strokeColor"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	StrokeWidth     float64     `json:"strokeWidth,omitempty"`
	Roughness       float64     `json:"roughness"`
	Seed            uint64      `json:"seed,omitempty"`

	Points   []Point `json:"points,omitempty"`   // checkmark 折线
	Text     string  `json:"text,omitempty"`     // text 元素内容
	FontSize float64 `json:"fontSize,omitempty"` // text 元素字号
	Label    *Label  `json:"label,omitempty"`    // rectangle 内的批注文本
	FileID   string  `json:"fileId,omitempty"`   // image 元素引用的图片
	Source   string  `json:"source,omitempty"`   // image 元素的原始 URL
	Question string  `json:"question,omitempty"` // 产生该元素的题号
	Step     string  `json:"step,omitempty"`     // 产生该元素的步骤号
	Policy   string  `json:"policy,omitempty"`   // 步骤分类结果
}

// Label 是矩形批注块内的文本，Lines 为折行后的结果。
type Label struct {
	Text        string   `json:"text"`
	StrokeColor string   `json:"strokeColor"`
	FontSize    float64  `json:"fontSize"`
	Lines       []string `json:"lines"`
}

// Point 以 [x, y] 形式序列化。
type Point struct {
	X float64
	Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("点坐标格式错误: %w", err)
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Markers 返回所有标记元素（对勾与圈）。
func (r *Result) Markers() []Element {
	return r.filter(func(e Element) bool { return e.Type == KindCheckmark || e.Type == KindEllipse })
}

// Annotations 返回批注栏中的元素（题号与批注块）。
func (r *Result) Annotations() []Element {
	return r.filter(func(e Element) bool { return e.Type == KindText || e.Type == KindRectangle })
}

func (r *Result) filter(keep func(Element) bool) []Element {
	if r == nil {
		return nil
	}
	var out []Element
	for _, e := range r.Elements {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
