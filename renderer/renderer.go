package renderer

import (
	"image"

	"github.com/ByLCY/gradeview/layout"
)

// Renderer 将布局结果与页面图片绘制为最终文件，例如 PDF、SVG 或 PNG。
// Render 返回生成的二进制数据以及可能的错误；img 为空时不绘制图片元素。
type Renderer interface {
	Render(result *layout.Result, img image.Image) ([]byte, error)
}

// Format 标识输出格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats 列出支持的输出格式。
var Formats = []Format{FormatPDF, FormatSVG, FormatPNG}

// Extension 返回格式对应的文件扩展名（含点号）。
func (f Format) Extension() string { return "." + string(f) }

// Valid 判断格式是否受支持。
func (f Format) Valid() bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}
