package source

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const defaultSVGSize = 1024

// maxRasterDim 限制 SVG 栅格化后的边长，避免超大 viewBox 占满内存。
const maxRasterDim = 8192

// RasterizeSVG 按 viewBox 尺寸将 SVG 绘制到白底 RGBA 图像上。
// viewBox 缺失时使用 fallback（<=0 时为 1024）作为边长。
func RasterizeSVG(data []byte, fallback int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析 SVG 失败: %w", err)
	}
	if fallback <= 0 {
		fallback = defaultSVGSize
	}
	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 {
		w = fallback
	}
	if h <= 0 {
		h = fallback
	}
	if w > maxRasterDim || h > maxRasterDim {
		s := math.Min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}
