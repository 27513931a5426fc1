package layout

import "unicode"

// Metrics 给出单个字符在指定字号下的像素宽度。
// 布局阶段默认使用 HeuristicMetrics；需要精确字形宽度的调用方（例如 canvas 渲染器）可自行实现。
type Metrics interface {
	CharWidth(r rune, fontSize float64) float64
}

// MetricsFunc 允许用普通函数实现 Metrics。
type MetricsFunc func(r rune, fontSize float64) float64

func (f MetricsFunc) CharWidth(r rune, fontSize float64) float64 { return f(r, fontSize) }

// HeuristicMetrics 按字符类别估算宽度，比例与既有输出保持一致。
type HeuristicMetrics struct{}

// CharWidth 依次匹配：空白、大写拉丁、小写拉丁、数字、CJK，其余按半角处理。
func (HeuristicMetrics) CharWidth(r rune, fontSize float64) float64 {
	switch {
	case isSpace(r):
		return 0.4 * fontSize
	case r >= 'A' && r <= 'Z':
		return 0.7 * fontSize
	case r >= 'a' && r <= 'z':
		return 0.5 * fontSize
	case r >= '0' && r <= '9':
		return 0.6 * fontSize
	case isCJK(r):
		return fontSize
	case r > 0xffff:
		// 按 UTF-16 代码单元计宽，BMP 之外的字符占两个半角。
		return fontSize
	default:
		return 0.5 * fontSize
	}
}

// TokenWidth 累加 token 中每个字符的宽度。
func TokenWidth(m Metrics, token string, fontSize float64) float64 {
	w := 0.0
	for _, r := range token {
		w += m.CharWidth(r, fontSize)
	}
	return w
}

// isCJK 覆盖 CJK 统一汉字基本区、CJK 符号与标点、半角及全角形式。
func isCJK(r rune) bool {
	return (r >= 0x4e00 && r <= 0x9fa5) ||
		(r >= 0x3000 && r <= 0x303f) ||
		(r >= 0xff00 && r <= 0xffef)
}

// isSpace 与常见正则引擎的 \s 一致：包含 U+FEFF，不包含 U+0085。
func isSpace(r rune) bool {
	if r == 0xfeff {
		return true
	}
	return r != 0x85 && unicode.IsSpace(r)
}

func isWordRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
