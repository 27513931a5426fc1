package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Color 为 8 位 RGBA 颜色，A 为 0 表示完全透明。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	A int `json:"a"`
}

var namedColors = map[string]Color{
	"transparent": {},
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"purple":      {128, 0, 128, 255},
	"orange":      {255, 165, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
}

// ParseColor 解析颜色名称或 #rgb、#rrggbb、#rrggbbaa 形式的十六进制值。
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(v, "#")
	if hex == v {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: int(n >> 24 & 0xff), G: int(n >> 16 & 0xff), B: int(n >> 8 & 0xff), A: int(n & 0xff)}, nil
}

// Validate 检查调色板中的所有颜色都可解析。
func (p Palette) Validate() error {
	for role, v := range map[string]string{
		"mark": p.Mark, "review": p.Review, "dispute": p.Dispute, "title": p.Title, "block": p.Block,
	} {
		if _, err := ParseColor(v); err != nil {
			return fmt.Errorf("调色板 %s: %w", role, err)
		}
	}
	return nil
}
