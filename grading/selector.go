package grading

import "strings"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

// Direction 是翻页方向。
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// IsImageSource 根据 URL 后缀（忽略查询串与大小写）判断是否为图片。
func IsImageSource(url string) bool {
	if url == "" {
		return false
	}
	path, _, _ := strings.Cut(url, "?")
	path = strings.ToLower(path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsImage 表示该页能否交给布局引擎。
func (p Page) IsImage() bool { return IsImageSource(p.ImageURL) }

// ImagePageIndices 返回所有图片页的下标，保持原顺序。
func ImagePageIndices(pages []Page) []int {
	out := []int{}
	for i, p := range pages {
		if p.IsImage() {
			out = append(out, i)
		}
	}
	return out
}

// FindAdjacentImagePage 从 from 出发沿 dir 方向线性查找下一个图片页。
// 越界仍未找到时 ok 为 false。
func FindAdjacentImagePage(pages []Page, from int, dir Direction) (int, bool) {
	step := 1
	if dir < 0 {
		step = -1
	}
	for i := from + step; i >= 0 && i < len(pages); i += step {
		if pages[i].IsImage() {
			return i, true
		}
	}
	return -1, false
}
