package fonts

import (
	"fmt"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinName 是内置字体的名称，对应 Go Regular。
const BuiltinName = "builtin:go-regular"

var supported = []string{"ttf", "otf", "woff", "woff2"}

// Default 返回内置字体数据。内置字体不含 CJK 字形，中文批注需另行指定字体文件。
func Default() []byte {
	return goregular.TTF
}

// Load 返回字体数据，src 可以是 BuiltinName（或空串）或字体文件路径。
func Load(src string) ([]byte, error) {
	if src == "" || src == BuiltinName || src == "builtin:" {
		return Default(), nil
	}
	path := strings.TrimPrefix(src, "file:")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	if err := Check(data); err != nil {
		return nil, fmt.Errorf("字体 %s: %w", src, err)
	}
	return data, nil
}

// Check 通过文件头判断数据是否为受支持的字体格式。
func Check(data []byte) error {
	for _, ext := range supported {
		if filetype.Is(data, ext) {
			return nil
		}
	}
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return fmt.Errorf("无法识别的字体格式")
	}
	return fmt.Errorf("不支持的字体格式 %s", kind.Extension)
}
