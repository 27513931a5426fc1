package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON 以缩进格式输出布局结果。
func WriteJSON(w io.Writer, res *Result) error {
	if res == nil {
		return fmt.Errorf("布局结果为空")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建调试文件失败: %w", err)
	}
	if err := WriteJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
