package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Template 是预先解析好的 ${name} 文本模板，例如 "Question: ${number}"。
type Template struct {
	text  string
	names []string
}

// Parse 解析模板；占位符名称必须非空且只包含字母、数字、下划线或点号。
func Parse(text string) (Template, error) {
	t := Template{text: text}
	for _, m := range exprPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if !validName(name) {
			return Template{}, fmt.Errorf("模板占位符不合法: %q", m[0])
		}
		t.names = append(t.names, name)
	}
	return t, nil
}

// MustParse 用于包级默认模板，解析失败时 panic。
func MustParse(text string) Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Names 返回模板中出现的占位符名称，按出现顺序。
func (t Template) Names() []string { return t.names }

func (t Template) String() string { return t.text }

// Require 检查模板只引用 allowed 中的名称。
func (t Template) Require(allowed ...string) error {
	for _, n := range t.names {
		ok := false
		for _, a := range allowed {
			if n == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("模板 %q 引用了未知变量 %q", t.text, n)
		}
	}
	return nil
}

// Render 用 vars 替换占位符，缺失的变量保留原样。
func (t Template) Render(vars map[string]any) string {
	return Interpolate(t.text, vars)
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则返回原占位符。
func Interpolate(text string, data map[string]any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		if val, ok := resolvePath(data, path); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

func resolvePath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
