package profile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/gradeview/binding"
	"github.com/ByLCY/gradeview/layout"
)

// BuiltinName 是内置配置的名称，未声明同名配置时可直接 extends。
const BuiltinName = "default"

// Error 附带出错位置。
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorf(pos lexer.Position, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type valueKind int

const (
	kindRatio valueKind = iota
	kindPixels
	kindTemplate
	kindColor
)

type key struct {
	kind  valueKind
	vars  []string // kindTemplate 允许的变量
	apply func(p *layout.Profile, num float64, str string)
}

var keys = map[string]key{
	"question-font":    {kind: kindRatio, apply: func(p *layout.Profile, v float64, _ string) { p.QuestionFontRatio = v }},
	"analysis-font":    {kind: kindRatio, apply: func(p *layout.Profile, v float64, _ string) { p.AnalysisFontRatio = v }},
	"analysis-width":   {kind: kindRatio, apply: func(p *layout.Profile, v float64, _ string) { p.AnalysisWidthRatio = v }},
	"line-height":      {kind: kindRatio, apply: func(p *layout.Profile, v float64, _ string) { p.LineHeightRatio = v }},
	"question-spacing": {kind: kindRatio, apply: func(p *layout.Profile, v float64, _ string) { p.QuestionSpacingRatio = v }},
	"analysis-spacing": {kind: kindRatio, apply: func(p *layout.Profile, v float64, _ string) { p.AnalysisSpacingRatio = v }},
	"column-gap":       {kind: kindPixels, apply: func(p *layout.Profile, v float64, _ string) { p.ColumnGap = v }},
	"cursor-offset":    {kind: kindPixels, apply: func(p *layout.Profile, v float64, _ string) { p.CursorOffset = v }},
	"title":            {kind: kindTemplate, vars: []string{"number"}, apply: func(p *layout.Profile, _ float64, s string) { p.TitleTemplate = s }},
	"step-prefix":      {kind: kindTemplate, vars: []string{"step"}, apply: func(p *layout.Profile, _ float64, s string) { p.StepPrefix = s }},
	"color-mark":       {kind: kindColor, apply: func(p *layout.Profile, _ float64, s string) { p.Palette.Mark = s }},
	"color-review":     {kind: kindColor, apply: func(p *layout.Profile, _ float64, s string) { p.Palette.Review = s }},
	"color-dispute":    {kind: kindColor, apply: func(p *layout.Profile, _ float64, s string) { p.Palette.Dispute = s }},
	"color-title":      {kind: kindColor, apply: func(p *layout.Profile, _ float64, s string) { p.Palette.Title = s }},
	"color-block":      {kind: kindColor, apply: func(p *layout.Profile, _ float64, s string) { p.Palette.Block = s }},
}

// Compile 解析 extends 链并生成名为 name 的 layout.Profile。
func Compile(f *File, name string) (layout.Profile, error) {
	return compile(f, name, map[string]bool{})
}

func compile(f *File, name string, visiting map[string]bool) (layout.Profile, error) {
	decl, ok := f.Lookup(name)
	if !ok {
		if name == BuiltinName {
			return layout.DefaultProfile(), nil
		}
		return layout.Profile{}, fmt.Errorf("未找到配置 %q（已声明: %s）", name, strings.Join(f.Names(), ", "))
	}
	if visiting[name] {
		return layout.Profile{}, errorf(decl.Pos, "配置 %q 存在循环继承", name)
	}
	visiting[name] = true

	base := BuiltinName
	if decl.Base != "" {
		base = decl.Base
	}
	var p layout.Profile
	if base == name && name == BuiltinName {
		p = layout.DefaultProfile()
	} else {
		var err error
		if p, err = compile(f, base, visiting); err != nil {
			return layout.Profile{}, err
		}
	}
	p.Name = name

	seen := map[string]lexer.Position{}
	for _, s := range decl.Settings {
		if prev, dup := seen[s.Key]; dup {
			return layout.Profile{}, errorf(s.Pos, "配置项 %q 重复（首次出现于 %s）", s.Key, prev)
		}
		seen[s.Key] = s.Pos
		if err := applySetting(&p, s); err != nil {
			return layout.Profile{}, err
		}
	}
	return p, nil
}

func applySetting(p *layout.Profile, s *Setting) error {
	k, ok := keys[s.Key]
	if !ok {
		return errorf(s.Pos, "未知配置项 %q", s.Key)
	}
	raw := s.Value.Raw()
	switch k.kind {
	case kindRatio, kindPixels:
		v, err := parseNumber(s.Value, k.kind)
		if err != nil {
			return errorf(s.Value.Pos, "%s: %v", s.Key, err)
		}
		k.apply(p, v, "")
	case kindTemplate:
		if s.Value.String == nil {
			return errorf(s.Value.Pos, "%s 需要字符串，得到 %q", s.Key, raw)
		}
		tpl, err := binding.Parse(raw)
		if err == nil {
			err = tpl.Require(k.vars...)
		}
		if err != nil {
			return errorf(s.Value.Pos, "%s: %v", s.Key, err)
		}
		k.apply(p, 0, raw)
	case kindColor:
		if s.Value.Number != nil {
			return errorf(s.Value.Pos, "%s 需要颜色，得到 %q", s.Key, raw)
		}
		if _, err := layout.ParseColor(raw); err != nil {
			return errorf(s.Value.Pos, "%s: %v", s.Key, err)
		}
		k.apply(p, 0, raw)
	}
	return nil
}

// parseNumber 接受纯数字、百分比（仅比例）和 px（仅像素）。
func parseNumber(v *Value, kind valueKind) (float64, error) {
	if v.Number == nil {
		return 0, fmt.Errorf("需要数字，得到 %q", v.Raw())
	}
	text := *v.Number
	scale := 1.0
	switch {
	case strings.HasSuffix(text, "%"):
		if kind != kindRatio {
			return 0, fmt.Errorf("像素值不支持百分比: %s", text)
		}
		text, scale = strings.TrimSuffix(text, "%"), 0.01
	case strings.HasSuffix(text, "px"):
		if kind != kindPixels {
			return 0, fmt.Errorf("比例值不支持 px: %s", text)
		}
		text = strings.TrimSuffix(text, "px")
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	n *= scale
	if kind == kindRatio && n <= 0 {
		return 0, fmt.Errorf("比例必须大于 0: %s", *v.Number)
	}
	if kind == kindPixels && n < 0 {
		return 0, fmt.Errorf("像素值不能为负: %s", *v.Number)
	}
	return n, nil
}

// Load 读取配置文件并编译指定名称的配置。
func Load(path, name string) (layout.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return layout.Profile{}, fmt.Errorf("读取版式配置失败: %w", err)
	}
	defer f.Close()
	ast, err := Parse(path, f)
	if err != nil {
		return layout.Profile{}, fmt.Errorf("解析版式配置失败: %w", err)
	}
	return Compile(ast, name)
}
