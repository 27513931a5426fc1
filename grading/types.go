package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// 该文件定义批改结果的输入模型，字段与自动批改 JSON 保持一致。

// Page 表示一页可批改内容：一张作业图片以及其上的题目。
type Page struct {
	ImageURL  string     `json:"image_url"`
	Questions []Question `json:"questions_info"`
}

// Question 记录题号与作答步骤。题号允许在 JSON 中为字符串或数字。
type Question struct {
	Number Label        `json:"question_number"`
	Steps  []AnswerStep `json:"answer_steps"`
}

// AnswerStep 是一道题中的一个被批改的作答步骤。
type AnswerStep struct {
	StepID           Label       `json:"step_id"`
	Location         BoundingBox `json:"answer_location"`
	IsCorrect        Truthy      `json:"is_correct"`
	ModelsConsistent Consistency `json:"models_consistent"`
	Analysis         string      `json:"analysis"`
	Alternate        *Alternate  `json:"qwen_result,omitempty"`
}

// Alternate 保存第二个批改模型的结果，只有 analysis 字段会被使用。
type Alternate struct {
	Analysis string `json:"analysis"`
}

// AlternateAnalysis 返回第二模型的分析文本，缺失时为空串。
func (s AnswerStep) AlternateAnalysis() string {
	if s.Alternate == nil {
		return ""
	}
	return s.Alternate.Analysis
}

// Correct 与 Consistent 供布局阶段读取。
func (s AnswerStep) Correct() bool    { return bool(s.IsCorrect) }
func (s AnswerStep) Consistent() bool { return s.ModelsConsistent.Value() }

// BoundingBox 是图片像素坐标下的 (x1,y1,x2,y2)。
// 只有恰好 4 个数值分量时 Valid 才为 true；否则该步骤整体跳过。
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
	Valid          bool
}

// Width 与 Height 允许为负（坐标倒置时），布局阶段按原值参与计算。
func (b BoundingBox) Width() float64  { return b.X2 - b.X1 }
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Box 构造一个合法的框，主要用于测试与程序化输入。
func Box(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2, Valid: true}
}

// UnmarshalJSON 接受任意 JSON；格式不符时不报错，仅标记为无效。
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	*b = BoundingBox{}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) != 4 {
		return nil
	}
	var vals [4]float64
	for i, r := range raw {
		var f float64
		if err := json.Unmarshal(r, &f); err != nil {
			return nil
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		vals[i] = f
	}
	*b = BoundingBox{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3], Valid: true}
	return nil
}

// MarshalJSON 输出原始四元组；无效框输出 null。
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte("null"), nil
	}
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// Consistency 记录多个批改模型是否一致。
// 只有字面量 false 表示不一致，字段缺失或其他任何值都视为一致。
type Consistency struct {
	set          bool
	inconsistent bool
}

// Consistent 与 Inconsistent 构造显式取值。
func Consistent() Consistency   { return Consistency{set: true} }
func Inconsistent() Consistency { return Consistency{set: true, inconsistent: true} }

// Value 返回是否一致，未设置时默认 true。
func (c Consistency) Value() bool { return !c.inconsistent }

// IsSet 表示 JSON 中是否出现过该字段。
func (c Consistency) IsSet() bool { return c.set }

func (c *Consistency) UnmarshalJSON(data []byte) error {
	c.set = true
	c.inconsistent = bytes.Equal(bytes.TrimSpace(data), []byte("false"))
	return nil
}

func (c Consistency) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// Truthy 按宽松真值解码布尔字段：数字非零、字符串非空、对象与数组均为真。
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = false
	case bool:
		*t = Truthy(x)
	case float64:
		*t = Truthy(x != 0 && !math.IsNaN(x))
	case string:
		*t = Truthy(x != "")
	default:
		*t = true
	}
	return nil
}

// Label 是题号或步骤号，JSON 中可为字符串或数字。
// 对象与数组不会让整个文件解析失败，按紧凑 JSON 文本保留。
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = ""
	case string:
		*l = Label(x)
	case json.Number:
		*l = Label(x.String())
	case bool:
		*l = Label(strconv.FormatBool(x))
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*l = Label(buf.String())
	}
	return nil
}

func (l Label) String() string { return string(l) }

// ReadPages 从 JSON 数组读取全部页面。
func ReadPages(r io.Reader) ([]Page, error) {
	var pages []Page
	dec := json.NewDecoder(r)
	if err := dec.Decode(&pages); err != nil {
		return nil, fmt.Errorf("解析批改结果 JSON 失败: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("批改结果为空")
	}
	return pages, nil
}
