package layout

import "github.com/ByLCY/gradeview/grading"

// Policy 是步骤的四种互斥分类，由 (是否正确, 模型是否一致) 唯一决定。
type Policy int

const (
	PolicyConfirmed Policy = iota // 正确且一致：对勾，不批注
	PolicyReview                  // 正确但不一致：紫色圈，展示第二模型的分析
	PolicyDisputed                // 错误且不一致：橙色圈，展示分析
	PolicyWrong                   // 错误且一致：红色圈，展示分析
)

// ColorRole 将分类映射到 Palette 中的颜色。
type ColorRole int

const (
	RoleMark ColorRole = iota
	RoleReview
	RoleDispute
)

// AnnotationSource 指明批注文本取自哪个字段。
type AnnotationSource int

const (
	SourceNone AnnotationSource = iota
	SourcePrimary
	SourceAlternate
)

type policySpec struct {
	name   string
	marker ElementKind
	color  ColorRole
	source AnnotationSource
}

var policies = [...]policySpec{
	PolicyConfirmed: {"confirmed", KindCheckmark, RoleMark, SourceNone},
	PolicyReview:    {"review", KindEllipse, RoleReview, SourceAlternate},
	PolicyDisputed:  {"disputed", KindEllipse, RoleDispute, SourcePrimary},
	PolicyWrong:     {"wrong", KindEllipse, RoleMark, SourcePrimary},
}

// Classify 是 (isCorrect, consistent) 的纯函数。
func Classify(isCorrect, consistent bool) Policy {
	switch {
	case isCorrect && consistent:
		return PolicyConfirmed
	case isCorrect:
		return PolicyReview
	case consistent:
		return PolicyWrong
	default:
		return PolicyDisputed
	}
}

// ClassifyStep 对答题步骤分类；缺省的 models_consistent 视为一致。
func ClassifyStep(s grading.AnswerStep) Policy {
	return Classify(s.Correct(), s.Consistent())
}

func (p Policy) String() string { return policies[p].name }

// Marker 返回该分类使用的标记形状。
func (p Policy) Marker() ElementKind { return policies[p].marker }

// Role 返回该分类的颜色角色。
func (p Policy) Role() ColorRole { return policies[p].color }

// Source 返回批注文本来源。
func (p Policy) Source() AnnotationSource { return policies[p].source }

// Annotates 表示该分类是否需要题号与批注块。
func (p Policy) Annotates() bool { return policies[p].source != SourceNone }

// Color 在调色板中取出该分类的颜色。
func (p Policy) Color(pal Palette) string {
	switch p.Role() {
	case RoleReview:
		return pal.Review
	case RoleDispute:
		return pal.Dispute
	default:
		return pal.Mark
	}
}

// AnnotationText 按来源取出步骤的批注文本，可能为空。
func (p Policy) AnnotationText(s grading.AnswerStep) string {
	switch p.Source() {
	case SourcePrimary:
		return s.Analysis
	case SourceAlternate:
		return s.AlternateAnalysis()
	default:
		return ""
	}
}
