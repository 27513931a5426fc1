package layout

import (
	"strings"
	"unicode/utf8"
)

// TokenClass 标记 token 的词法类别。
type TokenClass int

const (
	TokenCJK   TokenClass = iota // 单个 CJK 字符
	TokenWord                    // 连续的拉丁字母与数字
	TokenSpace                   // 连续空白
	TokenOther                   // 其他单个字符
)

// Token 是折行的最小单位。
type Token struct {
	Text  string
	Class TokenClass
}

// breakAttached 中的 token 不允许出现在行首，会被并入上一行。
const breakAttached = `，。、"''"：《》＜＞<>（）()、；;：:，,.!?！？”“` + `+-*/=^%`

// Tokenize 将文本切分为 token，每个字符恰好属于一个 token，顺序不变。
func Tokenize(text string) []Token {
	var tokens []Token
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isCJK(r):
			tokens = append(tokens, Token{Text: text[i : i+size], Class: TokenCJK})
			i += size
		case isWordRune(r):
			j := scan(text, i, isWordRune)
			tokens = append(tokens, Token{Text: text[i:j], Class: TokenWord})
			i = j
		case isSpace(r):
			j := scan(text, i, func(r rune) bool { return isSpace(r) && !isCJK(r) })
			tokens = append(tokens, Token{Text: text[i:j], Class: TokenSpace})
			i = j
		default:
			tokens = append(tokens, Token{Text: text[i : i+size], Class: TokenOther})
			i += size
		}
	}
	return tokens
}

func scan(text string, from int, keep func(rune) bool) int {
	for from < len(text) {
		r, size := utf8.DecodeRuneInString(text[from:])
		if !keep(r) {
			break
		}
		from += size
	}
	return from
}

// IsBlank 判断 token 是否全部由空白组成（全角空格也算）。
func (t Token) IsBlank() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if !isSpace(r) {
			return false
		}
	}
	return true
}

// attachesToPrevious 判断 token 是否属于禁止行首的标点或运算符。
func (t Token) attachesToPrevious() bool {
	return strings.ContainsAny(t.Text, breakAttached)
}

// WrapText 按贪心策略将文本折成不超过 maxWidth 的若干行。
// 行首空白会被丢弃，行首标点并入上一行（因此该行可能略超宽）；单个超宽 token 独占一行。
func WrapText(text string, maxWidth, fontSize float64, m Metrics) []string {
	if m == nil {
		m = HeuristicMetrics{}
	}
	var (
		lines []string
		line  strings.Builder
		width float64
	)
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		width = 0
	}
	for _, tok := range Tokenize(text) {
		w := TokenWidth(m, tok.Text, fontSize)
		empty := line.Len() == 0
		switch {
		case empty && tok.IsBlank():
			continue
		case empty && len(lines) > 0 && tok.attachesToPrevious():
			lines[len(lines)-1] += tok.Text
			continue
		case !empty && width+w > maxWidth:
			// 换行后 token 位于行首，同样适用上面两条规则。
			flush()
			if tok.IsBlank() {
				continue
			}
			if tok.attachesToPrevious() {
				lines[len(lines)-1] += tok.Text
				continue
			}
		}
		line.WriteString(tok.Text)
		width += w
	}
	if line.Len() > 0 {
		flush()
	}
	return lines
}
