package profile

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	profileLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\.\d+|\d+)(?:px|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(profileLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is the root AST node of a profile file. A file may declare several profiles.
type File struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Profiles []*Decl        `parser:"Newline* ( @@ Newline* )*"`
}

// Decl declares one named profile, optionally extending another.
type Decl struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"'profile' @Ident"`
	Base     string         `parser:"( 'extends' @Ident )?"`
	Settings []*Setting     `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Setting uses colon syntax (key: value).
type Setting struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"@@"`
}

// Value is a string, number (optionally px or %), hex color, or bare identifier.
type Value struct {
	Pos    lexer.Position `parser:"" json:"-"`
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

// Raw returns the value as written, with strings unquoted.
func (v *Value) Raw() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses profile content from an io.Reader. filename is only used in error positions.
func Parse(filename string, r io.Reader) (*File, error) {
	return fileParser.Parse(filename, r)
}

// ParseString parses profile content from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}

// Lookup returns the declaration with the given name.
func (f *File) Lookup(name string) (*Decl, bool) {
	if f == nil {
		return nil, false
	}
	for _, d := range f.Profiles {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Names lists declared profile names in file order.
func (f *File) Names() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Profiles))
	for _, d := range f.Profiles {
		names = append(names, d.Name)
	}
	return names
}
