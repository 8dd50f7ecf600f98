package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrTemplateSyntax 表示字段文本中的花括号不成对或占位符为空。
var ErrTemplateSyntax = errors.New("字段模板语法错误")

var (
	templateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Escape", Pattern: `\{\{|\}\}`},
		{Name: "Placeholder", Pattern: `\{[^{}]+\}`},
		{Name: "Text", Pattern: `[^{}]+`},
	})

	templateParser = participle.MustBuild[templateAST](
		participle.Lexer(templateLexer),
	)
)

type templateAST struct {
	Parts []*templatePart `parser:"@@*"`
}

type templatePart struct {
	Escape      *string `parser:"  @Escape"`
	Placeholder *string `parser:"| @Placeholder"`
	Text        *string `parser:"| @Text"`
}

// Segment 是模板中的一段：字面文本或一个列占位符。
type Segment struct {
	Literal string
	Column  string // 非空时表示 {Column} 占位符
}

// Template 是解析后的字段文本，例如 "Awarded to {Name} for {Course}"。
// 解析一次，逐行替换。
type Template struct {
	source   string
	segments []Segment
}

// Parse 将字段文本解析为字面量与占位符序列。
// "{{" 与 "}}" 分别表示字面的 "{" 与 "}"。
func Parse(text string) (*Template, error) {
	t := &Template{source: text}
	if text == "" {
		return t, nil
	}
	ast, err := templateParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrTemplateSyntax, text, err)
	}
	var literal strings.Builder
	flush := func() {
		if literal.Len() == 0 {
			return
		}
		t.segments = append(t.segments, Segment{Literal: literal.String()})
		literal.Reset()
	}
	for _, part := range ast.Parts {
		switch {
		case part.Escape != nil:
			literal.WriteString((*part.Escape)[:1])
		case part.Text != nil:
			literal.WriteString(*part.Text)
		case part.Placeholder != nil:
			flush()
			name := strings.TrimSuffix(strings.TrimPrefix(*part.Placeholder, "{"), "}")
			t.segments = append(t.segments, Segment{Column: name})
		}
	}
	flush()
	return t, nil
}

// MustParse 与 Parse 相同，但在出错时 panic，仅用于测试与常量模板。
func MustParse(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Source 返回原始字段文本。
func (t *Template) Source() string { return t.source }

// Segments 返回解析结果的副本。
func (t *Template) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Columns 按出现顺序返回模板引用的列名（去重）。
func (t *Template) Columns() []string {
	var cols []string
	seen := map[string]bool{}
	for _, seg := range t.segments {
		if seg.Column == "" || seen[seg.Column] {
			continue
		}
		seen[seg.Column] = true
		cols = append(cols, seg.Column)
	}
	return cols
}

// Execute 用 row 中的值替换全部占位符。
// 引用的列不存在时返回 *MissingColumnError，不做静默跳过。
func (t *Template) Execute(row Row) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.Column == "" {
			b.WriteString(seg.Literal)
			continue
		}
		val, ok := row[seg.Column]
		if !ok {
			return "", &MissingColumnError{Column: seg.Column, Template: t.source}
		}
		b.WriteString(Stringify(val))
	}
	return b.String(), nil
}

// MissingColumnError 表示模板引用了当前数据行中不存在的列。
type MissingColumnError struct {
	Column   string
	Template string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("数据行缺少列 %q（字段文本 %q）", e.Column, e.Template)
}
