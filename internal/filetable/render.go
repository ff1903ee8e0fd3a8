package filetable

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// AutoDetect asks the renderer to guess the lexer from filename and content.
const AutoDetect = "autodetect"

// Source is one file of a paste as submitted.
type Source struct {
	Name    string
	Lexer   string
	Content string
}

// Renderer turns sources into highlighted tables.
type Renderer struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// NewRenderer creates a renderer for the named chroma style. Unknown styles
// fall back to chroma's default.
func NewRenderer(style string, tabWidth int) *Renderer {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	return &Renderer{
		style: styles.Get(style),
		formatter: html.New(
			html.WithClasses(true),
			html.PreventSurroundingPre(true),
			html.TabWidth(tabWidth),
		),
	}
}

// KnownStyle reports whether chroma has a style with this name.
func KnownStyle(name string) bool {
	for _, s := range styles.Names() {
		if s == name {
			return true
		}
	}
	return false
}

// KnownLexer reports whether name is empty, AutoDetect or a chroma lexer.
func KnownLexer(name string) bool {
	if name == "" || name == AutoDetect {
		return true
	}
	return lexers.Get(name) != nil
}

// ResolveLexer picks the lexer for a file: the named one if it exists,
// otherwise a match on filename, then on content, then plain text.
func ResolveLexer(name, filename, content string) chroma.Lexer {
	if name != "" && name != AutoDetect {
		if l := lexers.Get(name); l != nil {
			return l
		}
	}
	if filename != "" {
		if l := lexers.Match(filename); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(content); l != nil {
		return l
	}
	if l := lexers.Get("plaintext"); l != nil {
		return l
	}
	return lexers.Fallback
}

// Build renders every source into its own table, in order.
func (r *Renderer) Build(sources []Source) (*Document, error) {
	tables := make([]*Table, 0, len(sources))
	for i, src := range sources {
		t, err := r.Table(src)
		if err != nil {
			return nil, fmt.Errorf("rendering file %d (%s): %w", i+1, src.Name, err)
		}
		tables = append(tables, t)
	}
	return NewDocument(tables), nil
}

// Table renders one source. The row count always equals len(Lines(content)).
func (r *Renderer) Table(src Source) (*Table, error) {
	lines := Lines(src.Content)
	lexer := chroma.Coalesce(ResolveLexer(src.Lexer, src.Name, src.Content))

	text := strings.Join(lines, "\n") + "\n"
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return nil, fmt.Errorf("tokenising: %w", err)
	}
	tokenLines := splitTokens(it.Tokens())

	rows := make([]Row, len(lines))
	for i := range lines {
		var toks []chroma.Token
		if i < len(tokenLines) {
			toks = tokenLines[i]
		} else {
			toks = []chroma.Token{{Type: chroma.Text, Value: lines[i]}}
		}
		var buf bytes.Buffer
		if err := r.formatter.Format(&buf, r.style, chroma.Literator(toks...)); err != nil {
			return nil, fmt.Errorf("formatting line %d: %w", i+1, err)
		}
		rows[i] = Row{Index: i, Code: template.HTML(buf.String())}
	}

	return &Table{Name: src.Name, Lexer: lexer.Config().Name, Rows: rows}, nil
}

// WriteCSS writes the stylesheet for the renderer's classes.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return r.formatter.WriteCSS(w, r.style)
}

// Lines splits content into display lines. CRLF is treated as LF and a
// trailing newline does not start another line.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitTokens groups tokens by line, dropping the newlines themselves.
func splitTokens(tokens []chroma.Token) [][]chroma.Token {
	var (
		out  [][]chroma.Token
		line []chroma.Token
	)
	for _, tok := range tokens {
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, line)
				line = nil
			}
			if part != "" {
				line = append(line, chroma.Token{Type: tok.Type, Value: part})
			}
		}
	}
	if len(line) > 0 {
		out = append(out, line)
	}
	return out
}
