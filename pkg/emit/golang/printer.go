package golang

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strings"
)

// ErrGeneratedSyntax is returned when generated source does not parse, which
// usually means a binding expression is not valid Go.
var ErrGeneratedSyntax = errors.New("generated code is not valid Go")

// printer accumulates Go source with indentation tracking.
type printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer {
	return &printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// Bytes returns the gofmt'ed output.
func (p *printer) Bytes() ([]byte, error) {
	src := p.output.Bytes()
	formatted, err := format.Source(src)
	if err != nil {
		return src, fmt.Errorf("%w: %w", ErrGeneratedSyntax, err)
	}
	return formatted, nil
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writef(format string, args ...any) {
	p.write(fmt.Sprintf(format, args...))
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

// line writes one formatted line.
func (p *printer) line(format string, args ...any) {
	p.writef(format, args...)
	p.writeln()
}

func (p *printer) writeIndent() {
	p.output.WriteString(strings.Repeat("\t", p.depth))
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// open writes a line ending in '{' and indents.
func (p *printer) open(format string, args ...any) {
	p.line(format+" {", args...)
	p.indent()
}

// close dedents and writes the closing brace plus an optional suffix.
func (p *printer) close(suffix string) {
	p.dedent()
	p.line("}%s", suffix)
}
