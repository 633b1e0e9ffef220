package namelist

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty"
)

type parser struct {
	src []rune
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() rune { return p.src[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(string(p.src[:min(p.pos, len(p.src))]), "\n")
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

func (p *parser) skipLine() {
	for !p.eof() && p.peek() != '\n' {
		p.pos++
	}
}

// skipBlank skips whitespace and comments.
func (p *parser) skipBlank() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == '!':
			p.skipLine()
		case unicode.IsSpace(c):
			p.pos++
		default:
			return
		}
	}
}

// skipSeparators skips blanks and value separators.
func (p *parser) skipSeparators() {
	for {
		p.skipBlank()
		if p.eof() || p.peek() != ',' {
			return
		}
		p.pos++
	}
}

func isIdent(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '%'
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && isIdent(p.peek()) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// groupEnd consumes a group terminator if one is next.
func (p *parser) groupEnd() bool {
	if p.eof() {
		return false
	}
	switch p.peek() {
	case '/':
		p.pos++
		return true
	case '&', '$':
		save := p.pos
		p.pos++
		if strings.EqualFold(p.ident(), "end") {
			return true
		}
		p.pos = save
	}
	return false
}

type entry struct {
	index  int
	values []cty.Value
}

func (p *parser) group() (map[string]cty.Value, error) {
	entries := make(map[string][]entry)
	for {
		p.skipSeparators()
		if p.eof() {
			return nil, p.errorf("unterminated group")
		}
		if p.groupEnd() {
			break
		}
		key := strings.ToLower(p.ident())
		if key == "" {
			return nil, p.errorf("unexpected %q", p.peek())
		}
		index := 0
		if !p.eof() && p.peek() == '(' {
			end := strings.IndexRune(string(p.src[p.pos:]), ')')
			if end < 0 {
				return nil, p.errorf("unterminated index of %s", key)
			}
			i, err := strconv.Atoi(strings.TrimSpace(string(p.src[p.pos+1 : p.pos+end])))
			if err != nil || i < 1 {
				return nil, p.errorf("invalid index of %s", key)
			}
			index = i
			p.pos += end + 1
		}
		p.skipBlank()
		if p.eof() || p.peek() != '=' {
			return nil, p.errorf("expected '=' after %s", key)
		}
		p.pos++
		values, err := p.values()
		if err != nil {
			return nil, err
		}
		entries[key] = append(entries[key], entry{index: index, values: values})
	}
	out := make(map[string]cty.Value, len(entries))
	for key, es := range entries {
		out[key] = assemble(es)
	}
	return out, nil
}

// values reads the values assigned to one key.
func (p *parser) values() ([]cty.Value, error) {
	var out []cty.Value
	for {
		p.skipSeparators()
		if p.eof() {
			return nil, p.errorf("unterminated group")
		}
		c := p.peek()
		if c == '/' || c == '&' || c == '$' {
			return out, nil
		}
		if c == '\'' || c == '"' {
			s, err := p.quoted()
			if err != nil {
				return nil, err
			}
			out = append(out, cty.StringVal(s))
			continue
		}
		start := p.pos
		tok := p.bare()
		if p.startsKey() {
			p.pos = start
			return out, nil
		}
		vals, err := p.token(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
}

// startsKey reports whether the bare token just read is followed by '='.
func (p *parser) startsKey() bool {
	save := p.pos
	defer func() { p.pos = save }()
	if !p.eof() && p.peek() == '(' {
		end := strings.IndexRune(string(p.src[p.pos:]), ')')
		if end < 0 {
			return false
		}
		p.pos += end + 1
	}
	p.skipBlank()
	return !p.eof() && p.peek() == '='
}

func (p *parser) bare() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if unicode.IsSpace(c) || c == ',' || c == '/' || c == '!' || c == '=' || c == '(' || c == '\'' || c == '"' {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) quoted() (string, error) {
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		p.pos++
		if c != quote {
			b.WriteRune(c)
			continue
		}
		if !p.eof() && p.peek() == quote {
			b.WriteRune(quote)
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", p.errorf("unterminated string")
}

// token converts a bare token, expanding n*value repeats.
func (p *parser) token(tok string) ([]cty.Value, error) {
	if star := strings.IndexRune(tok, '*'); star > 0 {
		n, err := strconv.Atoi(tok[:star])
		if err != nil || n < 1 {
			return nil, p.errorf("invalid repeat count in %q", tok)
		}
		rest := tok[star+1:]
		var v cty.Value
		switch {
		case rest != "":
			if v, err = scalar(rest); err != nil {
				return nil, p.errorf("%v", err)
			}
		case !p.eof() && (p.peek() == '\'' || p.peek() == '"'):
			s, err := p.quoted()
			if err != nil {
				return nil, err
			}
			v = cty.StringVal(s)
		default:
			// Null values keep their position but carry nothing.
			v = cty.NullVal(cty.DynamicPseudoType)
		}
		out := make([]cty.Value, n)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
	v, err := scalar(tok)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return []cty.Value{v}, nil
}

func scalar(tok string) (cty.Value, error) {
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return cty.NumberIntVal(i), nil
	}
	num := strings.NewReplacer("d", "e", "D", "e").Replace(tok)
	if f, err := strconv.ParseFloat(num, 64); err == nil {
		return cty.NumberFloatVal(f), nil
	}
	switch strings.ToLower(strings.TrimPrefix(tok, ".")) {
	case "t", "true", "t.", "true.":
		return cty.True, nil
	case "f", "false", "f.", "false.":
		return cty.False, nil
	}
	// Unquoted strings are accepted as they appear.
	return cty.StringVal(tok), nil
}

// assemble merges the assignments of one key into a single value.
func assemble(es []entry) cty.Value {
	var vals []cty.Value
	indexed := false
	for _, e := range es {
		indexed = indexed || e.index > 0
		if e.index == 0 {
			vals = append([]cty.Value(nil), e.values...)
			continue
		}
		need := e.index - 1 + len(e.values)
		for len(vals) < need {
			vals = append(vals, cty.NullVal(cty.DynamicPseudoType))
		}
		copy(vals[e.index-1:], e.values)
	}
	switch {
	case len(vals) == 0:
		return cty.NullVal(cty.DynamicPseudoType)
	case len(vals) == 1 && !indexed:
		return vals[0]
	}
	ty := cty.NilType
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		if ty == cty.NilType {
			ty = v.Type()
		} else if !ty.Equals(v.Type()) {
			return cty.TupleVal(vals)
		}
	}
	if ty == cty.NilType {
		return cty.TupleVal(vals)
	}
	for i, v := range vals {
		if v.IsNull() {
			vals[i] = cty.NullVal(ty)
		}
	}
	return cty.ListVal(vals)
}
