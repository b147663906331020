package engine

import "strings"

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites layout source into something zygomys reads:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols that could clash with user definitions;
//   - kebab-case identifiers become snake_case (two-sided -> two_sided),
//     since zygomys parses a bare hyphen as subtraction;
//   - ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.keyword():
		case c == '-' && p.innerHyphen():
			p.out.WriteByte('_')
			p.pos++
		default:
			p.out.WriteByte(c)
			p.pos++
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	pos int
	out strings.Builder
}

// quoted copies a string literal including both delimiters.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && p.src[p.pos] != delim {
		if escapes && p.src[p.pos] == '\\' && p.pos+1 < len(p.src) {
			p.pos++
		}
		p.pos++
	}
	if p.pos < len(p.src) {
		p.pos++
	}
	p.out.WriteString(p.src[start:p.pos])
}

// comment turns a run of semicolons into // and copies the rest of the line.
func (p *preprocessor) comment() {
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.out.WriteString("//")
	p.out.WriteString(p.src[p.pos : p.pos+end])
	p.pos += end
}

// keyword rewrites :name at the current position. It reports false, and
// writes nothing, when the colon does not start a keyword.
func (p *preprocessor) keyword() bool {
	if p.pos+1 >= len(p.src) {
		return false
	}
	if p.src[p.pos+1] == '=' {
		p.out.WriteString(":=")
		p.pos += 2
		return true
	}
	if !isLetter(p.src[p.pos+1]) {
		return false
	}
	end := p.pos + 1
	for end < len(p.src) && isKWChar(p.src[end]) {
		end++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[p.pos+1 : end])
	p.out.WriteByte('"')
	p.pos = end
	return true
}

// innerHyphen reports whether the hyphen at the current position joins two
// identifier parts rather than acting as a minus sign.
func (p *preprocessor) innerHyphen() bool {
	return p.pos > 0 && p.pos+1 < len(p.src) &&
		isIdentChar(p.src[p.pos-1]) && isLetter(p.src[p.pos+1])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
