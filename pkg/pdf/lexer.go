package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

var errUnterminated = errors.New("unterminated content stream object")

// pdfString is a string operand holding raw character codes.
type pdfString []byte

// pdfName is a name operand without its leading slash.
type pdfName string

// pdfDict is a dictionary operand. Content streams only use dictionaries as
// marked-content properties, so entries are kept only for completeness.
type pdfDict map[pdfName]any

// operation is one content stream operator with its operands. start and end
// delimit the operands and operator in the source so unchanged operations can
// be copied through verbatim.
type operation struct {
	op    string
	args  []any
	start int
	end   int
}

type lexer struct {
	data []byte
	pos  int
}

// parseContent splits a decoded content stream into operations.
func parseContent(data []byte) ([]operation, error) {
	lx := &lexer{data: data}

	var (
		ops   []operation
		args  []any
		start = -1
	)

	for {
		lx.skipSpace()
		if lx.pos >= len(lx.data) {
			return ops, nil
		}

		tokStart := lx.pos
		if start < 0 {
			start = tokStart
		}

		if isRegular(lx.data[lx.pos]) && !isNumberStart(lx.data[lx.pos]) {
			kw := lx.readKeyword()
			switch kw {
			case "true":
				args = append(args, true)
				continue
			case "false":
				args = append(args, false)
				continue
			case "null":
				args = append(args, nil)
				continue
			case "BI":
				if err := lx.skipInlineImage(); err != nil {
					return nil, err
				}
			}

			ops = append(ops, operation{op: kw, args: args, start: start, end: lx.pos})
			args = nil
			start = -1
			continue
		}

		obj, err := lx.readObject()
		if err != nil {
			return nil, err
		}
		args = append(args, obj)
	}
}

func (lx *lexer) readObject() (any, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.data) {
		return nil, errUnterminated
	}

	c := lx.data[lx.pos]
	switch {
	case c == '(':
		return lx.readLiteral()
	case c == '<':
		if lx.peek(1) == '<' {
			return lx.readDict()
		}
		return lx.readHex()
	case c == '[':
		return lx.readArray()
	case c == '/':
		return lx.readName(), nil
	case isNumberStart(c):
		return lx.readNumber()
	case isRegular(c):
		switch kw := lx.readKeyword(); kw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q inside object", kw)
		}
	default:
		return nil, fmt.Errorf("unexpected byte %q at offset %d", c, lx.pos)
	}
}

func (lx *lexer) readArray() ([]any, error) {
	lx.pos++
	arr := []any{}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.data) {
			return nil, errUnterminated
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			return arr, nil
		}
		obj, err := lx.readObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (lx *lexer) readDict() (pdfDict, error) {
	lx.pos += 2
	d := pdfDict{}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.data) {
			return nil, errUnterminated
		}
		if lx.data[lx.pos] == '>' && lx.peek(1) == '>' {
			lx.pos += 2
			return d, nil
		}
		if lx.data[lx.pos] != '/' {
			return nil, fmt.Errorf("dictionary key is not a name at offset %d", lx.pos)
		}
		key := lx.readName()
		val, err := lx.readObject()
		if err != nil {
			return nil, err
		}
		d[key] = val
	}
}

func (lx *lexer) readName() pdfName {
	lx.pos++
	var b []byte
	for lx.pos < len(lx.data) && isRegular(lx.data[lx.pos]) {
		c := lx.data[lx.pos]
		if c == '#' && lx.pos+2 < len(lx.data) {
			if v, err := strconv.ParseUint(string(lx.data[lx.pos+1:lx.pos+3]), 16, 8); err == nil {
				b = append(b, byte(v))
				lx.pos += 3
				continue
			}
		}
		b = append(b, c)
		lx.pos++
	}
	return pdfName(b)
}

func (lx *lexer) readNumber() (float64, error) {
	start := lx.pos
	for lx.pos < len(lx.data) && isNumberByte(lx.data[lx.pos]) {
		lx.pos++
	}
	s := string(lx.data[start:lx.pos])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Producers occasionally emit forms such as "--5" or "5-"; treat as zero.
		return 0, nil
	}
	return v, nil
}

func (lx *lexer) readKeyword() string {
	start := lx.pos
	for lx.pos < len(lx.data) && isRegular(lx.data[lx.pos]) {
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func (lx *lexer) readHex() (pdfString, error) {
	lx.pos++
	end := bytes.IndexByte(lx.data[lx.pos:], '>')
	if end < 0 {
		return nil, errUnterminated
	}

	var digits []byte
	for _, c := range lx.data[lx.pos : lx.pos+end] {
		if unhex(c) >= 0 {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make(pdfString, len(digits)/2)
	for i := range out {
		out[i] = byte(unhex(digits[2*i])<<4 | unhex(digits[2*i+1]))
	}

	lx.pos += end + 1
	return out, nil
}

func (lx *lexer) readLiteral() (pdfString, error) {
	lx.pos++
	var (
		out   pdfString
		depth = 1
	)

	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++

		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out, nil
			}
			out = append(out, c)
		case '\\':
			if lx.pos >= len(lx.data) {
				return nil, errUnterminated
			}
			e := lx.data[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if lx.peek(0) == '\n' {
					lx.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && lx.pos < len(lx.data); i++ {
						d := lx.data[lx.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						lx.pos++
					}
					out = append(out, byte(v))
					continue
				}
				out = append(out, e)
			}
		default:
			out = append(out, c)
		}
	}

	return nil, errUnterminated
}

// skipInlineImage advances past the dictionary, ID marker, and binary data of
// an inline image, leaving the position after the closing EI operator.
func (lx *lexer) skipInlineImage() error {
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.data) {
			return errUnterminated
		}
		if isRegular(lx.data[lx.pos]) && !isNumberStart(lx.data[lx.pos]) {
			save := lx.pos
			if lx.readKeyword() == "ID" {
				break
			}
			lx.pos = save
		}
		if _, err := lx.readObject(); err != nil {
			return err
		}
	}

	lx.pos++
	for i := lx.pos; i+1 < len(lx.data); i++ {
		if lx.data[i] != 'E' || lx.data[i+1] != 'I' {
			continue
		}
		if i > 0 && !isSpace(lx.data[i-1]) {
			continue
		}
		if i+2 < len(lx.data) && !isSpace(lx.data[i+2]) {
			continue
		}
		lx.pos = i + 2
		return nil
	}
	return errUnterminated
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *lexer) peek(offset int) byte {
	if i := lx.pos + offset; i < len(lx.data) {
		return lx.data[i]
	}
	return 0
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isSpace(c) && !isDelimiter(c)
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isNumberByte(c byte) bool {
	return isNumberStart(c)
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
