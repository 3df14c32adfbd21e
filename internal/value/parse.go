package value

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// ErrorKind classifies a parse failure. The set is closed.
// ErrorKind implements error so callers can match with errors.Is.
type ErrorKind int

const (
	ErrUnexpectedEnd ErrorKind = iota + 1
	ErrInvalidValue
	ErrInvalidKey
	ErrInvalidObject
	ErrInvalidArray
	ErrInvalidNumber
	ErrExpectedColon
)

func (k ErrorKind) Error() string {
	switch k {
	case ErrUnexpectedEnd:
		return "unexpected end of input"
	case ErrInvalidValue:
		return "invalid value"
	case ErrInvalidKey:
		return "invalid object key"
	case ErrInvalidObject:
		return "invalid object"
	case ErrInvalidArray:
		return "invalid array"
	case ErrInvalidNumber:
		return "invalid number"
	case ErrExpectedColon:
		return "expected ':'"
	default:
		return "unknown parse error"
	}
}

// SyntaxError reports the first failure encountered by Parse.
type SyntaxError struct {
	Kind   ErrorKind
	Offset int // rune offset of the cursor when parsing stopped
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("value: %s at offset %d", e.Kind.Error(), e.Offset)
}

// Unwrap exposes the kind to errors.Is.
func (e *SyntaxError) Unwrap() error { return e.Kind }

// KindOf extracts the ErrorKind from err, or 0 if err is not a parse error.
func KindOf(err error) ErrorKind {
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return 0
}

// Parse reads one value from src. Content after the first complete value
// is ignored.
func Parse(src string) (Value, error) {
	p := &parser{input: []rune(src)}
	p.skipWhitespace()
	return p.parseValue()
}

type parser struct {
	input []rune
	pos   int
}

func (p *parser) fail(kind ErrorKind) error {
	return &SyntaxError{Kind: kind, Offset: p.pos}
}

func (p *parser) atEnd() bool { return p.pos >= len(p.input) }

// peek returns the rune under the cursor; callers check atEnd first.
func (p *parser) peek() rune { return p.input[p.pos] }

func (p *parser) skipWhitespace() {
	for !p.atEnd() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) parseValue() (Value, error) {
	p.skipWhitespace()
	if p.atEnd() {
		return Value{}, p.fail(ErrUnexpectedEnd)
	}

	switch c := p.peek(); {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		return Text(s), nil
	case c == 't' || c == 'f':
		return p.parseBool()
	case c == 'n':
		return p.parseNull()
	case unicode.IsNumber(c) || c == '-':
		return p.parseNumber()
	default:
		return Value{}, p.fail(ErrInvalidValue)
	}
}

func (p *parser) parseObject() (Value, error) {
	obj := make(map[string]Value)
	p.pos++ // '{'
	p.skipWhitespace()

	if p.atEnd() {
		return Value{}, p.fail(ErrUnexpectedEnd)
	}
	if p.peek() == '}' {
		p.pos++
		return Mapping(obj), nil
	}

	for {
		p.skipWhitespace()
		if p.atEnd() {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		if p.peek() != '"' {
			return Value{}, p.fail(ErrInvalidKey)
		}
		key, err := p.parseString()
		if err != nil {
			return Value{}, err
		}

		p.skipWhitespace()
		if p.atEnd() {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		if p.peek() != ':' {
			return Value{}, p.fail(ErrExpectedColon)
		}
		p.pos++

		item, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		obj[key] = item

		p.skipWhitespace()
		if p.atEnd() {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return Mapping(obj), nil
		default:
			return Value{}, p.fail(ErrInvalidObject)
		}
	}
}

func (p *parser) parseArray() (Value, error) {
	arr := []Value{}
	p.pos++ // '['
	p.skipWhitespace()

	if p.atEnd() {
		return Value{}, p.fail(ErrUnexpectedEnd)
	}
	if p.peek() == ']' {
		p.pos++
		return List(arr...), nil
	}

	for {
		item, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, item)

		p.skipWhitespace()
		if p.atEnd() {
			return Value{}, p.fail(ErrUnexpectedEnd)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return List(arr...), nil
		default:
			return Value{}, p.fail(ErrInvalidArray)
		}
	}
}

// parseString copies runes up to the closing quote. A backslash makes the
// following rune literal, so `\n` yields "n" rather than a newline.
func (p *parser) parseString() (string, error) {
	p.pos++ // opening quote
	var out []rune

	for !p.atEnd() {
		c := p.peek()
		switch c {
		case '"':
			p.pos++
			return string(out), nil
		case '\\':
			p.pos++
			if p.atEnd() {
				return "", p.fail(ErrUnexpectedEnd)
			}
			out = append(out, p.peek())
			p.pos++
		default:
			out = append(out, c)
			p.pos++
		}
	}
	return "", p.fail(ErrUnexpectedEnd)
}

// parseNumber consumes every rune that can appear in a numeric literal
// without checking their order, then lets strconv decide.
func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	for !p.atEnd() && isNumberRune(p.peek()) {
		p.pos++
	}

	n, err := strconv.ParseFloat(string(p.input[start:p.pos]), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Value{}, p.fail(ErrInvalidNumber)
	}
	return Number(n), nil
}

func isNumberRune(c rune) bool {
	return unicode.IsNumber(c) || c == '.' || c == '-' || c == 'e' || c == 'E' || c == '+'
}

func (p *parser) parseBool() (Value, error) {
	switch {
	case p.matches("true"):
		p.pos += 4
		return Bool(true), nil
	case p.matches("false"):
		p.pos += 5
		return Bool(false), nil
	}
	return Value{}, p.fail(ErrInvalidValue)
}

func (p *parser) parseNull() (Value, error) {
	if p.matches("null") {
		p.pos += 4
		return Null(), nil
	}
	return Value{}, p.fail(ErrInvalidValue)
}

func (p *parser) matches(lit string) bool {
	want := []rune(lit)
	if p.pos+len(want) > len(p.input) {
		return false
	}
	for i, r := range want {
		if p.input[p.pos+i] != r {
			return false
		}
	}
	return true
}
