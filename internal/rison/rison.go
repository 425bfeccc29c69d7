package rison

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax reports input that is not valid rison.
var ErrSyntax = errors.New("rison: syntax error")

const (
	notIDChar  = " '!:(),*@$"
	notIDStart = "-0123456789"
)

// Marshal encodes v as rison. The value is first encoded with
// encoding/json, so json struct tags apply and struct field order
// becomes the encoded key order.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return FromJSON(data)
}

// Unmarshal decodes rison data into v through encoding/json.
func Unmarshal(data []byte, v any) error {
	js, err := ToJSON(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(js, v); err != nil {
		return fmt.Errorf("decode rison value: %w", err)
	}
	return nil
}

// FromJSON converts a JSON document to rison, keeping object key order.
func FromJSON(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out bytes.Buffer
	if err := encodeValue(dec, &out); err != nil {
		return nil, fmt.Errorf("convert json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("convert json: trailing data")
	}
	return out.Bytes(), nil
}

// ToJSON converts rison to an equivalent JSON document.
func ToJSON(data []byte) ([]byte, error) {
	p := &parser{src: string(data)}
	if err := p.value(); err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q after value", p.src[p.pos])
	}
	return p.out.Bytes(), nil
}

func encodeValue(dec *json.Decoder, out *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			out.WriteByte('(')
			for first := true; dec.More(); first = false {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := keyTok.(string)
				if !ok {
					return fmt.Errorf("object key %v is not a string", keyTok)
				}
				if !first {
					out.WriteByte(',')
				}
				writeString(out, key)
				out.WriteByte(':')
				if err := encodeValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte(')')
		case '[':
			out.WriteString("!(")
			for first := true; dec.More(); first = false {
				if !first {
					out.WriteByte(',')
				}
				if err := encodeValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte(')')
		default:
			return fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		writeString(out, t)
	case json.Number:
		out.WriteString(formatNumber(string(t)))
	case bool:
		if t {
			out.WriteString("!t")
		} else {
			out.WriteString("!f")
		}
	case nil:
		out.WriteString("!n")
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
	return nil
}

// formatNumber rewrites a JSON number in rison's number syntax, which
// has a lowercase exponent and no explicit plus sign.
func formatNumber(n string) string {
	n = strings.ReplaceAll(n, "E", "e")
	return strings.ReplaceAll(n, "e+", "e")
}

func writeString(out *bytes.Buffer, s string) {
	if isIdent(s) {
		out.WriteString(s)
		return
	}
	out.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '!', '\'':
			out.WriteByte('!')
		}
		out.WriteRune(r)
	}
	out.WriteByte('\'')
}

func isIdent(s string) bool {
	if s == "" || strings.IndexByte(notIDStart, s[0]) >= 0 {
		return false
	}
	return !strings.ContainsAny(s, notIDChar)
}

type parser struct {
	src string
	pos int
	out bytes.Buffer
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) value() error {
	if p.pos >= len(p.src) {
		return p.errorf("unexpected end of input")
	}
	c := p.src[p.pos]
	switch {
	case c == '!':
		p.pos++
		if p.pos >= len(p.src) {
			return p.errorf("dangling '!'")
		}
		switch p.src[p.pos] {
		case 't':
			p.out.WriteString("true")
		case 'f':
			p.out.WriteString("false")
		case 'n':
			p.out.WriteString("null")
		case '(':
			p.pos++
			return p.array()
		default:
			return p.errorf("unknown literal !%c", p.src[p.pos])
		}
		p.pos++
		return nil
	case c == '(':
		p.pos++
		return p.object()
	case c == '\'':
		p.pos++
		s, err := p.quoted()
		if err != nil {
			return err
		}
		p.writeJSONString(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		id := p.ident()
		if id == "" {
			return p.errorf("unexpected %q", c)
		}
		p.writeJSONString(id)
		return nil
	}
}

func (p *parser) object() error {
	p.out.WriteByte('{')
	if p.peek() == ')' {
		p.pos++
		p.out.WriteByte('}')
		return nil
	}
	for {
		var key string
		if p.peek() == '\'' {
			p.pos++
			quoted, err := p.quoted()
			if err != nil {
				return err
			}
			key = quoted
		} else {
			key = p.ident()
			if key == "" {
				return p.errorf("expected object key")
			}
		}
		p.writeJSONString(key)
		if p.peek() != ':' {
			return p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		p.out.WriteByte(':')
		if err := p.value(); err != nil {
			return err
		}
		switch p.peek() {
		case ',':
			p.pos++
			p.out.WriteByte(',')
		case ')':
			p.pos++
			p.out.WriteByte('}')
			return nil
		default:
			return p.errorf("expected ',' or ')' in object")
		}
	}
}

func (p *parser) array() error {
	p.out.WriteByte('[')
	if p.peek() == ')' {
		p.pos++
		p.out.WriteByte(']')
		return nil
	}
	for {
		if err := p.value(); err != nil {
			return err
		}
		switch p.peek() {
		case ',':
			p.pos++
			p.out.WriteByte(',')
		case ')':
			p.pos++
			p.out.WriteByte(']')
			return nil
		default:
			return p.errorf("expected ',' or ')' in array")
		}
	}
}

func (p *parser) quoted() (string, error) {
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '\'':
			p.pos++
			return b.String(), nil
		case '!':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			if esc != '!' && esc != '\'' {
				return "", p.errorf("invalid string escape !%c", esc)
			}
			b.WriteByte(esc)
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *parser) number() error {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("-0123456789.e", p.src[p.pos]) >= 0 {
		p.pos++
	}
	text := p.src[start:p.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		p.pos = start
		return p.errorf("invalid number %q", text)
	}
	if !json.Valid([]byte(text)) {
		p.pos = start
		return p.errorf("invalid number %q", text)
	}
	p.out.WriteString(text)
	return nil
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(notIDChar, p.src[p.pos]) < 0 {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) writeJSONString(s string) {
	encoded, _ := json.Marshal(s)
	p.out.Write(encoded)
}
