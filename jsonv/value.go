// Package jsonv decodes JSON into an ordered tagged variant. Object members
// keep document order, which keeps every walk over decoded data
// deterministic.
package jsonv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

type Member struct {
	Key   string
	Value *Value
}

// Value is one decoded JSON node. Only the field matching Kind is set.
type Value struct {
	Kind    Kind
	Bool    bool
	Num     json.Number
	Str     string
	Items   []*Value
	Members []Member

	text    string
	hasText bool
}

// MaxNesting bounds how deeply arrays and objects may nest in a document.
const MaxNesting = 10000

// ErrTooDeep is returned when a document nests past MaxNesting.
var ErrTooDeep = errors.New("jsonv: exceeded max nesting depth")

func NewString(s string) *Value { return &Value{Kind: String, Str: s} }

func NewNumber(n string) *Value { return &Value{Kind: Number, Num: json.Number(n)} }

func NewBool(b bool) *Value { return &Value{Kind: Bool, Bool: b} }

func NewNull() *Value { return &Value{Kind: Null} }

func NewArray(items ...*Value) *Value { return &Value{Kind: Array, Items: items} }

func NewObject(members ...Member) *Value { return &Value{Kind: Object, Members: members} }

// Parse decodes a single JSON document. Trailing non-whitespace is an error.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decode(dec, 0)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, errors.New("jsonv: trailing data after document")
		}
		return nil, fmt.Errorf("jsonv: trailing data: %w", err)
	}
	return v, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Value, error) {
	return Parse([]byte(s))
}

func decode(dec *json.Decoder, depth int) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxNesting {
			return nil, ErrTooDeep
		}
		switch t {
		case '{':
			v := &Value{Kind: Object}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("jsonv: object key is %T", kt)
				}
				child, err := decode(dec, depth+1)
				if err != nil {
					return nil, err
				}
				v.Members = append(v.Members, Member{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		case '[':
			v := &Value{Kind: Array}
			for dec.More() {
				child, err := decode(dec, depth+1)
				if err != nil {
					return nil, err
				}
				v.Items = append(v.Items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		}
		return nil, fmt.Errorf("jsonv: unexpected delimiter %q", t)
	case string:
		return &Value{Kind: String, Str: t}, nil
	case json.Number:
		return &Value{Kind: Number, Num: t}, nil
	case bool:
		return &Value{Kind: Bool, Bool: t}, nil
	case nil:
		return &Value{Kind: Null}, nil
	}
	return nil, fmt.Errorf("jsonv: unexpected token %T", tok)
}

func (v *Value) IsObject() bool { return v != nil && v.Kind == Object }

func (v *Value) IsArray() bool { return v != nil && v.Kind == Array }

func (v *Value) IsString() bool { return v != nil && v.Kind == String }

// Len is the member count of an object or the item count of an array.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.Kind {
	case Object:
		return len(v.Members)
	case Array:
		return len(v.Items)
	}
	return 0
}

// Get returns the member named key, or nil. A duplicated key resolves to its
// last occurrence.
func (v *Value) Get(key string) *Value {
	if !v.IsObject() {
		return nil
	}
	for i := len(v.Members) - 1; i >= 0; i-- {
		if v.Members[i].Key == key {
			return v.Members[i].Value
		}
	}
	return nil
}

// Path follows nested object keys.
func (v *Value) Path(keys ...string) *Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Int returns a number truncated to int.
func (v *Value) Int() (int, bool) {
	if v == nil || v.Kind != Number {
		return 0, false
	}
	if i, err := v.Num.Int64(); err == nil {
		return int(i), true
	}
	f, err := v.Num.Float64()
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Text is the compact JSON serialization of v, memoized per node.
func (v *Value) Text() string {
	if v == nil {
		return "null"
	}
	if v.hasText {
		return v.text
	}
	var b strings.Builder
	v.write(&b)
	v.text = b.String()
	v.hasText = true
	return v.text
}

func (v *Value) write(b *strings.Builder) {
	switch v.Kind {
	case Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case Number:
		b.WriteString(v.Num.String())
	case String:
		writeQuoted(b, v.Str)
	case Array:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			if item.hasText {
				b.WriteString(item.text)
			} else {
				item.write(b)
			}
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeQuoted(b, m.Key)
			b.WriteByte(':')
			if m.Value.hasText {
				b.WriteString(m.Value.text)
			} else {
				m.Value.write(b)
			}
		}
		b.WriteByte('}')
	}
}

const hexDigits = "0123456789abcdef"

// writeQuoted escapes the way browsers' JSON.stringify does: quotes,
// backslashes and control characters only.
func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\b':
				b.WriteString(`\b`)
			case '\f':
				b.WriteString(`\f`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				if c < 0x20 {
					b.WriteString(`\u00`)
					b.WriteByte(hexDigits[c>>4])
					b.WriteByte(hexDigits[c&0xF])
				} else {
					b.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`�`)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
}

// MarshalJSON lets a Value be embedded in encoding/json output.
func (v *Value) MarshalJSON() ([]byte, error) {
	return []byte(v.Text()), nil
}
