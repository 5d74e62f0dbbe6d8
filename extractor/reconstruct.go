package extractor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"villagefeed/jsonv"
)

// IsCharacterArray reports whether obj is a JSON document split into short
// string fragments keyed by their decimal position. There is no marker for
// this encoding, so the check is purely structural.
func IsCharacterArray(obj *jsonv.Value, h Heuristics) bool {
	h = h.withDefaults()
	if !obj.IsObject() || len(obj.Members) <= h.MinCharArrayEntries {
		return false
	}
	for _, m := range obj.Members {
		if !isDigits(m.Key) {
			return false
		}
		if !m.Value.IsString() || utf8.RuneCountInString(m.Value.Str) > h.MaxFragmentLen {
			return false
		}
	}
	return true
}

type fragment struct {
	index int
	text  string
}

// Reconstruct joins the fragments of a character array in numeric key order.
func Reconstruct(obj *jsonv.Value) (string, error) {
	if !obj.IsObject() {
		return "", fmt.Errorf("character array must be an object, got %s", kindOf(obj))
	}

	frags := make([]fragment, 0, len(obj.Members))
	for _, m := range obj.Members {
		idx, err := strconv.Atoi(m.Key)
		if err != nil || idx < 0 {
			return "", fmt.Errorf("character array key %q is not an index", m.Key)
		}
		if !m.Value.IsString() {
			return "", fmt.Errorf("character array entry %d is %s, not string", idx, kindOf(m.Value))
		}
		frags = append(frags, fragment{index: idx, text: m.Value.Str})
	}

	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].index < frags[j].index
	})

	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.text)
	}
	return b.String(), nil
}

// ReconstructValue reassembles and parses a character array.
func ReconstructValue(obj *jsonv.Value) (*jsonv.Value, error) {
	text, err := Reconstruct(obj)
	if err != nil {
		return nil, &ReconstructError{Err: err}
	}
	return parseReconstructed(text)
}

func parseReconstructed(text string) (*jsonv.Value, error) {
	v, err := jsonv.ParseString(text)
	if err != nil {
		prefix := text
		if len(prefix) > 200 {
			prefix = prefix[:200]
		}
		return nil, &ReconstructError{Length: len(text), Prefix: prefix, Err: err}
	}
	return v, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func kindOf(v *jsonv.Value) string {
	if v == nil {
		return "missing"
	}
	return v.Kind.String()
}
